// Package loyalty implements the points and stamps ledger.
package loyalty

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/common/logger"
	"github.com/fidelizapp/fideliza-backend/internal/common/metrics"
	"github.com/fidelizapp/fideliza-backend/internal/common/utils"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
)

// LoyaltyService mutates customer balances and reward state.
type LoyaltyService struct {
	db                  *gorm.DB
	metrics             *metrics.Metrics
	defaultValidityDays int
}

// NewLoyaltyService creates a LoyaltyService.
func NewLoyaltyService(db *gorm.DB, m *metrics.Metrics, defaultValidityDays int) *LoyaltyService {
	if defaultValidityDays <= 0 {
		defaultValidityDays = 30
	}
	return &LoyaltyService{
		db:                  db,
		metrics:             m,
		defaultValidityDays: defaultValidityDays,
	}
}

// ComputePoints returns the points a purchase of the given base amount earns
// under the program settings. Stamp programs award one stamp per qualifying
// purchase regardless of amount. Point programs award floor(base / value per
// point); a non-positive rate awards nothing.
func ComputePoints(cfg *models.EstablishmentConfig, base float64) int {
	if base <= 0 {
		return 0
	}
	switch cfg.ProgramType {
	case models.ProgramTypeCarimbo:
		return 1
	case models.ProgramTypePontuacao:
		if cfg.ValuePerPoint <= 0 {
			return 0
		}
		return int(math.Floor(base / cfg.ValuePerPoint))
	default:
		return 0
	}
}

// AccrualResult reports the outcome of an accrual.
type AccrualResult struct {
	PointsEarned int        `json:"points_earned"`
	NewBalance   int        `json:"new_balance"`
	RewardArmed  bool       `json:"reward_armed"`
	RewardExpiry *time.Time `json:"reward_expiry,omitempty"`
}

// AccrueTx records points for a purchase inside the caller's transaction.
// Stamp programs arm the reward when the balance lands exactly on the
// threshold; point programs never arm through accrual.
func (s *LoyaltyService) AccrueTx(ctx context.Context, tx *gorm.DB, cfg *models.EstablishmentConfig, customerID int64, base float64) (*AccrualResult, error) {
	points := ComputePoints(cfg, base)
	result := &AccrualResult{PointsEarned: points}
	loyaltyRepo := repository.NewLoyaltyRepository(tx)
	if points == 0 {
		loyalty, err := loyaltyRepo.Get(ctx, cfg.EstablishmentID, customerID)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao carregar fidelidade", err)
		}
		result.NewBalance = loyalty.PointsBalance
		return result, nil
	}

	if err := loyaltyRepo.AddPoints(ctx, cfg.EstablishmentID, customerID, points); err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao creditar pontos", err)
	}

	loyalty, err := loyaltyRepo.Get(ctx, cfg.EstablishmentID, customerID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao carregar fidelidade", err)
	}
	result.NewBalance = loyalty.PointsBalance

	if cfg.ProgramType == models.ProgramTypeCarimbo &&
		!loyalty.RewardReady && loyalty.PointsBalance == cfg.StampsForReward {
		validity := cfg.RewardValidityDays
		if validity <= 0 {
			validity = s.defaultValidityDays
		}
		expiresAt := time.Now().AddDate(0, 0, validity)
		armed, err := loyaltyRepo.ArmReward(ctx, cfg.EstablishmentID, customerID, loyalty.PointsBalance, expiresAt)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao liberar recompensa", err)
		}
		if armed {
			result.RewardArmed = true
			result.RewardExpiry = &expiresAt
		}
	}

	if s.metrics != nil {
		s.metrics.RecordPointsAwarded(points)
	}

	return result, nil
}

// RedeemResult reports the outcome of a redemption.
type RedeemResult struct {
	PointsUsed   int    `json:"points_used"`
	NewBalance   int    `json:"new_balance"`
	RedemptionID int64  `json:"redemption_id"`
	Description  string `json:"description,omitempty"`
}

// Redeem consumes an armed reward. Stamp programs consume the threshold and
// carry any remainder; point programs consume the full balance. The reward
// must be armed and unexpired.
func (s *LoyaltyService) Redeem(ctx context.Context, establishmentID, customerID int64, createdBy int64) (*RedeemResult, error) {
	var result *RedeemResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loyaltyRepo := repository.NewLoyaltyRepository(tx)
		estRepo := repository.NewEstablishmentRepository(tx)

		cfg, err := estRepo.GetConfig(ctx, establishmentID)
		if err != nil {
			return errors.ErrConfigNotFound
		}

		loyalty, err := loyaltyRepo.Get(ctx, establishmentID, customerID)
		if err != nil {
			return errors.ErrLoyaltyNotFound
		}
		if !loyalty.RewardReady {
			return errors.ErrRewardNotAvailable
		}
		if loyalty.RewardExpiresAt != nil && !loyalty.RewardExpiresAt.After(time.Now()) {
			return errors.ErrRewardExpired
		}

		pointsUsed := loyalty.PointsBalance
		if cfg.ProgramType == models.ProgramTypeCarimbo && cfg.StampsForReward < pointsUsed {
			pointsUsed = cfg.StampsForReward
		}
		if pointsUsed <= 0 {
			return errors.ErrRewardNotAvailable
		}
		newBalance := loyalty.PointsBalance - pointsUsed

		ok, err := loyaltyRepo.RedeemPoints(ctx, establishmentID, customerID, pointsUsed)
		if err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao resgatar recompensa", err)
		}
		if !ok {
			return errors.ErrBalanceConflict
		}

		description := cfg.RewardDescription
		if description == "" {
			description = "Resgate de recompensa"
		}

		txRepo := repository.NewTransactionRepository(tx)
		redemptionTx := &models.Transaction{
			TransactionNo:   utils.GenerateTransactionNo("RS"),
			EstablishmentID: establishmentID,
			CustomerID:      &customerID,
			Type:            models.TransactionTypeResgate,
			Status:          models.TransactionStatusRealizada,
			PointsMoved:     -pointsUsed,
			BalanceAfter:    newBalance,
			Description:     description,
			CreatedBy:       createdBy,
		}
		if err := txRepo.Create(ctx, redemptionTx); err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao registrar resgate", err)
		}

		redemption := &models.RewardRedemption{
			CustomerID:      customerID,
			EstablishmentID: establishmentID,
			PointsUsed:      pointsUsed,
			TransactionID:   &redemptionTx.ID,
		}
		if err := loyaltyRepo.CreateRedemption(ctx, redemption); err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao registrar resgate", err)
		}

		result = &RedeemResult{
			PointsUsed:   pointsUsed,
			NewBalance:   newBalance,
			RedemptionID: redemption.ID,
			Description:  description,
		}

		if s.metrics != nil {
			s.metrics.RecordRewardRedeemed(cfg.ProgramType)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("recompensa resgatada",
		logger.EstablishmentID(establishmentID),
		logger.CustomerID(customerID),
		logger.Int("points_used", result.PointsUsed),
	)
	return result, nil
}

// ExpireOverdueRewards sweeps rewards past their deadline, zeroing balances
// and writing audit rows. Returns how many rewards expired. A pass where no
// row could be claimed or audited stops the sweep so persistent per-row
// failures cannot loop over the same listing forever.
func (s *LoyaltyService) ExpireOverdueRewards(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	now := time.Now()
	expired := 0

	for {
		records, err := repository.NewLoyaltyRepository(s.db).ListExpired(ctx, now, batchSize)
		if err != nil {
			return expired, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao listar recompensas vencidas", err)
		}
		if len(records) == 0 {
			return expired, nil
		}

		failures := 0
		for _, record := range records {
			record := record
			err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				loyaltyRepo := repository.NewLoyaltyRepository(tx)

				claimed, err := loyaltyRepo.ClaimExpired(ctx, record.ID, now)
				if err != nil {
					return err
				}
				if !claimed {
					// Redeemed or already swept between listing and claiming.
					return nil
				}

				if err := loyaltyRepo.CreateRedemption(ctx, &models.RewardRedemption{
					CustomerID:      record.CustomerID,
					EstablishmentID: record.EstablishmentID,
					PointsUsed:      record.PointsBalance,
					Expired:         true,
				}); err != nil {
					return err
				}

				expired++
				if s.metrics != nil {
					s.metrics.RecordRewardsExpired(1)
				}
				return nil
			})
			if err != nil {
				failures++
				logger.Error("falha ao expirar recompensa",
					logger.CustomerID(record.CustomerID),
					logger.Err(err),
				)
			}
		}

		if failures == len(records) {
			return expired, errors.ErrDatabaseError.WithMessage("Falha ao expirar recompensas vencidas")
		}
		if len(records) < batchSize {
			return expired, nil
		}
	}
}

// Balance returns the loyalty state of a customer of the given tenant.
func (s *LoyaltyService) Balance(ctx context.Context, establishmentID, customerID int64) (*models.CustomerLoyalty, error) {
	loyalty, err := repository.NewLoyaltyRepository(s.db).Get(ctx, establishmentID, customerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCustomerNotFound
		}
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao carregar fidelidade", err)
	}
	return loyalty, nil
}

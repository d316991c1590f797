package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/models"
)

// LoyaltyRepository accesses loyalty ledger rows and redemption audit rows.
// Every row is keyed by the (customer, establishment) pair. Balance mutations
// use guarded updates and report via RowsAffected so callers can detect
// concurrent modification.
type LoyaltyRepository struct {
	db *gorm.DB
}

// NewLoyaltyRepository creates a LoyaltyRepository.
func NewLoyaltyRepository(db *gorm.DB) *LoyaltyRepository {
	return &LoyaltyRepository{db: db}
}

// Create inserts a ledger row for a customer joining an establishment.
func (r *LoyaltyRepository) Create(ctx context.Context, loyalty *models.CustomerLoyalty) error {
	return r.db.WithContext(ctx).Create(loyalty).Error
}

// Get loads the ledger row of a (customer, establishment) pair.
func (r *LoyaltyRepository) Get(ctx context.Context, establishmentID, customerID int64) (*models.CustomerLoyalty, error) {
	var loyalty models.CustomerLoyalty
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND establishment_id = ?", customerID, establishmentID).
		First(&loyalty).Error
	if err != nil {
		return nil, err
	}
	return &loyalty, nil
}

// GetByStatusToken loads a ledger row by its public card token, with the
// customer attached.
func (r *LoyaltyRepository) GetByStatusToken(ctx context.Context, token string) (*models.CustomerLoyalty, error) {
	var loyalty models.CustomerLoyalty
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Where("status_token = ?", token).
		First(&loyalty).Error
	if err != nil {
		return nil, err
	}
	return &loyalty, nil
}

// AddPoints increments the balance and lifetime earned counters and stamps
// the ledger activity time.
func (r *LoyaltyRepository) AddPoints(ctx context.Context, establishmentID, customerID int64, points int) error {
	return r.db.WithContext(ctx).Model(&models.CustomerLoyalty{}).
		Where("customer_id = ? AND establishment_id = ?", customerID, establishmentID).
		Updates(map[string]interface{}{
			"points_balance":      gorm.Expr("points_balance + ?", points),
			"total_earned":        gorm.Expr("total_earned + ?", points),
			"last_transaction_at": time.Now(),
		}).Error
}

// ArmReward marks the reward available, guarded on the balance still being
// the value observed by the caller. Returns false when another writer moved
// the balance first.
func (r *LoyaltyRepository) ArmReward(ctx context.Context, establishmentID, customerID int64, expectedBalance int, expiresAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.CustomerLoyalty{}).
		Where("customer_id = ? AND establishment_id = ? AND points_balance = ? AND reward_ready = ?",
			customerID, establishmentID, expectedBalance, false).
		Updates(map[string]interface{}{
			"reward_ready":      true,
			"reward_expires_at": expiresAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RedeemPoints consumes points from an armed reward, bumping the redemption
// counters. The guard requires the reward to be armed and the balance to
// cover the redemption. Returns false when the guard fails.
func (r *LoyaltyRepository) RedeemPoints(ctx context.Context, establishmentID, customerID int64, points int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.CustomerLoyalty{}).
		Where("customer_id = ? AND establishment_id = ? AND reward_ready = ? AND points_balance >= ?",
			customerID, establishmentID, true, points).
		Updates(map[string]interface{}{
			"points_balance":      gorm.Expr("points_balance - ?", points),
			"total_redeemed":      gorm.Expr("total_redeemed + ?", points),
			"redemption_count":    gorm.Expr("redemption_count + 1"),
			"last_transaction_at": time.Now(),
			"reward_ready":        false,
			"reward_expires_at":   nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ClaimExpired zeroes an overdue reward balance. The guard on reward_ready and
// the deadline keeps a concurrent redeem or a second sweep from double
// claiming the same record. Returns whether the claim won.
func (r *LoyaltyRepository) ClaimExpired(ctx context.Context, loyaltyID int64, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.CustomerLoyalty{}).
		Where("id = ? AND reward_ready = ? AND reward_expires_at <= ?", loyaltyID, true, now).
		Updates(map[string]interface{}{
			"points_balance":    0,
			"reward_ready":      false,
			"reward_expires_at": nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListExpired returns ledger rows whose armed reward passed its deadline.
func (r *LoyaltyRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.CustomerLoyalty, error) {
	var records []*models.CustomerLoyalty
	err := r.db.WithContext(ctx).
		Where("reward_ready = ? AND reward_expires_at <= ?", true, now).
		Order("reward_expires_at ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// CreateRedemption records a redemption audit row.
func (r *LoyaltyRepository) CreateRedemption(ctx context.Context, redemption *models.RewardRedemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

// ListRedemptions returns the redemption history of an establishment.
func (r *LoyaltyRepository) ListRedemptions(ctx context.Context, establishmentID int64, offset, limit int) ([]*models.RewardRedemption, int64, error) {
	var redemptions []*models.RewardRedemption
	var total int64

	query := r.db.WithContext(ctx).Model(&models.RewardRedemption{}).
		Where("establishment_id = ?", establishmentID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&redemptions).Error; err != nil {
		return nil, 0, err
	}

	return redemptions, total, nil
}

// SumRedeemedPoints totals points consumed by redemptions in a period.
func (r *LoyaltyRepository) SumRedeemedPoints(ctx context.Context, establishmentID int64, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.RewardRedemption{}).
		Where("establishment_id = ? AND expired = ? AND created_at BETWEEN ? AND ?", establishmentID, false, from, to).
		Select("COALESCE(SUM(points_used), 0)").
		Scan(&total).Error
	return total, err
}

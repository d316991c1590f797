// Package transaction records sales, adjustments and their history.
package transaction

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/common/logger"
	"github.com/fidelizapp/fideliza-backend/internal/common/metrics"
	"github.com/fidelizapp/fideliza-backend/internal/common/utils"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
	"github.com/fidelizapp/fideliza-backend/internal/service/loyalty"
)

// TransactionService records purchases and serves the history.
type TransactionService struct {
	db         *gorm.DB
	loyaltySvc *loyalty.LoyaltyService
	cardSvc    *loyalty.CardService
	metrics    *metrics.Metrics
}

// NewTransactionService creates a TransactionService. cardSvc may be nil when
// card regeneration is not wanted.
func NewTransactionService(db *gorm.DB, loyaltySvc *loyalty.LoyaltyService, cardSvc *loyalty.CardService, m *metrics.Metrics) *TransactionService {
	return &TransactionService{
		db:         db,
		loyaltySvc: loyaltySvc,
		cardSvc:    cardSvc,
		metrics:    m,
	}
}

// SaleItem is one line of a sale.
type SaleItem struct {
	ServiceID int64 `json:"service_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

// RecordSaleRequest registers a completed purchase.
type RecordSaleRequest struct {
	CustomerID     int64      `json:"customer_id"`
	ProfessionalID int64      `json:"professional_id"`
	Items          []SaleItem `json:"items"`
	Subtotal       float64    `json:"subtotal"`
	Discount       float64    `json:"discount"`
	Description    string     `json:"description"`
}

// SaleResponse is the outcome of a recorded sale.
type SaleResponse struct {
	Transaction *models.Transaction    `json:"transaction"`
	Accrual     *loyalty.AccrualResult `json:"accrual,omitempty"`
}

// RecordSale registers a purchase, snapshots its items and credits loyalty
// points over the discounted total. The discount may not exceed the subtotal.
func (s *TransactionService) RecordSale(ctx context.Context, establishmentID, createdBy int64, req *RecordSaleRequest) (*SaleResponse, error) {
	if req.Subtotal < 0 || req.Discount < 0 {
		return nil, errors.ErrAmountInvalid
	}

	var response *SaleResponse
	programType := ""

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		estRepo := repository.NewEstablishmentRepository(tx)
		est, err := estRepo.GetByIDWithConfig(ctx, establishmentID)
		if err != nil {
			return errors.ErrEstablishmentNotFound
		}
		if !est.IsOperational() {
			return errors.ErrEstablishmentInactive
		}

		catalogRepo := repository.NewCatalogRepository(tx)
		activeCount, err := catalogRepo.CountActiveProfessionals(ctx, establishmentID)
		if err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao consultar profissionais", err)
		}
		if activeCount == 0 {
			return errors.ErrNoActiveProfessional
		}

		var professionalID *int64
		if req.ProfessionalID > 0 {
			professional, err := catalogRepo.GetProfessionalByID(ctx, establishmentID, req.ProfessionalID)
			if err != nil || !professional.Active {
				return errors.ErrProfessionalNotFound
			}
			professionalID = &professional.ID
		}

		items, subtotal, err := s.resolveItems(ctx, tx, establishmentID, req.Items)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			subtotal = req.Subtotal
		}
		if req.Discount > subtotal {
			return errors.ErrDiscountExceeds
		}
		total := subtotal - req.Discount

		sale := &models.Transaction{
			TransactionNo:   utils.GenerateTransactionNo("TX"),
			EstablishmentID: establishmentID,
			ProfessionalID:  professionalID,
			Type:            models.TransactionTypeCompra,
			Status:          models.TransactionStatusRealizada,
			Subtotal:        subtotal,
			Discount:        req.Discount,
			Total:           total,
			Description:     req.Description,
			CreatedBy:       createdBy,
			Items:           items,
		}

		var accrual *loyalty.AccrualResult
		if req.CustomerID > 0 {
			customerRepo := repository.NewCustomerRepository(tx)
			customer, err := customerRepo.GetByID(ctx, establishmentID, req.CustomerID)
			if err != nil {
				return errors.ErrCustomerNotFound
			}
			sale.CustomerID = &customer.ID

			if est.Config == nil {
				return errors.ErrConfigNotFound
			}
			programType = est.Config.ProgramType
			accrual, err = s.loyaltySvc.AccrueTx(ctx, tx, est.Config, customer.ID, total)
			if err != nil {
				return err
			}
			sale.PointsMoved = accrual.PointsEarned
			sale.BalanceAfter = accrual.NewBalance
		}

		txRepo := repository.NewTransactionRepository(tx)
		if err := txRepo.Create(ctx, sale); err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao registrar transação", err)
		}

		response = &SaleResponse{Transaction: sale, Accrual: accrual}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTransaction(models.TransactionTypeCompra)
	}
	logger.Info("venda registrada",
		logger.EstablishmentID(establishmentID),
		logger.TransactionNo(response.Transaction.TransactionNo),
		logger.Float64("total", response.Transaction.Total),
		logger.Int("points_moved", response.Transaction.PointsMoved),
	)

	// Stamp programs print the card with its progress, so a new stamp makes
	// the stored image stale. Regeneration must not fail the sale.
	if s.cardSvc != nil && response.Transaction.CustomerID != nil &&
		programType == models.ProgramTypeCarimbo && response.Accrual != nil {
		if _, err := s.cardSvc.RenderCard(ctx, establishmentID, *response.Transaction.CustomerID); err != nil {
			logger.Warn("falha ao regenerar cartão de fidelidade",
				logger.EstablishmentID(establishmentID),
				logger.CustomerID(*response.Transaction.CustomerID),
				logger.Err(err),
			)
		}
	}
	return response, nil
}

// resolveItems validates services and snapshots name, price and duration.
// Returns the items and the subtotal they sum to.
func (s *TransactionService) resolveItems(ctx context.Context, tx *gorm.DB, establishmentID int64, items []SaleItem) ([]models.TransactionItem, float64, error) {
	if len(items) == 0 {
		return nil, 0, nil
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ServiceID)
	}

	catalogRepo := repository.NewCatalogRepository(tx)
	services, err := catalogRepo.GetServicesByIDs(ctx, establishmentID, ids)
	if err != nil {
		return nil, 0, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao carregar serviços", err)
	}
	byID := make(map[int64]*models.Service, len(services))
	for _, service := range services {
		byID[service.ID] = service
	}

	result := make([]models.TransactionItem, 0, len(items))
	var subtotal float64
	for _, item := range items {
		service, ok := byID[item.ServiceID]
		if !ok {
			return nil, 0, errors.ErrServiceNotFound
		}
		if !service.Active {
			return nil, 0, errors.ErrServiceInactive
		}
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		result = append(result, models.TransactionItem{
			ServiceID:   service.ID,
			ServiceName: service.Name,
			Quantity:    quantity,
			UnitPrice:   service.Price,
			DurationMin: service.DurationMin,
		})
		subtotal += service.Price * float64(quantity)
	}

	return result, subtotal, nil
}

// AdjustPointsRequest manually corrects a customer balance.
type AdjustPointsRequest struct {
	CustomerID int64  `json:"customer_id" binding:"required"`
	Points     int    `json:"points" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
}

// AdjustPoints applies a manual balance correction and records it as an
// adjustment transaction. Negative points debit the balance but never below
// zero.
func (s *TransactionService) AdjustPoints(ctx context.Context, establishmentID, createdBy int64, req *AdjustPointsRequest) (*models.Transaction, error) {
	if req.Points == 0 {
		return nil, errors.ErrInvalidParams
	}

	var adjustment *models.Transaction

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customerRepo := repository.NewCustomerRepository(tx)
		customer, err := customerRepo.GetByID(ctx, establishmentID, req.CustomerID)
		if err != nil {
			return errors.ErrCustomerNotFound
		}

		loyaltyRepo := repository.NewLoyaltyRepository(tx)
		current, err := loyaltyRepo.Get(ctx, establishmentID, customer.ID)
		if err != nil {
			return errors.ErrLoyaltyNotFound
		}

		points := req.Points
		if points < 0 && current.PointsBalance+points < 0 {
			points = -current.PointsBalance
		}
		if err := loyaltyRepo.AddPoints(ctx, establishmentID, customer.ID, points); err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao ajustar pontos", err)
		}

		adjustment = &models.Transaction{
			TransactionNo:   utils.GenerateTransactionNo("AJ"),
			EstablishmentID: establishmentID,
			CustomerID:      &customer.ID,
			Type:            models.TransactionTypeAjuste,
			Status:          models.TransactionStatusRealizada,
			PointsMoved:     points,
			BalanceAfter:    current.PointsBalance + points,
			Description:     req.Reason,
			CreatedBy:       createdBy,
		}
		txRepo := repository.NewTransactionRepository(tx)
		if err := txRepo.Create(ctx, adjustment); err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao registrar ajuste", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordTransaction(models.TransactionTypeAjuste)
	}
	return adjustment, nil
}

// HistoryRequest filters the transaction history.
type HistoryRequest struct {
	Type           string
	Status         string
	CustomerID     int64
	CustomerQuery  string
	ProfessionalID int64
	ServiceID      int64
	From           *time.Time
	To             *time.Time
	Page           int
	PageSize       int
}

// History lists transactions of a tenant, newest first.
func (s *TransactionService) History(ctx context.Context, establishmentID int64, req *HistoryRequest) ([]*models.Transaction, int64, error) {
	pagination := utils.Pagination{Page: req.Page, PageSize: req.PageSize}
	pagination.Normalize()

	filter, err := s.buildFilter(ctx, establishmentID, req)
	if err != nil {
		return nil, 0, err
	}
	if filter == nil {
		return []*models.Transaction{}, 0, nil
	}

	txRepo := repository.NewTransactionRepository(s.db)
	return txRepo.List(ctx, establishmentID, pagination.GetOffset(), pagination.GetLimit(), *filter)
}

// buildFilter resolves the customer search into ids. A nil filter means the
// search matched nobody and the listing is empty.
func (s *TransactionService) buildFilter(ctx context.Context, establishmentID int64, req *HistoryRequest) (*repository.TransactionFilter, error) {
	filter := &repository.TransactionFilter{
		Type:           req.Type,
		Status:         req.Status,
		CustomerID:     req.CustomerID,
		ProfessionalID: req.ProfessionalID,
		ServiceID:      req.ServiceID,
		From:           req.From,
		To:             req.To,
	}

	if req.CustomerQuery != "" {
		customerRepo := repository.NewCustomerRepository(s.db)
		ids, err := customerRepo.SearchIDs(ctx, establishmentID, req.CustomerQuery)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao buscar clientes", err)
		}
		if len(ids) == 0 {
			return nil, nil
		}
		filter.CustomerIDs = ids
	}

	return filter, nil
}

// Get loads one transaction of a tenant.
func (s *TransactionService) Get(ctx context.Context, establishmentID, id int64) (*models.Transaction, error) {
	txRepo := repository.NewTransactionRepository(s.db)
	tx, err := txRepo.GetByID(ctx, establishmentID, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao carregar transação", err)
	}
	return tx, nil
}

// Stats aggregates completed sales over a period.
func (s *TransactionService) Stats(ctx context.Context, establishmentID int64, from, to time.Time) (*repository.PeriodStats, error) {
	txRepo := repository.NewTransactionRepository(s.db)
	stats, err := txRepo.Stats(ctx, establishmentID, from, to)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao calcular estatísticas", err)
	}
	return stats, nil
}

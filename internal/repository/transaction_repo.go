package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/models"
)

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	Type           string
	Status         string
	CustomerID     int64
	CustomerIDs    []int64
	ProfessionalID int64
	ServiceID      int64
	From           *time.Time
	To             *time.Time
	// Scheduled selects rows by their appointment slot instead of creation
	// time. Future keeps slots from now onward, otherwise past slots.
	Scheduled bool
	Future    bool
	Now       time.Time
}

// TransactionRepository accesses transactions and their items.
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a TransactionRepository.
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a transaction together with its items.
func (r *TransactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

// GetByID loads a transaction with customer, professional and items.
func (r *TransactionRepository) GetByID(ctx context.Context, establishmentID, id int64) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Professional").
		Preload("Items").
		Where("establishment_id = ?", establishmentID).
		First(&transaction, id).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// GetByNo loads a transaction by its public number.
func (r *TransactionRepository) GetByNo(ctx context.Context, transactionNo string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("transaction_no = ?", transactionNo).
		First(&transaction).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *TransactionRepository) buildQuery(ctx context.Context, establishmentID int64, filter TransactionFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("transactions.establishment_id = ?", establishmentID)

	if filter.Type != "" {
		query = query.Where("transactions.type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("transactions.status = ?", filter.Status)
	}
	if filter.CustomerID > 0 {
		query = query.Where("transactions.customer_id = ?", filter.CustomerID)
	}
	if len(filter.CustomerIDs) > 0 {
		query = query.Where("transactions.customer_id IN ?", filter.CustomerIDs)
	}
	if filter.ProfessionalID > 0 {
		query = query.Where("transactions.professional_id = ?", filter.ProfessionalID)
	}
	if filter.ServiceID > 0 {
		query = query.Where("transactions.id IN (?)",
			r.db.Model(&models.TransactionItem{}).
				Select("transaction_id").
				Where("service_id = ?", filter.ServiceID))
	}

	if filter.Scheduled {
		if filter.Future {
			query = query.Where("transactions.scheduled_at >= ?", filter.Now)
		} else {
			query = query.Where("transactions.scheduled_at IS NOT NULL AND transactions.scheduled_at < ?", filter.Now)
		}
	}
	if filter.From != nil {
		query = query.Where("COALESCE(transactions.scheduled_at, transactions.created_at) >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("COALESCE(transactions.scheduled_at, transactions.created_at) <= ?", *filter.To)
	}

	return query
}

// List returns a page of transactions matching the filter.
func (r *TransactionRepository) List(ctx context.Context, establishmentID int64, offset, limit int, filter TransactionFilter) ([]*models.Transaction, int64, error) {
	var transactions []*models.Transaction
	var total int64

	query := r.buildQuery(ctx, establishmentID, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "transactions.id DESC"
	if filter.Scheduled && filter.Future {
		order = "transactions.scheduled_at ASC"
	}

	err := query.
		Preload("Customer").
		Preload("Professional").
		Preload("Items").
		Order(order).
		Offset(offset).
		Limit(limit).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// ListForExport returns up to limit rows matching the filter, oldest first.
func (r *TransactionRepository) ListForExport(ctx context.Context, establishmentID int64, limit int, filter TransactionFilter) ([]*models.Transaction, int64, error) {
	var transactions []*models.Transaction
	var total int64

	query := r.buildQuery(ctx, establishmentID, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Customer").
		Preload("Professional").
		Order("COALESCE(transactions.scheduled_at, transactions.created_at) ASC").
		Limit(limit).
		Find(&transactions).Error
	if err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

// FindOverlapping returns active bookings of a professional whose slot
// intersects the half-open interval [start, end). Cancelled bookings and the
// booking being rescheduled are excluded.
func (r *TransactionRepository) FindOverlapping(ctx context.Context, establishmentID, professionalID int64, start, end time.Time, excludeID int64) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	query := r.db.WithContext(ctx).
		Where("establishment_id = ? AND professional_id = ?", establishmentID, professionalID).
		Where("status <> ?", models.TransactionStatusCancelada).
		Where("scheduled_at < ? AND scheduled_end_at > ?", end, start)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Find(&transactions).Error
	return transactions, err
}

// UpdateStatus moves a transaction to a new status guarded on its current one.
// Returns false when the row was not in the expected status.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id int64, from []string, to string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Update persists the full transaction record.
func (r *TransactionRepository) Update(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Save(transaction).Error
}

// UpdateFields patches selected columns.
func (r *TransactionRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// ReplaceItems swaps the item rows of a transaction.
func (r *TransactionRepository) ReplaceItems(ctx context.Context, transactionID int64, items []models.TransactionItem) error {
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Delete(&models.TransactionItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].TransactionID = transactionID
	}
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// PeriodStats aggregates revenue and points for reporting.
type PeriodStats struct {
	TransactionCount int64   `json:"transaction_count"`
	Revenue          float64 `json:"revenue"`
	PointsEarned     int64   `json:"points_earned"`
}

// Stats sums completed sales of a tenant in a period. Points count only the
// credits; redemption debits stay out of the awarded total.
func (r *TransactionRepository) Stats(ctx context.Context, establishmentID int64, from, to time.Time) (*PeriodStats, error) {
	var stats PeriodStats
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("establishment_id = ? AND status = ? AND created_at BETWEEN ? AND ?",
			establishmentID, models.TransactionStatusRealizada, from, to).
		Select("COUNT(*) AS transaction_count, COALESCE(SUM(total), 0) AS revenue, COALESCE(SUM(CASE WHEN points_moved > 0 THEN points_moved ELSE 0 END), 0) AS points_earned").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// CountAll returns the platform-wide transaction count.
func (r *TransactionRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).Count(&count).Error
	return count, err
}

// ListUpcoming returns confirmed or pending bookings starting inside the
// window, for reminder dispatch.
func (r *TransactionRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Professional").
		Where("scheduled_at >= ? AND scheduled_at < ?", from, to).
		Where("status IN ?", []string{models.TransactionStatusAgendada, models.TransactionStatusConfirmada}).
		Find(&transactions).Error
	return transactions, err
}

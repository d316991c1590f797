package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/models"
)

// LogFilter narrows audit log listings.
type LogFilter struct {
	EstablishmentID int64
	UserID          int64
	Module          string
	Action          string
	From            *time.Time
	To              *time.Time
}

// LogRepository accesses establishment audit logs.
type LogRepository struct {
	db *gorm.DB
}

// NewLogRepository creates a LogRepository.
func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

// Create inserts an audit log entry.
func (r *LogRepository) Create(ctx context.Context, log *models.EstablishmentLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *LogRepository) buildQuery(ctx context.Context, filter LogFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.EstablishmentLog{})

	if filter.EstablishmentID > 0 {
		query = query.Where("establishment_id = ?", filter.EstablishmentID)
	}
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Module != "" {
		query = query.Where("module = ?", filter.Module)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}

	return query
}

// List returns a page of audit log entries, newest first.
func (r *LogRepository) List(ctx context.Context, offset, limit int, filter LogFilter) ([]*models.EstablishmentLog, int64, error) {
	var logs []*models.EstablishmentLog
	var total int64

	query := r.buildQuery(ctx, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// ListForExport returns up to limit entries matching the filter, oldest first.
func (r *LogRepository) ListForExport(ctx context.Context, limit int, filter LogFilter) ([]*models.EstablishmentLog, int64, error) {
	var logs []*models.EstablishmentLog
	var total int64

	query := r.buildQuery(ctx, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id ASC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// DeleteOlderThan prunes audit entries older than the cutoff.
func (r *LogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.EstablishmentLog{})
	return result.RowsAffected, result.Error
}

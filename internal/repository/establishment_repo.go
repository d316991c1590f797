package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/models"
)

// EstablishmentRepository accesses tenants and their program config.
type EstablishmentRepository struct {
	db *gorm.DB
}

// NewEstablishmentRepository creates an EstablishmentRepository.
func NewEstablishmentRepository(db *gorm.DB) *EstablishmentRepository {
	return &EstablishmentRepository{db: db}
}

// Create inserts an establishment.
func (r *EstablishmentRepository) Create(ctx context.Context, est *models.Establishment) error {
	return r.db.WithContext(ctx).Create(est).Error
}

// GetByID loads an establishment by id.
func (r *EstablishmentRepository) GetByID(ctx context.Context, id int64) (*models.Establishment, error) {
	var est models.Establishment
	err := r.db.WithContext(ctx).First(&est, id).Error
	if err != nil {
		return nil, err
	}
	return &est, nil
}

// GetByIDWithConfig loads an establishment with its program config.
func (r *EstablishmentRepository) GetByIDWithConfig(ctx context.Context, id int64) (*models.Establishment, error) {
	var est models.Establishment
	err := r.db.WithContext(ctx).Preload("Config").First(&est, id).Error
	if err != nil {
		return nil, err
	}
	return &est, nil
}

// GetBySlug loads an establishment by slug.
func (r *EstablishmentRepository) GetBySlug(ctx context.Context, slug string) (*models.Establishment, error) {
	var est models.Establishment
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&est).Error
	if err != nil {
		return nil, err
	}
	return &est, nil
}

// ExistsBySlug reports whether a slug is taken.
func (r *EstablishmentRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Establishment{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// Update persists the full establishment record.
func (r *EstablishmentRepository) Update(ctx context.Context, est *models.Establishment) error {
	return r.db.WithContext(ctx).Save(est).Error
}

// UpdateFields updates selected columns.
func (r *EstablishmentRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Establishment{}).Where("id = ?", id).Updates(fields).Error
}

// List returns establishments filtered by status and name.
func (r *EstablishmentRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.Establishment, int64, error) {
	var ests []*models.Establishment
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Establishment{})

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if name, ok := filters["query"].(string); ok && name != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+name+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&ests).Error; err != nil {
		return nil, 0, err
	}

	return ests, total, nil
}

// CountByStatus returns tenant counts grouped by status.
func (r *EstablishmentRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&models.Establishment{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, rw := range rows {
		result[rw.Status] = rw.Count
	}
	return result, nil
}

// CreateConfig inserts a program config.
func (r *EstablishmentRepository) CreateConfig(ctx context.Context, cfg *models.EstablishmentConfig) error {
	return r.db.WithContext(ctx).Create(cfg).Error
}

// GetConfig loads a tenant's program config.
func (r *EstablishmentRepository) GetConfig(ctx context.Context, establishmentID int64) (*models.EstablishmentConfig, error) {
	var cfg models.EstablishmentConfig
	err := r.db.WithContext(ctx).Where("establishment_id = ?", establishmentID).First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpdateConfig persists the full program config.
func (r *EstablishmentRepository) UpdateConfig(ctx context.Context, cfg *models.EstablishmentConfig) error {
	return r.db.WithContext(ctx).Save(cfg).Error
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/models"
)

// CatalogRepository accesses services and professionals of an establishment.
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a CatalogRepository.
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// CreateService inserts a service.
func (r *CatalogRepository) CreateService(ctx context.Context, service *models.Service) error {
	return r.db.WithContext(ctx).Create(service).Error
}

// GetServiceByID loads a service scoped to its establishment.
func (r *CatalogRepository) GetServiceByID(ctx context.Context, establishmentID, id int64) (*models.Service, error) {
	var service models.Service
	err := r.db.WithContext(ctx).
		Where("establishment_id = ?", establishmentID).
		First(&service, id).Error
	if err != nil {
		return nil, err
	}
	return &service, nil
}

// GetServicesByIDs loads a batch of services of a tenant.
func (r *CatalogRepository) GetServicesByIDs(ctx context.Context, establishmentID int64, ids []int64) ([]*models.Service, error) {
	var services []*models.Service
	err := r.db.WithContext(ctx).
		Where("establishment_id = ? AND id IN ?", establishmentID, ids).
		Find(&services).Error
	return services, err
}

// UpdateService persists the full service record.
func (r *CatalogRepository) UpdateService(ctx context.Context, service *models.Service) error {
	return r.db.WithContext(ctx).Save(service).Error
}

// ListServices returns services of a tenant. When activeOnly is set, inactive
// services are hidden.
func (r *CatalogRepository) ListServices(ctx context.Context, establishmentID int64, offset, limit int, activeOnly bool) ([]*models.Service, int64, error) {
	var services []*models.Service
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Service{}).
		Where("establishment_id = ?", establishmentID)
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&services).Error; err != nil {
		return nil, 0, err
	}

	return services, total, nil
}

// CreateProfessional inserts a professional.
func (r *CatalogRepository) CreateProfessional(ctx context.Context, professional *models.Professional) error {
	return r.db.WithContext(ctx).Create(professional).Error
}

// GetProfessionalByID loads a professional scoped to its establishment.
func (r *CatalogRepository) GetProfessionalByID(ctx context.Context, establishmentID, id int64) (*models.Professional, error) {
	var professional models.Professional
	err := r.db.WithContext(ctx).
		Where("establishment_id = ?", establishmentID).
		First(&professional, id).Error
	if err != nil {
		return nil, err
	}
	return &professional, nil
}

// CountActiveProfessionals returns how many active professionals a tenant has.
func (r *CatalogRepository) CountActiveProfessionals(ctx context.Context, establishmentID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Professional{}).
		Where("establishment_id = ? AND active = ?", establishmentID, true).
		Count(&count).Error
	return count, err
}

// UpdateProfessional persists the full professional record.
func (r *CatalogRepository) UpdateProfessional(ctx context.Context, professional *models.Professional) error {
	return r.db.WithContext(ctx).Save(professional).Error
}

// ListProfessionals returns professionals of a tenant.
func (r *CatalogRepository) ListProfessionals(ctx context.Context, establishmentID int64, offset, limit int, activeOnly bool) ([]*models.Professional, int64, error) {
	var professionals []*models.Professional
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Professional{}).
		Where("establishment_id = ?", establishmentID)
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("name ASC").Offset(offset).Limit(limit).Find(&professionals).Error; err != nil {
		return nil, 0, err
	}

	return professionals, total, nil
}

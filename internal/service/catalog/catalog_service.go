// Package catalog manages the services and professionals of a tenant.
package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/common/utils"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
)

// CatalogService maintains services and professionals.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ServiceRequest creates or edits a service.
type ServiceRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	DurationMin int     `json:"duration_min"`
	Active      *bool   `json:"active,omitempty"`
}

// CreateService adds a service to the catalog.
func (s *CatalogService) CreateService(ctx context.Context, establishmentID int64, req *ServiceRequest) (*models.Service, error) {
	if req.Price < 0 {
		return nil, errors.ErrAmountInvalid
	}
	duration := req.DurationMin
	if duration <= 0 {
		duration = 30
	}

	service := &models.Service{
		EstablishmentID: establishmentID,
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DurationMin:     duration,
		Active:          true,
	}
	if req.Active != nil {
		service.Active = *req.Active
	}

	if err := repository.NewCatalogRepository(s.db).CreateService(ctx, service); err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao criar serviço", err)
	}
	return service, nil
}

// UpdateService edits a service.
func (s *CatalogService) UpdateService(ctx context.Context, establishmentID, serviceID int64, req *ServiceRequest) (*models.Service, error) {
	if req.Price < 0 {
		return nil, errors.ErrAmountInvalid
	}

	repo := repository.NewCatalogRepository(s.db)
	service, err := repo.GetServiceByID(ctx, establishmentID, serviceID)
	if err != nil {
		return nil, errors.ErrServiceNotFound
	}

	service.Name = req.Name
	service.Description = req.Description
	service.Price = req.Price
	if req.DurationMin > 0 {
		service.DurationMin = req.DurationMin
	}
	if req.Active != nil {
		service.Active = *req.Active
	}

	if err := repo.UpdateService(ctx, service); err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao atualizar serviço", err)
	}
	return service, nil
}

// ListServices pages through the catalog.
func (s *CatalogService) ListServices(ctx context.Context, establishmentID int64, page, pageSize int, activeOnly bool) ([]*models.Service, int64, error) {
	pagination := utils.Pagination{Page: page, PageSize: pageSize}
	pagination.Normalize()

	return repository.NewCatalogRepository(s.db).
		ListServices(ctx, establishmentID, pagination.GetOffset(), pagination.GetLimit(), activeOnly)
}

// ProfessionalRequest creates or edits a professional.
type ProfessionalRequest struct {
	Name     string  `json:"name" binding:"required"`
	WhatsApp *string `json:"whatsapp,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

// CreateProfessional adds a professional to the team.
func (s *CatalogService) CreateProfessional(ctx context.Context, establishmentID int64, req *ProfessionalRequest) (*models.Professional, error) {
	professional := &models.Professional{
		EstablishmentID: establishmentID,
		Name:            req.Name,
		Active:          true,
	}
	if req.WhatsApp != nil {
		normalized := utils.NormalizeWhatsApp(*req.WhatsApp)
		if !utils.ValidateWhatsApp(normalized) {
			return nil, errors.ErrWhatsAppInvalid
		}
		professional.WhatsApp = &normalized
	}
	if req.Active != nil {
		professional.Active = *req.Active
	}

	if err := repository.NewCatalogRepository(s.db).CreateProfessional(ctx, professional); err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao criar profissional", err)
	}
	return professional, nil
}

// UpdateProfessional edits a professional. Deactivating keeps past bookings
// intact but blocks new ones.
func (s *CatalogService) UpdateProfessional(ctx context.Context, establishmentID, professionalID int64, req *ProfessionalRequest) (*models.Professional, error) {
	repo := repository.NewCatalogRepository(s.db)
	professional, err := repo.GetProfessionalByID(ctx, establishmentID, professionalID)
	if err != nil {
		return nil, errors.ErrProfessionalNotFound
	}

	professional.Name = req.Name
	if req.WhatsApp != nil {
		normalized := utils.NormalizeWhatsApp(*req.WhatsApp)
		if !utils.ValidateWhatsApp(normalized) {
			return nil, errors.ErrWhatsAppInvalid
		}
		professional.WhatsApp = &normalized
	}
	if req.Active != nil {
		professional.Active = *req.Active
	}

	if err := repo.UpdateProfessional(ctx, professional); err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao atualizar profissional", err)
	}
	return professional, nil
}

// ListProfessionals pages through the team.
func (s *CatalogService) ListProfessionals(ctx context.Context, establishmentID int64, page, pageSize int, activeOnly bool) ([]*models.Professional, int64, error) {
	pagination := utils.Pagination{Page: page, PageSize: pageSize}
	pagination.Normalize()

	return repository.NewCatalogRepository(s.db).
		ListProfessionals(ctx, establishmentID, pagination.GetOffset(), pagination.GetLimit(), activeOnly)
}

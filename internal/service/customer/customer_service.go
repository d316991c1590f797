// Package customer manages the customer base of each establishment.
package customer

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/common/logger"
	"github.com/fidelizapp/fideliza-backend/internal/common/utils"
	"github.com/fidelizapp/fideliza-backend/internal/models"
	"github.com/fidelizapp/fideliza-backend/internal/repository"
)

// CustomerService registers and queries customers. Customers are global
// identities keyed by WhatsApp number; joining an establishment creates the
// (customer, establishment) ledger row.
type CustomerService struct {
	db *gorm.DB
}

// NewCustomerService creates a CustomerService.
func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{db: db}
}

// CreateCustomerRequest registers a customer in the loyalty program.
type CreateCustomerRequest struct {
	Name      string     `json:"name" binding:"required"`
	WhatsApp  string     `json:"whatsapp" binding:"required"`
	Email     *string    `json:"email,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
}

// Create enrolls a customer in the establishment's program. The WhatsApp
// number is normalized to digits with the country code; a customer already
// known to the platform is reused and only gains a new ledger row. Enrolling
// the same number twice in one establishment fails.
func (s *CustomerService) Create(ctx context.Context, establishmentID int64, req *CreateCustomerRequest) (*models.Customer, error) {
	whatsapp := utils.NormalizeWhatsApp(req.WhatsApp)
	if !utils.ValidateWhatsApp(whatsapp) {
		return nil, errors.ErrWhatsAppInvalid
	}

	var customer *models.Customer

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customerRepo := repository.NewCustomerRepository(tx)

		existing, err := customerRepo.GetGlobalByWhatsApp(ctx, whatsapp)
		switch {
		case err == nil:
			customer = existing
		case err == gorm.ErrRecordNotFound:
			customer = &models.Customer{
				Name:      req.Name,
				WhatsApp:  whatsapp,
				Email:     req.Email,
				BirthDate: req.BirthDate,
			}
			if err := customerRepo.Create(ctx, customer); err != nil {
				return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao cadastrar cliente", err)
			}
		default:
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao consultar cliente", err)
		}

		loyaltyRepo := repository.NewLoyaltyRepository(tx)
		if _, err := loyaltyRepo.Get(ctx, establishmentID, customer.ID); err == nil {
			return errors.ErrCustomerExists
		} else if err != gorm.ErrRecordNotFound {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao consultar fidelidade", err)
		}

		loyalty := &models.CustomerLoyalty{
			CustomerID:      customer.ID,
			EstablishmentID: establishmentID,
			StatusToken:     utils.GenerateStatusToken(),
		}
		if err := loyaltyRepo.Create(ctx, loyalty); err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao abrir fidelidade", err)
		}
		customer.Loyalty = loyalty
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("cliente cadastrado",
		logger.EstablishmentID(establishmentID),
		logger.CustomerID(customer.ID),
	)
	return customer, nil
}

// UpdateCustomerRequest edits customer contact data.
type UpdateCustomerRequest struct {
	Name      *string    `json:"name,omitempty"`
	WhatsApp  *string    `json:"whatsapp,omitempty"`
	Email     *string    `json:"email,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
}

// Update edits a customer of the tenant. A new WhatsApp number is normalized
// and must not collide with another customer of the platform.
func (s *CustomerService) Update(ctx context.Context, establishmentID, customerID int64, req *UpdateCustomerRequest) (*models.Customer, error) {
	var customer *models.Customer

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customerRepo := repository.NewCustomerRepository(tx)

		var err error
		customer, err = customerRepo.GetByID(ctx, establishmentID, customerID)
		if err != nil {
			return errors.ErrCustomerNotFound
		}

		if req.Name != nil {
			customer.Name = *req.Name
		}
		if req.Email != nil {
			customer.Email = req.Email
		}
		if req.BirthDate != nil {
			customer.BirthDate = req.BirthDate
		}
		if req.WhatsApp != nil {
			whatsapp := utils.NormalizeWhatsApp(*req.WhatsApp)
			if !utils.ValidateWhatsApp(whatsapp) {
				return errors.ErrWhatsAppInvalid
			}
			if whatsapp != customer.WhatsApp {
				if existing, err := customerRepo.GetGlobalByWhatsApp(ctx, whatsapp); err == nil && existing.ID != customer.ID {
					return errors.ErrCustomerExists
				} else if err != nil && err != gorm.ErrRecordNotFound {
					return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao consultar cliente", err)
				}
				customer.WhatsApp = whatsapp
			}
		}

		if err := customerRepo.Update(ctx, customer); err != nil {
			return errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao atualizar cliente", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// Get loads a customer with its loyalty balance.
func (s *CustomerService) Get(ctx context.Context, establishmentID, customerID int64) (*models.Customer, error) {
	customer, err := repository.NewCustomerRepository(s.db).GetByIDWithLoyalty(ctx, establishmentID, customerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCustomerNotFound
		}
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao carregar cliente", err)
	}
	return customer, nil
}

// FindByWhatsApp locates a customer of the tenant by number, normalizing the
// input first.
func (s *CustomerService) FindByWhatsApp(ctx context.Context, establishmentID int64, whatsapp string) (*models.Customer, error) {
	normalized := utils.NormalizeWhatsApp(whatsapp)
	customer, err := repository.NewCustomerRepository(s.db).GetByWhatsApp(ctx, establishmentID, normalized)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCustomerNotFound
		}
		return nil, errors.Wrap(errors.ErrDatabaseError.Code, "Falha ao carregar cliente", err)
	}
	return customer, nil
}

// List pages through the customer base, optionally searching by name or
// WhatsApp fragment.
func (s *CustomerService) List(ctx context.Context, establishmentID int64, page, pageSize int, search string) ([]*models.Customer, int64, error) {
	pagination := utils.Pagination{Page: page, PageSize: pageSize}
	pagination.Normalize()

	return repository.NewCustomerRepository(s.db).
		List(ctx, establishmentID, pagination.GetOffset(), pagination.GetLimit(), search)
}

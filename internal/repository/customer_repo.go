package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/models"
)

// CustomerRepository accesses the global customer base. Tenant-scoped reads
// resolve visibility through the customer_loyalty pair row: a customer exists
// for an establishment only when a loyalty row ties the two.
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a CustomerRepository.
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create inserts a customer.
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *CustomerRepository) scoped(ctx context.Context, establishmentID int64) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Customer{}).
		Joins("JOIN customer_loyalty ON customer_loyalty.customer_id = customers.id AND customer_loyalty.establishment_id = ?", establishmentID)
}

// GetByID loads a customer visible to the establishment.
func (r *CustomerRepository) GetByID(ctx context.Context, establishmentID, id int64) (*models.Customer, error) {
	var customer models.Customer
	err := r.scoped(ctx, establishmentID).
		Where("customers.id = ?", id).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetByIDWithLoyalty loads a customer with its ledger row for the tenant.
func (r *CustomerRepository) GetByIDWithLoyalty(ctx context.Context, establishmentID, id int64) (*models.Customer, error) {
	customer, err := r.GetByID(ctx, establishmentID, id)
	if err != nil {
		return nil, err
	}
	var loyalty models.CustomerLoyalty
	if err := r.db.WithContext(ctx).
		Where("customer_id = ? AND establishment_id = ?", id, establishmentID).
		First(&loyalty).Error; err != nil {
		return nil, err
	}
	customer.Loyalty = &loyalty
	return customer, nil
}

// GetByWhatsApp loads a customer of the establishment by normalized number.
func (r *CustomerRepository) GetByWhatsApp(ctx context.Context, establishmentID int64, whatsapp string) (*models.Customer, error) {
	var customer models.Customer
	err := r.scoped(ctx, establishmentID).
		Where("customers.whats_app = ?", whatsapp).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetGlobalByWhatsApp loads a customer by number across all tenants.
func (r *CustomerRepository) GetGlobalByWhatsApp(ctx context.Context, whatsapp string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("whats_app = ?", whatsapp).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// Update persists the full customer record.
func (r *CustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

// List returns customers of a tenant with their ledger rows, optionally
// matching name or WhatsApp.
func (r *CustomerRepository) List(ctx context.Context, establishmentID int64, offset, limit int, search string) ([]*models.Customer, int64, error) {
	var loyaltyRows []*models.CustomerLoyalty
	var total int64

	query := r.db.WithContext(ctx).Model(&models.CustomerLoyalty{}).
		Joins("JOIN customers ON customers.id = customer_loyalty.customer_id").
		Where("customer_loyalty.establishment_id = ?", establishmentID)

	if search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(customers.name) LIKE LOWER(?) OR customers.whats_app LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Customer").Order("customer_loyalty.id DESC").Offset(offset).Limit(limit).Find(&loyaltyRows).Error; err != nil {
		return nil, 0, err
	}

	customers := make([]*models.Customer, 0, len(loyaltyRows))
	for _, row := range loyaltyRows {
		if row.Customer == nil {
			continue
		}
		customer := row.Customer
		row.Customer = nil
		customer.Loyalty = row
		customers = append(customers, customer)
	}
	return customers, total, nil
}

// SearchIDs returns ids of tenant customers matching a name or WhatsApp
// fragment.
func (r *CustomerRepository) SearchIDs(ctx context.Context, establishmentID int64, search string) ([]int64, error) {
	var ids []int64
	like := "%" + search + "%"
	err := r.scoped(ctx, establishmentID).
		Where("LOWER(customers.name) LIKE LOWER(?) OR customers.whats_app LIKE ?", like, like).
		Pluck("customers.id", &ids).Error
	return ids, err
}

// Count returns the customer count of a tenant.
func (r *CustomerRepository) Count(ctx context.Context, establishmentID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CustomerLoyalty{}).
		Where("establishment_id = ?", establishmentID).
		Count(&count).Error
	return count, err
}

// CountAll returns the platform-wide customer count.
func (r *CustomerRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Customer{}).Count(&count).Error
	return count, err
}

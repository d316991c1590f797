// Package repository provides the data access layer.
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/fidelizapp/fideliza-backend/internal/models"
)

// UserRepository accesses panel user accounts.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID loads a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail loads a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update persists the full user record.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdateFields updates selected columns.
func (r *UserRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// ExistsByEmail reports whether an email is taken.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// List returns users filtered by establishment and role.
func (r *UserRepository) List(ctx context.Context, offset, limit int, filters map[string]interface{}) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := r.db.WithContext(ctx).Model(&models.User{})

	if establishmentID, ok := filters["establishment_id"].(int64); ok && establishmentID > 0 {
		query = query.Where("establishment_id = ?", establishmentID)
	}
	if role, ok := filters["role"].(string); ok && role != "" {
		query = query.Where("role = ?", role)
	}
	if active, ok := filters["active"].(bool); ok {
		query = query.Where("active = ?", active)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// CreateInvitation inserts an invitation.
func (r *UserRepository) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

// GetInvitationByCode loads an invitation by code.
func (r *UserRepository) GetInvitationByCode(ctx context.Context, code string) (*models.Invitation, error) {
	var inv models.Invitation
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// MarkInvitationUsed consumes an invitation exactly once.
func (r *UserRepository) MarkInvitationUsed(ctx context.Context, id int64, usedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", usedAt)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

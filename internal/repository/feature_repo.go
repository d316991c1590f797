package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fidelizapp/fideliza-backend/internal/models"
)

// FeatureRepository accesses feature flag definitions and tenant overrides.
type FeatureRepository struct {
	db *gorm.DB
}

// NewFeatureRepository creates a FeatureRepository.
func NewFeatureRepository(db *gorm.DB) *FeatureRepository {
	return &FeatureRepository{db: db}
}

// CreateFeature inserts a flag definition.
func (r *FeatureRepository) CreateFeature(ctx context.Context, feature *models.Feature) error {
	return r.db.WithContext(ctx).Create(feature).Error
}

// GetFeatureByKey loads a flag definition.
func (r *FeatureRepository) GetFeatureByKey(ctx context.Context, key string) (*models.Feature, error) {
	var feature models.Feature
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&feature).Error
	if err != nil {
		return nil, err
	}
	return &feature, nil
}

// ListFeatures returns all flag definitions.
func (r *FeatureRepository) ListFeatures(ctx context.Context) ([]*models.Feature, error) {
	var features []*models.Feature
	err := r.db.WithContext(ctx).Order("key ASC").Find(&features).Error
	return features, err
}

// UpdateFeatureDefault changes the platform-wide default of a flag.
func (r *FeatureRepository) UpdateFeatureDefault(ctx context.Context, key string, enabled bool) error {
	return r.db.WithContext(ctx).Model(&models.Feature{}).
		Where("key = ?", key).
		Update("default_enabled", enabled).Error
}

// GetOverride loads a tenant override of a flag, if present.
func (r *FeatureRepository) GetOverride(ctx context.Context, establishmentID int64, key string) (*models.EstablishmentFeature, error) {
	var override models.EstablishmentFeature
	err := r.db.WithContext(ctx).
		Where("establishment_id = ? AND feature_key = ?", establishmentID, key).
		First(&override).Error
	if err != nil {
		return nil, err
	}
	return &override, nil
}

// SetOverride upserts a tenant override.
func (r *FeatureRepository) SetOverride(ctx context.Context, establishmentID int64, key string, enabled bool) error {
	override := models.EstablishmentFeature{
		EstablishmentID: establishmentID,
		FeatureKey:      key,
		Enabled:         enabled,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "establishment_id"}, {Name: "feature_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
	}).Create(&override).Error
}

// DeleteOverride removes a tenant override so the default applies again.
func (r *FeatureRepository) DeleteOverride(ctx context.Context, establishmentID int64, key string) error {
	return r.db.WithContext(ctx).
		Where("establishment_id = ? AND feature_key = ?", establishmentID, key).
		Delete(&models.EstablishmentFeature{}).Error
}

// ListOverrides returns the overrides of a tenant.
func (r *FeatureRepository) ListOverrides(ctx context.Context, establishmentID int64) ([]*models.EstablishmentFeature, error) {
	var overrides []*models.EstablishmentFeature
	err := r.db.WithContext(ctx).
		Where("establishment_id = ?", establishmentID).
		Order("feature_key ASC").
		Find(&overrides).Error
	return overrides, err
}

package models

import (
	"time"
)

// Feature is a platform-wide feature flag definition.
type Feature struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Key            string    `gorm:"type:varchar(60);uniqueIndex;not null" json:"key"`
	Description    string    `gorm:"type:varchar(255);not null;default:''" json:"description"`
	DefaultEnabled bool      `gorm:"not null;default:false" json:"default_enabled"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName implements gorm table naming.
func (Feature) TableName() string {
	return "features"
}

// Known feature keys.
const (
	FeatureScheduling    = "scheduling"
	FeatureExports       = "exports"
	FeatureNotifications = "notifications"
	FeatureLoyaltyCard   = "loyalty_card"
)

// EstablishmentFeature overrides a feature flag for one tenant.
type EstablishmentFeature struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EstablishmentID int64     `gorm:"not null;uniqueIndex:uq_est_feature" json:"establishment_id"`
	FeatureKey      string    `gorm:"type:varchar(60);not null;uniqueIndex:uq_est_feature" json:"feature_key"`
	Enabled         bool      `gorm:"not null" json:"enabled"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName implements gorm table naming.
func (EstablishmentFeature) TableName() string {
	return "establishment_features"
}

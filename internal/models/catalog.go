package models

import (
	"time"
)

// Service is a sellable service of an establishment.
type Service struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EstablishmentID int64     `gorm:"index;not null" json:"establishment_id"`
	Name            string    `gorm:"type:varchar(100);not null" json:"name"`
	Description     string    `gorm:"type:varchar(500)" json:"description,omitempty"`
	Price           float64   `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	DurationMin     int       `gorm:"not null;default:30" json:"duration_minutes"`
	Active          bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName implements gorm table naming.
func (Service) TableName() string {
	return "services"
}

// Professional performs services for an establishment.
type Professional struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EstablishmentID int64     `gorm:"index;not null" json:"establishment_id"`
	Name            string    `gorm:"type:varchar(100);not null" json:"name"`
	WhatsApp        *string   `gorm:"type:varchar(20)" json:"whatsapp,omitempty"`
	Active          bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName implements gorm table naming.
func (Professional) TableName() string {
	return "professionals"
}

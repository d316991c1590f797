package models

import (
	"time"
)

// Establishment is a tenant of the platform.
type Establishment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(60);uniqueIndex;not null" json:"slug"`
	Status    string    `gorm:"type:varchar(20);not null;default:'trial'" json:"status"`
	WhatsApp  *string   `gorm:"type:varchar(20)" json:"whatsapp,omitempty"`
	Email     *string   `gorm:"type:varchar(255)" json:"email,omitempty"`
	LogoURL   *string   `gorm:"type:varchar(500)" json:"logo_url,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Config *EstablishmentConfig `gorm:"foreignKey:EstablishmentID" json:"config,omitempty"`
}

// TableName implements gorm table naming.
func (Establishment) TableName() string {
	return "establishments"
}

// EstablishmentStatus values.
const (
	EstablishmentStatusAtivo   = "ativo"
	EstablishmentStatusInativo = "inativo"
	EstablishmentStatusTrial   = "trial"
)

// IsOperational reports whether the tenant can record transactions.
func (e *Establishment) IsOperational() bool {
	return e.Status == EstablishmentStatusAtivo || e.Status == EstablishmentStatusTrial
}

// EstablishmentConfig holds the loyalty program settings of a tenant.
type EstablishmentConfig struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EstablishmentID    int64     `gorm:"uniqueIndex;not null" json:"establishment_id"`
	ProgramType        string    `gorm:"type:varchar(20);not null;default:'Pontuacao'" json:"program_type"`
	ValuePerPoint      float64   `gorm:"type:decimal(12,2);not null;default:0" json:"value_per_point"`
	StampsForReward    int       `gorm:"not null;default:10" json:"stamps_for_reward"`
	RewardDescription  string    `gorm:"type:varchar(255);not null;default:''" json:"reward_description"`
	RewardValidityDays int       `gorm:"not null;default:30" json:"reward_validity_days"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName implements gorm table naming.
func (EstablishmentConfig) TableName() string {
	return "establishment_configs"
}

// ProgramType values.
const (
	ProgramTypePontuacao = "Pontuacao"
	ProgramTypeCarimbo   = "Carimbo"
)

// EstablishmentLog is an audit trail entry scoped to a tenant.
type EstablishmentLog struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EstablishmentID int64     `gorm:"index;not null" json:"establishment_id"`
	UserID          *int64    `gorm:"index" json:"user_id,omitempty"`
	Module          string    `gorm:"type:varchar(40);not null" json:"module"`
	Action          string    `gorm:"type:varchar(40);not null" json:"action"`
	TargetType      *string   `gorm:"type:varchar(40)" json:"target_type,omitempty"`
	TargetID        *int64    `json:"target_id,omitempty"`
	Details         JSON      `gorm:"type:jsonb" json:"details,omitempty"`
	IP              string    `gorm:"type:varchar(45);not null;default:''" json:"ip"`
	UserAgent       *string   `gorm:"type:varchar(255)" json:"user_agent,omitempty"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName implements gorm table naming.
func (EstablishmentLog) TableName() string {
	return "establishment_logs"
}

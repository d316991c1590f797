// Package models defines the persistence models.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// User is an account that can sign in to the panel.
type User struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email           string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash    string     `gorm:"type:varchar(255);not null" json:"-"`
	Name            string     `gorm:"type:varchar(100);not null" json:"name"`
	Role            string     `gorm:"type:varchar(20);not null;default:'lojista'" json:"role"`
	EstablishmentID *int64     `gorm:"index" json:"establishment_id,omitempty"`
	CPFEncrypted    *string    `gorm:"type:text" json:"-"`
	Active          bool       `gorm:"not null;default:true" json:"active"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Establishment *Establishment `gorm:"foreignKey:EstablishmentID" json:"establishment,omitempty"`
}

// TableName implements gorm table naming.
func (User) TableName() string {
	return "users"
}

// UserRole values.
const (
	RoleAdmin   = "admin"
	RoleLojista = "lojista"
)

// Invitation grants signup access to a new establishment owner.
type Invitation struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code            string     `gorm:"type:varchar(16);uniqueIndex;not null" json:"code"`
	Email           string     `gorm:"type:varchar(255);not null" json:"email"`
	Role            string     `gorm:"type:varchar(20);not null;default:'lojista'" json:"role"`
	EstablishmentID *int64     `gorm:"index" json:"establishment_id,omitempty"`
	CreatedBy       int64      `gorm:"not null" json:"created_by"`
	UsedAt          *time.Time `json:"used_at,omitempty"`
	ExpiresAt       time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName implements gorm table naming.
func (Invitation) TableName() string {
	return "invitations"
}

// IsUsable reports whether the invitation can still be redeemed.
func (i *Invitation) IsUsable(now time.Time) bool {
	return i.UsedAt == nil && now.Before(i.ExpiresAt)
}

// JSON is a jsonb column helper.
type JSON map[string]interface{}

// Scan implements sql.Scanner.
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return nil
		}
	}
	return json.Unmarshal(bytes, j)
}

// Value implements driver.Valuer.
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

package models

import (
	"time"
)

// Customer is a global end-consumer identity keyed by WhatsApp number. The
// relationship with each establishment lives in CustomerLoyalty, so one
// customer can hold independent balances across tenants.
type Customer struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string     `gorm:"type:varchar(100);not null" json:"name"`
	WhatsApp  string     `gorm:"type:varchar(20);not null;uniqueIndex" json:"whatsapp"`
	Email     *string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	BirthDate *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Loyalty is the ledger row for the establishment the caller is scoped
	// to, filled by the repository. Not a persisted column.
	Loyalty *CustomerLoyalty `gorm:"-" json:"loyalty,omitempty"`
}

// TableName implements gorm table naming.
func (Customer) TableName() string {
	return "customers"
}

// CustomerLoyalty is the ledger row of one (customer, establishment) pair.
// The balance never goes negative and only the ledger operations mutate it.
type CustomerLoyalty struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID        int64      `gorm:"not null;uniqueIndex:uq_loyalty_customer_est" json:"customer_id"`
	EstablishmentID   int64      `gorm:"not null;uniqueIndex:uq_loyalty_customer_est;index" json:"establishment_id"`
	PointsBalance     int        `gorm:"not null;default:0" json:"points_balance"`
	RewardReady       bool       `gorm:"not null;default:false" json:"reward_ready"`
	RewardExpiresAt   *time.Time `json:"reward_expires_at,omitempty"`
	TotalEarned       int        `gorm:"not null;default:0" json:"total_earned"`
	TotalRedeemed     int        `gorm:"not null;default:0" json:"total_redeemed"`
	RedemptionCount   int        `gorm:"not null;default:0" json:"redemption_count"`
	LastTransactionAt *time.Time `json:"last_transaction_at,omitempty"`
	StatusToken       string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"status_token"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

// TableName implements gorm table naming.
func (CustomerLoyalty) TableName() string {
	return "customer_loyalty"
}

// RewardRedemption is the audit row written whenever a reward is consumed,
// either redeemed by the customer or expired by the sweep job.
type RewardRedemption struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID      int64     `gorm:"not null;index" json:"customer_id"`
	EstablishmentID int64     `gorm:"not null;index" json:"establishment_id"`
	PointsUsed      int       `gorm:"not null" json:"points_used"`
	TransactionID   *int64    `json:"transaction_id,omitempty"`
	Expired         bool      `gorm:"not null;default:false" json:"expired"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName implements gorm table naming.
func (RewardRedemption) TableName() string {
	return "reward_redemptions"
}

// HasValidReward reports whether a reward is armed and unexpired at now.
func (l *CustomerLoyalty) HasValidReward(now time.Time) bool {
	if !l.RewardReady {
		return false
	}
	if l.RewardExpiresAt == nil {
		return true
	}
	return l.RewardExpiresAt.After(now)
}

package models

import (
	"time"
)

// Transaction records a sale, accrual, redemption or adjustment.
// Scheduled transactions double as appointments: ScheduledAt/ScheduledEndAt
// carry the booked window and ProfessionalID the assigned professional.
type Transaction struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo   string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"transaction_no"`
	EstablishmentID int64      `gorm:"index;not null" json:"establishment_id"`
	CustomerID      *int64     `gorm:"index" json:"customer_id,omitempty"`
	ProfessionalID  *int64     `gorm:"index" json:"professional_id,omitempty"`
	Type            string     `gorm:"type:varchar(20);not null" json:"type"`
	Status          string     `gorm:"type:varchar(20);not null;default:'realizada'" json:"status"`
	Subtotal        float64    `gorm:"type:decimal(12,2);not null;default:0" json:"subtotal"`
	Discount        float64    `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`
	Total           float64    `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	PointsMoved     int        `gorm:"not null;default:0" json:"points_moved"`
	BalanceAfter    int        `gorm:"not null;default:0" json:"balance_after"`
	ScheduledAt     *time.Time `gorm:"index" json:"scheduled_at,omitempty"`
	ScheduledEndAt  *time.Time `json:"scheduled_end_at,omitempty"`
	Description     string     `gorm:"type:varchar(500)" json:"description,omitempty"`
	CreatedBy       int64      `gorm:"not null" json:"created_by"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Customer     *Customer         `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Professional *Professional     `gorm:"foreignKey:ProfessionalID" json:"professional,omitempty"`
	Items        []TransactionItem `gorm:"foreignKey:TransactionID" json:"items,omitempty"`
}

// TableName implements gorm table naming.
func (Transaction) TableName() string {
	return "transactions"
}

// TransactionType values.
const (
	TransactionTypeCompra  = "Compra"
	TransactionTypeGanho   = "Ganho"
	TransactionTypeResgate = "Resgate"
	TransactionTypeAjuste  = "Ajuste"
)

// TransactionStatus values.
const (
	TransactionStatusAgendada   = "agendada"
	TransactionStatusConfirmada = "confirmada"
	TransactionStatusRealizada  = "realizada"
	TransactionStatusCancelada  = "cancelada"
)

// IsScheduled reports whether the transaction is a booked appointment.
func (t *Transaction) IsScheduled() bool {
	return t.ScheduledAt != nil
}

// IsActiveBooking reports whether the booking still blocks its time window.
func (t *Transaction) IsActiveBooking() bool {
	return t.IsScheduled() && t.Status != TransactionStatusCancelada
}

// TransactionItem is one service line of a transaction.
type TransactionItem struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionID int64     `gorm:"index;not null" json:"transaction_id"`
	ServiceID     int64     `gorm:"index;not null" json:"service_id"`
	ServiceName   string    `gorm:"type:varchar(100);not null" json:"service_name"`
	Quantity      int       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice     float64   `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	DurationMin   int       `gorm:"not null;default:0" json:"duration_minutes"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`

	Service *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
}

// TableName implements gorm table naming.
func (TransactionItem) TableName() string {
	return "transaction_items"
}

// LineTotal returns quantity times unit price.
func (i *TransactionItem) LineTotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Trading request statuses, directions and instrument types
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	DirectionBuy  = "buy"
	DirectionSell = "sell"

	InstrumentEquity = "equity"
	InstrumentBond   = "bond"
)

// Audit actor types
const (
	ActorEmployee = "employee"
	ActorAdmin    = "admin"
	ActorSystem   = "system"
)

// TradingRequest is a single trade adjudication record. Monetary amounts are
// stored both in the instrument's native currency and USD-normalized;
// ExchangeRate is the multiplier applied to native amounts to obtain USD.
type TradingRequest struct {
	ID               uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	EmployeeEmail    string          `json:"employee_email" gorm:"not null;index"`
	Symbol           string          `json:"symbol" gorm:"not null;index"`
	InstrumentName   string          `json:"instrument_name" gorm:"not null"`
	InstrumentType   string          `json:"instrument_type" gorm:"not null"`
	Direction        string          `json:"direction" gorm:"not null"`
	Shares           int64           `json:"shares" gorm:"not null"`
	UnitPrice        decimal.Decimal `json:"unit_price" gorm:"type:decimal(20,8);not null"`
	TotalValue       decimal.Decimal `json:"total_value" gorm:"type:decimal(20,8);not null"`
	Currency         string          `json:"currency" gorm:"not null"`
	UnitPriceUSD     decimal.Decimal `json:"unit_price_usd" gorm:"type:decimal(20,8);not null"`
	TotalValueUSD    decimal.Decimal `json:"total_value_usd" gorm:"type:decimal(20,8);not null"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate" gorm:"type:decimal(20,10);not null"`
	Status           string          `json:"status" gorm:"not null;index"`
	RejectionReason  *string         `json:"rejection_reason,omitempty"`
	Escalated        bool            `json:"escalated" gorm:"not null;default:false"`
	EscalationReason *string         `json:"escalation_reason,omitempty"`
	EscalatedAt      *time.Time      `json:"escalated_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at" gorm:"not null;index"`
	ProcessedAt      *time.Time      `json:"processed_at,omitempty"`
}

// BeforeCreate assigns the primary key when the caller has not.
func (r *TradingRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RestrictedSecurity is an entry on the firm's restricted list.
type RestrictedSecurity struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Symbol    string    `json:"symbol" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name"`
	Reason    string    `json:"reason"`
	AddedBy   string    `json:"added_by" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (r *RestrictedSecurity) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ActivityLog is an append-only audit record of portal activity.
type ActivityLog struct {
	ID         uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Actor      string    `json:"actor" gorm:"not null;index"`
	ActorType  string    `json:"actor_type" gorm:"not null"`
	Action     string    `json:"action" gorm:"not null;index"`
	EntityType string    `json:"entity_type" gorm:"not null;index"`
	EntityID   string    `json:"entity_id" gorm:"index"`
	Details    string    `json:"details" gorm:"type:text"`
	ClientIP   string    `json:"client_ip"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;index"`
}

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

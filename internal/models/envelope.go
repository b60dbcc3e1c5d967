package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnvelopeType represents the type of envelope
type EnvelopeType string

const (
	EnvelopeTypeRegular EnvelopeType = "regular"
	EnvelopeTypeSavings EnvelopeType = "savings"
	EnvelopeTypeDebt    EnvelopeType = "debt"
)

// Envelope is a sub-allocation of budget funds earmarked for a purpose.
// CurrentBalance is signed: overspending an envelope drives it negative,
// which is a tracked state rather than an error. Debt envelopes carry the
// outstanding liability in DebtBalance, separate from the funds set aside
// to pay it.
type Envelope struct {
	Base
	BudgetID       string          `gorm:"type:uuid;not null;index" json:"budget_id"`
	CategoryID     *string         `gorm:"type:uuid" json:"category_id,omitempty"`
	Name           string          `gorm:"not null" json:"name"`
	Description    string          `json:"description"`
	Type           EnvelopeType    `gorm:"column:envelope_type;not null;default:'regular'" json:"envelope_type"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"current_balance"`
	IsActive       bool            `gorm:"default:true" json:"is_active"`

	// For debt envelopes. InitialDebtBalance is fixed at creation so the
	// liability stays derivable: debt_balance must always equal the
	// initial liability minus the sum of non-deleted debt payments.
	DebtBalance        decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"debt_balance"`
	InitialDebtBalance decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"initial_debt_balance"`
	MinimumPayment     decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"minimum_payment"`
	DueDate            *time.Time      `json:"due_date,omitempty"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

package models

import "github.com/shopspring/decimal"

// Budget is the top-level container for a user's envelope budgeting.
// AvailableAmount holds funds received as income but not yet allocated
// to any envelope; it is never allowed to go negative.
type Budget struct {
	Base
	UserID          string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name            string          `gorm:"not null" json:"name"`
	Description     string          `json:"description"`
	Currency        string          `gorm:"not null;default:'USD'" json:"currency"`
	AvailableAmount decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"available_amount"`
	IsActive        bool            `gorm:"default:true" json:"is_active"`

	// Relationships
	Envelopes     []Envelope     `gorm:"foreignKey:BudgetID" json:"envelopes,omitempty"`
	Categories    []Category     `gorm:"foreignKey:BudgetID" json:"categories,omitempty"`
	Payees        []Payee        `gorm:"foreignKey:BudgetID" json:"payees,omitempty"`
	IncomeSources []IncomeSource `gorm:"foreignKey:BudgetID" json:"income_sources,omitempty"`
	Transactions  []Transaction  `gorm:"foreignKey:BudgetID" json:"transactions,omitempty"`
}

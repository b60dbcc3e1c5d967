package models

import (
	"time"

	"billfold/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome      TransactionType = "income"
	TransactionTypeAllocation  TransactionType = "allocation"
	TransactionTypeExpense     TransactionType = "expense"
	TransactionTypeTransfer    TransactionType = "transfer"
	TransactionTypeDebtPayment TransactionType = "debt_payment"
)

// Transaction is an append-only ledger entry. Deletion is domain-level:
// the balance effect is reversed and the row is flagged, never removed,
// so the full history stays replayable. This is deliberately not GORM's
// soft delete, because deleted entries must remain queryable and
// restorable through normal reads.
type Transaction struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	BudgetID        string          `gorm:"type:uuid;not null;index;uniqueIndex:idx_budget_idempotency" json:"budget_id"`
	Type            TransactionType `gorm:"column:transaction_type;not null" json:"transaction_type"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Description     string          `json:"description"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`

	FromEnvelopeID *string `gorm:"type:uuid" json:"from_envelope_id,omitempty"`
	ToEnvelopeID   *string `gorm:"type:uuid" json:"to_envelope_id,omitempty"`
	CategoryID     *string `gorm:"type:uuid" json:"category_id,omitempty"`
	PayeeID        *string `gorm:"type:uuid" json:"payee_id,omitempty"`
	IncomeSourceID *string `gorm:"type:uuid" json:"income_source_id,omitempty"`

	// Client-supplied key for safe retries; unique per budget.
	IdempotencyKey *string `gorm:"uniqueIndex:idx_budget_idempotency" json:"idempotency_key,omitempty"`

	// Clearing state axis: pending -> cleared -> reconciled, monotonic.
	IsCleared    bool `gorm:"not null;default:false" json:"is_cleared"`
	IsReconciled bool `gorm:"not null;default:false" json:"is_reconciled"`

	// Domain soft delete
	IsDeleted bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *string    `gorm:"type:uuid" json:"deleted_by,omitempty"`

	// Relationships
	FromEnvelope *Envelope     `gorm:"foreignKey:FromEnvelopeID" json:"from_envelope,omitempty"`
	ToEnvelope   *Envelope     `gorm:"foreignKey:ToEnvelopeID" json:"to_envelope,omitempty"`
	Category     *Category     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Payee        *Payee        `gorm:"foreignKey:PayeeID" json:"payee,omitempty"`
	IncomeSource *IncomeSource `gorm:"foreignKey:IncomeSourceID" json:"income_source,omitempty"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New()
	}
	return nil
}

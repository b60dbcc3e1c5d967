package models

// Payee is the counterparty of an expense or debt payment.
type Payee struct {
	Base
	BudgetID    string `gorm:"type:uuid;not null;index" json:"budget_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:PayeeID" json:"transactions,omitempty"`
}

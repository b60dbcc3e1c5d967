package models

// IncomeSource identifies where income transactions originate
// (employer, side business, interest). Reporting metadata only.
type IncomeSource struct {
	Base
	BudgetID    string `gorm:"type:uuid;not null;index" json:"budget_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:IncomeSourceID" json:"transactions,omitempty"`
}

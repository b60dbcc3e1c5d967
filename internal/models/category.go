package models

// Category groups envelopes and transactions for reporting. Categories are
// descriptive only and never participate in balance arithmetic.
type Category struct {
	Base
	BudgetID    string  `gorm:"type:uuid;not null;index" json:"budget_id"`
	Name        string  `gorm:"not null" json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Color       string  `json:"color"`
	ParentID    *string `gorm:"type:uuid" json:"parent_id,omitempty"`

	// Relationships
	Parent    *Category  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children  []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Envelopes []Envelope `gorm:"foreignKey:CategoryID" json:"envelopes,omitempty"`
}

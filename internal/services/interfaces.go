package services

import (
	"time"

	"github.com/shopspring/decimal"

	"billfold/internal/ledger"
	"billfold/internal/models"
	"billfold/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID string, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// BudgetServicer defines the contract for budget-related business logic.
// Budget balances are owned by the ledger engine; this service never
// writes available_amount.
type BudgetServicer interface {
	CreateBudget(userID, name, description, currency string) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, name, description *string) (*models.Budget, error)
	DeactivateBudget(userID, budgetID string) error
}

// EnvelopeDebtFields carries the extra attributes a debt envelope tracks.
type EnvelopeDebtFields struct {
	DebtBalance    decimal.Decimal
	MinimumPayment decimal.Decimal
	DueDate        *time.Time
}

// EnvelopeServicer defines the contract for envelope-related business logic.
// Envelope balances are owned by the ledger engine; this service never
// writes current_balance or debt_balance.
type EnvelopeServicer interface {
	CreateEnvelope(userID, budgetID, name, description string, envelopeType models.EnvelopeType, categoryID *string, debt *EnvelopeDebtFields) (*models.Envelope, error)
	GetBudgetEnvelopes(userID, budgetID string, page pagination.PageRequest) (*pagination.PageResponse[models.Envelope], error)
	GetEnvelopeByID(userID, envelopeID string) (*models.Envelope, error)
	UpdateEnvelope(userID, envelopeID string, name, description, categoryID *string, minimumPayment *decimal.Decimal, dueDate *time.Time) (*models.Envelope, error)
	DeactivateEnvelope(userID, envelopeID string) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, budgetID, name, description, icon, color string, parentID *string) (*models.Category, error)
	GetBudgetCategories(userID, budgetID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, name, description, icon, color string, parentID *string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// PayeeServicer defines the contract for payee-related business logic.
type PayeeServicer interface {
	CreatePayee(userID, budgetID, name, description string) (*models.Payee, error)
	GetBudgetPayees(userID, budgetID string, page pagination.PageRequest) (*pagination.PageResponse[models.Payee], error)
	GetPayeeByID(userID, payeeID string) (*models.Payee, error)
	UpdatePayee(userID, payeeID string, name, description *string) (*models.Payee, error)
	DeletePayee(userID, payeeID string) error
}

// IncomeSourceServicer defines the contract for income-source business logic.
type IncomeSourceServicer interface {
	CreateIncomeSource(userID, budgetID, name, description string) (*models.IncomeSource, error)
	GetBudgetIncomeSources(userID, budgetID string, page pagination.PageRequest) (*pagination.PageResponse[models.IncomeSource], error)
	GetIncomeSourceByID(userID, sourceID string) (*models.IncomeSource, error)
	UpdateIncomeSource(userID, sourceID string, name, description *string) (*models.IncomeSource, error)
	DeleteIncomeSource(userID, sourceID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate       *time.Time
	ToDate         *time.Time
	Type           *models.TransactionType
	EnvelopeID     *string
	CategoryID     *string
	PayeeID        *string
	IncludeDeleted bool
}

// TransactionServicer defines the contract for transaction-related business
// logic. Balance-mutating operations delegate to the ledger engine; this
// service adds listing, lookup, and the cleared/reconciled status axis.
type TransactionServicer interface {
	ApplyTransaction(userID, budgetID string, in ledger.Input) (*models.Transaction, error)
	GetBudgetTransactions(userID, budgetID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	SoftDeleteTransaction(userID, transactionID, actorID string) (*models.Transaction, error)
	RestoreTransaction(userID, transactionID string) (*models.Transaction, error)
	MarkCleared(userID, transactionID string) (*models.Transaction, error)
	MarkReconciled(userID, transactionID string) (*models.Transaction, error)
	ReconcileBudget(userID, budgetID string, repair bool) (*ledger.Report, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}

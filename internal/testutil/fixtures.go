package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"billfold/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Money parses a decimal amount, failing the test on malformed input.
func Money(t *testing.T, amount string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", amount, err)
	}
	return d
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestBudget creates a budget with nothing available.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string) *models.Budget {
	t.Helper()
	return CreateTestBudgetWithAvailable(t, db, userID, decimal.Zero)
}

// CreateTestBudgetWithAvailable creates a budget with the given unallocated amount.
// Callers that use this shortcut instead of applying an income transaction
// should expect the reconciler to flag the budget as drifted.
func CreateTestBudgetWithAvailable(t *testing.T, db *gorm.DB, userID string, available decimal.Decimal) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:          userID,
		Name:            fmt.Sprintf("Test Budget %d", nextID()),
		Currency:        "USD",
		AvailableAmount: available,
		IsActive:        true,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestEnvelope creates a regular envelope with a zero balance.
func CreateTestEnvelope(t *testing.T, db *gorm.DB, budgetID string) *models.Envelope {
	t.Helper()

	envelope := &models.Envelope{
		BudgetID: budgetID,
		Name:     fmt.Sprintf("Test Envelope %d", nextID()),
		Type:     models.EnvelopeTypeRegular,
		IsActive: true,
	}
	if err := db.Create(envelope).Error; err != nil {
		t.Fatalf("failed to create test envelope: %v", err)
	}
	return envelope
}

// CreateTestDebtEnvelope creates a debt envelope carrying the given liability.
func CreateTestDebtEnvelope(t *testing.T, db *gorm.DB, budgetID string, debt decimal.Decimal) *models.Envelope {
	t.Helper()

	due := time.Now().AddDate(0, 1, 0)
	envelope := &models.Envelope{
		BudgetID:           budgetID,
		Name:               fmt.Sprintf("Test Debt Envelope %d", nextID()),
		Type:               models.EnvelopeTypeDebt,
		DebtBalance:        debt,
		InitialDebtBalance: debt,
		MinimumPayment:     debt.Div(decimal.NewFromInt(10)),
		DueDate:            &due,
		IsActive:           true,
	}
	if err := db.Create(envelope).Error; err != nil {
		t.Fatalf("failed to create test debt envelope: %v", err)
	}
	return envelope
}

// CreateTestCategory creates a category in the given budget.
func CreateTestCategory(t *testing.T, db *gorm.DB, budgetID string) *models.Category {
	t.Helper()

	category := &models.Category{
		BudgetID: budgetID,
		Name:     fmt.Sprintf("Test Category %d", nextID()),
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestPayee creates a payee in the given budget.
func CreateTestPayee(t *testing.T, db *gorm.DB, budgetID string) *models.Payee {
	t.Helper()

	payee := &models.Payee{
		BudgetID: budgetID,
		Name:     fmt.Sprintf("Test Payee %d", nextID()),
	}
	if err := db.Create(payee).Error; err != nil {
		t.Fatalf("failed to create test payee: %v", err)
	}
	return payee
}

// CreateTestIncomeSource creates an income source in the given budget.
func CreateTestIncomeSource(t *testing.T, db *gorm.DB, budgetID string) *models.IncomeSource {
	t.Helper()

	source := &models.IncomeSource{
		BudgetID: budgetID,
		Name:     fmt.Sprintf("Test Income Source %d", nextID()),
	}
	if err := db.Create(source).Error; err != nil {
		t.Fatalf("failed to create test income source: %v", err)
	}
	return source
}

package integration

import (
	"fmt"
	"net/http"
	"testing"
)

// Exercises the core envelope-budgeting loop: income lands in the pool,
// allocation moves it into envelopes, expenses spend it back out.
func TestBudgetFlow_IncomeAllocateSpend(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "flow@test.com", "password123")

	budgetID := app.createBudget(t, token, "Household")
	groceries := app.createEnvelope(t, token, budgetID, "Groceries")

	// Income: pool grows
	app.createTransaction(t, token, budgetID, `{"transaction_type":"income","amount":"2000"}`)
	if got := app.budgetAvailable(t, token, budgetID); got != "2000" {
		t.Fatalf("expected available 2000 after income, got %s", got)
	}

	// Allocation: pool shrinks, envelope grows
	app.createTransaction(t, token, budgetID,
		fmt.Sprintf(`{"transaction_type":"allocation","amount":"500","to_envelope_id":%q}`, groceries))
	if got := app.budgetAvailable(t, token, budgetID); got != "1500" {
		t.Fatalf("expected available 1500 after allocation, got %s", got)
	}
	if got := app.envelopeBalance(t, token, groceries); got != "500" {
		t.Fatalf("expected envelope balance 500, got %s", got)
	}

	// Expense: envelope shrinks, pool untouched
	app.createTransaction(t, token, budgetID,
		fmt.Sprintf(`{"transaction_type":"expense","amount":"120.50","from_envelope_id":%q}`, groceries))
	if got := app.budgetAvailable(t, token, budgetID); got != "1500" {
		t.Fatalf("expected available unchanged at 1500, got %s", got)
	}
	if got := app.envelopeBalance(t, token, groceries); got != "379.5" {
		t.Fatalf("expected envelope balance 379.5, got %s", got)
	}
}

func TestBudgetFlow_AllocationInsufficientFunds(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "broke@test.com", "password123")

	budgetID := app.createBudget(t, token, "Empty")
	envelopeID := app.createEnvelope(t, token, budgetID, "Wishlist")

	// No income yet: allocating must fail and leave balances untouched
	rec := app.request("POST", "/api/v1/budgets/"+budgetID+"/transactions",
		fmt.Sprintf(`{"transaction_type":"allocation","amount":"100","to_envelope_id":%q}`, envelopeID), token)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, parseJSON(t, rec), "INSUFFICIENT_FUNDS")

	if got := app.budgetAvailable(t, token, budgetID); got != "0" {
		t.Errorf("expected available untouched at 0, got %s", got)
	}
	if got := app.envelopeBalance(t, token, envelopeID); got != "0" {
		t.Errorf("expected envelope untouched at 0, got %s", got)
	}
}

// Overspending an envelope is allowed and drives the balance negative.
func TestBudgetFlow_EnvelopeOverspend(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "overspend@test.com", "password123")

	budgetID := app.createBudget(t, token, "Household")
	envelopeID := app.createEnvelope(t, token, budgetID, "Dining")

	app.createTransaction(t, token, budgetID, `{"transaction_type":"income","amount":"100"}`)
	app.createTransaction(t, token, budgetID,
		fmt.Sprintf(`{"transaction_type":"allocation","amount":"50","to_envelope_id":%q}`, envelopeID))
	app.createTransaction(t, token, budgetID,
		fmt.Sprintf(`{"transaction_type":"expense","amount":"80","from_envelope_id":%q}`, envelopeID))

	if got := app.envelopeBalance(t, token, envelopeID); got != "-30" {
		t.Fatalf("expected envelope balance -30 after overspend, got %s", got)
	}
}

func TestBudgetFlow_TransferBetweenEnvelopes(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "transfer@test.com", "password123")

	budgetID := app.createBudget(t, token, "Household")
	from := app.createEnvelope(t, token, budgetID, "Dining")
	to := app.createEnvelope(t, token, budgetID, "Groceries")

	app.createTransaction(t, token, budgetID, `{"transaction_type":"income","amount":"300"}`)
	app.createTransaction(t, token, budgetID,
		fmt.Sprintf(`{"transaction_type":"allocation","amount":"200","to_envelope_id":%q}`, from))
	app.createTransaction(t, token, budgetID,
		fmt.Sprintf(`{"transaction_type":"transfer","amount":"75","from_envelope_id":%q,"to_envelope_id":%q}`, from, to))

	if got := app.envelopeBalance(t, token, from); got != "125" {
		t.Errorf("expected source balance 125, got %s", got)
	}
	if got := app.envelopeBalance(t, token, to); got != "75" {
		t.Errorf("expected destination balance 75, got %s", got)
	}
	// Transfers never touch the pool
	if got := app.budgetAvailable(t, token, budgetID); got != "100" {
		t.Errorf("expected available 100, got %s", got)
	}
}

// Debt payments spend from a funding envelope and reduce the liability on
// the debt envelope.
func TestBudgetFlow_DebtPayment(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "debt@test.com", "password123")

	budgetID := app.createBudget(t, token, "Household")
	funding := app.createEnvelope(t, token, budgetID, "Loan Payments")

	rec := app.request("POST", "/api/v1/budgets/"+budgetID+"/envelopes",
		`{"name":"Car Loan","envelope_type":"debt","debt_balance":"5000","minimum_payment":"250"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create debt envelope failed: %d %s", rec.Code, rec.Body.String())
	}
	envelope := parseJSON(t, rec)["envelope"].(map[string]interface{})
	loanID := envelope["id"].(string)
	if envelope["debt_balance"] != "5000" {
		t.Fatalf("expected debt balance 5000, got %v", envelope["debt_balance"])
	}

	app.createTransaction(t, token, budgetID, `{"transaction_type":"income","amount":"1000"}`)
	app.createTransaction(t, token, budgetID,
		fmt.Sprintf(`{"transaction_type":"allocation","amount":"250","to_envelope_id":%q}`, funding))
	app.createTransaction(t, token, budgetID,
		fmt.Sprintf(`{"transaction_type":"debt_payment","amount":"250","from_envelope_id":%q,"to_envelope_id":%q}`, funding, loanID))

	if got := app.envelopeBalance(t, token, funding); got != "0" {
		t.Errorf("expected funding balance 0 after payment, got %s", got)
	}
	rec = app.request("GET", "/api/v1/envelopes/"+loanID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get envelope failed: %d %s", rec.Code, rec.Body.String())
	}
	envelope = parseJSON(t, rec)["envelope"].(map[string]interface{})
	if envelope["debt_balance"] != "4750" {
		t.Errorf("expected debt balance 4750 after payment, got %v", envelope["debt_balance"])
	}
}

func TestBudgetFlow_BudgetIsolation(t *testing.T) {
	app := setupApp(t)
	alice, _, _ := app.registerUser(t, "alice@test.com", "password123")
	bob, _, _ := app.registerUser(t, "bob@test.com", "password123")

	aliceBudget := app.createBudget(t, alice, "Alice's Budget")

	// Bob cannot read Alice's budget
	rec := app.request("GET", "/api/v1/budgets/"+aliceBudget, "", bob)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign budget, got %d", rec.Code)
	}

	// Bob cannot post transactions into it either
	rec = app.request("POST", "/api/v1/budgets/"+aliceBudget+"/transactions",
		`{"transaction_type":"income","amount":"1"}`, bob)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 posting into foreign budget, got %d", rec.Code)
	}
}

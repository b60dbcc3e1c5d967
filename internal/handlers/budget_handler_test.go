package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "billfold/internal/errors"
	"billfold/internal/ledger"
	"billfold/internal/models"
	"billfold/internal/pagination"
	"billfold/internal/services"
)

// --- mock budget service ---

type mockBudgetService struct {
	createBudgetFn     func(userID, name, description, currency string) (*models.Budget, error)
	getUserBudgetsFn   func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	getBudgetByIDFn    func(userID, budgetID string) (*models.Budget, error)
	updateBudgetFn     func(userID, budgetID string, name, description *string) (*models.Budget, error)
	deactivateBudgetFn func(userID, budgetID string) error
}

func (m *mockBudgetService) CreateBudget(userID, name, description, currency string) (*models.Budget, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(userID, name, description, currency)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetUserBudgets(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	if m.getUserBudgetsFn != nil {
		return m.getUserBudgetsFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.Budget{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockBudgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	if m.getBudgetByIDFn != nil {
		return m.getBudgetByIDFn(userID, budgetID)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) UpdateBudget(userID, budgetID string, name, description *string) (*models.Budget, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(userID, budgetID, name, description)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) DeactivateBudget(userID, budgetID string) error {
	if m.deactivateBudgetFn != nil {
		return m.deactivateBudgetFn(userID, budgetID)
	}
	return nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

const testBudgetID = "0190a8f0-0000-7000-8000-0000000000b1"

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/budgets", handler.CreateBudget)
	auth.GET("/budgets", handler.GetBudgets)
	auth.GET("/budgets/:id", handler.GetBudget)
	auth.PUT("/budgets/:id", handler.UpdateBudget)
	auth.DELETE("/budgets/:id", handler.DeactivateBudget)
	auth.POST("/budgets/:id/reconcile", handler.ReconcileBudget)
	auth.POST("/budgets/:id/repair", handler.RepairBudget)
	return r
}

func TestBudgetHandler_CreateBudget(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockBudgetService{
			createBudgetFn: func(userID, name, description, currency string) (*models.Budget, error) {
				return &models.Budget{
					Base:     models.Base{ID: testBudgetID},
					UserID:   userID,
					Name:     name,
					Currency: currency,
					IsActive: true,
				}, nil
			},
		}
		handler := NewBudgetHandler(svc, &mockTransactionService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets",
			`{"name":"Household","currency":"EUR"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		budget := result["budget"].(map[string]interface{})
		if budget["name"] != "Household" {
			t.Errorf("expected Household, got %v", budget["name"])
		}
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockTransactionService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets", `{"currency":"USD"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on bogus currency", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockTransactionService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets", `{"name":"Household","currency":"NOPE"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetBudget(t *testing.T) {
	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockBudgetService{
			getBudgetByIDFn: func(_, _ string) (*models.Budget, error) {
				return nil, apperrors.ErrBudgetNotFound
			},
		}
		handler := NewBudgetHandler(svc, &mockTransactionService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/"+testBudgetID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")
	})

	t.Run("returns 400 on malformed id", func(t *testing.T) {
		handler := NewBudgetHandler(&mockBudgetService{}, &mockTransactionService{}, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "GET", "/budgets/not-a-uuid", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_Reconcile(t *testing.T) {
	t.Run("reconcile is read only", func(t *testing.T) {
		var gotRepair *bool
		txSvc := &mockTransactionService{
			reconcileBudgetFn: func(_, budgetID string, repair bool) (*ledger.Report, error) {
				gotRepair = &repair
				return &ledger.Report{BudgetID: budgetID, Drift: false}, nil
			},
		}
		handler := NewBudgetHandler(&mockBudgetService{}, txSvc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets/"+testBudgetID+"/reconcile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotRepair == nil || *gotRepair {
			t.Error("expected reconcile endpoint to request a read-only run")
		}
	})

	t.Run("repair requests a write", func(t *testing.T) {
		var gotRepair *bool
		txSvc := &mockTransactionService{
			reconcileBudgetFn: func(_, budgetID string, repair bool) (*ledger.Report, error) {
				gotRepair = &repair
				return &ledger.Report{BudgetID: budgetID, Drift: true, Repaired: true}, nil
			},
		}
		handler := NewBudgetHandler(&mockBudgetService{}, txSvc, &mockAuditService{})
		r := setupBudgetRouter(handler)

		rec := doRequest(r, "POST", "/budgets/"+testBudgetID+"/repair", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotRepair == nil || !*gotRepair {
			t.Error("expected repair endpoint to request a repairing run")
		}
		result := parseJSON(t, rec)
		report := result["report"].(map[string]interface{})
		if report["repaired"] != true {
			t.Errorf("expected repaired report, got %v", report)
		}
	})
}

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"billfold/internal/handlers"
	"billfold/internal/logger"
	"billfold/internal/middleware"
	"billfold/internal/models"
	"billfold/internal/services"
	"billfold/internal/validator"
)

const testAdminAPIKey = "integration-admin-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Budget{},
		&models.Category{},
		&models.Envelope{},
		&models.Payee{},
		&models.IncomeSource{},
		&models.Transaction{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	budgetService := services.NewBudgetService(db)
	envelopeService := services.NewEnvelopeService(db)
	categoryService := services.NewCategoryService(db)
	payeeService := services.NewPayeeService(db)
	incomeSourceService := services.NewIncomeSourceService(db)
	transactionService := services.NewTransactionService(db)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, transactionService, auditService)
	envelopeHandler := handlers.NewEnvelopeHandler(envelopeService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	payeeHandler := handlers.NewPayeeHandler(payeeService, auditService)
	incomeSourceHandler := handlers.NewIncomeSourceHandler(incomeSourceService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/auth/logout", authHandler.Logout)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeactivateBudget)
	budgets.POST("/:id/reconcile", budgetHandler.ReconcileBudget)
	budgets.POST("/:id/envelopes", envelopeHandler.CreateEnvelope)
	budgets.GET("/:id/envelopes", envelopeHandler.GetEnvelopes)
	budgets.POST("/:id/categories", categoryHandler.CreateCategory)
	budgets.GET("/:id/categories", categoryHandler.GetCategories)
	budgets.POST("/:id/payees", payeeHandler.CreatePayee)
	budgets.GET("/:id/payees", payeeHandler.GetPayees)
	budgets.POST("/:id/income-sources", incomeSourceHandler.CreateIncomeSource)
	budgets.GET("/:id/income-sources", incomeSourceHandler.GetIncomeSources)
	budgets.POST("/:id/transactions", transactionHandler.CreateTransaction)
	budgets.GET("/:id/transactions", transactionHandler.GetTransactions)

	envelopes := protected.Group("/envelopes")
	envelopes.GET("/:id", envelopeHandler.GetEnvelope)
	envelopes.PUT("/:id", envelopeHandler.UpdateEnvelope)
	envelopes.DELETE("/:id", envelopeHandler.DeactivateEnvelope)

	categories := protected.Group("/categories")
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := protected.Group("/transactions")
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.POST("/:id/restore", transactionHandler.RestoreTransaction)
	transactions.POST("/:id/clear", transactionHandler.ClearTransaction)
	transactions.POST("/:id/reconcile", transactionHandler.ReconcileTransaction)

	admin := protected.Group("/")
	admin.Use(middleware.AdminAuthMiddleware(testAdminAPIKey))
	admin.POST("/budgets/:id/repair", budgetHandler.RepairBudget)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// adminRequest is like request but also sends the admin API key.
func (app *testApp) adminRequest(method, path, body, token, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createBudget creates a budget and returns its ID.
func (app *testApp) createBudget(t *testing.T, token, name string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/budgets", fmt.Sprintf(`{"name":%q}`, name), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	budget := result["budget"].(map[string]interface{})
	return budget["id"].(string)
}

// createEnvelope creates a regular envelope and returns its ID.
func (app *testApp) createEnvelope(t *testing.T, token, budgetID, name string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/budgets/"+budgetID+"/envelopes",
		fmt.Sprintf(`{"name":%q}`, name), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create envelope failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	envelope := result["envelope"].(map[string]interface{})
	return envelope["id"].(string)
}

// createTransaction posts a transaction and returns its ID.
func (app *testApp) createTransaction(t *testing.T, token, budgetID, body string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/budgets/"+budgetID+"/transactions", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	tx := result["transaction"].(map[string]interface{})
	return tx["id"].(string)
}

// budgetAvailable fetches a budget and returns its available amount as a string.
func (app *testApp) budgetAvailable(t *testing.T, token, budgetID string) string {
	t.Helper()
	rec := app.request("GET", "/api/v1/budgets/"+budgetID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get budget failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	budget := result["budget"].(map[string]interface{})
	return budget["available_amount"].(string)
}

// envelopeBalance fetches an envelope and returns its current balance as a string.
func (app *testApp) envelopeBalance(t *testing.T, token, envelopeID string) string {
	t.Helper()
	rec := app.request("GET", "/api/v1/envelopes/"+envelopeID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get envelope failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	envelope := result["envelope"].(map[string]interface{})
	return envelope["current_balance"].(string)
}

// assertErrorCode asserts the response carries the given application error code.
func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %s, got %v", code, errObj["code"])
	}
}

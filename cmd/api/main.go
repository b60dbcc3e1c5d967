package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"billfold/internal/config"
	"billfold/internal/database"
	"billfold/internal/handlers"
	"billfold/internal/logger"
	"billfold/internal/middleware"
	"billfold/internal/services"
	"billfold/internal/validator"

	_ "billfold/internal/docs" // Import swagger docs
)

// @title           Billfold API
// @version         1.0
// @description     Billfold is an envelope-budgeting application: income lands in a shared pool, gets allocated into envelopes, and every transaction moves money between the pool and envelopes under strict balance rules.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	budgetService := services.NewBudgetService(db)
	envelopeService := services.NewEnvelopeService(db)
	categoryService := services.NewCategoryService(db)
	payeeService := services.NewPayeeService(db)
	incomeSourceService := services.NewIncomeSourceService(db)
	transactionService := services.NewTransactionService(db)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, transactionService, auditService)
	envelopeHandler := handlers.NewEnvelopeHandler(envelopeService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	payeeHandler := handlers.NewPayeeHandler(payeeService, auditService)
	incomeSourceHandler := handlers.NewIncomeSourceHandler(incomeSourceService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile and session
	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/auth/logout", authHandler.Logout)

	// Budget routes
	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeactivateBudget)
	budgets.POST("/:id/reconcile", budgetHandler.ReconcileBudget)

	// Budget-scoped sub-resources
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

	// Envelope routes
	envelopes := protected.Group("/envelopes")
	envelopes.GET("/:id", envelopeHandler.GetEnvelope)
	envelopes.PUT("/:id", envelopeHandler.UpdateEnvelope)
	envelopes.DELETE("/:id", envelopeHandler.DeactivateEnvelope)

	// Category routes
	categories := protected.Group("/categories")
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Payee routes
	payees := protected.Group("/payees")
	payees.PUT("/:id", payeeHandler.UpdatePayee)
	payees.DELETE("/:id", payeeHandler.DeletePayee)

	// Income source routes
	incomeSources := protected.Group("/income-sources")
	incomeSources.PUT("/:id", incomeSourceHandler.UpdateIncomeSource)
	incomeSources.DELETE("/:id", incomeSourceHandler.DeleteIncomeSource)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.POST("/:id/restore", transactionHandler.RestoreTransaction)
	transactions.POST("/:id/clear", transactionHandler.ClearTransaction)
	transactions.POST("/:id/reconcile", transactionHandler.ReconcileTransaction)

	// Admin maintenance routes. Repair rewrites stored balances, so it sits
	// behind the admin API key in addition to the bearer token.
	admin := protected.Group("/")
	admin.Use(middleware.AdminAuthMiddleware(appConfig.AdminAPIKey))
	admin.POST("/budgets/:id/repair", budgetHandler.RepairBudget)

	log.Infof("Starting Billfold API server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}

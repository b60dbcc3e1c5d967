package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "billfold/internal/errors"
	"billfold/internal/ledger"
	"billfold/internal/models"
	"billfold/internal/pagination"
	"billfold/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// CreateTransactionRequest represents the request payload for creating a transaction.
type CreateTransactionRequest struct {
	Type            models.TransactionType `json:"transaction_type" binding:"required,transaction_type"`
	Amount          decimal.Decimal        `json:"amount" binding:"required"`
	Description     string                 `json:"description" binding:"max=500"`
	TransactionDate *time.Time             `json:"transaction_date"`
	FromEnvelopeID  *string                `json:"from_envelope_id" binding:"omitempty,uuid"`
	ToEnvelopeID    *string                `json:"to_envelope_id" binding:"omitempty,uuid"`
	CategoryID      *string                `json:"category_id" binding:"omitempty,uuid"`
	PayeeID         *string                `json:"payee_id" binding:"omitempty,uuid"`
	IncomeSourceID  *string                `json:"income_source_id" binding:"omitempty,uuid"`
	IdempotencyKey  *string                `json:"idempotency_key" binding:"omitempty,max=64"`
}

// TransactionListQuery represents the query parameters for listing transactions.
type TransactionListQuery struct {
	pagination.PageRequest
	FromDate       *time.Time              `form:"from_date" time_format:"2006-01-02"`
	ToDate         *time.Time              `form:"to_date" time_format:"2006-01-02"`
	Type           *models.TransactionType `form:"transaction_type" binding:"omitempty,transaction_type"`
	EnvelopeID     *string                 `form:"envelope_id" binding:"omitempty,uuid"`
	CategoryID     *string                 `form:"category_id" binding:"omitempty,uuid"`
	PayeeID        *string                 `form:"payee_id" binding:"omitempty,uuid"`
	IncludeDeleted bool                    `form:"include_deleted"`
}

// CreateTransaction handles applying a new transaction to a budget.
// @Summary     Create a transaction
// @Description Validate and apply a new transaction to the budget
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Budget ID"
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction applied"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget or referenced entity not found"
// @Failure     422 {object} ErrorResponse "Insufficient funds or cross-budget reference"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	in := ledger.Input{
		Type:           req.Type,
		Amount:         req.Amount,
		Description:    req.Description,
		FromEnvelopeID: req.FromEnvelopeID,
		ToEnvelopeID:   req.ToEnvelopeID,
		CategoryID:     req.CategoryID,
		PayeeID:        req.PayeeID,
		IncomeSourceID: req.IncomeSourceID,
		IdempotencyKey: req.IdempotencyKey,
	}
	if req.TransactionDate != nil {
		in.TransactionDate = *req.TransactionDate
	}

	transaction, err := h.transactionService.ApplyTransaction(userID, budgetID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", transaction.ID, c.ClientIP(),
		map[string]interface{}{"transaction_type": req.Type, "amount": req.Amount.String()})

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetTransactions handles listing transactions in a budget.
// @Summary     Get transactions
// @Description Get a paginated, filtered list of a budget's transactions
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id               path  string true  "Budget ID"
// @Param       from_date        query string false "Earliest transaction date (YYYY-MM-DD)"
// @Param       to_date          query string false "Latest transaction date (YYYY-MM-DD)"
// @Param       transaction_type query string false "Filter by type"
// @Param       envelope_id      query string false "Filter by envelope (either side)"
// @Param       category_id      query string false "Filter by category"
// @Param       payee_id         query string false "Filter by payee"
// @Param       include_deleted  query bool   false "Include soft-deleted transactions"
// @Param       page             query int    false "Page number (default 1)"
// @Param       page_size        query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query TransactionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.TransactionFilter{
		FromDate:       query.FromDate,
		ToDate:         query.ToDate,
		Type:           query.Type,
		EnvelopeID:     query.EnvelopeID,
		CategoryID:     query.CategoryID,
		PayeeID:        query.PayeeID,
		IncludeDeleted: query.IncludeDeleted,
	}

	result, err := h.transactionService.GetBudgetTransactions(userID, budgetID, query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransaction handles fetching a single transaction.
// @Summary     Get a transaction
// @Description Get a transaction by ID; deleted transactions stay readable
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles soft-deleting a transaction.
// @Summary     Delete a transaction
// @Description Reverse a transaction's balance effect and flag it deleted
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Already deleted or reconciled"
// @Failure     422 {object} ErrorResponse "Reversal would overdraw the available pool"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.SoftDeleteTransaction(userID, transactionID, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// RestoreTransaction handles restoring a soft-deleted transaction.
// @Summary     Restore a transaction
// @Description Re-apply a deleted transaction's balance effect
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction restored"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Not deleted, or restoring would corrupt balances"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/restore [post]
func (h *TransactionHandler) RestoreTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.RestoreTransaction(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "RESTORE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// ClearTransaction handles marking a transaction as cleared.
// @Summary     Clear a transaction
// @Description Mark a transaction as cleared against a real statement
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction cleared"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Transaction is deleted"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/clear [post]
func (h *TransactionHandler) ClearTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.MarkCleared(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// ReconcileTransaction handles marking a cleared transaction as reconciled.
// @Summary     Reconcile a transaction
// @Description Lock a cleared transaction against further mutation
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction reconciled"
// @Failure     400 {object} ErrorResponse "Transaction not cleared"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Transaction is deleted"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id}/reconcile [post]
func (h *TransactionHandler) ReconcileTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.MarkReconciled(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "RECONCILE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

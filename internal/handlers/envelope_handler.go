package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "billfold/internal/errors"
	"billfold/internal/models"
	"billfold/internal/pagination"
	"billfold/internal/services"
)

// EnvelopeHandler handles envelope-related requests.
type EnvelopeHandler struct {
	envelopeService services.EnvelopeServicer
	auditService    services.AuditServicer
}

// NewEnvelopeHandler creates a new EnvelopeHandler.
func NewEnvelopeHandler(envelopeService services.EnvelopeServicer, auditService services.AuditServicer) *EnvelopeHandler {
	return &EnvelopeHandler{envelopeService: envelopeService, auditService: auditService}
}

// CreateEnvelopeRequest represents the request payload for creating an envelope.
type CreateEnvelopeRequest struct {
	Name           string              `json:"name" binding:"required,min=1,max=100"`
	Description    string              `json:"description" binding:"max=500"`
	Type           models.EnvelopeType `json:"envelope_type" binding:"omitempty,envelope_type"`
	CategoryID     *string             `json:"category_id" binding:"omitempty,uuid"`
	DebtBalance    *decimal.Decimal    `json:"debt_balance"`
	MinimumPayment *decimal.Decimal    `json:"minimum_payment"`
	DueDate        *time.Time          `json:"due_date"`
}

// UpdateEnvelopeRequest represents the request payload for updating an envelope.
type UpdateEnvelopeRequest struct {
	Name           *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Description    *string          `json:"description" binding:"omitempty,max=500"`
	CategoryID     *string          `json:"category_id" binding:"omitempty,uuid"`
	MinimumPayment *decimal.Decimal `json:"minimum_payment"`
	DueDate        *time.Time       `json:"due_date"`
}

// CreateEnvelope handles the creation of a new envelope.
// @Summary     Create an envelope
// @Description Create a new envelope inside a budget
// @Tags        envelopes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Budget ID"
// @Param       request body CreateEnvelopeRequest true "Envelope details"
// @Success     201 {object} models.Envelope "Envelope created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/envelopes [post]
func (h *EnvelopeHandler) CreateEnvelope(c *gin.Context) {
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

	var req CreateEnvelopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var debt *services.EnvelopeDebtFields
	if req.DebtBalance != nil || req.MinimumPayment != nil || req.DueDate != nil {
		debt = &services.EnvelopeDebtFields{DueDate: req.DueDate}
		if req.DebtBalance != nil {
			debt.DebtBalance = *req.DebtBalance
		}
		if req.MinimumPayment != nil {
			debt.MinimumPayment = *req.MinimumPayment
		}
	}

	envelope, err := h.envelopeService.CreateEnvelope(userID, budgetID, req.Name, req.Description, req.Type, req.CategoryID, debt)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_ENVELOPE", "envelope", envelope.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "envelope_type": envelope.Type})

	c.JSON(http.StatusCreated, gin.H{"envelope": envelope})
}

// GetEnvelopes handles listing envelopes in a budget.
// @Summary     Get envelopes
// @Description Get a paginated list of envelopes in a budget
// @Tags        envelopes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Budget ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Envelope] "Paginated envelopes"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/envelopes [get]
func (h *EnvelopeHandler) GetEnvelopes(c *gin.Context) {
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

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.envelopeService.GetBudgetEnvelopes(userID, budgetID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetEnvelope handles fetching a single envelope.
// @Summary     Get an envelope
// @Description Get an envelope by ID
// @Tags        envelopes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Envelope ID"
// @Success     200 {object} models.Envelope "Envelope"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Envelope not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /envelopes/{id} [get]
func (h *EnvelopeHandler) GetEnvelope(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	envelopeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	envelope, err := h.envelopeService.GetEnvelopeByID(userID, envelopeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"envelope": envelope})
}

// UpdateEnvelope handles updating an envelope's descriptive fields.
// @Summary     Update an envelope
// @Description Update an envelope's name, description, category, or debt schedule
// @Tags        envelopes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Envelope ID"
// @Param       request body UpdateEnvelopeRequest true "Fields to update"
// @Success     200 {object} models.Envelope "Envelope updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Envelope not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /envelopes/{id} [put]
func (h *EnvelopeHandler) UpdateEnvelope(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	envelopeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateEnvelopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	envelope, err := h.envelopeService.UpdateEnvelope(userID, envelopeID, req.Name, req.Description, req.CategoryID, req.MinimumPayment, req.DueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_ENVELOPE", "envelope", envelopeID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"envelope": envelope})
}

// DeactivateEnvelope handles deactivating an envelope.
// @Summary     Deactivate an envelope
// @Description Mark an envelope inactive; its balance must be zero
// @Tags        envelopes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Envelope ID"
// @Success     200 {object} map[string]string "Envelope deactivated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Envelope not found"
// @Failure     409 {object} ErrorResponse "Envelope still holds funds"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /envelopes/{id} [delete]
func (h *EnvelopeHandler) DeactivateEnvelope(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	envelopeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.envelopeService.DeactivateEnvelope(userID, envelopeID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DEACTIVATE_ENVELOPE", "envelope", envelopeID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "envelope deactivated"})
}

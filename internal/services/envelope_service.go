package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "billfold/internal/errors"
	"billfold/internal/models"
	"billfold/internal/pagination"
)

// envelopeService handles envelope-related business logic.
type envelopeService struct {
	db *gorm.DB
}

// NewEnvelopeService creates a new EnvelopeServicer.
func NewEnvelopeService(db *gorm.DB) EnvelopeServicer {
	return &envelopeService{db: db}
}

// CreateEnvelope creates an envelope inside a budget. Envelopes always
// start at a zero balance; funds arrive only through allocations. Debt
// fields are accepted only for debt envelopes, and the initial liability
// is fixed at creation.
func (s *envelopeService) CreateEnvelope(
	userID, budgetID, name, description string,
	envelopeType models.EnvelopeType,
	categoryID *string,
	debt *EnvelopeDebtFields,
) (*models.Envelope, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "envelope name is required")
	}

	if _, err := ownedBudget(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	if categoryID != nil {
		var count int64
		s.db.Model(&models.Category{}).Where("id = ? AND budget_id = ?", *categoryID, budgetID).Count(&count)
		if count == 0 {
			return nil, apperrors.ErrCategoryNotFound
		}
	}

	if envelopeType == "" {
		envelopeType = models.EnvelopeTypeRegular
	}

	envelope := &models.Envelope{
		BudgetID:    budgetID,
		CategoryID:  categoryID,
		Name:        name,
		Description: description,
		Type:        envelopeType,
		IsActive:    true,
	}

	if envelopeType == models.EnvelopeTypeDebt {
		if debt == nil || debt.DebtBalance.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "debt envelopes require a non-negative starting liability")
		}
		envelope.DebtBalance = debt.DebtBalance
		envelope.InitialDebtBalance = debt.DebtBalance
		envelope.MinimumPayment = debt.MinimumPayment
		envelope.DueDate = debt.DueDate
	} else if debt != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "debt fields are only valid for debt envelopes")
	}

	if err := s.db.Create(envelope).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return envelope, nil
}

// GetBudgetEnvelopes returns a paginated list of envelopes in a budget.
func (s *envelopeService) GetBudgetEnvelopes(userID, budgetID string, page pagination.PageRequest) (*pagination.PageResponse[models.Envelope], error) {
	page.Defaults()

	if _, err := ownedBudget(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	base := s.db.Model(&models.Envelope{}).Where("budget_id = ?", budgetID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var envelopes []models.Envelope
	if err := base.Preload("Category").Order("created_at ASC").Scopes(pagination.Paginate(page)).Find(&envelopes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(envelopes, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetEnvelopeByID returns an envelope if it belongs to one of the user's budgets.
func (s *envelopeService) GetEnvelopeByID(userID, envelopeID string) (*models.Envelope, error) {
	var envelope models.Envelope
	err := s.db.Preload("Category").
		Joins("JOIN budgets ON budgets.id = envelopes.budget_id").
		Where("envelopes.id = ? AND budgets.user_id = ?", envelopeID, userID).
		First(&envelope).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEnvelopeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &envelope, nil
}

// UpdateEnvelope updates an envelope's descriptive fields. Balances and
// the initial liability are owned by the ledger engine and cannot be set
// here; only the payment schedule of a debt envelope may change.
func (s *envelopeService) UpdateEnvelope(
	userID, envelopeID string,
	name, description, categoryID *string,
	minimumPayment *decimal.Decimal,
	dueDate *time.Time,
) (*models.Envelope, error) {
	envelope, err := s.GetEnvelopeByID(userID, envelopeID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != nil {
		if *name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "envelope name cannot be empty")
		}
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}
	if categoryID != nil {
		var count int64
		s.db.Model(&models.Category{}).Where("id = ? AND budget_id = ?", *categoryID, envelope.BudgetID).Count(&count)
		if count == 0 {
			return nil, apperrors.ErrCategoryNotFound
		}
		updates["category_id"] = *categoryID
	}
	if minimumPayment != nil || dueDate != nil {
		if envelope.Type != models.EnvelopeTypeDebt {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "debt fields are only valid for debt envelopes")
		}
		if minimumPayment != nil {
			updates["minimum_payment"] = *minimumPayment
		}
		if dueDate != nil {
			updates["due_date"] = dueDate
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(envelope).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return envelope, nil
}

// DeactivateEnvelope marks an envelope inactive. An envelope still
// holding or owing funds cannot be deactivated until its balance is
// moved out, which keeps the budget identity intact.
func (s *envelopeService) DeactivateEnvelope(userID, envelopeID string) error {
	envelope, err := s.GetEnvelopeByID(userID, envelopeID)
	if err != nil {
		return err
	}

	if !envelope.CurrentBalance.IsZero() {
		return apperrors.WithMessage(apperrors.ErrEnvelopeInUse, "Envelope balance must be zero before deactivation")
	}
	if envelope.Type == models.EnvelopeTypeDebt && !envelope.DebtBalance.IsZero() {
		return apperrors.WithMessage(apperrors.ErrEnvelopeInUse, "Debt must be fully paid before deactivation")
	}

	if err := s.db.Model(envelope).Update("is_active", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

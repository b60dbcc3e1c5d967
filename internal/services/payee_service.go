package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "billfold/internal/errors"
	"billfold/internal/models"
	"billfold/internal/pagination"
)

// payeeService handles payee-related business logic.
type payeeService struct {
	db *gorm.DB
}

// NewPayeeService creates a new PayeeServicer.
func NewPayeeService(db *gorm.DB) PayeeServicer {
	return &payeeService{db: db}
}

// CreatePayee creates a new payee inside a budget.
func (s *payeeService) CreatePayee(userID, budgetID, name, description string) (*models.Payee, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "payee name is required")
	}

	if _, err := ownedBudget(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	payee := &models.Payee{
		BudgetID:    budgetID,
		Name:        name,
		Description: description,
	}

	if err := s.db.Create(payee).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return payee, nil
}

// GetBudgetPayees returns a paginated list of payees in a budget.
func (s *payeeService) GetBudgetPayees(userID, budgetID string, page pagination.PageRequest) (*pagination.PageResponse[models.Payee], error) {
	page.Defaults()

	if _, err := ownedBudget(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	base := s.db.Model(&models.Payee{}).Where("budget_id = ?", budgetID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var payees []models.Payee
	if err := base.Order("name ASC").Scopes(pagination.Paginate(page)).Find(&payees).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(payees, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetPayeeByID returns a payee if it belongs to one of the user's budgets.
func (s *payeeService) GetPayeeByID(userID, payeeID string) (*models.Payee, error) {
	var payee models.Payee
	err := s.db.Joins("JOIN budgets ON budgets.id = payees.budget_id").
		Where("payees.id = ? AND budgets.user_id = ?", payeeID, userID).
		First(&payee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPayeeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &payee, nil
}

// UpdatePayee updates a payee's fields.
func (s *payeeService) UpdatePayee(userID, payeeID string, name, description *string) (*models.Payee, error) {
	payee, err := s.GetPayeeByID(userID, payeeID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != nil {
		if *name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "payee name cannot be empty")
		}
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}

	if len(updates) > 0 {
		if err := s.db.Model(payee).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return payee, nil
}

// DeletePayee removes a payee. Payees referenced by transactions cannot
// be deleted; the ledger history must stay resolvable.
func (s *payeeService) DeletePayee(userID, payeeID string) error {
	payee, err := s.GetPayeeByID(userID, payeeID)
	if err != nil {
		return err
	}

	var count int64
	s.db.Model(&models.Transaction{}).Where("payee_id = ?", payeeID).Count(&count)
	if count > 0 {
		return apperrors.ErrPayeeInUse
	}

	if err := s.db.Delete(payee).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

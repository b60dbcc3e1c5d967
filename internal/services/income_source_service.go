package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "billfold/internal/errors"
	"billfold/internal/models"
	"billfold/internal/pagination"
)

// incomeSourceService handles income-source business logic.
type incomeSourceService struct {
	db *gorm.DB
}

// NewIncomeSourceService creates a new IncomeSourceServicer.
func NewIncomeSourceService(db *gorm.DB) IncomeSourceServicer {
	return &incomeSourceService{db: db}
}

// CreateIncomeSource creates a new income source inside a budget.
func (s *incomeSourceService) CreateIncomeSource(userID, budgetID, name, description string) (*models.IncomeSource, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "income source name is required")
	}

	if _, err := ownedBudget(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	source := &models.IncomeSource{
		BudgetID:    budgetID,
		Name:        name,
		Description: description,
	}

	if err := s.db.Create(source).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return source, nil
}

// GetBudgetIncomeSources returns a paginated list of income sources in a budget.
func (s *incomeSourceService) GetBudgetIncomeSources(userID, budgetID string, page pagination.PageRequest) (*pagination.PageResponse[models.IncomeSource], error) {
	page.Defaults()

	if _, err := ownedBudget(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	base := s.db.Model(&models.IncomeSource{}).Where("budget_id = ?", budgetID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var sources []models.IncomeSource
	if err := base.Order("name ASC").Scopes(pagination.Paginate(page)).Find(&sources).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(sources, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetIncomeSourceByID returns an income source if it belongs to one of the user's budgets.
func (s *incomeSourceService) GetIncomeSourceByID(userID, sourceID string) (*models.IncomeSource, error) {
	var source models.IncomeSource
	err := s.db.Joins("JOIN budgets ON budgets.id = income_sources.budget_id").
		Where("income_sources.id = ? AND budgets.user_id = ?", sourceID, userID).
		First(&source).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrIncomeSourceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &source, nil
}

// UpdateIncomeSource updates an income source's fields.
func (s *incomeSourceService) UpdateIncomeSource(userID, sourceID string, name, description *string) (*models.IncomeSource, error) {
	source, err := s.GetIncomeSourceByID(userID, sourceID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != nil {
		if *name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "income source name cannot be empty")
		}
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}

	if len(updates) > 0 {
		if err := s.db.Model(source).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return source, nil
}

// DeleteIncomeSource removes an income source. Sources referenced by
// transactions cannot be deleted.
func (s *incomeSourceService) DeleteIncomeSource(userID, sourceID string) error {
	source, err := s.GetIncomeSourceByID(userID, sourceID)
	if err != nil {
		return err
	}

	var count int64
	s.db.Model(&models.Transaction{}).Where("income_source_id = ?", sourceID).Count(&count)
	if count > 0 {
		return apperrors.ErrIncomeSourceInUse
	}

	if err := s.db.Delete(source).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "billfold/internal/errors"
	"billfold/internal/models"
	"billfold/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category inside a budget.
func (s *categoryService) CreateCategory(userID, budgetID, name, description, icon, color string, parentID *string) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	if _, err := ownedBudget(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	if parentID != nil {
		var count int64
		s.db.Model(&models.Category{}).Where("id = ? AND budget_id = ?", *parentID, budgetID).Count(&count)
		if count == 0 {
			return nil, apperrors.ErrCategoryNotFound
		}
	}

	category := &models.Category{
		BudgetID:    budgetID,
		Name:        name,
		Description: description,
		Icon:        icon,
		Color:       color,
		ParentID:    parentID,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetBudgetCategories returns a paginated list of categories in a budget.
func (s *categoryService) GetBudgetCategories(userID, budgetID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	if _, err := ownedBudget(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	base := s.db.Model(&models.Category{}).Where("budget_id = ?", budgetID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Order("name ASC").Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID returns a category if it belongs to one of the user's budgets.
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	err := s.db.Joins("JOIN budgets ON budgets.id = categories.budget_id").
		Where("categories.id = ? AND budgets.user_id = ?", categoryID, userID).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates a category's fields. Empty strings are ignored
// for name; icon and color may be cleared.
func (s *categoryService) UpdateCategory(userID, categoryID string, name, description, icon, color string, parentID *string) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if color != "" {
		updates["color"] = color
	}
	if parentID != nil {
		if *parentID == category.ID {
			return nil, apperrors.ErrSelfParentCategory
		}
		var count int64
		s.db.Model(&models.Category{}).Where("id = ? AND budget_id = ?", *parentID, category.BudgetID).Count(&count)
		if count == 0 {
			return nil, apperrors.ErrCategoryNotFound
		}
		updates["parent_id"] = *parentID
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// DeleteCategory removes a category. A category that still has children,
// envelopes, or transactions cannot be deleted.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}

	var children int64
	s.db.Model(&models.Category{}).Where("parent_id = ?", categoryID).Count(&children)
	if children > 0 {
		return apperrors.ErrCategoryHasChildren
	}

	var envelopes int64
	s.db.Model(&models.Envelope{}).Where("category_id = ?", categoryID).Count(&envelopes)
	if envelopes > 0 {
		return apperrors.ErrCategoryInUse
	}

	var transactions int64
	s.db.Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&transactions)
	if transactions > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

package services

import (
	"testing"

	"billfold/internal/models"
	"billfold/internal/pagination"
	"billfold/internal/testutil"
)

func TestCreateCategory(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)

		cat, err := svc.CreateCategory(user.ID, budget.ID, "Food", "", "utensils", "#ff9900", nil)
		testutil.AssertNoError(t, err)
		if cat.Name != "Food" {
			t.Errorf("expected name Food, got %s", cat.Name)
		}
	})

	t.Run("with_parent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		parent := testutil.CreateTestCategory(t, db, budget.ID)

		cat, err := svc.CreateCategory(user.ID, budget.ID, "Restaurants", "", "", "", &parent.ID)
		testutil.AssertNoError(t, err)
		if cat.ParentID == nil || *cat.ParentID != parent.ID {
			t.Error("expected parent to be set")
		}
	})

	t.Run("cross_budget_parent_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		budget1 := testutil.CreateTestBudget(t, db, user.ID)
		budget2 := testutil.CreateTestBudget(t, db, user.ID)
		parent := testutil.CreateTestCategory(t, db, budget2.ID)

		_, err := svc.CreateCategory(user.ID, budget1.ID, "Restaurants", "", "", "", &parent.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestGetBudgetCategories(t *testing.T) {
	t.Run("scoped_to_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		budget1 := testutil.CreateTestBudget(t, db, user.ID)
		budget2 := testutil.CreateTestBudget(t, db, user.ID)
		testutil.CreateTestCategory(t, db, budget1.ID)
		testutil.CreateTestCategory(t, db, budget2.ID)

		result, err := svc.GetBudgetCategories(user.ID, budget1.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 {
			t.Errorf("expected 1 category, got %d", result.TotalItems)
		}
	})
}

func TestUpdateCategory(t *testing.T) {
	t.Run("self_parent_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, budget.ID)

		_, err := svc.UpdateCategory(user.ID, cat.ID, "", "", "", "", &cat.ID)
		testutil.AssertAppError(t, err, "SELF_PARENT_CATEGORY")
	})
}

func TestDeleteCategory(t *testing.T) {
	t.Run("unused_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, budget.ID)

		err := svc.DeleteCategory(user.ID, cat.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.GetCategoryByID(user.ID, cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("with_children_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		parent := testutil.CreateTestCategory(t, db, budget.ID)
		_, err := svc.CreateCategory(user.ID, budget.ID, "Child", "", "", "", &parent.ID)
		testutil.AssertNoError(t, err)

		err = svc.DeleteCategory(user.ID, parent.ID)
		testutil.AssertAppError(t, err, "CATEGORY_HAS_CHILDREN")
	})

	t.Run("referenced_by_envelope_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, budget.ID)
		env := testutil.CreateTestEnvelope(t, db, budget.ID)
		db.Model(env).Update("category_id", cat.ID)

		err := svc.DeleteCategory(user.ID, cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_IN_USE")
	})

	t.Run("referenced_by_transaction_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		budget := testutil.CreateTestBudget(t, db, user.ID)
		cat := testutil.CreateTestCategory(t, db, budget.ID)
		tx := &models.Transaction{
			BudgetID:   budget.ID,
			Type:       models.TransactionTypeIncome,
			Amount:     testutil.Money(t, "10"),
			CategoryID: &cat.ID,
		}
		if err := db.Create(tx).Error; err != nil {
			t.Fatalf("failed to create transaction: %v", err)
		}

		err := svc.DeleteCategory(user.ID, cat.ID)
		testutil.AssertAppError(t, err, "CATEGORY_IN_USE")
	})
}

package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "billfold/internal/errors"
	"billfold/internal/ledger"
	"billfold/internal/models"
	"billfold/internal/pagination"
)

// transactionService exposes the transaction surface of the API. Every
// balance-mutating operation delegates to the ledger engine so that the
// budget identity is enforced in exactly one place.
type transactionService struct {
	db     *gorm.DB
	engine *ledger.Engine
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db, engine: ledger.New(db)}
}

// ApplyTransaction validates and applies a new transaction to the budget.
func (s *transactionService) ApplyTransaction(userID, budgetID string, in ledger.Input) (*models.Transaction, error) {
	return s.engine.Apply(userID, budgetID, in)
}

// GetBudgetTransactions returns a paginated, filtered list of a budget's
// transactions. Deleted entries are excluded unless explicitly requested.
func (s *transactionService) GetBudgetTransactions(userID, budgetID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	if _, err := ownedBudget(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	base := applyTransactionFilters(
		s.db.Model(&models.Transaction{}).Where("budget_id = ?", budgetID),
		filter,
	)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	err := base.Preload("FromEnvelope").Preload("ToEnvelope").
		Preload("Category").Preload("Payee").Preload("IncomeSource").
		Order("transaction_date DESC, created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// applyTransactionFilters narrows a transaction query by the optional
// filter parameters.
func applyTransactionFilters(q *gorm.DB, filter TransactionFilter) *gorm.DB {
	if !filter.IncludeDeleted {
		q = q.Where("is_deleted = ?", false)
	}
	if filter.FromDate != nil {
		q = q.Where("transaction_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		q = q.Where("transaction_date <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		q = q.Where("transaction_type = ?", *filter.Type)
	}
	if filter.EnvelopeID != nil {
		q = q.Where("from_envelope_id = ? OR to_envelope_id = ?", *filter.EnvelopeID, *filter.EnvelopeID)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.PayeeID != nil {
		q = q.Where("payee_id = ?", *filter.PayeeID)
	}
	return q
}

// GetTransactionByID returns a transaction if it belongs to one of the
// user's budgets. Deleted transactions remain readable.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.Preload("FromEnvelope").Preload("ToEnvelope").
		Preload("Category").Preload("Payee").Preload("IncomeSource").
		Joins("JOIN budgets ON budgets.id = transactions.budget_id").
		Where("transactions.id = ? AND budgets.user_id = ?", transactionID, userID).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// SoftDeleteTransaction reverses a transaction's balance effect and flags
// it as deleted, recording who deleted it.
func (s *transactionService) SoftDeleteTransaction(userID, transactionID, actorID string) (*models.Transaction, error) {
	return s.engine.SoftDelete(userID, transactionID, actorID)
}

// RestoreTransaction re-applies a deleted transaction's balance effect
// and clears its deletion flags.
func (s *transactionService) RestoreTransaction(userID, transactionID string) (*models.Transaction, error) {
	return s.engine.Restore(userID, transactionID)
}

// lockOwnedTransaction loads a transaction row for update after verifying
// the caller owns its budget. SQLite, used in tests, has no FOR UPDATE
// clause and serializes writers on its own.
func lockOwnedTransaction(tx *gorm.DB, userID, transactionID string) (*models.Transaction, error) {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "transactions"}})
	}

	var transaction models.Transaction
	err := q.Joins("JOIN budgets ON budgets.id = transactions.budget_id").
		Where("transactions.id = ? AND budgets.user_id = ?", transactionID, userID).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// MarkCleared marks a transaction as cleared against a real statement.
// Marking an already cleared transaction is a no-op. The check and the
// update run in one transaction with the row locked, like every other
// transaction mutation.
func (s *transactionService) MarkCleared(userID, transactionID string) (*models.Transaction, error) {
	var result *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		transaction, err := lockOwnedTransaction(tx, userID, transactionID)
		if err != nil {
			return err
		}
		if transaction.IsDeleted {
			return apperrors.WithMessage(apperrors.ErrAlreadyDeleted, "Deleted transactions cannot be cleared")
		}
		if !transaction.IsCleared {
			if err := tx.Model(transaction).Update("is_cleared", true).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			transaction.IsCleared = true
		}
		result = transaction
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkReconciled locks a cleared transaction against further mutation.
// Reconciliation is monotonic; it cannot be undone through the API.
func (s *transactionService) MarkReconciled(userID, transactionID string) (*models.Transaction, error) {
	var result *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		transaction, err := lockOwnedTransaction(tx, userID, transactionID)
		if err != nil {
			return err
		}
		if transaction.IsDeleted {
			return apperrors.WithMessage(apperrors.ErrAlreadyDeleted, "Deleted transactions cannot be reconciled")
		}
		if !transaction.IsCleared {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "Only cleared transactions can be reconciled")
		}
		if !transaction.IsReconciled {
			if err := tx.Model(transaction).Update("is_reconciled", true).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			transaction.IsReconciled = true
		}
		result = transaction
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReconcileBudget replays the budget's transaction history and reports
// any drift between recorded and computed balances, optionally repairing
// the recorded values.
func (s *transactionService) ReconcileBudget(userID, budgetID string, repair bool) (*ledger.Report, error) {
	return s.engine.Reconcile(userID, budgetID, repair)
}

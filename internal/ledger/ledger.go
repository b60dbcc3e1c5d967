// Package ledger implements the envelope ledger engine: the accounting
// rules that move money between a budget's unallocated pool and its
// envelopes. Every operation validates its input, then applies all balance
// deltas inside a single database transaction with the budget row locked,
// so a partial update can never be observed and two concurrent operations
// on the same budget cannot race a stale balance.
//
// The engine maintains the invariant that a budget's available amount plus
// the sum of its envelope balances equals the replay of all non-deleted
// transactions, and that the available amount never goes negative.
package ledger

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "billfold/internal/errors"
	"billfold/internal/models"
)

// Engine applies, reverses, restores, and reconciles ledger transactions.
// Only the engine writes budget and envelope balances.
type Engine struct {
	db *gorm.DB
}

// New creates a ledger Engine on top of the given database handle.
func New(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Apply validates the proposed transaction and commits its balance effect
// atomically. If the input carries an idempotency key that was already
// applied to this budget, the original transaction is returned and nothing
// is mutated, so retried requests never double-apply.
func (e *Engine) Apply(userID, budgetID string, in Input) (*models.Transaction, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.TransactionDate.IsZero() {
		in.TransactionDate = time.Now()
	}

	var result *models.Transaction
	err := e.db.Transaction(func(tx *gorm.DB) error {
		budget, err := lockBudget(tx, userID, budgetID)
		if err != nil {
			return err
		}

		if in.IdempotencyKey != nil {
			existing, err := findByIdempotencyKey(tx, budgetID, *in.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				result = existing
				return nil
			}
		}

		if err := checkReferences(tx, budget.ID, in); err != nil {
			return err
		}

		record := &models.Transaction{
			BudgetID:        budget.ID,
			Type:            in.Type,
			Amount:          in.Amount,
			Description:     in.Description,
			TransactionDate: in.TransactionDate,
			FromEnvelopeID:  in.FromEnvelopeID,
			ToEnvelopeID:    in.ToEnvelopeID,
			CategoryID:      in.CategoryID,
			PayeeID:         in.PayeeID,
			IncomeSourceID:  in.IncomeSourceID,
			IdempotencyKey:  in.IdempotencyKey,
		}

		ef := effectOf(record)
		envelopes, err := loadEnvelopes(tx, budget.ID, ef.envelopeIDs())
		if err != nil {
			return err
		}

		if in.Type == models.TransactionTypeDebtPayment {
			if envelopes[*in.ToEnvelopeID].Type != models.EnvelopeTypeDebt {
				return apperrors.ErrEnvelopeNotDebt
			}
		}

		if err := tx.Create(record).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := applyEffect(tx, budget, envelopes, ef); err != nil {
			return err
		}

		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SoftDelete reverses the transaction's balance effect and flags the row
// deleted, recording who deleted it. The row itself is never removed.
// Reconciled transactions are immutable and cannot be deleted.
func (e *Engine) SoftDelete(userID, transactionID, actorID string) (*models.Transaction, error) {
	var result *models.Transaction
	err := e.db.Transaction(func(tx *gorm.DB) error {
		record, budget, err := lockTransaction(tx, userID, transactionID)
		if err != nil {
			return err
		}
		if record.IsDeleted {
			return apperrors.ErrAlreadyDeleted
		}
		if record.IsReconciled {
			return apperrors.ErrTransactionImmutable
		}

		ef := effectOf(record).inverted()
		envelopes, err := loadEnvelopes(tx, budget.ID, ef.envelopeIDs())
		if err != nil {
			return err
		}
		if err := applyEffect(tx, budget, envelopes, ef); err != nil {
			return err
		}

		now := time.Now()
		record.IsDeleted = true
		record.DeletedAt = &now
		record.DeletedBy = &actorID
		updates := map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
			"deleted_by": actorID,
		}
		if err := tx.Model(record).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Restore re-applies a soft-deleted transaction's balance effect. If the
// budget's state has moved on since the delete in a way that makes the
// re-apply inconsistent, for example restoring an allocation whose funds
// were reallocated elsewhere in the interim, it fails with a restore
// conflict instead of corrupting balances.
func (e *Engine) Restore(userID, transactionID string) (*models.Transaction, error) {
	var result *models.Transaction
	err := e.db.Transaction(func(tx *gorm.DB) error {
		record, budget, err := lockTransaction(tx, userID, transactionID)
		if err != nil {
			return err
		}
		if !record.IsDeleted {
			return apperrors.WithMessage(apperrors.ErrRestoreConflict, "Transaction is not deleted")
		}

		ef := effectOf(record)
		envelopes, err := loadEnvelopes(tx, budget.ID, ef.envelopeIDs())
		if err != nil {
			return err
		}
		if err := applyEffect(tx, budget, envelopes, ef); err != nil {
			if errors.Is(err, apperrors.ErrInsufficientFunds) {
				return apperrors.ErrRestoreConflict
			}
			return err
		}

		record.IsDeleted = false
		record.DeletedAt = nil
		record.DeletedBy = nil
		updates := map[string]interface{}{
			"is_deleted": false,
			"deleted_at": nil,
			"deleted_by": nil,
		}
		if err := tx.Model(record).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyEffect writes the effect's deltas to the budget and envelope rows.
// The budget's available amount has a hard floor of zero: any effect that
// would cross it aborts the whole operation with InsufficientFunds.
// Envelope balances have no floor; overspending is a tracked state.
func applyEffect(tx *gorm.DB, budget *models.Budget, envelopes map[string]*models.Envelope, ef effect) error {
	if !ef.available.IsZero() {
		next := budget.AvailableAmount.Add(ef.available)
		if next.IsNegative() {
			return apperrors.ErrInsufficientFunds
		}
		budget.AvailableAmount = next
		if err := tx.Model(budget).Update("available_amount", next).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	for id, delta := range ef.balances {
		env := envelopes[id]
		env.CurrentBalance = env.CurrentBalance.Add(delta)
		if err := tx.Model(env).Update("current_balance", env.CurrentBalance).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	for id, delta := range ef.debts {
		env := envelopes[id]
		env.DebtBalance = env.DebtBalance.Add(delta)
		if err := tx.Model(env).Update("debt_balance", env.DebtBalance).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return nil
}

// lockBudget loads the budget row FOR UPDATE, serializing all ledger
// operations on the same budget for the duration of the transaction.
func lockBudget(tx *gorm.DB, userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	err := lockForUpdate(tx).
		Where("id = ? AND user_id = ?", budgetID, userID).
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// lockTransaction loads a transaction and locks its owning budget,
// verifying the caller owns that budget.
func lockTransaction(tx *gorm.DB, userID, transactionID string) (*models.Transaction, *models.Budget, error) {
	var record models.Transaction
	if err := tx.Where("id = ?", transactionID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrTransactionNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	budget, err := lockBudget(tx, userID, record.BudgetID)
	if err != nil {
		// Ownership failures surface as transaction-not-found so the
		// existence of other users' transactions is not revealed.
		if errors.Is(err, apperrors.ErrBudgetNotFound) {
			return nil, nil, apperrors.ErrTransactionNotFound
		}
		return nil, nil, err
	}
	return &record, budget, nil
}

// findByIdempotencyKey returns the already-applied transaction for the
// key, or nil when the key is unused.
func findByIdempotencyKey(tx *gorm.DB, budgetID, key string) (*models.Transaction, error) {
	var existing models.Transaction
	err := tx.Where("budget_id = ? AND idempotency_key = ?", budgetID, key).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &existing, nil
}

// loadEnvelopes fetches the envelopes an effect touches. A reference to an
// envelope from another budget is an integrity violation, reported
// distinctly from a missing envelope.
func loadEnvelopes(tx *gorm.DB, budgetID string, ids []string) (map[string]*models.Envelope, error) {
	result := make(map[string]*models.Envelope, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var envelopes []models.Envelope
	if err := tx.Where("id IN ?", ids).Find(&envelopes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range envelopes {
		if envelopes[i].BudgetID != budgetID {
			return nil, apperrors.ErrCrossBudgetReference
		}
		result[envelopes[i].ID] = &envelopes[i]
	}
	for _, id := range ids {
		if _, ok := result[id]; !ok {
			return nil, apperrors.ErrEnvelopeNotFound
		}
	}
	return result, nil
}

// checkReferences verifies that every descriptive entity the input names
// belongs to the target budget.
func checkReferences(tx *gorm.DB, budgetID string, in Input) error {
	if in.CategoryID != nil {
		if err := checkBudgetMembership(tx, &models.Category{}, *in.CategoryID, budgetID, apperrors.ErrCategoryNotFound); err != nil {
			return err
		}
	}
	if in.PayeeID != nil {
		if err := checkBudgetMembership(tx, &models.Payee{}, *in.PayeeID, budgetID, apperrors.ErrPayeeNotFound); err != nil {
			return err
		}
	}
	if in.IncomeSourceID != nil {
		if err := checkBudgetMembership(tx, &models.IncomeSource{}, *in.IncomeSourceID, budgetID, apperrors.ErrIncomeSourceNotFound); err != nil {
			return err
		}
	}
	return nil
}

func checkBudgetMembership(tx *gorm.DB, model interface{}, id, budgetID string, notFound *apperrors.AppError) error {
	var owner struct{ BudgetID string }
	err := tx.Model(model).Select("budget_id").Where("id = ?", id).Take(&owner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if owner.BudgetID != budgetID {
		return apperrors.ErrCrossBudgetReference
	}
	return nil
}

// lockForUpdate adds a FOR UPDATE row lock on dialects that support it.
// SQLite, used in tests, serializes writers on its own and has no such
// clause.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

package ledger

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "billfold/internal/errors"
	"billfold/internal/models"
)

// Drift names one stored value that disagrees with the transaction log.
type Drift struct {
	Entity   string          `json:"entity"`
	EntityID string          `json:"entity_id"`
	Field    string          `json:"field"`
	Recorded decimal.Decimal `json:"recorded"`
	Computed decimal.Decimal `json:"computed"`
	Delta    decimal.Decimal `json:"delta"`
}

// Report is the outcome of a budget reconciliation run.
type Report struct {
	BudgetID string  `json:"budget_id"`
	Drift    bool    `json:"drift"`
	Details  []Drift `json:"details,omitempty"`
	Repaired bool    `json:"repaired"`
}

// Reconcile recomputes the budget's available amount and every envelope's
// balances by replaying all non-deleted transactions from scratch, and
// diffs the result against the incrementally maintained values. Drift is
// reported, never silently ignored. With repair set, the replayed values
// overwrite the stored ones inside the same database transaction; the
// caller is expected to record that as an administrative event.
func (e *Engine) Reconcile(userID, budgetID string, repair bool) (*Report, error) {
	var report *Report
	err := e.db.Transaction(func(tx *gorm.DB) error {
		budget, err := lockBudget(tx, userID, budgetID)
		if err != nil {
			return err
		}

		var envelopes []models.Envelope
		if err := tx.Where("budget_id = ?", budget.ID).Find(&envelopes).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var transactions []models.Transaction
		if err := tx.Where("budget_id = ? AND is_deleted = ?", budget.ID, false).
			Order("created_at ASC").
			Find(&transactions).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		available, balances, debts := replay(envelopes, transactions)
		report = diff(budget, envelopes, available, balances, debts)

		if report.Drift && repair {
			if err := writeRepair(tx, budget, envelopes, available, balances, debts); err != nil {
				return err
			}
			report.Repaired = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// replay folds every non-deleted transaction's effect over a zero state.
// Debt balances start from each envelope's immutable initial liability.
func replay(envelopes []models.Envelope, transactions []models.Transaction) (decimal.Decimal, map[string]decimal.Decimal, map[string]decimal.Decimal) {
	available := decimal.Zero
	balances := make(map[string]decimal.Decimal, len(envelopes))
	debts := make(map[string]decimal.Decimal, len(envelopes))
	for i := range envelopes {
		balances[envelopes[i].ID] = decimal.Zero
		debts[envelopes[i].ID] = envelopes[i].InitialDebtBalance
	}

	for i := range transactions {
		ef := effectOf(&transactions[i])
		available = available.Add(ef.available)
		for id, delta := range ef.balances {
			balances[id] = balances[id].Add(delta)
		}
		for id, delta := range ef.debts {
			debts[id] = debts[id].Add(delta)
		}
	}
	return available, balances, debts
}

// diff compares stored values against the replayed ones.
func diff(budget *models.Budget, envelopes []models.Envelope, available decimal.Decimal, balances, debts map[string]decimal.Decimal) *Report {
	report := &Report{BudgetID: budget.ID}

	if !budget.AvailableAmount.Equal(available) {
		report.Details = append(report.Details, Drift{
			Entity:   "budget",
			EntityID: budget.ID,
			Field:    "available_amount",
			Recorded: budget.AvailableAmount,
			Computed: available,
			Delta:    budget.AvailableAmount.Sub(available),
		})
	}

	for i := range envelopes {
		env := &envelopes[i]
		if !env.CurrentBalance.Equal(balances[env.ID]) {
			report.Details = append(report.Details, Drift{
				Entity:   "envelope",
				EntityID: env.ID,
				Field:    "current_balance",
				Recorded: env.CurrentBalance,
				Computed: balances[env.ID],
				Delta:    env.CurrentBalance.Sub(balances[env.ID]),
			})
		}
		if !env.DebtBalance.Equal(debts[env.ID]) {
			report.Details = append(report.Details, Drift{
				Entity:   "envelope",
				EntityID: env.ID,
				Field:    "debt_balance",
				Recorded: env.DebtBalance,
				Computed: debts[env.ID],
				Delta:    env.DebtBalance.Sub(debts[env.ID]),
			})
		}
	}

	report.Drift = len(report.Details) > 0
	return report
}

// writeRepair overwrites the stored derived values with the replayed ones.
func writeRepair(tx *gorm.DB, budget *models.Budget, envelopes []models.Envelope, available decimal.Decimal, balances, debts map[string]decimal.Decimal) error {
	budget.AvailableAmount = available
	if err := tx.Model(budget).Update("available_amount", available).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range envelopes {
		env := &envelopes[i]
		updates := map[string]interface{}{
			"current_balance": balances[env.ID],
			"debt_balance":    debts[env.ID],
		}
		if err := tx.Model(env).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return nil
}

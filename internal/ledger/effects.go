package ledger

import (
	"github.com/shopspring/decimal"

	"billfold/internal/models"
)

// effect is the set of signed balance deltas a single transaction applies:
// one delta for the budget's available pool and one per touched envelope
// balance or debt balance. Applying a transaction and reversing it share
// this table with the sign flipped, so the mutation rules live in exactly
// one place.
type effect struct {
	available decimal.Decimal
	balances  map[string]decimal.Decimal
	debts     map[string]decimal.Decimal
}

func newEffect() effect {
	return effect{
		balances: make(map[string]decimal.Decimal),
		debts:    make(map[string]decimal.Decimal),
	}
}

func (e *effect) addBalance(envelopeID string, delta decimal.Decimal) {
	e.balances[envelopeID] = e.balances[envelopeID].Add(delta)
}

func (e *effect) addDebt(envelopeID string, delta decimal.Decimal) {
	e.debts[envelopeID] = e.debts[envelopeID].Add(delta)
}

// effectOf computes the balance deltas for a structurally valid transaction.
//
// Income with a target envelope credits the envelope directly and never
// passes through the available pool; without one, it lands in the pool.
// Allocations move funds pool -> envelope, expenses remove funds from an
// envelope (negative balances are a tracked state, not an error), transfers
// are balance-neutral between two envelopes, and debt payments spend from
// the funding envelope while reducing the debt envelope's liability.
func effectOf(t *models.Transaction) effect {
	e := newEffect()

	switch t.Type {
	case models.TransactionTypeIncome:
		if t.ToEnvelopeID != nil {
			e.addBalance(*t.ToEnvelopeID, t.Amount)
		} else {
			e.available = e.available.Add(t.Amount)
		}
	case models.TransactionTypeAllocation:
		e.available = e.available.Sub(t.Amount)
		e.addBalance(*t.ToEnvelopeID, t.Amount)
	case models.TransactionTypeExpense:
		e.addBalance(*t.FromEnvelopeID, t.Amount.Neg())
	case models.TransactionTypeTransfer:
		e.addBalance(*t.FromEnvelopeID, t.Amount.Neg())
		e.addBalance(*t.ToEnvelopeID, t.Amount)
	case models.TransactionTypeDebtPayment:
		e.addBalance(*t.FromEnvelopeID, t.Amount.Neg())
		e.addDebt(*t.ToEnvelopeID, t.Amount.Neg())
	}

	return e
}

// inverted returns the effect with every delta negated. Soft delete is the
// inverted apply; restore is the plain apply again.
func (e effect) inverted() effect {
	inv := newEffect()
	inv.available = e.available.Neg()
	for id, d := range e.balances {
		inv.balances[id] = d.Neg()
	}
	for id, d := range e.debts {
		inv.debts[id] = d.Neg()
	}
	return inv
}

// envelopeIDs returns the ids of every envelope the effect touches.
func (e effect) envelopeIDs() []string {
	seen := make(map[string]struct{}, len(e.balances)+len(e.debts))
	ids := make([]string, 0, len(e.balances)+len(e.debts))
	for id := range e.balances {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for id := range e.debts {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

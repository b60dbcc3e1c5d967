package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "billfold/internal/errors"
	"billfold/internal/models"
)

// Input describes a proposed transaction before any balances are read.
type Input struct {
	Type            models.TransactionType
	Amount          decimal.Decimal
	TransactionDate time.Time
	Description     string
	FromEnvelopeID  *string
	ToEnvelopeID    *string
	CategoryID      *string
	PayeeID         *string
	IncomeSourceID  *string

	// IdempotencyKey lets a caller safely retry an apply: a second apply
	// with the same key returns the first result without re-mutating.
	IdempotencyKey *string
}

// validateInput checks structural validity: a positive amount and the
// envelope references each transaction type requires. Semantic checks that
// need database state (budget membership, debt envelope type, sufficient
// funds) happen inside the engine's atomic apply.
func validateInput(in Input) error {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return apperrors.WithMessage(apperrors.ErrValidation, "amount must be greater than zero")
	}

	switch in.Type {
	case models.TransactionTypeIncome:
		if in.FromEnvelopeID != nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "income must not set from_envelope_id")
		}
	case models.TransactionTypeAllocation:
		if in.ToEnvelopeID == nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "allocation requires to_envelope_id")
		}
		if in.FromEnvelopeID != nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "allocation must not set from_envelope_id")
		}
	case models.TransactionTypeExpense:
		if in.FromEnvelopeID == nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "expense requires from_envelope_id")
		}
		if in.ToEnvelopeID != nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "expense must not set to_envelope_id")
		}
	case models.TransactionTypeTransfer:
		if in.FromEnvelopeID == nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "transfer requires from_envelope_id")
		}
		if in.ToEnvelopeID == nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "transfer requires to_envelope_id")
		}
		if *in.FromEnvelopeID == *in.ToEnvelopeID {
			return apperrors.ErrSameEnvelopeTransfer
		}
	case models.TransactionTypeDebtPayment:
		if in.FromEnvelopeID == nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "debt_payment requires from_envelope_id")
		}
		if in.ToEnvelopeID == nil {
			return apperrors.WithMessage(apperrors.ErrValidation, "debt_payment requires to_envelope_id")
		}
		if *in.FromEnvelopeID == *in.ToEnvelopeID {
			return apperrors.WithMessage(apperrors.ErrValidation, "debt_payment funding and debt envelopes must differ")
		}
	default:
		return apperrors.WithMessage(apperrors.ErrValidation, "unsupported transaction type")
	}

	return nil
}

// Package errors provides custom error types for the Billfold API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Entity lookup errors.
var (
	ErrBudgetNotFound       = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrEnvelopeNotFound     = &AppError{Code: "ENVELOPE_NOT_FOUND", Message: "Envelope not found", StatusCode: http.StatusNotFound}
	ErrCategoryNotFound     = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrPayeeNotFound        = &AppError{Code: "PAYEE_NOT_FOUND", Message: "Payee not found", StatusCode: http.StatusNotFound}
	ErrIncomeSourceNotFound = &AppError{Code: "INCOME_SOURCE_NOT_FOUND", Message: "Income source not found", StatusCode: http.StatusNotFound}
	ErrTransactionNotFound  = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
)

// Category errors.
var (
	ErrCategoryInUse       = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing envelopes or transactions", StatusCode: http.StatusConflict}
	ErrCategoryHasChildren = &AppError{Code: "CATEGORY_HAS_CHILDREN", Message: "Category has child categories", StatusCode: http.StatusConflict}
	ErrSelfParentCategory  = &AppError{Code: "SELF_PARENT_CATEGORY", Message: "A category cannot be its own parent", StatusCode: http.StatusBadRequest}
)

// Envelope errors.
var (
	ErrEnvelopeInUse   = &AppError{Code: "ENVELOPE_IN_USE", Message: "Envelope is referenced by existing transactions", StatusCode: http.StatusConflict}
	ErrEnvelopeNotDebt = &AppError{Code: "ENVELOPE_NOT_DEBT", Message: "Target envelope is not a debt envelope", StatusCode: http.StatusBadRequest}
)

// Reference entity errors.
var (
	ErrPayeeInUse        = &AppError{Code: "PAYEE_IN_USE", Message: "Payee is referenced by existing transactions", StatusCode: http.StatusConflict}
	ErrIncomeSourceInUse = &AppError{Code: "INCOME_SOURCE_IN_USE", Message: "Income source is referenced by existing transactions", StatusCode: http.StatusConflict}
)

// Ledger errors. These are the outcomes the envelope ledger engine can
// reject an operation with; none of them indicates a bug.
var (
	ErrValidation           = &AppError{Code: "VALIDATION_ERROR", Message: "Transaction is not valid", StatusCode: http.StatusBadRequest}
	ErrInsufficientFunds    = &AppError{Code: "INSUFFICIENT_FUNDS", Message: "Not enough unallocated funds available", StatusCode: http.StatusUnprocessableEntity}
	ErrCrossBudgetReference = &AppError{Code: "CROSS_BUDGET_REFERENCE", Message: "Referenced entity belongs to a different budget", StatusCode: http.StatusUnprocessableEntity}
	ErrAlreadyDeleted       = &AppError{Code: "ALREADY_DELETED", Message: "Transaction is already deleted", StatusCode: http.StatusConflict}
	ErrRestoreConflict      = &AppError{Code: "RESTORE_CONFLICT", Message: "Transaction cannot be restored without corrupting balances", StatusCode: http.StatusConflict}
	ErrTransactionImmutable = &AppError{Code: "TRANSACTION_IMMUTABLE", Message: "Reconciled transactions cannot be modified", StatusCode: http.StatusConflict}
	ErrSameEnvelopeTransfer = &AppError{Code: "SAME_ENVELOPE_TRANSFER", Message: "Cannot transfer to the same envelope", StatusCode: http.StatusBadRequest}
)

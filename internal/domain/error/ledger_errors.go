// Package error defines domain-specific errors for the clinic ledger.
package error

import "errors"

// Ledger domain errors.
var (
	// ErrTransactionNotFound is returned when a transaction is not found in the ledger.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidTransactionType is returned when the transaction type is not supported.
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrInvalidCurrency is returned when the currency is not one of EUR, RSD or CHF.
	ErrInvalidCurrency = errors.New("unsupported currency")

	// ErrInvalidTransactionAmount is returned when the amount violates the type's sign rules.
	ErrInvalidTransactionAmount = errors.New("invalid transaction amount")

	// ErrEmptyDescription is returned when the description is blank.
	ErrEmptyDescription = errors.New("description is required")

	// ErrDescriptionTooLong is returned when the description exceeds the maximum length.
	ErrDescriptionTooLong = errors.New("description too long")

	// ErrNotesTooLong is returned when the notes exceed the maximum length.
	ErrNotesTooLong = errors.New("notes too long")

	// ErrMissingRecordedBy is returned when no recording actor is given.
	ErrMissingRecordedBy = errors.New("recorded by is required")

	// ErrInvalidPatientID is returned when the patient identifier is not positive.
	ErrInvalidPatientID = errors.New("invalid patient id")

	// ErrInvalidStatus is returned when the status is not a known value.
	ErrInvalidStatus = errors.New("invalid transaction status")

	// ErrIllegalStatusTransition is returned when a status change is not allowed.
	ErrIllegalStatusTransition = errors.New("illegal status transition")

	// ErrImmutableField is returned when an update tries to change a fixed field.
	ErrImmutableField = errors.New("field cannot be changed after creation")

	// ErrInvalidAuthorizedBy is returned when the authorizing actor is not valid.
	ErrInvalidAuthorizedBy = errors.New("invalid authorized by")

	// ErrInvalidRefundReference is returned when a refund points at an unusable transaction.
	ErrInvalidRefundReference = errors.New("invalid refund reference")

	// ErrConcurrentModification is returned when a transaction changed while being updated.
	ErrConcurrentModification = errors.New("transaction was modified concurrently")
)

// LedgerErrorCode defines error codes for ledger errors.
// Format: LDG-XXYYYY where XX is category and YYYY is specific error.
type LedgerErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeInvalidTransactionType   LedgerErrorCode = "LDG-010001"
	ErrCodeInvalidCurrency          LedgerErrorCode = "LDG-010002"
	ErrCodeInvalidTransactionAmount LedgerErrorCode = "LDG-010003"
	ErrCodeEmptyDescription         LedgerErrorCode = "LDG-010004"
	ErrCodeDescriptionTooLong       LedgerErrorCode = "LDG-010005"
	ErrCodeNotesTooLong             LedgerErrorCode = "LDG-010006"
	ErrCodeMissingRecordedBy        LedgerErrorCode = "LDG-010007"
	ErrCodeInvalidPatientID         LedgerErrorCode = "LDG-010008"
	ErrCodeInvalidStatus            LedgerErrorCode = "LDG-010009"
	ErrCodeIllegalStatusTransition  LedgerErrorCode = "LDG-010010"
	ErrCodeImmutableField           LedgerErrorCode = "LDG-010011"
	ErrCodeInvalidAuthorizedBy      LedgerErrorCode = "LDG-010012"
	ErrCodeInvalidRefundReference   LedgerErrorCode = "LDG-010013"
	ErrCodeMalformedRequest         LedgerErrorCode = "LDG-010014"

	// Lookup errors (02XXXX)
	ErrCodeTransactionNotFound LedgerErrorCode = "LDG-020001"

	// Consistency errors (03XXXX)
	ErrCodeConcurrentModification LedgerErrorCode = "LDG-030001"
)

// ErrorKind classifies a ledger error for callers.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
)

// LedgerError represents a ledger error with code, kind and the offending field.
type LedgerError struct {
	Code    LedgerErrorCode
	Kind    ErrorKind
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a validation error for the given field.
func NewValidationError(code LedgerErrorCode, field, message string, err error) *LedgerError {
	return &LedgerError{
		Code:    code,
		Kind:    KindValidation,
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// NewNotFoundError creates a not-found error.
func NewNotFoundError(code LedgerErrorCode, message string, err error) *LedgerError {
	return &LedgerError{
		Code:    code,
		Kind:    KindNotFound,
		Message: message,
		Err:     err,
	}
}

// NewConflictError creates a conflict error.
func NewConflictError(code LedgerErrorCode, message string, err error) *LedgerError {
	return &LedgerError{
		Code:    code,
		Kind:    KindConflict,
		Message: message,
		Err:     err,
	}
}

// IsValidation reports whether err is a ledger validation error.
func IsValidation(err error) bool {
	return hasKind(err, KindValidation)
}

// IsNotFound reports whether err is a ledger not-found error.
func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound)
}

// IsConflict reports whether err is a ledger conflict error.
func IsConflict(err error) bool {
	return hasKind(err, KindConflict)
}

func hasKind(err error, kind ErrorKind) bool {
	var ledgerErr *LedgerError
	if errors.As(err, &ledgerErr) {
		return ledgerErr.Kind == kind
	}
	return false
}

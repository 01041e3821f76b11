package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorKind classifies an expected, recoverable inventory failure.
type ErrorKind string

const (
	KindInvalidQuantity   ErrorKind = "INVALID_QUANTITY"
	KindInvalidExpiry     ErrorKind = "INVALID_EXPIRY"
	KindInvalidPrice      ErrorKind = "INVALID_PRICE"
	KindInsufficientStock ErrorKind = "INSUFFICIENT_STOCK"
	KindOverRelease       ErrorKind = "OVER_RELEASE"
	KindOverConsume       ErrorKind = "OVER_CONSUME"
	KindBatchNotFound     ErrorKind = "BATCH_NOT_FOUND"
	KindPlanNotFound      ErrorKind = "PLAN_NOT_FOUND"
	KindInvalidTransition ErrorKind = "INVALID_TRANSITION"

	// Import-only kinds, reported per spreadsheet row.
	KindInvalidRow     ErrorKind = "INVALID_ROW"
	KindUnknownProduct ErrorKind = "UNKNOWN_PRODUCT"
)

type InventoryError struct {
	Kind    ErrorKind
	Message string
}

func (e *InventoryError) Error() string {
	return e.Message
}

func NewInventoryError(kind ErrorKind, format string, args ...any) *InventoryError {
	return &InventoryError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

func IsInventoryError(err error) (*InventoryError, bool) {
	var ie *InventoryError
	if stderrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// HasKind reports whether err wraps an InventoryError of the given kind.
func HasKind(err error, kind ErrorKind) bool {
	ie, ok := IsInventoryError(err)
	return ok && ie.Kind == kind
}

// KindOf returns the kind of the wrapped InventoryError, or "" when err is
// not an inventory failure.
func KindOf(err error) ErrorKind {
	if ie, ok := IsInventoryError(err); ok {
		return ie.Kind
	}
	return ""
}

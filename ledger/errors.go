/*
errors.go - Centralized error types for the ledger engine

ERROR CATEGORIES:
  1. Validation errors  - malformed input, caught before any write
  2. Not-found errors   - operations referencing missing records
  3. Constraint errors  - business rule violations (e.g. negative stock)
  4. Transaction errors - the underlying store failed mid-transaction

PROPAGATION POLICY:
  The mutator never swallows or reinterprets storage errors; it lets them
  surface to the caller unchanged after the transaction has rolled back.
  A failed mutation leaves every invariant intact.

USAGE:
  if errors.Is(err, ledger.ErrNotFound) { ... }
  var stockErr *ledger.InsufficientStockError
  if errors.As(err, &stockErr) { ... }
*/
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed input caught before any write.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an operation references an invoice,
	// payment, counterparty or item that does not exist. Deletion of
	// payments is idempotent and does NOT return this; updates do.
	ErrNotFound = errors.New("record not found")

	// ErrConstraintViolation is returned when a mutation would violate a
	// business rule, e.g. an adjustment driving stock negative.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrTransactionFailed is returned when the underlying store fails
	// during a transaction. The whole transaction has been rolled back.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInvoiceHasPayments is returned when deleting an invoice that still
	// has linked payments. Delete the payments first so creation and
	// reversal stay symmetric.
	ErrInvoiceHasPayments = errors.New("invoice has linked payments")

	// ErrAlreadyReceived is returned when receiving a purchase invoice
	// whose stock and balance effects were already applied.
	ErrAlreadyReceived = errors.New("purchase invoice already received")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientStockError reports an adjustment or sale that would drive an
// item's stock negative.
type InsufficientStockError struct {
	ItemID    ItemID
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: available %s, requested %s",
		e.ItemID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrConstraintViolation }

// NotFoundError identifies which record was missing.
type NotFoundError struct {
	Kind string // "invoice", "payment", "counterparty", "item"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// rather than a storage failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConstraintViolation) ||
		errors.Is(err, ErrInvoiceHasPayments) ||
		errors.Is(err, ErrAlreadyReceived)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

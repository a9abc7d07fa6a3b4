/*
Package ledger provides the core invoicing ledger engine.

PURPOSE:
  This package contains the domain types and reconciliation logic for an
  offline-first business ledger: sale and purchase invoices, payments,
  counterparty balances, inventory quantities and an append-only audit
  history. Every mutation keeps those records mutually consistent inside a
  single storage transaction.

KEY CONCEPTS IN THIS FILE (types.go):
  - Invoice / LineItem:  Sale or purchase documents with computed totals
  - Payment:             Money in/out, optionally linked to one invoice
  - Counterparty:        Customer/supplier record carrying a running balance
  - Item:                Inventory record whose stock invoices touch
  - HistoryEntry:        Immutable audit record of one logical mutation
  - NumberingConfig:     Prefix/counter/padding for human-readable numbers

DESIGN PRINCIPLES:
  1. Precision: shopspring/decimal everywhere, never float64 money
  2. Epsilon tolerance: 0.01 absorbs rounding drift from repeated arithmetic
  3. Auditability: one history entry per logical mutation, never deleted
  4. Type safety: dedicated ID types prevent mixing invoice/payment ids

SEE ALSO:
  - status.go:    Status resolution after balance-affecting writes
  - mutator.go:   The atomic ledger operations
  - store.go:     Persistence and unit-of-work interfaces
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - decimal arithmetic with epsilon tolerance
// =============================================================================

// Epsilon is the tolerance used to treat floating-point rounding noise as
// equality. Two amounts within 0.01 of each other are considered equal.
var Epsilon = decimal.NewFromFloat(0.01)

// WithinEpsilon reports whether a and b differ by at most Epsilon.
func WithinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Epsilon)
}

// Settled reports whether an outstanding amount is zero for practical
// purposes (fully paid, modulo rounding noise).
func Settled(amountDue decimal.Decimal) bool {
	return amountDue.LessThanOrEqual(Epsilon)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type InvoiceID string
type PaymentID string
type CounterpartyID string
type ItemID string

// DefaultTenant is the tenant id used by single-tenant deployments.
// NumberingConfig rows are keyed by tenant so a future multi-tenant store
// needs no schema change.
const DefaultTenant = "default"

// =============================================================================
// INVOICE
// =============================================================================

type InvoiceKind string

const (
	KindSale     InvoiceKind = "sale"
	KindPurchase InvoiceKind = "purchase"
)

type Status string

const (
	// Shared statuses.
	StatusPartial   Status = "partial"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"

	// Sale statuses.
	StatusPending Status = "pending"

	// Purchase statuses. Stock and balance effects apply only once the
	// invoice reaches received (or is created directly as received/paid).
	StatusDraft    Status = "draft"
	StatusOrdered  Status = "ordered"
	StatusReceived Status = "received"
)

// Terminal reports whether a status is manual/terminal: reconciliation never
// overrides an explicit cancellation.
func (s Status) Terminal() bool { return s == StatusCancelled }

// AppliesEffects reports whether a purchase invoice in this status has its
// stock and balance side effects applied. Sales always apply effects.
func (s Status) AppliesEffects() bool {
	switch s {
	case StatusReceived, StatusPaid, StatusPartial:
		return true
	}
	return false
}

// Invoice is a sale or purchase document.
//
// Invariants (within Epsilon):
//
//	AmountDue = Total - AmountPaid
//	Total     = Subtotal + TaxAmount - DiscountAmount
type Invoice struct {
	ID               InvoiceID
	Kind             InvoiceKind
	Number           string
	CounterpartyID   CounterpartyID
	CounterpartyName string
	Date             time.Time
	DueDate          time.Time
	Status           Status

	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	AmountPaid     decimal.Decimal
	AmountDue      decimal.Decimal

	// EffectsApplied records whether this invoice's stock and counterparty
	// balance effects have been applied. Always true for sales; true for
	// purchases only once goods were received (or created as received/paid).
	// Deletion reverses effects only when this is set.
	EffectsApplied bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LineItem belongs exclusively to one invoice and is deleted with it.
type LineItem struct {
	ID          string
	InvoiceID   InvoiceID
	ItemID      ItemID // optional; empty for free-form lines
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
	TaxPct      decimal.Decimal
	Amount      decimal.Decimal
}

// =============================================================================
// PAYMENT
// =============================================================================

type PaymentKind string

const (
	PaymentIn  PaymentKind = "in"  // money received (against a receivable)
	PaymentOut PaymentKind = "out" // money paid (against a payable)
)

// Payment records money moving in or out. A payment may be unlinked (a
// generic receipt/disbursement) or linked to exactly one invoice, which it
// references but does not own.
type Payment struct {
	ID               PaymentID
	Kind             PaymentKind
	Number           string
	CounterpartyID   CounterpartyID
	CounterpartyName string
	Date             time.Time
	Amount           decimal.Decimal
	Mode             string    // cash, bank, cheque, ...
	InvoiceID        InvoiceID // optional weak reference
	Reference        string
	Notes            string
	CreatedAt        time.Time
}

// =============================================================================
// COUNTERPARTY - dual-purpose customer/supplier record
// =============================================================================

type CounterpartyType string

const (
	CounterpartyCustomer CounterpartyType = "customer"
	CounterpartySupplier CounterpartyType = "supplier"
	CounterpartyBoth     CounterpartyType = "both"
)

// Counterparty carries a running balance. Sign convention: positive means
// the counterparty owes the business (receivable), negative means the
// business owes the counterparty (payable).
//
// CurrentBalance is an incrementally-maintained cache of
//
//	OpeningBalance + Σ sale totals - Σ received/paid purchase totals
//	               - Σ payments in + Σ payments out
//
// and can always be recomputed from the rows; see Mutator.ReconcileBalance.
type Counterparty struct {
	ID             CounterpartyID
	Name           string
	Type           CounterpartyType
	OpeningBalance decimal.Decimal
	CurrentBalance decimal.Decimal
	CreditLimit    decimal.Decimal
	CreditDays     int
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Receivable reports whether this counterparty's positive balances count
// toward the receivable summary.
func (c Counterparty) Receivable() bool {
	return c.Type == CounterpartyCustomer || c.Type == CounterpartyBoth
}

// Payable reports whether this counterparty's negative balances count
// toward the payable summary.
func (c Counterparty) Payable() bool {
	return c.Type == CounterpartySupplier || c.Type == CounterpartyBoth
}

// =============================================================================
// ITEM - inventory record
// =============================================================================

type Item struct {
	ID            ItemID
	Name          string
	SKU           string
	StockQuantity decimal.Decimal
	LowStockAlert decimal.Decimal
	SalePrice     decimal.Decimal
	PurchasePrice decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// =============================================================================
// HISTORY - append-only audit trail
// =============================================================================

type HistoryAction string

const (
	ActionCreated       HistoryAction = "created"
	ActionUpdated       HistoryAction = "updated"
	ActionDeleted       HistoryAction = "deleted"
	ActionPaymentIn     HistoryAction = "payment_in"
	ActionPaymentOut    HistoryAction = "payment_out"
	ActionReceived      HistoryAction = "received"
	ActionStockAdjusted HistoryAction = "stock_adjusted"
)

// HistoryEntry is the permanent record of one logical mutation. It
// references an invoice or payment id purely for traceability and survives
// even if the referenced record is later deleted.
type HistoryEntry struct {
	ID          string
	InvoiceID   InvoiceID // optional; empty for stock adjustments
	InvoiceKind InvoiceKind
	Action      HistoryAction
	Description string
	ReferenceID string // payment or item id for payment/stock actions

	// Free-form before/after snapshots, sufficient to reconstruct what
	// changed. Forensic record only; no undo is built on top of them.
	OldValues map[string]any
	NewValues map[string]any

	ActorID   string
	ActorName string
	CreatedAt time.Time
}

// =============================================================================
// NUMBERING
// =============================================================================

// NumberingConfig holds the prefix/counter/padding used to render
// human-readable invoice numbers, plus unrelated template preferences kept
// on the same settings row. One row per tenant, created with defaults on
// first read.
type NumberingConfig struct {
	TenantID   string
	Prefix     string
	NextNumber int64
	Padding    int

	// Invoice template preferences (not used by the engine itself).
	Template string
	ShowLogo bool

	UpdatedAt time.Time
}

// DefaultNumberingConfig returns the config created on first settings read.
func DefaultNumberingConfig(tenantID string) NumberingConfig {
	return NumberingConfig{
		TenantID:   tenantID,
		Prefix:     "INV",
		NextNumber: 1,
		Padding:    5,
		Template:   "classic",
		ShowLogo:   true,
	}
}

// =============================================================================
// ACTOR - identity stamped onto history entries
// =============================================================================

type Actor struct {
	ID   string
	Name string
}

// AnonymousActor is used when no identity is available (offline/anonymous).
// Absence of an actor must never block a mutation.
var AnonymousActor = Actor{ID: "system", Name: "System"}

// ActorProvider resolves the current actor for audit stamping.
type ActorProvider interface {
	CurrentActor(ctx context.Context) Actor
}

// ActorFunc adapts a function to the ActorProvider interface.
type ActorFunc func(ctx context.Context) Actor

func (f ActorFunc) CurrentActor(ctx context.Context) Actor { return f(ctx) }

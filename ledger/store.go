/*
store.go - Persistence interfaces for the invoicing ledger

PURPOSE:
  Defines the interface between the domain logic and the embedded database.
  The local store is the write target of an offline-first application; an
  external synchronization process later replays committed rows to a remote
  database. This engine only interacts with that process implicitly, by
  producing well-formed insert/update/delete rows inside atomic
  transactions.

UNIT OF WORK:
  TxStore.WithTx executes a function against a transaction-bound Store.
  The same mutation logic can therefore run standalone (its own
  transaction) or nested inside a larger one - history recording and
  number allocation run on the bound executor of the mutation they belong
  to. Statements inside one WithTx call are serialized with respect to
  other transactions; no interleaved partial writes are ever visible.

APPEND-ONLY HISTORY:
  AppendHistory is the only write on the history table. No update or
  delete method exists; history rows are the permanent audit record.

IMPLEMENTATIONS:
  - store/sqlite: production embedded store (also ":memory:" for tests)

SEE ALSO:
  - mutator.go: the atomic operations built on these interfaces
  - store/sqlite/sqlite.go: concrete implementation
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceFilter narrows invoice listings. All fields are optional; filters
// are always applied through bound parameters, never string interpolation.
type InvoiceFilter struct {
	Kind           InvoiceKind
	Status         Status
	CounterpartyID CounterpartyID
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	Kind           PaymentKind
	CounterpartyID CounterpartyID
	InvoiceID      InvoiceID
}

// Store is the persistence capability consumed by the mutator and the
// read-side accessors. Get* methods return (nil, nil) when the record does
// not exist; callers decide whether absence is an error.
type Store interface {
	// Invoices
	InsertInvoice(ctx context.Context, inv Invoice) error
	GetInvoice(ctx context.Context, id InvoiceID) (*Invoice, error)
	// UpdateInvoiceSettlement rewrites the payment-derived fields of an
	// invoice: amountPaid, amountDue, status and the effects flag.
	UpdateInvoiceSettlement(ctx context.Context, id InvoiceID, amountPaid, amountDue decimal.Decimal, status Status, effectsApplied bool) error
	DeleteInvoice(ctx context.Context, id InvoiceID) error
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)

	// Line items (owned by their invoice)
	InsertLineItem(ctx context.Context, li LineItem) error
	ListLineItems(ctx context.Context, invoiceID InvoiceID) ([]LineItem, error)
	DeleteLineItems(ctx context.Context, invoiceID InvoiceID) error

	// Payments
	InsertPayment(ctx context.Context, p Payment) error
	GetPayment(ctx context.Context, id PaymentID) (*Payment, error)
	DeletePayment(ctx context.Context, id PaymentID) error
	ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error)

	// Counterparties
	SaveCounterparty(ctx context.Context, c Counterparty) error
	GetCounterparty(ctx context.Context, id CounterpartyID) (*Counterparty, error)
	// AdjustCounterpartyBalance applies a signed delta to the cached
	// running balance. Returns ErrNotFound if the counterparty is missing.
	AdjustCounterpartyBalance(ctx context.Context, id CounterpartyID, delta decimal.Decimal) error
	SetCounterpartyBalance(ctx context.Context, id CounterpartyID, balance decimal.Decimal) error
	ListCounterparties(ctx context.Context) ([]Counterparty, error)

	// Items
	SaveItem(ctx context.Context, item Item) error
	GetItem(ctx context.Context, id ItemID) (*Item, error)
	// AdjustItemStock applies a signed delta to an item's stock quantity.
	// Returns ErrNotFound if the item is missing.
	AdjustItemStock(ctx context.Context, id ItemID, delta decimal.Decimal) error
	ListItems(ctx context.Context) ([]Item, error)

	// History (append-only). ListHistory returns one invoice's entries
	// oldest first; ListAllHistory returns the newest entries across all
	// records, newest first.
	AppendHistory(ctx context.Context, e HistoryEntry) error
	ListHistory(ctx context.Context, invoiceID InvoiceID) ([]HistoryEntry, error)
	ListAllHistory(ctx context.Context, limit int) ([]HistoryEntry, error)

	// Numbering settings (one row per tenant)
	GetNumberingConfig(ctx context.Context, tenantID string) (*NumberingConfig, error)
	SaveNumberingConfig(ctx context.Context, cfg NumberingConfig) error

	// DerivedCounterpartyBalance recomputes a counterparty's balance from
	// the invoice and payment rows (openingBalance + sale totals - applied
	// purchase totals - payments in + payments out). Used to prove the
	// cached CurrentBalance column equivalent, and to repair it.
	DerivedCounterpartyBalance(ctx context.Context, id CounterpartyID) (decimal.Decimal, error)
}

// TxStore wraps Store with transaction support. WithTx executes fn against
// a Store bound to a single database transaction: if fn returns an error
// the transaction rolls back with no partial writes observable, otherwise
// it commits.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}

// ReportStore is the read-side aggregate surface consumed by reporting
// screens. Results are recomputed on demand, never cached.
type ReportStore interface {
	// TotalReceivable sums positive balances among receivable-type
	// counterparties (customer or both).
	TotalReceivable(ctx context.Context) (decimal.Decimal, error)
	// TotalPayable sums the absolute value of negative balances among
	// payable-type counterparties (supplier or both).
	TotalPayable(ctx context.Context) (decimal.Decimal, error)
	// PaymentTotals sums payment amounts per kind in [from, to).
	PaymentTotals(ctx context.Context, from, to time.Time) (in, out decimal.Decimal, err error)
}

/*
Package sqlite provides the SQLite-backed implementation of the ledger
storage interfaces.

PURPOSE:
  Implements ledger.Store, ledger.TxStore and ledger.ReportStore on an
  embedded SQLite database. This is the local write target of an
  offline-first deployment; an external synchronization process replays
  committed rows to a remote database and handles retries and conflicts.

UNIT OF WORK:
  WithTx begins a database transaction and hands the callback a
  ledger.Store bound to it. Every data-access method lives on an internal
  conn type parameterized by an executor, so the exact same code runs
  standalone (against *sql.DB) or nested inside a transaction (against
  *sql.Tx) without duplication.

KEY TABLES:
  invoices:            Sale/purchase headers with cached settlement fields
  invoice_line_items:  Owned by their invoice, deleted with it
  payments:            Money in/out, weak reference to one invoice
  counterparties:      Customer/supplier records with a cached balance
  items:               Inventory records
  invoice_history:     Append-only audit trail (no UPDATE/DELETE path)
  numbering_configs:   One prefix/counter/padding row per tenant

REPRESENTATION:
  Money and quantities are stored as decimal strings and summed in Go with
  shopspring/decimal, never as floats. Timestamps are RFC3339 TEXT.
  History snapshots are JSON.

PARAMETER BINDING:
  Every filter clause uses bound parameters. No SQL fragment is ever built
  by string concatenation of user input.

WAL MODE:
  The database is opened with WAL and foreign keys on. Multi-statement
  transactions are additionally serialized by a process-local mutex so
  concurrent logical mutations never see SQLITE_BUSY.

USAGE:
  store, err := sqlite.New("./data/ledger.db")   // or ":memory:" in tests
  mutator := ledger.NewMutator(store, actors, log)

SEE ALSO:
  - ledger/store.go: interface definitions
  - ledger/mutator.go: the atomic operations driving this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/tallybook/ledger-engine/ledger"
)

// executor abstracts *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements ledger.TxStore and ledger.ReportStore using SQLite.
type Store struct {
	conn
	db *sql.DB
	mu sync.Mutex // serializes WithTx transactions
}

// New opens (and migrates) a SQLite store at the given path. Use ":memory:"
// for an isolated in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One pooled connection: a ":memory:" database exists per connection,
	// and WithTx serializes writers anyway.
	db.SetMaxOpenConns(1)

	store := &Store{conn: conn{ex: db, now: func() time.Time { return time.Now().UTC() }}, db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		number TEXT NOT NULL,
		counterparty_id TEXT NOT NULL,
		counterparty_name TEXT NOT NULL,
		date TEXT NOT NULL,
		due_date TEXT,
		status TEXT NOT NULL,
		subtotal TEXT NOT NULL,
		tax_amount TEXT NOT NULL,
		discount_amount TEXT NOT NULL,
		total TEXT NOT NULL,
		amount_paid TEXT NOT NULL,
		amount_due TEXT NOT NULL,
		effects_applied INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_kind_status
		ON invoices(kind, status);
	CREATE INDEX IF NOT EXISTS idx_invoices_counterparty
		ON invoices(counterparty_id);

	CREATE TABLE IF NOT EXISTS invoice_line_items (
		id TEXT PRIMARY KEY,
		invoice_id TEXT NOT NULL,
		item_id TEXT,
		description TEXT,
		quantity TEXT NOT NULL,
		unit_price TEXT NOT NULL,
		discount_pct TEXT NOT NULL,
		tax_pct TEXT NOT NULL,
		amount TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_line_items_invoice
		ON invoice_line_items(invoice_id);

	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		number TEXT NOT NULL,
		counterparty_id TEXT NOT NULL,
		counterparty_name TEXT NOT NULL,
		date TEXT NOT NULL,
		amount TEXT NOT NULL,
		mode TEXT,
		invoice_id TEXT,
		reference TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_invoice
		ON payments(invoice_id) WHERE invoice_id IS NOT NULL AND invoice_id != '';
	CREATE INDEX IF NOT EXISTS idx_payments_counterparty
		ON payments(counterparty_id);
	CREATE INDEX IF NOT EXISTS idx_payments_date
		ON payments(date);

	CREATE TABLE IF NOT EXISTS counterparties (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		opening_balance TEXT NOT NULL,
		current_balance TEXT NOT NULL,
		credit_limit TEXT NOT NULL,
		credit_days INTEGER NOT NULL DEFAULT 0,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		sku TEXT,
		stock_quantity TEXT NOT NULL,
		low_stock_alert TEXT NOT NULL,
		sale_price TEXT NOT NULL,
		purchase_price TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Append-only audit trail. The engine never issues UPDATE or DELETE
	-- against this table; entries survive deletion of the rows they
	-- reference.
	CREATE TABLE IF NOT EXISTS invoice_history (
		id TEXT PRIMARY KEY,
		invoice_id TEXT,
		invoice_kind TEXT,
		action TEXT NOT NULL,
		description TEXT,
		reference_id TEXT,
		old_values_json TEXT,
		new_values_json TEXT,
		actor_id TEXT NOT NULL,
		actor_name TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_invoice
		ON invoice_history(invoice_id) WHERE invoice_id IS NOT NULL AND invoice_id != '';
	CREATE INDEX IF NOT EXISTS idx_history_created
		ON invoice_history(created_at);

	CREATE TABLE IF NOT EXISTS numbering_configs (
		tenant_id TEXT PRIMARY KEY,
		prefix TEXT NOT NULL,
		next_number INTEGER NOT NULL,
		padding INTEGER NOT NULL,
		template TEXT,
		show_logo INTEGER NOT NULL DEFAULT 1,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// UNIT OF WORK (ledger.TxStore interface)
// =============================================================================

// WithTx executes fn against a transaction-bound ledger.Store. If fn
// returns an error the transaction rolls back and that error is returned
// unchanged; a commit failure surfaces as ledger.ErrTransactionFailed.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ledger.ErrTransactionFailed, err)
	}
	defer sqlTx.Rollback()

	if err := fn(&conn{ex: sqlTx, now: s.conn.now}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ledger.ErrTransactionFailed, err)
	}
	return nil
}

// conn carries the data-access methods. ex is either the root *sql.DB or a
// *sql.Tx handed out by WithTx. now is the single timestamp source for
// updated_at stamps, so every write in a process shares one clock.
type conn struct {
	ex  executor
	now func() time.Time
}

// stamp returns the current time formatted for an updated_at column.
func (c *conn) stamp() string {
	return fmtTime(c.now())
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func marshalValues(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	b, _ := json.Marshal(m)
	return string(b)
}

func unmarshalValues(s string) map[string]any {
	if s == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}

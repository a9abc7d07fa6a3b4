/*
queries.go - Data-access methods shared by the root handle and transactions

All methods live on conn so they run identically against *sql.DB or a
*sql.Tx bound by WithTx. Get methods return (nil, nil) for missing rows;
adjust methods return ledger.ErrNotFound so the mutator can distinguish a
missing target from a storage failure.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tallybook/ledger-engine/ledger"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// INVOICES
// =============================================================================

const invoiceColumns = `id, kind, number, counterparty_id, counterparty_name, date, due_date,
	status, subtotal, tax_amount, discount_amount, total, amount_paid, amount_due,
	effects_applied, created_at, updated_at`

func (c *conn) InsertInvoice(ctx context.Context, inv ledger.Invoice) error {
	query := `
		INSERT INTO invoices
		(id, kind, number, counterparty_id, counterparty_name, date, due_date,
		 status, subtotal, tax_amount, discount_amount, total, amount_paid, amount_due,
		 effects_applied, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := c.ex.ExecContext(ctx, query,
		inv.ID, inv.Kind, inv.Number,
		inv.CounterpartyID, inv.CounterpartyName,
		fmtTime(inv.Date), fmtTime(inv.DueDate),
		inv.Status,
		inv.Subtotal.String(), inv.TaxAmount.String(), inv.DiscountAmount.String(),
		inv.Total.String(), inv.AmountPaid.String(), inv.AmountDue.String(),
		inv.EffectsApplied,
		fmtTime(inv.CreatedAt), fmtTime(inv.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert invoice: %w", err)
	}
	return nil
}

func (c *conn) GetInvoice(ctx context.Context, id ledger.InvoiceID) (*ledger.Invoice, error) {
	row := c.ex.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)

	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *conn) UpdateInvoiceSettlement(ctx context.Context, id ledger.InvoiceID, amountPaid, amountDue decimal.Decimal, status ledger.Status, effectsApplied bool) error {
	res, err := c.ex.ExecContext(ctx, `
		UPDATE invoices
		SET amount_paid = ?, amount_due = ?, status = ?, effects_applied = ?, updated_at = ?
		WHERE id = ?`,
		amountPaid.String(), amountDue.String(), status, effectsApplied,
		c.stamp(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice settlement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &ledger.NotFoundError{Kind: "invoice", ID: string(id)}
	}
	return nil
}

func (c *conn) DeleteInvoice(ctx context.Context, id ledger.InvoiceID) error {
	_, err := c.ex.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	return err
}

func (c *conn) ListInvoices(ctx context.Context, filter ledger.InvoiceFilter) ([]ledger.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	var args []any
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, filter.Kind)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.CounterpartyID != "" {
		query += ` AND counterparty_id = ?`
		args = append(args, filter.CounterpartyID)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := c.ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []ledger.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func scanInvoice(row rowScanner) (ledger.Invoice, error) {
	var (
		inv                                                   ledger.Invoice
		date, dueDate, createdAt, updatedAt                   string
		subtotal, tax, discount, total, amountPaid, amountDue string
	)
	err := row.Scan(
		&inv.ID, &inv.Kind, &inv.Number,
		&inv.CounterpartyID, &inv.CounterpartyName,
		&date, &dueDate, &inv.Status,
		&subtotal, &tax, &discount, &total, &amountPaid, &amountDue,
		&inv.EffectsApplied, &createdAt, &updatedAt,
	)
	if err != nil {
		return inv, err
	}
	inv.Date = parseTime(date)
	inv.DueDate = parseTime(dueDate)
	inv.Subtotal = parseDec(subtotal)
	inv.TaxAmount = parseDec(tax)
	inv.DiscountAmount = parseDec(discount)
	inv.Total = parseDec(total)
	inv.AmountPaid = parseDec(amountPaid)
	inv.AmountDue = parseDec(amountDue)
	inv.CreatedAt = parseTime(createdAt)
	inv.UpdatedAt = parseTime(updatedAt)
	return inv, nil
}

// =============================================================================
// LINE ITEMS
// =============================================================================

func (c *conn) InsertLineItem(ctx context.Context, li ledger.LineItem) error {
	_, err := c.ex.ExecContext(ctx, `
		INSERT INTO invoice_line_items
		(id, invoice_id, item_id, description, quantity, unit_price, discount_pct, tax_pct, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		li.ID, li.InvoiceID, li.ItemID, li.Description,
		li.Quantity.String(), li.UnitPrice.String(),
		li.DiscountPct.String(), li.TaxPct.String(), li.Amount.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert line item: %w", err)
	}
	return nil
}

func (c *conn) ListLineItems(ctx context.Context, invoiceID ledger.InvoiceID) ([]ledger.LineItem, error) {
	rows, err := c.ex.QueryContext(ctx, `
		SELECT id, invoice_id, item_id, description, quantity, unit_price, discount_pct, tax_pct, amount
		FROM invoice_line_items
		WHERE invoice_id = ?
		ORDER BY id ASC`,
		invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	defer rows.Close()

	var lines []ledger.LineItem
	for rows.Next() {
		var li ledger.LineItem
		var qty, price, discount, tax, amount string
		if err := rows.Scan(&li.ID, &li.InvoiceID, &li.ItemID, &li.Description,
			&qty, &price, &discount, &tax, &amount); err != nil {
			return nil, err
		}
		li.Quantity = parseDec(qty)
		li.UnitPrice = parseDec(price)
		li.DiscountPct = parseDec(discount)
		li.TaxPct = parseDec(tax)
		li.Amount = parseDec(amount)
		lines = append(lines, li)
	}
	return lines, rows.Err()
}

func (c *conn) DeleteLineItems(ctx context.Context, invoiceID ledger.InvoiceID) error {
	_, err := c.ex.ExecContext(ctx, `DELETE FROM invoice_line_items WHERE invoice_id = ?`, invoiceID)
	return err
}

// =============================================================================
// PAYMENTS
// =============================================================================

const paymentColumns = `id, kind, number, counterparty_id, counterparty_name, date, amount,
	mode, invoice_id, reference, notes, created_at`

func (c *conn) InsertPayment(ctx context.Context, p ledger.Payment) error {
	_, err := c.ex.ExecContext(ctx, `
		INSERT INTO payments
		(id, kind, number, counterparty_id, counterparty_name, date, amount,
		 mode, invoice_id, reference, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Kind, p.Number,
		p.CounterpartyID, p.CounterpartyName,
		fmtTime(p.Date), p.Amount.String(),
		p.Mode, p.InvoiceID, p.Reference, p.Notes,
		fmtTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (c *conn) GetPayment(ctx context.Context, id ledger.PaymentID) (*ledger.Payment, error) {
	row := c.ex.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)

	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *conn) DeletePayment(ctx context.Context, id ledger.PaymentID) error {
	_, err := c.ex.ExecContext(ctx, `DELETE FROM payments WHERE id = ?`, id)
	return err
}

func (c *conn) ListPayments(ctx context.Context, filter ledger.PaymentFilter) ([]ledger.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE 1=1`
	var args []any
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, filter.Kind)
	}
	if filter.CounterpartyID != "" {
		query += ` AND counterparty_id = ?`
		args = append(args, filter.CounterpartyID)
	}
	if filter.InvoiceID != "" {
		query += ` AND invoice_id = ?`
		args = append(args, filter.InvoiceID)
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := c.ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []ledger.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanPayment(row rowScanner) (ledger.Payment, error) {
	var (
		p                       ledger.Payment
		date, amount, createdAt string
		mode, reference, notes  sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Kind, &p.Number,
		&p.CounterpartyID, &p.CounterpartyName,
		&date, &amount, &mode, &p.InvoiceID, &reference, &notes, &createdAt,
	)
	if err != nil {
		return p, err
	}
	p.Date = parseTime(date)
	p.Amount = parseDec(amount)
	p.Mode = mode.String
	p.Reference = reference.String
	p.Notes = notes.String
	p.CreatedAt = parseTime(createdAt)
	return p, nil
}

// =============================================================================
// COUNTERPARTIES
// =============================================================================

func (c *conn) SaveCounterparty(ctx context.Context, cp ledger.Counterparty) error {
	query := `
		INSERT INTO counterparties
		(id, name, type, opening_balance, current_balance, credit_limit, credit_days, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			credit_limit = excluded.credit_limit,
			credit_days = excluded.credit_days,
			active = excluded.active,
			updated_at = excluded.updated_at
	`
	now := c.stamp()
	_, err := c.ex.ExecContext(ctx, query,
		cp.ID, cp.Name, cp.Type,
		cp.OpeningBalance.String(), cp.CurrentBalance.String(),
		cp.CreditLimit.String(), cp.CreditDays, cp.Active,
		now, now,
	)
	return err
}

func (c *conn) GetCounterparty(ctx context.Context, id ledger.CounterpartyID) (*ledger.Counterparty, error) {
	row := c.ex.QueryRowContext(ctx, `
		SELECT id, name, type, opening_balance, current_balance, credit_limit, credit_days, active, created_at, updated_at
		FROM counterparties WHERE id = ?`, id)

	cp, err := scanCounterparty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (c *conn) AdjustCounterpartyBalance(ctx context.Context, id ledger.CounterpartyID, delta decimal.Decimal) error {
	// Read-modify-write keeps decimal precision; the surrounding
	// transaction serializes concurrent adjustments.
	var balance string
	err := c.ex.QueryRowContext(ctx,
		`SELECT current_balance FROM counterparties WHERE id = ?`, id).Scan(&balance)
	if err == sql.ErrNoRows {
		return &ledger.NotFoundError{Kind: "counterparty", ID: string(id)}
	}
	if err != nil {
		return err
	}

	next := parseDec(balance).Add(delta)
	_, err = c.ex.ExecContext(ctx,
		`UPDATE counterparties SET current_balance = ?, updated_at = ? WHERE id = ?`,
		next.String(), c.stamp(), id)
	return err
}

func (c *conn) SetCounterpartyBalance(ctx context.Context, id ledger.CounterpartyID, balance decimal.Decimal) error {
	res, err := c.ex.ExecContext(ctx,
		`UPDATE counterparties SET current_balance = ?, updated_at = ? WHERE id = ?`,
		balance.String(), c.stamp(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &ledger.NotFoundError{Kind: "counterparty", ID: string(id)}
	}
	return nil
}

func (c *conn) ListCounterparties(ctx context.Context) ([]ledger.Counterparty, error) {
	rows, err := c.ex.QueryContext(ctx, `
		SELECT id, name, type, opening_balance, current_balance, credit_limit, credit_days, active, created_at, updated_at
		FROM counterparties ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query counterparties: %w", err)
	}
	defer rows.Close()

	var cps []ledger.Counterparty
	for rows.Next() {
		cp, err := scanCounterparty(rows)
		if err != nil {
			return nil, err
		}
		cps = append(cps, cp)
	}
	return cps, rows.Err()
}

func scanCounterparty(row rowScanner) (ledger.Counterparty, error) {
	var (
		cp                            ledger.Counterparty
		opening, current, creditLimit string
		createdAt, updatedAt          string
	)
	err := row.Scan(&cp.ID, &cp.Name, &cp.Type,
		&opening, &current, &creditLimit, &cp.CreditDays, &cp.Active,
		&createdAt, &updatedAt)
	if err != nil {
		return cp, err
	}
	cp.OpeningBalance = parseDec(opening)
	cp.CurrentBalance = parseDec(current)
	cp.CreditLimit = parseDec(creditLimit)
	cp.CreatedAt = parseTime(createdAt)
	cp.UpdatedAt = parseTime(updatedAt)
	return cp, nil
}

// =============================================================================
// ITEMS
// =============================================================================

func (c *conn) SaveItem(ctx context.Context, item ledger.Item) error {
	query := `
		INSERT INTO items
		(id, name, sku, stock_quantity, low_stock_alert, sale_price, purchase_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			sku = excluded.sku,
			low_stock_alert = excluded.low_stock_alert,
			sale_price = excluded.sale_price,
			purchase_price = excluded.purchase_price,
			updated_at = excluded.updated_at
	`
	now := c.stamp()
	_, err := c.ex.ExecContext(ctx, query,
		item.ID, item.Name, item.SKU,
		item.StockQuantity.String(), item.LowStockAlert.String(),
		item.SalePrice.String(), item.PurchasePrice.String(),
		now, now,
	)
	return err
}

func (c *conn) GetItem(ctx context.Context, id ledger.ItemID) (*ledger.Item, error) {
	row := c.ex.QueryRowContext(ctx, `
		SELECT id, name, sku, stock_quantity, low_stock_alert, sale_price, purchase_price, created_at, updated_at
		FROM items WHERE id = ?`, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *conn) AdjustItemStock(ctx context.Context, id ledger.ItemID, delta decimal.Decimal) error {
	var qty string
	err := c.ex.QueryRowContext(ctx,
		`SELECT stock_quantity FROM items WHERE id = ?`, id).Scan(&qty)
	if err == sql.ErrNoRows {
		return &ledger.NotFoundError{Kind: "item", ID: string(id)}
	}
	if err != nil {
		return err
	}

	next := parseDec(qty).Add(delta)
	_, err = c.ex.ExecContext(ctx,
		`UPDATE items SET stock_quantity = ?, updated_at = ? WHERE id = ?`,
		next.String(), c.stamp(), id)
	return err
}

func (c *conn) ListItems(ctx context.Context) ([]ledger.Item, error) {
	rows, err := c.ex.QueryContext(ctx, `
		SELECT id, name, sku, stock_quantity, low_stock_alert, sale_price, purchase_price, created_at, updated_at
		FROM items ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []ledger.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row rowScanner) (ledger.Item, error) {
	var (
		item                            ledger.Item
		sku                             sql.NullString
		qty, alert, salePrice, buyPrice string
		createdAt, updatedAt            string
	)
	err := row.Scan(&item.ID, &item.Name, &sku,
		&qty, &alert, &salePrice, &buyPrice, &createdAt, &updatedAt)
	if err != nil {
		return item, err
	}
	item.SKU = sku.String
	item.StockQuantity = parseDec(qty)
	item.LowStockAlert = parseDec(alert)
	item.SalePrice = parseDec(salePrice)
	item.PurchasePrice = parseDec(buyPrice)
	item.CreatedAt = parseTime(createdAt)
	item.UpdatedAt = parseTime(updatedAt)
	return item, nil
}

// =============================================================================
// HISTORY (append-only)
// =============================================================================

func (c *conn) AppendHistory(ctx context.Context, e ledger.HistoryEntry) error {
	_, err := c.ex.ExecContext(ctx, `
		INSERT INTO invoice_history
		(id, invoice_id, invoice_kind, action, description, reference_id,
		 old_values_json, new_values_json, actor_id, actor_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.InvoiceID, e.InvoiceKind, e.Action, e.Description, e.ReferenceID,
		marshalValues(e.OldValues), marshalValues(e.NewValues),
		e.ActorID, e.ActorName, fmtTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (c *conn) ListHistory(ctx context.Context, invoiceID ledger.InvoiceID) ([]ledger.HistoryEntry, error) {
	return c.queryHistory(ctx, `
		SELECT id, invoice_id, invoice_kind, action, description, reference_id,
		       old_values_json, new_values_json, actor_id, actor_name, created_at
		FROM invoice_history
		WHERE invoice_id = ?
		ORDER BY created_at ASC, id ASC`,
		invoiceID)
}

// ListAllHistory returns the newest entries first, so the limit keeps
// recent activity rather than the oldest rows.
func (c *conn) ListAllHistory(ctx context.Context, limit int) ([]ledger.HistoryEntry, error) {
	return c.queryHistory(ctx, `
		SELECT id, invoice_id, invoice_kind, action, description, reference_id,
		       old_values_json, new_values_json, actor_id, actor_name, created_at
		FROM invoice_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		limit)
}

func (c *conn) queryHistory(ctx context.Context, query string, args ...any) ([]ledger.HistoryEntry, error) {
	rows, err := c.ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []ledger.HistoryEntry
	for rows.Next() {
		var e ledger.HistoryEntry
		var kind, description, reference, oldJSON, newJSON, actorName sql.NullString
		var createdAt string
		if err := rows.Scan(&e.ID, &e.InvoiceID, &kind, &e.Action, &description,
			&reference, &oldJSON, &newJSON, &e.ActorID, &actorName, &createdAt); err != nil {
			return nil, err
		}
		e.InvoiceKind = ledger.InvoiceKind(kind.String)
		e.Description = description.String
		e.ReferenceID = reference.String
		e.OldValues = unmarshalValues(oldJSON.String)
		e.NewValues = unmarshalValues(newJSON.String)
		e.ActorName = actorName.String
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// NUMBERING CONFIG
// =============================================================================

func (c *conn) GetNumberingConfig(ctx context.Context, tenantID string) (*ledger.NumberingConfig, error) {
	var cfg ledger.NumberingConfig
	var template sql.NullString
	var updatedAt string

	err := c.ex.QueryRowContext(ctx, `
		SELECT tenant_id, prefix, next_number, padding, template, show_logo, updated_at
		FROM numbering_configs WHERE tenant_id = ?`, tenantID).
		Scan(&cfg.TenantID, &cfg.Prefix, &cfg.NextNumber, &cfg.Padding,
			&template, &cfg.ShowLogo, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cfg.Template = template.String
	cfg.UpdatedAt = parseTime(updatedAt)
	return &cfg, nil
}

func (c *conn) SaveNumberingConfig(ctx context.Context, cfg ledger.NumberingConfig) error {
	_, err := c.ex.ExecContext(ctx, `
		INSERT INTO numbering_configs
		(tenant_id, prefix, next_number, padding, template, show_logo, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id) DO UPDATE SET
			prefix = excluded.prefix,
			next_number = excluded.next_number,
			padding = excluded.padding,
			template = excluded.template,
			show_logo = excluded.show_logo,
			updated_at = excluded.updated_at`,
		cfg.TenantID, cfg.Prefix, cfg.NextNumber, cfg.Padding,
		cfg.Template, cfg.ShowLogo, c.stamp(),
	)
	return err
}

// =============================================================================
// DERIVED BALANCE
// =============================================================================

// DerivedCounterpartyBalance recomputes the balance from invoice and
// payment rows. Sums happen in Go with decimals so the derived number is
// exact, not a float aggregate.
func (c *conn) DerivedCounterpartyBalance(ctx context.Context, id ledger.CounterpartyID) (decimal.Decimal, error) {
	cp, err := c.GetCounterparty(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	if cp == nil {
		return decimal.Zero, &ledger.NotFoundError{Kind: "counterparty", ID: string(id)}
	}
	balance := cp.OpeningBalance

	rows, err := c.ex.QueryContext(ctx,
		`SELECT kind, total, effects_applied FROM invoices WHERE counterparty_id = ?`, id)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind, total string
		var applied bool
		if err := rows.Scan(&kind, &total, &applied); err != nil {
			return decimal.Zero, err
		}
		if !applied {
			continue
		}
		if ledger.InvoiceKind(kind) == ledger.KindSale {
			balance = balance.Add(parseDec(total))
		} else {
			balance = balance.Sub(parseDec(total))
		}
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, err
	}

	payRows, err := c.ex.QueryContext(ctx,
		`SELECT kind, amount FROM payments WHERE counterparty_id = ?`, id)
	if err != nil {
		return decimal.Zero, err
	}
	defer payRows.Close()
	for payRows.Next() {
		var kind, amount string
		if err := payRows.Scan(&kind, &amount); err != nil {
			return decimal.Zero, err
		}
		if ledger.PaymentKind(kind) == ledger.PaymentIn {
			balance = balance.Sub(parseDec(amount))
		} else {
			balance = balance.Add(parseDec(amount))
		}
	}
	return balance, payRows.Err()
}

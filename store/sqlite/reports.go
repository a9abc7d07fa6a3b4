/*
reports.go - Read-side aggregate queries (ledger.ReportStore)

Aggregates are recomputed on demand from the same tables the mutator
writes. Summation happens in Go with decimals; SQLite would otherwise cast
the stored decimal strings to floats.
*/
package sqlite

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallybook/ledger-engine/ledger"
)

// TotalReceivable sums positive balances among customer-type counterparties.
func (c *conn) TotalReceivable(ctx context.Context) (decimal.Decimal, error) {
	return c.sumBalances(ctx, ledger.CounterpartyCustomer, true)
}

// TotalPayable sums the absolute value of negative balances among
// supplier-type counterparties.
func (c *conn) TotalPayable(ctx context.Context) (decimal.Decimal, error) {
	return c.sumBalances(ctx, ledger.CounterpartySupplier, false)
}

func (c *conn) sumBalances(ctx context.Context, side ledger.CounterpartyType, positive bool) (decimal.Decimal, error) {
	rows, err := c.ex.QueryContext(ctx, `
		SELECT current_balance FROM counterparties
		WHERE active = 1 AND (type = ? OR type = ?)`,
		side, ledger.CounterpartyBoth)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var balance string
		if err := rows.Scan(&balance); err != nil {
			return decimal.Zero, err
		}
		b := parseDec(balance)
		if positive && b.IsPositive() {
			total = total.Add(b)
		}
		if !positive && b.IsNegative() {
			total = total.Add(b.Abs())
		}
	}
	return total, rows.Err()
}

// PaymentTotals sums payment amounts per kind with date in [from, to).
func (c *conn) PaymentTotals(ctx context.Context, from, to time.Time) (in, out decimal.Decimal, err error) {
	rows, err := c.ex.QueryContext(ctx, `
		SELECT kind, amount FROM payments
		WHERE date >= ? AND date < ?`,
		fmtTime(from), fmtTime(to))
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	defer rows.Close()

	in, out = decimal.Zero, decimal.Zero
	for rows.Next() {
		var kind, amount string
		if err := rows.Scan(&kind, &amount); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		if ledger.PaymentKind(kind) == ledger.PaymentIn {
			in = in.Add(parseDec(amount))
		} else {
			out = out.Add(parseDec(amount))
		}
	}
	return in, out, rows.Err()
}

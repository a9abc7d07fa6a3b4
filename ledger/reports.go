/*
reports.go - Read-side aggregate queries

BalanceAccessor is consumed by reporting screens. It is read-only and
independent of the mutator: results are recomputed on demand from the same
tables the mutator writes, never cached. The derived numbers must always
agree with the incrementally-maintained balance column; ReconcileBalance
(mutator.go) is the tested repair path for any drift.
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Summary is the aggregate snapshot shown on dashboard screens.
type Summary struct {
	TotalReceivable  decimal.Decimal
	TotalPayable     decimal.Decimal
	PaymentsInToday  decimal.Decimal
	PaymentsOutToday decimal.Decimal
	PaymentsInMonth  decimal.Decimal
	PaymentsOutMonth decimal.Decimal
}

// BalanceAccessor answers aggregate questions over counterparties and
// payments.
type BalanceAccessor struct {
	store ReportStore
	now   func() time.Time
}

func NewBalanceAccessor(store ReportStore) *BalanceAccessor {
	return &BalanceAccessor{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Summary computes receivable/payable totals and today/this-month payment
// totals in one pass.
func (b *BalanceAccessor) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	var err error

	if s.TotalReceivable, err = b.store.TotalReceivable(ctx); err != nil {
		return s, err
	}
	if s.TotalPayable, err = b.store.TotalPayable(ctx); err != nil {
		return s, err
	}

	now := b.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := dayStart.AddDate(0, 0, 1)

	if s.PaymentsInToday, s.PaymentsOutToday, err = b.store.PaymentTotals(ctx, dayStart, end); err != nil {
		return s, err
	}
	if s.PaymentsInMonth, s.PaymentsOutMonth, err = b.store.PaymentTotals(ctx, monthStart, end); err != nil {
		return s, err
	}
	return s, nil
}

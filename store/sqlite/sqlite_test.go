package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/ledger-engine/ledger"
	"github.com/tallybook/ledger-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testInvoice(id string, kind ledger.InvoiceKind) ledger.Invoice {
	now := time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)
	return ledger.Invoice{
		ID:               ledger.InvoiceID(id),
		Kind:             kind,
		Number:           "INV-" + id,
		CounterpartyID:   "cp-1",
		CounterpartyName: "Acme",
		Date:             now,
		Status:           ledger.StatusPending,
		Subtotal:         dec("100"),
		TaxAmount:        dec("18"),
		DiscountAmount:   dec("0"),
		Total:            dec("118"),
		AmountPaid:       dec("0"),
		AmountDue:        dec("118"),
		EffectsApplied:   true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func saveCounterparty(t *testing.T, store *sqlite.Store, id string, typ ledger.CounterpartyType, balance string) {
	t.Helper()
	require.NoError(t, store.SaveCounterparty(context.Background(), ledger.Counterparty{
		ID:     ledger.CounterpartyID(id),
		Name:   id,
		Type:   typ,
		Active: true,
	}))
	require.NoError(t, store.SetCounterpartyBalance(context.Background(), ledger.CounterpartyID(id), dec(balance)))
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: a counterparty with a zero balance
	// WHEN: a transaction adjusts it and then fails
	// THEN: the adjustment never becomes durable and the error is unchanged

	store := newTestStore(t)
	ctx := context.Background()
	saveCounterparty(t, store, "cp-1", ledger.CounterpartyCustomer, "0")

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx ledger.Store) error {
		require.NoError(t, tx.AdjustCounterpartyBalance(ctx, "cp-1", dec("50")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	cp, err := store.GetCounterparty(ctx, "cp-1")
	require.NoError(t, err)
	assert.True(t, cp.CurrentBalance.IsZero())
}

func TestWithTx_CommitsMultiTableWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveCounterparty(t, store, "cp-1", ledger.CounterpartyCustomer, "0")

	inv := testInvoice("inv-1", ledger.KindSale)
	err := store.WithTx(ctx, func(tx ledger.Store) error {
		if err := tx.InsertInvoice(ctx, inv); err != nil {
			return err
		}
		return tx.AdjustCounterpartyBalance(ctx, "cp-1", inv.Total)
	})
	require.NoError(t, err)

	got, err := store.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	cp, err := store.GetCounterparty(ctx, "cp-1")
	require.NoError(t, err)
	assert.True(t, cp.CurrentBalance.Equal(dec("118")))
}

// =============================================================================
// ROUND-TRIPS AND FILTERS
// =============================================================================

func TestInvoice_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inv := testInvoice("inv-1", ledger.KindSale)
	require.NoError(t, store.InsertInvoice(ctx, inv))

	got, err := store.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, inv.Number, got.Number)
	assert.Equal(t, inv.Status, got.Status)
	assert.True(t, got.Total.Equal(dec("118")))
	assert.True(t, got.Date.Equal(inv.Date))
	assert.True(t, got.EffectsApplied)
}

func TestGetMissing_ReturnsNil(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inv, err := store.GetInvoice(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, inv)

	p, err := store.GetPayment(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, p)

	cp, err := store.GetCounterparty(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, cp)

	item, err := store.GetItem(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, item)

	cfg, err := store.GetNumberingConfig(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestListInvoices_Filters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sale := testInvoice("inv-1", ledger.KindSale)
	purchase := testInvoice("inv-2", ledger.KindPurchase)
	purchase.Status = ledger.StatusOrdered
	purchase.CounterpartyID = "cp-2"
	require.NoError(t, store.InsertInvoice(ctx, sale))
	require.NoError(t, store.InsertInvoice(ctx, purchase))

	sales, err := store.ListInvoices(ctx, ledger.InvoiceFilter{Kind: ledger.KindSale})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, sale.ID, sales[0].ID)

	ordered, err := store.ListInvoices(ctx, ledger.InvoiceFilter{Status: ledger.StatusOrdered})
	require.NoError(t, err)
	require.Len(t, ordered, 1)
	assert.Equal(t, purchase.ID, ordered[0].ID)

	byCp, err := store.ListInvoices(ctx, ledger.InvoiceFilter{CounterpartyID: "cp-2"})
	require.NoError(t, err)
	require.Len(t, byCp, 1)

	all, err := store.ListInvoices(ctx, ledger.InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateInvoiceSettlement_MissingInvoice(t *testing.T) {
	store := newTestStore(t)
	err := store.UpdateInvoiceSettlement(context.Background(), "nope",
		dec("10"), dec("90"), ledger.StatusPartial, true)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// =============================================================================
// UPSERTS PRESERVE CACHED COLUMNS
// =============================================================================

func TestSaveCounterparty_UpsertKeepsBalance(t *testing.T) {
	// Re-saving a counterparty (rename, credit terms) must not clobber the
	// incrementally maintained balance.

	store := newTestStore(t)
	ctx := context.Background()
	saveCounterparty(t, store, "cp-1", ledger.CounterpartyCustomer, "250")

	require.NoError(t, store.SaveCounterparty(ctx, ledger.Counterparty{
		ID:     "cp-1",
		Name:   "Renamed",
		Type:   ledger.CounterpartyBoth,
		Active: true,
	}))

	cp, err := store.GetCounterparty(ctx, "cp-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", cp.Name)
	assert.Equal(t, ledger.CounterpartyBoth, cp.Type)
	assert.True(t, cp.CurrentBalance.Equal(dec("250")))
}

func TestSaveItem_UpsertKeepsStock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveItem(ctx, ledger.Item{
		ID: "item-1", Name: "Widget", StockQuantity: dec("5"),
	}))
	require.NoError(t, store.AdjustItemStock(ctx, "item-1", dec("3")))

	require.NoError(t, store.SaveItem(ctx, ledger.Item{
		ID: "item-1", Name: "Widget v2", SalePrice: dec("9.99"),
	}))

	item, err := store.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", item.Name)
	assert.True(t, item.StockQuantity.Equal(dec("8")), "stock %s", item.StockQuantity)
	assert.True(t, item.SalePrice.Equal(dec("9.99")))
}

func TestWriteStamps_ShareInjectedClock(t *testing.T) {
	// GIVEN: a store whose clock is pinned to a non-UTC instant
	// WHEN: rows are written standalone and inside a transaction
	// THEN: every updated_at carries that instant, normalized to UTC

	store := newTestStore(t)
	ctx := context.Background()

	fixed := time.Date(2026, time.April, 2, 15, 30, 0, 0, time.FixedZone("UTC+5", 5*3600))
	store.SetClock(func() time.Time { return fixed })

	require.NoError(t, store.SaveItem(ctx, ledger.Item{
		ID: "item-1", Name: "Widget", StockQuantity: dec("5"),
	}))
	item, err := store.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.True(t, item.UpdatedAt.Equal(fixed), "updated_at %s", item.UpdatedAt)
	assert.Equal(t, time.UTC, item.UpdatedAt.Location())

	err = store.WithTx(ctx, func(tx ledger.Store) error {
		return tx.AdjustItemStock(ctx, "item-1", dec("3"))
	})
	require.NoError(t, err)

	item, err = store.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.True(t, item.UpdatedAt.Equal(fixed))
}

func TestAdjustBalance_MissingCounterparty(t *testing.T) {
	store := newTestStore(t)
	err := store.AdjustCounterpartyBalance(context.Background(), "nope", dec("1"))
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	err = store.AdjustItemStock(context.Background(), "nope", dec("1"))
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistory_AppendAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)
	for i, action := range []ledger.HistoryAction{
		ledger.ActionCreated, ledger.ActionPaymentIn, ledger.ActionDeleted,
	} {
		require.NoError(t, store.AppendHistory(ctx, ledger.HistoryEntry{
			ID:        ledger.NewID(),
			InvoiceID: "inv-1",
			Action:    action,
			ActorID:   "system",
			NewValues: map[string]any{"step": action},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := store.ListHistory(ctx, "inv-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, ledger.ActionCreated, entries[0].Action)
	assert.Equal(t, ledger.ActionPaymentIn, entries[1].Action)
	assert.Equal(t, ledger.ActionDeleted, entries[2].Action)
	assert.Equal(t, string(ledger.ActionCreated), entries[0].NewValues["step"])

	// The global feed is newest first: once entries outnumber the limit,
	// it is the oldest ones that fall off, never the latest activity.
	limited, err := store.ListAllHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, ledger.ActionDeleted, limited[0].Action)
	assert.Equal(t, ledger.ActionPaymentIn, limited[1].Action)
}

// =============================================================================
// NUMBERING CONFIG
// =============================================================================

func TestNumberingConfig_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cfg := ledger.NumberingConfig{
		TenantID:   ledger.DefaultTenant,
		Prefix:     "SALE",
		NextNumber: 7,
		Padding:    3,
		Template:   "classic",
		ShowLogo:   true,
	}
	require.NoError(t, store.SaveNumberingConfig(ctx, cfg))

	got, err := store.GetNumberingConfig(ctx, ledger.DefaultTenant)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "SALE", got.Prefix)
	assert.Equal(t, int64(7), got.NextNumber)
	assert.Equal(t, 3, got.Padding)

	// Upsert replaces the counter in place.
	cfg.NextNumber = 8
	require.NoError(t, store.SaveNumberingConfig(ctx, cfg))
	got, err = store.GetNumberingConfig(ctx, ledger.DefaultTenant)
	require.NoError(t, err)
	assert.Equal(t, int64(8), got.NextNumber)
}

// =============================================================================
// REPORT AGGREGATES
// =============================================================================

func TestReceivablePayableTotals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saveCounterparty(t, store, "cust-1", ledger.CounterpartyCustomer, "100")
	saveCounterparty(t, store, "cust-2", ledger.CounterpartyCustomer, "-30") // credit balance, not receivable
	saveCounterparty(t, store, "sup-1", ledger.CounterpartySupplier, "-80")
	saveCounterparty(t, store, "both-1", ledger.CounterpartyBoth, "50")

	receivable, err := store.TotalReceivable(ctx)
	require.NoError(t, err)
	assert.True(t, receivable.Equal(dec("150")), "receivable %s", receivable)

	payable, err := store.TotalPayable(ctx)
	require.NoError(t, err)
	assert.True(t, payable.Equal(dec("80")), "payable %s", payable)
}

func TestPaymentTotals_DateWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	day := time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC)
	mkPayment := func(id string, kind ledger.PaymentKind, at time.Time, amount string) {
		require.NoError(t, store.InsertPayment(ctx, ledger.Payment{
			ID:             ledger.PaymentID(id),
			Kind:           kind,
			Number:         id,
			CounterpartyID: "cp-1",
			Date:           at,
			Amount:         dec(amount),
			CreatedAt:      at,
		}))
	}
	mkPayment("p1", ledger.PaymentIn, day.Add(9*time.Hour), "40")
	mkPayment("p2", ledger.PaymentIn, day.Add(15*time.Hour), "10")
	mkPayment("p3", ledger.PaymentOut, day.Add(11*time.Hour), "25")
	mkPayment("p4", ledger.PaymentIn, day.AddDate(0, 0, -1), "99") // previous day, excluded

	in, out, err := store.PaymentTotals(ctx, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, in.Equal(dec("50")), "in %s", in)
	assert.True(t, out.Equal(dec("25")), "out %s", out)
}

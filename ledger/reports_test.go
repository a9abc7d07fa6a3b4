package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/ledger-engine/ledger"
)

func TestBalanceAccessor_Summary(t *testing.T) {
	// GIVEN: a customer owing 100 and a supplier owed 80, with a payment in
	//        of 40 recorded today
	// THEN: the summary reflects all three

	m, store := newTestMutator(t)
	ctx := context.Background()
	seedCounterparty(t, store, "cust-1", ledger.CounterpartyCustomer)
	seedCounterparty(t, store, "sup-1", ledger.CounterpartySupplier)

	draft := saleDraft("cust-1")
	draft.Date = time.Now().UTC()
	inv, err := m.CreateSaleInvoice(ctx, draft, oneLine("", "1", "100"))
	require.NoError(t, err)

	pdraft := saleDraft("sup-1")
	pdraft.Date = time.Now().UTC()
	pdraft.Status = ledger.StatusReceived
	_, err = m.CreatePurchaseInvoice(ctx, pdraft, oneLine("", "1", "80"))
	require.NoError(t, err)

	_, err = m.CreatePaymentIn(ctx, ledger.PaymentDraft{
		CounterpartyID: "cust-1",
		Date:           time.Now().UTC(),
		Amount:         dec("40"),
		InvoiceID:      inv.ID,
	})
	require.NoError(t, err)

	summary, err := ledger.NewBalanceAccessor(store).Summary(ctx)
	require.NoError(t, err)

	assert.True(t, summary.TotalReceivable.Equal(dec("60")), "receivable %s", summary.TotalReceivable)
	assert.True(t, summary.TotalPayable.Equal(dec("80")), "payable %s", summary.TotalPayable)
	assert.True(t, summary.PaymentsInToday.Equal(dec("40")))
	assert.True(t, summary.PaymentsOutToday.IsZero())
	assert.True(t, summary.PaymentsInMonth.Equal(dec("40")))
}

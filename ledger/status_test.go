package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tallybook/ledger-engine/ledger"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// =============================================================================
// STATUS RESOLUTION
// =============================================================================

func TestResolveStatus_SaleInvoice(t *testing.T) {
	tests := []struct {
		name string
		paid string
		due  string
		prev ledger.Status
		want ledger.Status
	}{
		{"unpaid stays pending", "0", "100", ledger.StatusPending, ledger.StatusPending},
		{"partial payment", "40", "60", ledger.StatusPending, ledger.StatusPartial},
		{"fully paid", "100", "0", ledger.StatusPartial, ledger.StatusPaid},
		{"settled within epsilon", "99.995", "0.005", ledger.StatusPartial, ledger.StatusPaid},
		{"due just above epsilon stays partial", "99.98", "0.02", ledger.StatusPartial, ledger.StatusPartial},
		{"payment reversed back to pending", "0", "100", ledger.StatusPartial, ledger.StatusPending},
		{"cancelled is preserved", "40", "60", ledger.StatusCancelled, ledger.StatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ledger.ResolveStatus(dec("100"), dec(tt.paid), dec(tt.due), tt.prev, ledger.KindSale)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveStatus_PurchaseInvoice(t *testing.T) {
	tests := []struct {
		name string
		paid string
		due  string
		prev ledger.Status
		want ledger.Status
	}{
		{"unpaid draft stays draft", "0", "100", ledger.StatusDraft, ledger.StatusDraft},
		{"unpaid ordered stays ordered", "0", "100", ledger.StatusOrdered, ledger.StatusOrdered},
		{"unpaid received stays received", "0", "100", ledger.StatusReceived, ledger.StatusReceived},
		{"partial payment", "40", "60", ledger.StatusReceived, ledger.StatusPartial},
		{"fully paid", "100", "0", ledger.StatusPartial, ledger.StatusPaid},
		{"payment reversed downgrades to received", "0", "100", ledger.StatusPaid, ledger.StatusReceived},
		{"partial reversed downgrades to received", "0", "100", ledger.StatusPartial, ledger.StatusReceived},
		{"cancelled is preserved", "100", "0", ledger.StatusCancelled, ledger.StatusCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ledger.ResolveStatus(dec("100"), dec(tt.paid), dec(tt.due), tt.prev, ledger.KindPurchase)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveStatus_ZeroTotal(t *testing.T) {
	// GIVEN: a zero-total invoice with nothing paid
	// THEN: it resolves as paid, since nothing is due

	got := ledger.ResolveStatus(dec("0"), dec("0"), dec("0"), ledger.StatusPending, ledger.KindSale)
	assert.Equal(t, ledger.StatusPaid, got)
}

func TestWithinEpsilon(t *testing.T) {
	assert.True(t, ledger.WithinEpsilon(dec("100"), dec("100.009")))
	assert.True(t, ledger.WithinEpsilon(dec("100"), dec("99.995")))
	assert.False(t, ledger.WithinEpsilon(dec("100"), dec("100.02")))
	assert.False(t, ledger.WithinEpsilon(dec("100"), dec("99.98")))
}

package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tallybook/ledger-engine/ledger"
)

func TestLineAmount(t *testing.T) {
	// 10 x 50 = 500, less 10% discount = 450, plus 18% tax = 531
	got := ledger.LineAmount(dec("10"), dec("50"), dec("10"), dec("18"))
	assert.True(t, got.Equal(dec("531")), "got %s", got)

	// No discount, no tax
	got = ledger.LineAmount(dec("3"), dec("7.50"), decimal.Zero, decimal.Zero)
	assert.True(t, got.Equal(dec("22.5")), "got %s", got)
}

func TestComputeTotals(t *testing.T) {
	lines := []ledger.LineDraft{
		{Quantity: dec("2"), UnitPrice: dec("100"), DiscountPct: dec("10"), TaxPct: dec("5")},
		{Quantity: dec("1"), UnitPrice: dec("40")},
	}

	// line 1: base 200, discounted 180, tax 9
	// line 2: base 40, tax 0
	totals := ledger.ComputeTotals(lines, dec("20"))

	assert.True(t, totals.Subtotal.Equal(dec("220")), "subtotal %s", totals.Subtotal)
	assert.True(t, totals.Tax.Equal(dec("9")), "tax %s", totals.Tax)
	assert.True(t, totals.Discount.Equal(dec("20")), "discount %s", totals.Discount)
	assert.True(t, totals.Total.Equal(dec("209")), "total %s", totals.Total)
}

func TestComputeTotals_Empty(t *testing.T) {
	totals := ledger.ComputeTotals(nil, decimal.Zero)
	assert.True(t, totals.Total.IsZero())
	assert.True(t, totals.Subtotal.IsZero())
}

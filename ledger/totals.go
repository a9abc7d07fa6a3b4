package ledger

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LineAmount computes a line's amount: quantity x unit price, less the
// line discount percentage, plus the line tax percentage.
func LineAmount(quantity, unitPrice, discountPct, taxPct decimal.Decimal) decimal.Decimal {
	base := quantity.Mul(unitPrice)
	discounted := base.Sub(base.Mul(discountPct).Div(hundred))
	return discounted.Add(discounted.Mul(taxPct).Div(hundred))
}

// Totals computed from an invoice's lines and header discount.
//
//	subtotal = sum of discounted line bases (before tax)
//	tax      = sum of line taxes
//	total    = subtotal + tax - headerDiscount
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals derives invoice totals from line drafts and the header
// discount amount.
func ComputeTotals(lines []LineDraft, headerDiscount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, l := range lines {
		base := l.Quantity.Mul(l.UnitPrice)
		discounted := base.Sub(base.Mul(l.DiscountPct).Div(hundred))
		subtotal = subtotal.Add(discounted)
		tax = tax.Add(discounted.Mul(l.TaxPct).Div(hundred))
	}
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: headerDiscount,
		Total:    subtotal.Add(tax).Sub(headerDiscount),
	}
}

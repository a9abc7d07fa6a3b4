/*
status.go - Single source of truth for invoice status resolution

Every balance-affecting mutation recomputes the invoice status through
ResolveStatus instead of encoding the conditions ad hoc at each call site.
The function is pure and callable repeatedly.
*/
package ledger

import "github.com/shopspring/decimal"

// ResolveStatus maps an invoice's amounts and previous status to its next
// status. Rules, evaluated in order:
//
//  1. A terminal status (cancelled) is preserved; reconciliation never
//     overrides an explicit cancellation.
//  2. amountDue <= Epsilon          -> paid
//  3. amountPaid > 0                -> partial
//  4. Otherwise the prior non-payment status is retained, falling back to
//     the kind default (sale -> pending, purchase -> ordered). A purchase
//     downgrading from paid/partial keeps received: goods already arrived
//     and deleting a payment does not un-receive them.
func ResolveStatus(total, amountPaid, amountDue decimal.Decimal, prev Status, kind InvoiceKind) Status {
	if prev.Terminal() {
		return prev
	}
	if Settled(amountDue) {
		return StatusPaid
	}
	if amountPaid.GreaterThan(decimal.Zero) {
		return StatusPartial
	}

	switch kind {
	case KindPurchase:
		switch prev {
		case StatusDraft, StatusOrdered, StatusReceived:
			return prev
		case StatusPaid, StatusPartial:
			return StatusReceived
		}
		return StatusOrdered
	default: // sale
		return StatusPending
	}
}

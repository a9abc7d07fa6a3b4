/*
history.go - Append-only audit recorder

Every ledger mutation records exactly one history entry describing what
changed, stamped with the current actor. The recorder always writes on the
transaction-bound store of the mutation it documents, so a rolled-back
mutation leaves no orphan history entry.
*/
package ledger

import (
	"context"
	"time"
)

// Recorder appends immutable audit entries. Entries are never updated or
// deleted; they survive deletion of the records they reference.
type Recorder struct {
	actors ActorProvider
	now    func() time.Time
}

// NewRecorder creates a Recorder. A nil provider stamps entries with
// AnonymousActor: a missing identity must not block the mutation.
func NewRecorder(actors ActorProvider) *Recorder {
	return &Recorder{actors: actors, now: func() time.Time { return time.Now().UTC() }}
}

// Record fills in id, actor and timestamp and appends the entry on tx.
func (r *Recorder) Record(ctx context.Context, tx Store, e HistoryEntry) error {
	e.ID = NewID()
	e.CreatedAt = r.now()

	actor := AnonymousActor
	if r.actors != nil {
		actor = r.actors.CurrentActor(ctx)
		if actor.ID == "" {
			actor = AnonymousActor
		}
	}
	e.ActorID = actor.ID
	e.ActorName = actor.Name

	return tx.AppendHistory(ctx, e)
}

// invoiceSnapshot captures the audit-relevant fields of an invoice for
// old/new value snapshots.
func invoiceSnapshot(inv Invoice) map[string]any {
	return map[string]any{
		"number":         inv.Number,
		"status":         string(inv.Status),
		"counterpartyId": string(inv.CounterpartyID),
		"subtotal":       inv.Subtotal.String(),
		"taxAmount":      inv.TaxAmount.String(),
		"discountAmount": inv.DiscountAmount.String(),
		"total":          inv.Total.String(),
		"amountPaid":     inv.AmountPaid.String(),
		"amountDue":      inv.AmountDue.String(),
	}
}

// paymentSnapshot captures the audit-relevant fields of a payment.
func paymentSnapshot(p Payment) map[string]any {
	return map[string]any{
		"number":         p.Number,
		"kind":           string(p.Kind),
		"counterpartyId": string(p.CounterpartyID),
		"amount":         p.Amount.String(),
		"mode":           p.Mode,
		"invoiceId":      string(p.InvoiceID),
		"reference":      p.Reference,
	}
}

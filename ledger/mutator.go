/*
mutator.go - The atomic ledger operations

PURPOSE:
  One atomic operation per logical event. Each runs inside a single storage
  transaction that either fully commits or fully rolls back: invoice
  totals/status, counterparty balance, stock quantity and audit history can
  never diverge, even though writes land on a local embedded store whose
  changes are replicated later by an external sync process.

WRITE ORDERING:
  Within one transaction the write order is fixed:
    header -> line items / stock -> counterparty balance -> history
  A mid-transaction failure after, say, stock updates but before the
  balance update is never durable; the whole transaction rolls back and the
  error propagates to the caller unchanged.

SYMMETRY:
  Every create has an exact inverse. Deleting a payment restores the linked
  invoice's amountPaid/amountDue/status and the counterparty balance to
  their pre-creation values; deleting an invoice reverses whatever stock
  and balance effects it had applied.

SEE ALSO:
  - status.go:    status recomputation after every balance-affecting write
  - numbering.go: atomic number allocation inside invoice creation
  - history.go:   audit entries on the same bound transaction
*/
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// =============================================================================
// DRAFTS - validated input to the mutator
// =============================================================================

// InvoiceDraft is the header input for invoice creation. An empty Number
// requests atomic allocation from the numbering sequence.
type InvoiceDraft struct {
	Number            string
	CounterpartyID    CounterpartyID
	CounterpartyName  string
	Date              time.Time
	DueDate           time.Time
	Status            Status // initial status; zero value means the kind default
	DiscountAmount    decimal.Decimal
	InitialAmountPaid decimal.Decimal
}

// LineDraft is one invoice line. ItemID is optional; when set, the line
// moves that item's stock.
type LineDraft struct {
	ItemID      ItemID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
	TaxPct      decimal.Decimal
}

// PaymentDraft is the input for recording a payment. InvoiceID is optional:
// an unlinked payment updates only the counterparty balance and history.
type PaymentDraft struct {
	Number           string
	CounterpartyID   CounterpartyID
	CounterpartyName string
	Date             time.Time
	Amount           decimal.Decimal
	Mode             string
	InvoiceID        InvoiceID
	Reference        string
	Notes            string
}

// =============================================================================
// MUTATOR
// =============================================================================

// Mutator composes the status resolver, numbering sequencer and history
// recorder into the atomic ledger operations. The storage capability is
// passed in explicitly so tests can substitute an isolated in-memory store
// per test case.
type Mutator struct {
	store    TxStore
	recorder *Recorder
	tenantID string
	log      zerolog.Logger
	now      func() time.Time
}

// NewMutator creates a Mutator. actors may be nil (anonymous audit stamps).
func NewMutator(store TxStore, actors ActorProvider, log zerolog.Logger) *Mutator {
	return &Mutator{
		store:    store,
		recorder: NewRecorder(actors),
		tenantID: DefaultTenant,
		log:      log.With().Str("component", "mutator").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// =============================================================================
// INVOICE CREATION
// =============================================================================

// CreateSaleInvoice atomically inserts a sale invoice with its line items,
// decrements stock for every item-backed line (a sale always reduces
// available stock, regardless of status), increases the counterparty
// balance by the invoice total and records a `created` history entry.
func (m *Mutator) CreateSaleInvoice(ctx context.Context, draft InvoiceDraft, lines []LineDraft) (*Invoice, error) {
	return m.createInvoice(ctx, KindSale, draft, lines)
}

// CreatePurchaseInvoice is the purchase-side counterpart. Stock increments
// and the counterparty balance decrement are conditional on the initial
// status indicating goods were received or paid; a draft or ordered
// purchase records no stock/balance effect until ReceivePurchaseInvoice.
func (m *Mutator) CreatePurchaseInvoice(ctx context.Context, draft InvoiceDraft, lines []LineDraft) (*Invoice, error) {
	return m.createInvoice(ctx, KindPurchase, draft, lines)
}

func (m *Mutator) createInvoice(ctx context.Context, kind InvoiceKind, draft InvoiceDraft, lines []LineDraft) (*Invoice, error) {
	if err := validateInvoiceDraft(kind, draft, lines); err != nil {
		return nil, err
	}

	var created Invoice
	err := m.store.WithTx(ctx, func(tx Store) error {
		number := draft.Number
		if number == "" {
			n, err := allocateNumber(ctx, tx, m.tenantID)
			if err != nil {
				return err
			}
			number = n
		}

		totals := ComputeTotals(lines, draft.DiscountAmount)
		amountPaid := draft.InitialAmountPaid
		amountDue := totals.Total.Sub(amountPaid)

		status := draft.Status
		if status == "" {
			status = defaultInitialStatus(kind)
		}
		status = ResolveStatus(totals.Total, amountPaid, amountDue, status, kind)

		applyEffects := kind == KindSale || status.AppliesEffects()
		now := m.now()

		inv := Invoice{
			ID:               InvoiceID(NewID()),
			Kind:             kind,
			Number:           number,
			CounterpartyID:   draft.CounterpartyID,
			CounterpartyName: draft.CounterpartyName,
			Date:             draft.Date,
			DueDate:          draft.DueDate,
			Status:           status,
			Subtotal:         totals.Subtotal,
			TaxAmount:        totals.Tax,
			DiscountAmount:   totals.Discount,
			Total:            totals.Total,
			AmountPaid:       amountPaid,
			AmountDue:        amountDue,
			EffectsApplied:   applyEffects,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		// 1. Header
		if err := tx.InsertInvoice(ctx, inv); err != nil {
			return err
		}

		// 2. Line items and stock effects
		for _, l := range lines {
			li := LineItem{
				ID:          NewID(),
				InvoiceID:   inv.ID,
				ItemID:      l.ItemID,
				Description: l.Description,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
				DiscountPct: l.DiscountPct,
				TaxPct:      l.TaxPct,
				Amount:      LineAmount(l.Quantity, l.UnitPrice, l.DiscountPct, l.TaxPct),
			}
			if err := tx.InsertLineItem(ctx, li); err != nil {
				return err
			}
			if l.ItemID != "" && applyEffects {
				delta := l.Quantity
				if kind == KindSale {
					delta = delta.Neg()
				}
				if err := tx.AdjustItemStock(ctx, l.ItemID, delta); err != nil {
					return err
				}
			}
		}

		// 3. Counterparty balance
		if applyEffects {
			delta := inv.Total
			if kind == KindPurchase {
				delta = delta.Neg()
			}
			if err := tx.AdjustCounterpartyBalance(ctx, inv.CounterpartyID, delta); err != nil {
				return err
			}
		}

		// 4. History
		entry := HistoryEntry{
			InvoiceID:   inv.ID,
			InvoiceKind: kind,
			Action:      ActionCreated,
			Description: fmt.Sprintf("%s invoice %s created for %s", kind, inv.Number, inv.CounterpartyName),
			NewValues:   invoiceSnapshot(inv),
		}
		if err := m.recorder.Record(ctx, tx, entry); err != nil {
			return err
		}

		created = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().
		Str("invoice_id", string(created.ID)).
		Str("number", created.Number).
		Str("kind", string(created.Kind)).
		Str("total", created.Total.String()).
		Msg("invoice created")
	return &created, nil
}

func defaultInitialStatus(kind InvoiceKind) Status {
	if kind == KindPurchase {
		return StatusOrdered
	}
	return StatusPending
}

func validateInvoiceDraft(kind InvoiceKind, draft InvoiceDraft, lines []LineDraft) error {
	if draft.CounterpartyID == "" {
		return &ValidationError{Field: "counterpartyId", Message: "required"}
	}
	if len(lines) == 0 {
		return &ValidationError{Field: "lines", Message: "at least one line item required"}
	}
	for i, l := range lines {
		if l.Quantity.LessThanOrEqual(decimal.Zero) {
			return &ValidationError{Field: fmt.Sprintf("lines[%d].quantity", i), Message: "must be positive"}
		}
		if l.UnitPrice.IsNegative() {
			return &ValidationError{Field: fmt.Sprintf("lines[%d].unitPrice", i), Message: "must not be negative"}
		}
	}
	if draft.InitialAmountPaid.IsNegative() {
		return &ValidationError{Field: "initialAmountPaid", Message: "must not be negative"}
	}
	if draft.Status != "" && !validInitialStatus(kind, draft.Status) {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("invalid initial status %q for %s invoice", draft.Status, kind)}
	}
	return nil
}

func validInitialStatus(kind InvoiceKind, s Status) bool {
	if kind == KindPurchase {
		switch s {
		case StatusDraft, StatusOrdered, StatusReceived, StatusPaid, StatusPartial:
			return true
		}
		return false
	}
	switch s {
	case StatusPending, StatusPartial, StatusPaid:
		return true
	}
	return false
}

// =============================================================================
// PURCHASE RECEIVING
// =============================================================================

// ReceivePurchaseInvoice applies the deferred stock/balance effect of a
// draft or ordered purchase invoice: stock increments for every item-backed
// line, the counterparty balance decreases by the invoice total, the status
// flips through the resolver and a `received` history entry is recorded.
func (m *Mutator) ReceivePurchaseInvoice(ctx context.Context, id InvoiceID) (*Invoice, error) {
	var received Invoice
	err := m.store.WithTx(ctx, func(tx Store) error {
		inv, err := tx.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		if inv == nil {
			return &NotFoundError{Kind: "invoice", ID: string(id)}
		}
		if inv.Kind != KindPurchase {
			return &ValidationError{Field: "id", Message: "not a purchase invoice"}
		}
		if inv.EffectsApplied {
			return ErrAlreadyReceived
		}

		lines, err := tx.ListLineItems(ctx, inv.ID)
		if err != nil {
			return err
		}
		for _, li := range lines {
			if li.ItemID == "" {
				continue
			}
			if err := tx.AdjustItemStock(ctx, li.ItemID, li.Quantity); err != nil {
				return err
			}
		}

		if err := tx.AdjustCounterpartyBalance(ctx, inv.CounterpartyID, inv.Total.Neg()); err != nil {
			return err
		}

		oldStatus := inv.Status
		newStatus := ResolveStatus(inv.Total, inv.AmountPaid, inv.AmountDue, StatusReceived, KindPurchase)
		if err := tx.UpdateInvoiceSettlement(ctx, inv.ID, inv.AmountPaid, inv.AmountDue, newStatus, true); err != nil {
			return err
		}

		entry := HistoryEntry{
			InvoiceID:   inv.ID,
			InvoiceKind: inv.Kind,
			Action:      ActionReceived,
			Description: fmt.Sprintf("purchase invoice %s received", inv.Number),
			OldValues:   map[string]any{"status": string(oldStatus)},
			NewValues:   map[string]any{"status": string(newStatus)},
		}
		if err := m.recorder.Record(ctx, tx, entry); err != nil {
			return err
		}

		inv.Status = newStatus
		inv.EffectsApplied = true
		received = *inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Str("invoice_id", string(received.ID)).Msg("purchase invoice received")
	return &received, nil
}

// =============================================================================
// INVOICE DELETION
// =============================================================================

// DeleteInvoice removes an invoice and its line items, reversing whatever
// stock and balance effects it had applied. Invoices with linked payments
// are rejected; delete the payments first so creation and reversal stay
// symmetric. The history entry with the pre-deletion snapshot survives.
func (m *Mutator) DeleteInvoice(ctx context.Context, id InvoiceID) error {
	err := m.store.WithTx(ctx, func(tx Store) error {
		inv, err := tx.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		if inv == nil {
			return &NotFoundError{Kind: "invoice", ID: string(id)}
		}

		linked, err := tx.ListPayments(ctx, PaymentFilter{InvoiceID: inv.ID})
		if err != nil {
			return err
		}
		if len(linked) > 0 {
			return ErrInvoiceHasPayments
		}

		lines, err := tx.ListLineItems(ctx, inv.ID)
		if err != nil {
			return err
		}

		// Reverse stock effects, then drop the owned lines and header.
		if inv.EffectsApplied {
			for _, li := range lines {
				if li.ItemID == "" {
					continue
				}
				// A sale decremented stock; deletion restores it. A
				// received purchase incremented it; deletion takes it back.
				delta := li.Quantity
				if inv.Kind == KindPurchase {
					delta = li.Quantity.Neg()
				}
				if err := tx.AdjustItemStock(ctx, li.ItemID, delta); err != nil {
					return err
				}
			}
		}
		if err := tx.DeleteLineItems(ctx, inv.ID); err != nil {
			return err
		}
		if err := tx.DeleteInvoice(ctx, inv.ID); err != nil {
			return err
		}

		if inv.EffectsApplied {
			delta := inv.Total.Neg()
			if inv.Kind == KindPurchase {
				delta = inv.Total
			}
			if err := tx.AdjustCounterpartyBalance(ctx, inv.CounterpartyID, delta); err != nil {
				return err
			}
		}

		entry := HistoryEntry{
			InvoiceID:   inv.ID,
			InvoiceKind: inv.Kind,
			Action:      ActionDeleted,
			Description: fmt.Sprintf("%s invoice %s deleted", inv.Kind, inv.Number),
			OldValues:   invoiceSnapshot(*inv),
		}
		return m.recorder.Record(ctx, tx, entry)
	})
	if err != nil {
		return err
	}

	m.log.Info().Str("invoice_id", string(id)).Msg("invoice deleted")
	return nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

// CreatePaymentIn records money received. When linked to an invoice, the
// invoice's amountPaid/amountDue move by the payment amount and its status
// is recomputed; the counterparty balance decreases either way.
func (m *Mutator) CreatePaymentIn(ctx context.Context, draft PaymentDraft) (*Payment, error) {
	return m.createPayment(ctx, PaymentIn, draft)
}

// CreatePaymentOut records money paid. The counterparty balance increases.
func (m *Mutator) CreatePaymentOut(ctx context.Context, draft PaymentDraft) (*Payment, error) {
	return m.createPayment(ctx, PaymentOut, draft)
}

func (m *Mutator) createPayment(ctx context.Context, kind PaymentKind, draft PaymentDraft) (*Payment, error) {
	if draft.CounterpartyID == "" {
		return nil, &ValidationError{Field: "counterpartyId", Message: "required"}
	}
	if draft.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, &ValidationError{Field: "amount", Message: "must be positive"}
	}

	var created Payment
	err := m.store.WithTx(ctx, func(tx Store) error {
		p := Payment{
			ID:               PaymentID(NewID()),
			Kind:             kind,
			Number:           draft.Number,
			CounterpartyID:   draft.CounterpartyID,
			CounterpartyName: draft.CounterpartyName,
			Date:             draft.Date,
			Amount:           draft.Amount,
			Mode:             draft.Mode,
			InvoiceID:        draft.InvoiceID,
			Reference:        draft.Reference,
			Notes:            draft.Notes,
			CreatedAt:        m.now(),
		}
		if p.Number == "" {
			p.Number = receiptNumber(kind, string(p.ID))
		}

		// 1. Payment row
		if err := tx.InsertPayment(ctx, p); err != nil {
			return err
		}

		// 2. Linked invoice settlement
		var inv *Invoice
		if p.InvoiceID != "" {
			var err error
			inv, err = tx.GetInvoice(ctx, p.InvoiceID)
			if err != nil {
				return err
			}
			if inv == nil {
				return &NotFoundError{Kind: "invoice", ID: string(p.InvoiceID)}
			}
			newPaid := inv.AmountPaid.Add(p.Amount)
			newDue := inv.Total.Sub(newPaid)
			newStatus := ResolveStatus(inv.Total, newPaid, newDue, inv.Status, inv.Kind)
			if err := tx.UpdateInvoiceSettlement(ctx, inv.ID, newPaid, newDue, newStatus, inv.EffectsApplied); err != nil {
				return err
			}
		}

		// 3. Counterparty balance
		delta := p.Amount.Neg()
		if kind == PaymentOut {
			delta = p.Amount
		}
		if err := tx.AdjustCounterpartyBalance(ctx, p.CounterpartyID, delta); err != nil {
			return err
		}

		// 4. History
		action := ActionPaymentIn
		if kind == PaymentOut {
			action = ActionPaymentOut
		}
		entry := HistoryEntry{
			Action:      action,
			Description: fmt.Sprintf("payment %s of %s recorded for %s", p.Number, p.Amount, p.CounterpartyName),
			ReferenceID: string(p.ID),
			NewValues:   paymentSnapshot(p),
		}
		if inv != nil {
			entry.InvoiceID = inv.ID
			entry.InvoiceKind = inv.Kind
		}
		if err := m.recorder.Record(ctx, tx, entry); err != nil {
			return err
		}

		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().
		Str("payment_id", string(created.ID)).
		Str("kind", string(created.Kind)).
		Str("amount", created.Amount.String()).
		Msg("payment recorded")
	return &created, nil
}

// receiptNumber derives a fallback human-readable number from the payment
// id when the caller supplied none.
func receiptNumber(kind PaymentKind, id string) string {
	prefix := "RCP"
	if kind == PaymentOut {
		prefix = "PAY"
	}
	tail := id
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}
	return prefix + "-" + tail
}

// DeletePaymentIn applies the exact inverse of CreatePaymentIn. If the
// payment no longer exists the operation completes successfully as a no-op,
// so double-invocation is idempotent.
func (m *Mutator) DeletePaymentIn(ctx context.Context, id PaymentID) error {
	return m.deletePayment(ctx, PaymentIn, id)
}

// DeletePaymentOut applies the exact inverse of CreatePaymentOut.
func (m *Mutator) DeletePaymentOut(ctx context.Context, id PaymentID) error {
	return m.deletePayment(ctx, PaymentOut, id)
}

func (m *Mutator) deletePayment(ctx context.Context, kind PaymentKind, id PaymentID) error {
	err := m.store.WithTx(ctx, func(tx Store) error {
		// Read first, inside the transaction, to capture a consistent
		// snapshot of what is being reversed.
		p, err := tx.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		if p == nil || p.Kind != kind {
			// Already deleted (or wrong-kind id): nothing to reverse.
			return nil
		}

		// Reverse the linked invoice settlement. Status may downgrade from
		// paid back to partial or to the kind-specific unpaid default.
		if p.InvoiceID != "" {
			inv, err := tx.GetInvoice(ctx, p.InvoiceID)
			if err != nil {
				return err
			}
			if inv != nil {
				newPaid := inv.AmountPaid.Sub(p.Amount)
				newDue := inv.Total.Sub(newPaid)
				newStatus := ResolveStatus(inv.Total, newPaid, newDue, inv.Status, inv.Kind)
				if err := tx.UpdateInvoiceSettlement(ctx, inv.ID, newPaid, newDue, newStatus, inv.EffectsApplied); err != nil {
					return err
				}
			}
		}

		// Reverse the counterparty balance delta.
		delta := p.Amount
		if kind == PaymentOut {
			delta = p.Amount.Neg()
		}
		if err := tx.AdjustCounterpartyBalance(ctx, p.CounterpartyID, delta); err != nil {
			return err
		}

		entry := HistoryEntry{
			InvoiceID:   p.InvoiceID,
			Action:      ActionDeleted,
			Description: fmt.Sprintf("payment %s of %s deleted", p.Number, p.Amount),
			ReferenceID: string(p.ID),
			OldValues:   paymentSnapshot(*p),
		}
		if err := m.recorder.Record(ctx, tx, entry); err != nil {
			return err
		}

		return tx.DeletePayment(ctx, p.ID)
	})
	if err != nil {
		return err
	}

	m.log.Info().Str("payment_id", string(id)).Msg("payment deleted")
	return nil
}

// =============================================================================
// STOCK ADJUSTMENT
// =============================================================================

// AdjustStock applies a manual signed stock adjustment to an item.
// Adjustments that would drive stock negative are rejected with
// InsufficientStockError before any write lands.
func (m *Mutator) AdjustStock(ctx context.Context, itemID ItemID, delta decimal.Decimal, reason string) (*Item, error) {
	if delta.IsZero() {
		return nil, &ValidationError{Field: "quantity", Message: "must not be zero"}
	}

	var adjusted Item
	err := m.store.WithTx(ctx, func(tx Store) error {
		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return &NotFoundError{Kind: "item", ID: string(itemID)}
		}

		newQty := item.StockQuantity.Add(delta)
		if newQty.IsNegative() {
			return &InsufficientStockError{
				ItemID:    itemID,
				Available: item.StockQuantity,
				Requested: delta.Neg(),
			}
		}

		if err := tx.AdjustItemStock(ctx, itemID, delta); err != nil {
			return err
		}

		entry := HistoryEntry{
			Action:      ActionStockAdjusted,
			Description: fmt.Sprintf("stock for %s adjusted by %s: %s", item.Name, delta, reason),
			ReferenceID: string(itemID),
			OldValues:   map[string]any{"stockQuantity": item.StockQuantity.String()},
			NewValues:   map[string]any{"stockQuantity": newQty.String()},
		}
		if err := m.recorder.Record(ctx, tx, entry); err != nil {
			return err
		}

		item.StockQuantity = newQty
		adjusted = *item
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info().Str("item_id", string(itemID)).Str("delta", delta.String()).Msg("stock adjusted")
	return &adjusted, nil
}

// =============================================================================
// BALANCE RECONCILIATION
// =============================================================================

// ReconcileResult reports a comparison between the cached balance column
// and the balance derived from invoice/payment rows.
type ReconcileResult struct {
	CounterpartyID CounterpartyID
	Stored         decimal.Decimal
	Derived        decimal.Decimal
	Repaired       bool
}

// ReconcileBalance recomputes a counterparty's balance from the underlying
// rows and repairs the cached CurrentBalance column when they disagree by
// more than Epsilon. The cached column is a cache; the rows are the truth.
func (m *Mutator) ReconcileBalance(ctx context.Context, id CounterpartyID) (*ReconcileResult, error) {
	var result ReconcileResult
	err := m.store.WithTx(ctx, func(tx Store) error {
		c, err := tx.GetCounterparty(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return &NotFoundError{Kind: "counterparty", ID: string(id)}
		}

		derived, err := tx.DerivedCounterpartyBalance(ctx, id)
		if err != nil {
			return err
		}

		result = ReconcileResult{
			CounterpartyID: id,
			Stored:         c.CurrentBalance,
			Derived:        derived,
		}
		if !WithinEpsilon(c.CurrentBalance, derived) {
			if err := tx.SetCounterpartyBalance(ctx, id, derived); err != nil {
				return err
			}
			result.Repaired = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Repaired {
		m.log.Warn().
			Str("counterparty_id", string(id)).
			Str("stored", result.Stored.String()).
			Str("derived", result.Derived.String()).
			Msg("balance drift repaired")
	}
	return &result, nil
}

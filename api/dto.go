/*
dto.go - Request/response types for the HTTP surface

Requests carry validator tags; validation failures are reported as 400s
before any write happens. Money fields use decimal strings end to end.
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallybook/ledger-engine/ledger"
)

// =============================================================================
// REQUESTS
// =============================================================================

type lineRequest struct {
	ItemID      string          `json:"itemId"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	DiscountPct decimal.Decimal `json:"discountPct"`
	TaxPct      decimal.Decimal `json:"taxPct"`
}

type createInvoiceRequest struct {
	Kind              string          `json:"kind" validate:"required,oneof=sale purchase"`
	Number            string          `json:"number"`
	CounterpartyID    string          `json:"counterpartyId" validate:"required"`
	CounterpartyName  string          `json:"counterpartyName"`
	Date              time.Time       `json:"date" validate:"required"`
	DueDate           time.Time       `json:"dueDate"`
	Status            string          `json:"status"`
	DiscountAmount    decimal.Decimal `json:"discountAmount"`
	InitialAmountPaid decimal.Decimal `json:"initialAmountPaid"`
	Lines             []lineRequest   `json:"lines" validate:"required,min=1"`
}

func (r createInvoiceRequest) draft() (ledger.InvoiceDraft, []ledger.LineDraft) {
	draft := ledger.InvoiceDraft{
		Number:            r.Number,
		CounterpartyID:    ledger.CounterpartyID(r.CounterpartyID),
		CounterpartyName:  r.CounterpartyName,
		Date:              r.Date,
		DueDate:           r.DueDate,
		Status:            ledger.Status(r.Status),
		DiscountAmount:    r.DiscountAmount,
		InitialAmountPaid: r.InitialAmountPaid,
	}
	lines := make([]ledger.LineDraft, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, ledger.LineDraft{
			ItemID:      ledger.ItemID(l.ItemID),
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			DiscountPct: l.DiscountPct,
			TaxPct:      l.TaxPct,
		})
	}
	return draft, lines
}

type createPaymentRequest struct {
	Kind             string          `json:"kind" validate:"required,oneof=in out"`
	Number           string          `json:"number"`
	CounterpartyID   string          `json:"counterpartyId" validate:"required"`
	CounterpartyName string          `json:"counterpartyName"`
	Date             time.Time       `json:"date" validate:"required"`
	Amount           decimal.Decimal `json:"amount"`
	Mode             string          `json:"mode"`
	InvoiceID        string          `json:"invoiceId"`
	Reference        string          `json:"reference"`
	Notes            string          `json:"notes"`
}

func (r createPaymentRequest) draft() ledger.PaymentDraft {
	return ledger.PaymentDraft{
		Number:           r.Number,
		CounterpartyID:   ledger.CounterpartyID(r.CounterpartyID),
		CounterpartyName: r.CounterpartyName,
		Date:             r.Date,
		Amount:           r.Amount,
		Mode:             r.Mode,
		InvoiceID:        ledger.InvoiceID(r.InvoiceID),
		Reference:        r.Reference,
		Notes:            r.Notes,
	}
}

type counterpartyRequest struct {
	ID             string          `json:"id"`
	Name           string          `json:"name" validate:"required"`
	Type           string          `json:"type" validate:"required,oneof=customer supplier both"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	CreditLimit    decimal.Decimal `json:"creditLimit"`
	CreditDays     int             `json:"creditDays"`
	Active         *bool           `json:"active"`
}

type itemRequest struct {
	ID            string          `json:"id"`
	Name          string          `json:"name" validate:"required"`
	SKU           string          `json:"sku"`
	StockQuantity decimal.Decimal `json:"stockQuantity"`
	LowStockAlert decimal.Decimal `json:"lowStockAlert"`
	SalePrice     decimal.Decimal `json:"salePrice"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
}

type adjustStockRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason"`
}

type numberingRequest struct {
	Prefix     string `json:"prefix"`
	NextNumber int64  `json:"nextNumber" validate:"min=1"`
	Padding    int    `json:"padding" validate:"max=12"`
	Template   string `json:"template"`
	ShowLogo   bool   `json:"showLogo"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type invoiceResponse struct {
	ID               string         `json:"id"`
	Kind             string         `json:"kind"`
	Number           string         `json:"number"`
	CounterpartyID   string         `json:"counterpartyId"`
	CounterpartyName string         `json:"counterpartyName"`
	Date             time.Time      `json:"date"`
	DueDate          time.Time      `json:"dueDate"`
	Status           string         `json:"status"`
	Subtotal         string         `json:"subtotal"`
	TaxAmount        string         `json:"taxAmount"`
	DiscountAmount   string         `json:"discountAmount"`
	Total            string         `json:"total"`
	AmountPaid       string         `json:"amountPaid"`
	AmountDue        string         `json:"amountDue"`
	Lines            []lineResponse `json:"lines,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

type lineResponse struct {
	ID          string `json:"id"`
	ItemID      string `json:"itemId,omitempty"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	DiscountPct string `json:"discountPct"`
	TaxPct      string `json:"taxPct"`
	Amount      string `json:"amount"`
}

func toInvoiceResponse(inv ledger.Invoice, lines []ledger.LineItem) invoiceResponse {
	resp := invoiceResponse{
		ID:               string(inv.ID),
		Kind:             string(inv.Kind),
		Number:           inv.Number,
		CounterpartyID:   string(inv.CounterpartyID),
		CounterpartyName: inv.CounterpartyName,
		Date:             inv.Date,
		DueDate:          inv.DueDate,
		Status:           string(inv.Status),
		Subtotal:         inv.Subtotal.String(),
		TaxAmount:        inv.TaxAmount.String(),
		DiscountAmount:   inv.DiscountAmount.String(),
		Total:            inv.Total.String(),
		AmountPaid:       inv.AmountPaid.String(),
		AmountDue:        inv.AmountDue.String(),
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
	}
	for _, l := range lines {
		resp.Lines = append(resp.Lines, lineResponse{
			ID:          l.ID,
			ItemID:      string(l.ItemID),
			Description: l.Description,
			Quantity:    l.Quantity.String(),
			UnitPrice:   l.UnitPrice.String(),
			DiscountPct: l.DiscountPct.String(),
			TaxPct:      l.TaxPct.String(),
			Amount:      l.Amount.String(),
		})
	}
	return resp
}

type paymentResponse struct {
	ID               string    `json:"id"`
	Kind             string    `json:"kind"`
	Number           string    `json:"number"`
	CounterpartyID   string    `json:"counterpartyId"`
	CounterpartyName string    `json:"counterpartyName"`
	Date             time.Time `json:"date"`
	Amount           string    `json:"amount"`
	Mode             string    `json:"mode,omitempty"`
	InvoiceID        string    `json:"invoiceId,omitempty"`
	Reference        string    `json:"reference,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toPaymentResponse(p ledger.Payment) paymentResponse {
	return paymentResponse{
		ID:               string(p.ID),
		Kind:             string(p.Kind),
		Number:           p.Number,
		CounterpartyID:   string(p.CounterpartyID),
		CounterpartyName: p.CounterpartyName,
		Date:             p.Date,
		Amount:           p.Amount.String(),
		Mode:             p.Mode,
		InvoiceID:        string(p.InvoiceID),
		Reference:        p.Reference,
		Notes:            p.Notes,
		CreatedAt:        p.CreatedAt,
	}
}

type counterpartyResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	OpeningBalance string    `json:"openingBalance"`
	CurrentBalance string    `json:"currentBalance"`
	CreditLimit    string    `json:"creditLimit"`
	CreditDays     int       `json:"creditDays"`
	Active         bool      `json:"active"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toCounterpartyResponse(c ledger.Counterparty) counterpartyResponse {
	return counterpartyResponse{
		ID:             string(c.ID),
		Name:           c.Name,
		Type:           string(c.Type),
		OpeningBalance: c.OpeningBalance.String(),
		CurrentBalance: c.CurrentBalance.String(),
		CreditLimit:    c.CreditLimit.String(),
		CreditDays:     c.CreditDays,
		Active:         c.Active,
		UpdatedAt:      c.UpdatedAt,
	}
}

type itemResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku,omitempty"`
	StockQuantity string    `json:"stockQuantity"`
	LowStockAlert string    `json:"lowStockAlert"`
	SalePrice     string    `json:"salePrice"`
	PurchasePrice string    `json:"purchasePrice"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toItemResponse(i ledger.Item) itemResponse {
	return itemResponse{
		ID:            string(i.ID),
		Name:          i.Name,
		SKU:           i.SKU,
		StockQuantity: i.StockQuantity.String(),
		LowStockAlert: i.LowStockAlert.String(),
		SalePrice:     i.SalePrice.String(),
		PurchasePrice: i.PurchasePrice.String(),
		UpdatedAt:     i.UpdatedAt,
	}
}

type historyResponse struct {
	ID          string         `json:"id"`
	InvoiceID   string         `json:"invoiceId,omitempty"`
	InvoiceKind string         `json:"invoiceKind,omitempty"`
	Action      string         `json:"action"`
	Description string         `json:"description"`
	ReferenceID string         `json:"referenceId,omitempty"`
	OldValues   map[string]any `json:"oldValues,omitempty"`
	NewValues   map[string]any `json:"newValues,omitempty"`
	ActorID     string         `json:"actorId"`
	ActorName   string         `json:"actorName,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

func toHistoryResponse(e ledger.HistoryEntry) historyResponse {
	return historyResponse{
		ID:          e.ID,
		InvoiceID:   string(e.InvoiceID),
		InvoiceKind: string(e.InvoiceKind),
		Action:      string(e.Action),
		Description: e.Description,
		ReferenceID: e.ReferenceID,
		OldValues:   e.OldValues,
		NewValues:   e.NewValues,
		ActorID:     e.ActorID,
		ActorName:   e.ActorName,
		CreatedAt:   e.CreatedAt,
	}
}

type summaryResponse struct {
	TotalReceivable  string `json:"totalReceivable"`
	TotalPayable     string `json:"totalPayable"`
	PaymentsInToday  string `json:"paymentsInToday"`
	PaymentsOutToday string `json:"paymentsOutToday"`
	PaymentsInMonth  string `json:"paymentsInMonth"`
	PaymentsOutMonth string `json:"paymentsOutMonth"`
}

type numberingResponse struct {
	Prefix     string `json:"prefix"`
	NextNumber int64  `json:"nextNumber"`
	Padding    int    `json:"padding"`
	Template   string `json:"template"`
	ShowLogo   bool   `json:"showLogo"`
	Preview    string `json:"preview"`
}

type reconcileResponse struct {
	CounterpartyID string `json:"counterpartyId"`
	Stored         string `json:"stored"`
	Derived        string `json:"derived"`
	Repaired       bool   `json:"repaired"`
}

type errorResponse struct {
	Error string `json:"error"`
}

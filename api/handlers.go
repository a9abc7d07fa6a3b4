/*
handlers.go - HTTP handlers for the ledger engine

PURPOSE:
  Thin translation layer: decode + validate request DTOs, call into the
  ledger mutator/accessors, map domain errors to HTTP status codes. No
  ledger semantics live here.

ERROR MAPPING:
  ledger.ErrValidation          -> 400
  ledger.ErrNotFound            -> 404
  ledger.ErrConstraintViolation -> 409 (also invoice-has-payments,
                                        already-received)
  anything else                 -> 500

SEE ALSO:
  - server.go: routing
  - dto.go: request/response shapes
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/tallybook/ledger-engine/ledger"
)

// Storage is the combined capability the handler needs: the transactional
// store plus the read-side aggregates.
type Storage interface {
	ledger.TxStore
	ledger.ReportStore
}

// Handler serves the ledger HTTP API.
type Handler struct {
	store     Storage
	mutator   *ledger.Mutator
	accessor  *ledger.BalanceAccessor
	sequencer *ledger.Sequencer
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewHandler wires the ledger components around an explicit storage
// capability; no global database handle exists.
func NewHandler(store Storage, log zerolog.Logger) *Handler {
	return &Handler{
		store:     store,
		mutator:   ledger.NewMutator(store, ActorProvider, log),
		accessor:  ledger.NewBalanceAccessor(store),
		sequencer: ledger.NewSequencer(store),
		validate:  validator.New(),
		log:       log.With().Str("component", "api").Logger(),
	}
}

// =============================================================================
// INVOICES
// =============================================================================

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if !h.decode(w, r, &req) {
		return
	}

	draft, lines := req.draft()
	var (
		inv *ledger.Invoice
		err error
	)
	if req.Kind == string(ledger.KindPurchase) {
		inv, err = h.mutator.CreatePurchaseInvoice(r.Context(), draft, lines)
	} else {
		inv, err = h.mutator.CreateSaleInvoice(r.Context(), draft, lines)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toInvoiceResponse(*inv, nil))
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	filter := ledger.InvoiceFilter{
		Kind:           ledger.InvoiceKind(r.URL.Query().Get("kind")),
		Status:         ledger.Status(r.URL.Query().Get("status")),
		CounterpartyID: ledger.CounterpartyID(r.URL.Query().Get("counterpartyId")),
	}
	invoices, err := h.store.ListInvoices(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv, nil))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id := ledger.InvoiceID(chi.URLParam(r, "id"))
	inv, err := h.store.GetInvoice(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if inv == nil {
		h.writeError(w, &ledger.NotFoundError{Kind: "invoice", ID: string(id)})
		return
	}
	lines, err := h.store.ListLineItems(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toInvoiceResponse(*inv, lines))
}

func (h *Handler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id := ledger.InvoiceID(chi.URLParam(r, "id"))
	if err := h.mutator.DeleteInvoice(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReceiveInvoice(w http.ResponseWriter, r *http.Request) {
	id := ledger.InvoiceID(chi.URLParam(r, "id"))
	inv, err := h.mutator.ReceivePurchaseInvoice(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toInvoiceResponse(*inv, nil))
}

func (h *Handler) GetInvoiceHistory(w http.ResponseWriter, r *http.Request) {
	id := ledger.InvoiceID(chi.URLParam(r, "id"))
	entries, err := h.store.ListHistory(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]historyResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toHistoryResponse(e))
	}
	respondJSON(w, http.StatusOK, out)
}

// ListActivity returns the most recent audit entries across all records.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}
	entries, err := h.store.ListAllHistory(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]historyResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toHistoryResponse(e))
	}
	respondJSON(w, http.StatusOK, out)
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		p   *ledger.Payment
		err error
	)
	if req.Kind == string(ledger.PaymentOut) {
		p, err = h.mutator.CreatePaymentOut(r.Context(), req.draft())
	} else {
		p, err = h.mutator.CreatePaymentIn(r.Context(), req.draft())
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, toPaymentResponse(*p))
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	filter := ledger.PaymentFilter{
		Kind:           ledger.PaymentKind(r.URL.Query().Get("kind")),
		CounterpartyID: ledger.CounterpartyID(r.URL.Query().Get("counterpartyId")),
		InvoiceID:      ledger.InvoiceID(r.URL.Query().Get("invoiceId")),
	}
	payments, err := h.store.ListPayments(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id := ledger.PaymentID(chi.URLParam(r, "id"))

	// Deletion is idempotent: a missing payment is already deleted.
	p, err := h.store.GetPayment(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if p != nil {
		if p.Kind == ledger.PaymentOut {
			err = h.mutator.DeletePaymentOut(r.Context(), id)
		} else {
			err = h.mutator.DeletePaymentIn(r.Context(), id)
		}
		if err != nil {
			h.writeError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// COUNTERPARTIES
// =============================================================================

func (h *Handler) SaveCounterparty(w http.ResponseWriter, r *http.Request) {
	var req counterpartyRequest
	if !h.decode(w, r, &req) {
		return
	}

	cp := ledger.Counterparty{
		ID:             ledger.CounterpartyID(req.ID),
		Name:           req.Name,
		Type:           ledger.CounterpartyType(req.Type),
		OpeningBalance: req.OpeningBalance,
		CurrentBalance: req.OpeningBalance,
		CreditLimit:    req.CreditLimit,
		CreditDays:     req.CreditDays,
		Active:         true,
	}
	if req.Active != nil {
		cp.Active = *req.Active
	}
	if cp.ID == "" {
		cp.ID = ledger.CounterpartyID(ledger.NewID())
	}
	if err := h.store.SaveCounterparty(r.Context(), cp); err != nil {
		h.writeError(w, err)
		return
	}

	// The upsert keeps the stored balances on an existing counterparty, so
	// the response must come from the row, not the request.
	saved, err := h.store.GetCounterparty(r.Context(), cp.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if saved == nil {
		h.writeError(w, &ledger.NotFoundError{Kind: "counterparty", ID: string(cp.ID)})
		return
	}
	respondJSON(w, http.StatusOK, toCounterpartyResponse(*saved))
}

func (h *Handler) ListCounterparties(w http.ResponseWriter, r *http.Request) {
	cps, err := h.store.ListCounterparties(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]counterpartyResponse, 0, len(cps))
	for _, c := range cps {
		out = append(out, toCounterpartyResponse(c))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) GetCounterparty(w http.ResponseWriter, r *http.Request) {
	id := ledger.CounterpartyID(chi.URLParam(r, "id"))
	cp, err := h.store.GetCounterparty(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if cp == nil {
		h.writeError(w, &ledger.NotFoundError{Kind: "counterparty", ID: string(id)})
		return
	}
	respondJSON(w, http.StatusOK, toCounterpartyResponse(*cp))
}

func (h *Handler) ReconcileCounterparty(w http.ResponseWriter, r *http.Request) {
	id := ledger.CounterpartyID(chi.URLParam(r, "id"))
	result, err := h.mutator.ReconcileBalance(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, reconcileResponse{
		CounterpartyID: string(result.CounterpartyID),
		Stored:         result.Stored.String(),
		Derived:        result.Derived.String(),
		Repaired:       result.Repaired,
	})
}

// =============================================================================
// ITEMS
// =============================================================================

func (h *Handler) SaveItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !h.decode(w, r, &req) {
		return
	}

	item := ledger.Item{
		ID:            ledger.ItemID(req.ID),
		Name:          req.Name,
		SKU:           req.SKU,
		StockQuantity: req.StockQuantity,
		LowStockAlert: req.LowStockAlert,
		SalePrice:     req.SalePrice,
		PurchasePrice: req.PurchasePrice,
	}
	if item.ID == "" {
		item.ID = ledger.ItemID(ledger.NewID())
	}
	if err := h.store.SaveItem(r.Context(), item); err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toItemResponse(item))
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListItems(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, toItemResponse(i))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id := ledger.ItemID(chi.URLParam(r, "id"))
	var req adjustStockRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.mutator.AdjustStock(r.Context(), id, req.Quantity, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toItemResponse(*item))
}

// =============================================================================
// REPORTS AND SETTINGS
// =============================================================================

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.accessor.Summary(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summaryResponse{
		TotalReceivable:  s.TotalReceivable.String(),
		TotalPayable:     s.TotalPayable.String(),
		PaymentsInToday:  s.PaymentsInToday.String(),
		PaymentsOutToday: s.PaymentsOutToday.String(),
		PaymentsInMonth:  s.PaymentsInMonth.String(),
		PaymentsOutMonth: s.PaymentsOutMonth.String(),
	})
}

func (h *Handler) GetNumbering(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.sequencer.Config(r.Context(), ledger.DefaultTenant)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toNumberingResponse(cfg))
}

func (h *Handler) SaveNumbering(w http.ResponseWriter, r *http.Request) {
	var req numberingRequest
	if !h.decode(w, r, &req) {
		return
	}
	cfg := ledger.NumberingConfig{
		TenantID:   ledger.DefaultTenant,
		Prefix:     req.Prefix,
		NextNumber: req.NextNumber,
		Padding:    req.Padding,
		Template:   req.Template,
		ShowLogo:   req.ShowLogo,
	}
	if err := h.sequencer.Persist(r.Context(), cfg); err != nil {
		h.writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toNumberingResponse(cfg))
}

func toNumberingResponse(cfg ledger.NumberingConfig) numberingResponse {
	return numberingResponse{
		Prefix:     cfg.Prefix,
		NextNumber: cfg.NextNumber,
		Padding:    cfg.Padding,
		Template:   cfg.Template,
		ShowLogo:   cfg.ShowLogo,
		Preview:    ledger.Preview(cfg),
	}
}

// =============================================================================
// PLUMBING
// =============================================================================

// decode unmarshals and validates the request body. Malformed JSON
// (including non-numeric amounts) and failed validator tags both map to
// 400 before any write.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case ledger.IsNotFound(err):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case ledger.IsClientError(err):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.log.Error().Err(err).Msg("internal error")
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

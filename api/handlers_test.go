/*
handlers_test.go - HTTP-level tests for the ledger API

Exercises the router end to end against an in-memory store: request
decoding and validation, the domain error to status code mapping, and a
full invoice/payment lifecycle over the wire.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/ledger-engine/ledger"
	"github.com/tallybook/ledger-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T) (http.Handler, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewRouter(NewHandler(store, zerolog.Nop())), store
}

func doJSON(t *testing.T, srv http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func seedBasics(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveCounterparty(ctx, ledger.Counterparty{
		ID: "cust-1", Name: "Acme", Type: ledger.CounterpartyCustomer, Active: true,
	}))
	require.NoError(t, store.SaveItem(ctx, ledger.Item{
		ID: "item-1", Name: "Widget", StockQuantity: mustDec("10"),
	}))
}

func mustDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func invoiceBody(kind string) map[string]any {
	return map[string]any{
		"kind":           kind,
		"counterpartyId": "cust-1",
		"date":           "2026-03-05T00:00:00Z",
		"lines": []map[string]any{
			{"itemId": "item-1", "description": "widgets", "quantity": "2", "unitPrice": "50"},
		},
	}
}

// =============================================================================
// INVOICE LIFECYCLE OVER HTTP
// =============================================================================

func TestInvoiceLifecycle(t *testing.T) {
	// GIVEN: a seeded customer and item
	// WHEN: an invoice is created, paid, the payment deleted, and the
	//       invoice deleted, all over HTTP
	// THEN: each response carries the recomputed state

	srv, store := newTestServer(t)
	seedBasics(t, store)

	// Create
	rec := doJSON(t, srv, http.MethodPost, "/api/invoices", invoiceBody("sale"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[invoiceResponse](t, rec)
	assert.Equal(t, "INV-00001", created.Number)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "100", created.Total)

	// Read back with lines
	rec = doJSON(t, srv, http.MethodGet, "/api/invoices/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[invoiceResponse](t, rec)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "2", got.Lines[0].Quantity)

	// Pay in part
	rec = doJSON(t, srv, http.MethodPost, "/api/payments", map[string]any{
		"kind":           "in",
		"counterpartyId": "cust-1",
		"date":           "2026-03-06T00:00:00Z",
		"amount":         "40",
		"invoiceId":      created.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	payment := decodeBody[paymentResponse](t, rec)

	rec = doJSON(t, srv, http.MethodGet, "/api/invoices/"+created.ID, nil)
	got = decodeBody[invoiceResponse](t, rec)
	assert.Equal(t, "partial", got.Status)
	assert.Equal(t, "60", got.AmountDue)

	// Deleting the invoice while the payment exists is a conflict
	rec = doJSON(t, srv, http.MethodDelete, "/api/invoices/"+created.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Delete the payment, then the invoice
	rec = doJSON(t, srv, http.MethodDelete, "/api/payments/"+payment.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, srv, http.MethodDelete, "/api/invoices/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// The audit trail survives deletion
	rec = doJSON(t, srv, http.MethodGet, "/api/invoices/"+created.ID+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeBody[[]historyResponse](t, rec)
	assert.Len(t, history, 4)

	// The global activity feed is newest first, capped by limit: the two
	// deletions survive, the creation falls off.
	rec = doJSON(t, srv, http.MethodGet, "/api/history?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decodeBody[[]historyResponse](t, rec)
	require.Len(t, feed, 2)
	assert.Equal(t, "deleted", feed[0].Action)
	assert.Empty(t, feed[0].ReferenceID, "newest entry is the invoice deletion")
	assert.Equal(t, payment.ID, feed[1].ReferenceID, "then the payment deletion")
}

func TestReceivePurchase(t *testing.T) {
	srv, store := newTestServer(t)
	seedBasics(t, store)

	rec := doJSON(t, srv, http.MethodPost, "/api/invoices", invoiceBody("purchase"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[invoiceResponse](t, rec)
	assert.Equal(t, "ordered", created.Status)

	rec = doJSON(t, srv, http.MethodPost, "/api/invoices/"+created.ID+"/receive", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	received := decodeBody[invoiceResponse](t, rec)
	assert.Equal(t, "received", received.Status)

	// Second receive is a conflict
	rec = doJSON(t, srv, http.MethodPost, "/api/invoices/"+created.ID+"/receive", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestErrorMapping(t *testing.T) {
	srv, store := newTestServer(t)
	seedBasics(t, store)

	// Unknown invoice -> 404
	rec := doJSON(t, srv, http.MethodGet, "/api/invoices/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Malformed JSON -> 400
	req := httptest.NewRequest(http.MethodPost, "/api/invoices", bytes.NewBufferString("{nope"))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Failed validator tags -> 400 before any write
	rec = doJSON(t, srv, http.MethodPost, "/api/invoices", map[string]any{
		"kind": "sale", "counterpartyId": "cust-1", "date": "2026-03-05T00:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing lines")

	rec = doJSON(t, srv, http.MethodPost, "/api/invoices", func() map[string]any {
		b := invoiceBody("rental")
		return b
	}())
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown kind")

	// Deleting a missing payment is idempotent -> 204
	rec = doJSON(t, srv, http.MethodDelete, "/api/payments/ghost", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Negative manual stock adjustment below zero -> 409
	rec = doJSON(t, srv, http.MethodPost, "/api/items/item-1/adjust-stock", map[string]any{
		"quantity": "-999", "reason": "shrinkage",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// SETTINGS, REPORTS, RECONCILIATION
// =============================================================================

func TestNumberingSettings(t *testing.T) {
	srv, _ := newTestServer(t)

	// First read creates the default config
	rec := doJSON(t, srv, http.MethodGet, "/api/settings/numbering", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decodeBody[numberingResponse](t, rec)
	assert.Equal(t, "INV", cfg.Prefix)
	assert.Equal(t, "INV-00001", cfg.Preview)

	rec = doJSON(t, srv, http.MethodPut, "/api/settings/numbering", map[string]any{
		"prefix": "SALE", "nextNumber": 5000, "padding": 3, "template": "classic",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cfg = decodeBody[numberingResponse](t, rec)
	assert.Equal(t, "SALE-5000", cfg.Preview, "wide numbers are not truncated")

	rec = doJSON(t, srv, http.MethodPut, "/api/settings/numbering", map[string]any{
		"prefix": "X", "nextNumber": 0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryAndReconcile(t *testing.T) {
	srv, store := newTestServer(t)
	seedBasics(t, store)

	rec := doJSON(t, srv, http.MethodPost, "/api/invoices", invoiceBody("sale"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/reports/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[summaryResponse](t, rec)
	assert.Equal(t, "100", summary.TotalReceivable)

	// Corrupt the cached balance, then reconcile over HTTP
	require.NoError(t, store.SetCounterpartyBalance(context.Background(), "cust-1", mustDec("7")))
	rec = doJSON(t, srv, http.MethodPost, "/api/counterparties/cust-1/reconcile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeBody[reconcileResponse](t, rec)
	assert.True(t, result.Repaired)
	assert.Equal(t, "100", result.Derived)
}

func TestUpdateCounterparty_ResponseReflectsStoredBalance(t *testing.T) {
	srv, store := newTestServer(t)

	// GIVEN: a customer whose balance has moved since creation
	rec := doJSON(t, srv, http.MethodPost, "/api/counterparties", map[string]any{
		"id": "cust-9", "name": "Acme", "type": "customer", "openingBalance": "100",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/payments", map[string]any{
		"kind": "in", "counterpartyId": "cust-9",
		"date": "2026-03-06T00:00:00Z", "amount": "40",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN: the customer is renamed via an upsert with a different opening balance
	rec = doJSON(t, srv, http.MethodPost, "/api/counterparties", map[string]any{
		"id": "cust-9", "name": "Acme Renamed", "type": "customer", "openingBalance": "999",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	cp := decodeBody[counterpartyResponse](t, rec)

	// THEN: the response carries the stored balances, not the request's
	assert.Equal(t, "Acme Renamed", cp.Name)
	assert.Equal(t, "100", cp.OpeningBalance)
	assert.Equal(t, "60", cp.CurrentBalance)
	assert.False(t, cp.UpdatedAt.IsZero())

	stored, err := store.GetCounterparty(context.Background(), "cust-9")
	require.NoError(t, err)
	assert.Equal(t, cp.CurrentBalance, stored.CurrentBalance.String())
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

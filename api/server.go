/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for local frontends
  5. Actor:      Resolves the acting user from request headers
  6. Metrics:    Prometheus request counters and latency

ROUTE GROUPS:
  /api/invoices/*        Invoice lifecycle (create, receive, delete, history)
  /api/payments/*        Payment recording and reversal
  /api/counterparties/*  Counterparty directory and balance reconciliation
  /api/items/*           Inventory and stock adjustments
  /api/history           Recent activity feed
  /api/reports/*         Dashboard aggregates
  /api/settings/*        Invoice numbering configuration
  /metrics               Prometheus scrape endpoint
  /health                Liveness check

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-ID", "X-Actor-Name"},
		AllowCredentials: true,
	}))
	r.Use(ActorMiddleware)
	r.Use(metricsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.ListInvoices)
			r.Post("/", h.CreateInvoice)
			r.Get("/{id}", h.GetInvoice)
			r.Delete("/{id}", h.DeleteInvoice)
			r.Post("/{id}/receive", h.ReceiveInvoice)
			r.Get("/{id}/history", h.GetInvoiceHistory)
		})

		r.Get("/history", h.ListActivity)

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/", h.CreatePayment)
			r.Delete("/{id}", h.DeletePayment)
		})

		r.Route("/counterparties", func(r chi.Router) {
			r.Get("/", h.ListCounterparties)
			r.Post("/", h.SaveCounterparty)
			r.Get("/{id}", h.GetCounterparty)
			r.Post("/{id}/reconcile", h.ReconcileCounterparty)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.SaveItem)
			r.Post("/{id}/adjust-stock", h.AdjustStock)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", h.GetSummary)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/numbering", h.GetNumbering)
			r.Put("/numbering", h.SaveNumbering)
		})
	})

	r.Handle("/metrics", metricsHandler())

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

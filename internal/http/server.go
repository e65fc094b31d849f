// Package http is the thin JSON/SSE glue over the expense service. It does
// no business logic: identity comes from a header, bodies map one-to-one to
// service calls, and errors pass through already normalized.
package http

import (
	"net/http"

	"spendlog/internal/services"
)

// NewServer builds the API server on addr.
func NewServer(addr string, svc *services.ExpenseService) *http.Server {
	h := &handlers{svc: svc}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/expenses", h.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses", h.handleListExpenses)
	mux.HandleFunc("PUT /api/expenses/{id}", h.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", h.handleDeleteExpense)
	mux.HandleFunc("GET /api/stats", h.handleStats)
	mux.HandleFunc("GET /api/expenses/stream", h.handleStream)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}

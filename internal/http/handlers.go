package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spendlog/internal/core"
	"spendlog/internal/services"
	"spendlog/internal/store"
)

const defaultPageSize = 20

type handlers struct {
	svc *services.ExpenseService
}

// expenseForm is the JSON shape callers submit; it maps straight onto
// core.ExpenseForm with amount kept as a string.
type expenseForm struct {
	Amount        string `json:"amount"`
	Category      string `json:"category"`
	Date          string `json:"date"`
	Description   string `json:"description"`
	PaymentMethod string `json:"paymentMethod"`
}

func (f expenseForm) toForm() core.ExpenseForm {
	return core.ExpenseForm{
		Amount:        f.Amount,
		Category:      f.Category,
		Date:          f.Date,
		Description:   f.Description,
		PaymentMethod: f.PaymentMethod,
	}
}

// expenseDTO is the persisted record shape exposed to callers.
type expenseDTO struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	Amount        core.Money `json:"amount"`
	Category      string     `json:"category"`
	Date          string     `json:"date"`
	Description   *string    `json:"description"`
	PaymentMethod string     `json:"paymentMethod"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toDTO(e core.Expense) expenseDTO {
	var desc *string
	if e.Description != "" {
		d := e.Description
		desc = &d
	}
	return expenseDTO{
		ID:            e.ID,
		UserID:        e.UserID,
		Amount:        e.Amount,
		Category:      e.Category,
		Date:          e.Date,
		Description:   desc,
		PaymentMethod: e.PaymentMethod,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func toDTOs(expenses []core.Expense) []expenseDTO {
	out := make([]expenseDTO, len(expenses))
	for i, e := range expenses {
		out[i] = toDTO(e)
	}
	return out
}

// ownerID extracts the authenticated identity the external provider put on
// the request. This layer never evaluates identity itself.
func ownerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}

func (h *handlers) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}

	var form expenseForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	id, err := h.svc.AddExpense(r.Context(), owner, form.toForm())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *handlers) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}

	var form expenseForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.svc.UpdateExpense(r.Context(), r.PathValue("id"), owner, form.toForm()); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteExpense(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListExpenses serves the full list plus its filtered and paginated
// variants, keyed off query parameters: category=, start=&end=, or
// page_size=&cursor=.
func (h *handlers) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}

	q := r.URL.Query()

	if category := q.Get("category"); category != "" {
		expenses, err := h.svc.ExpensesByCategory(r.Context(), owner, category)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"expenses": toDTOs(expenses)})
		return
	}

	if start, end := q.Get("start"), q.Get("end"); start != "" || end != "" {
		if start == "" || end == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "both start and end are required"})
			return
		}
		expenses, err := h.svc.ExpensesByDateRange(r.Context(), owner, start, end)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"expenses": toDTOs(expenses)})
		return
	}

	if q.Has("page_size") || q.Has("cursor") {
		pageSize := defaultPageSize
		if v := q.Get("page_size"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid page_size"})
				return
			}
			pageSize = n
		}
		page, next, err := h.svc.ExpensesPage(r.Context(), owner, pageSize, q.Get("cursor"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp := map[string]any{"expenses": toDTOs(page)}
		if next != "" {
			resp["nextCursor"] = next
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	expenses, err := h.svc.Expenses(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": toDTOs(expenses)})
}

func (h *handlers) handleStats(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}

	stats, err := h.svc.Stats(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totalExpenses":     stats.TotalExpenses,
		"monthlyTotal":      stats.MonthlyTotal,
		"categoryBreakdown": stats.CategoryBreakdown,
		"recentExpenses":    toDTOs(stats.RecentExpenses),
	})
}

// handleStream pushes full snapshots over SSE whenever the owner's expense
// set changes. The subscription is torn down when the client disconnects.
func (h *handlers) handleStream(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	snapshots := make(chan []byte, 8)
	failures := make(chan error, 1)

	unsubscribe := h.svc.Subscribe(owner,
		func(expenses []core.Expense) {
			body, err := json.Marshal(toDTOs(expenses))
			if err != nil {
				return
			}
			select {
			case snapshots <- body:
			default:
				// Slow client; drop this snapshot, a fresher one follows.
			}
		},
		func(err error) {
			select {
			case failures <- err:
			default:
			}
		})
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case err := <-failures:
			fmt.Fprintf(w, "event: error\ndata: %q\n\n", err.Error())
			flusher.Flush()
			return
		case body := <-snapshots:
			fmt.Fprintf(w, "data: %s\n\n", body)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps the two normalized error families onto HTTP statuses.
// Anything else is a bug in the layers below and becomes a bare 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": ve.Message,
			"kind":  string(ve.Kind),
		})
		return
	}

	var se *store.Error
	if errors.As(err, &se) {
		status := http.StatusInternalServerError
		switch se.Kind {
		case store.PermissionDenied:
			status = http.StatusForbidden
		case store.Unavailable:
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]string{
			"error": se.Message,
			"kind":  string(se.Kind),
		})
		return
	}

	slog.ErrorContext(r.Context(), "Unclassified error reached HTTP layer",
		"error", err, "path", r.URL.Path)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "An unexpected error occurred",
	})
}

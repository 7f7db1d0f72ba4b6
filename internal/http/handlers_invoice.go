package http

import (
	"log/slog"
	"net/http"
	"strings"

	"bilancio/internal/invoice"
)

type invoiceExpense struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type invoiceBucket struct {
	Period   string           `json:"period"`
	Total    string           `json:"total"`
	Expenses []invoiceExpense `json:"expenses"`
}

// handleInvoices groups a user's credit-card expenses into billing periods
// using the profile's invoice break day.
func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	profile, err := s.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "resolve profile", "user_id", userID, "error", err)
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	expenses, err := s.expenses.ListCCMExpenses(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "list ccm expenses", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load expenses")
		return
	}

	buckets := invoice.GroupByPeriod(expenses, profile.InvoiceBreakDay)
	out := make([]invoiceBucket, len(buckets))
	for i, b := range buckets {
		items := make([]invoiceExpense, len(b.Expenses))
		for j, e := range b.Expenses {
			items[j] = invoiceExpense{
				ID:          e.ID,
				Date:        e.Date.Format("2006-01-02"),
				Description: e.Description,
				Amount:      e.Amount.String(),
			}
		}
		out[i] = invoiceBucket{Period: b.Period, Total: b.Total.String(), Expenses: items}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"break_day": profile.InvoiceBreakDay,
		"invoices":  out,
	})
}

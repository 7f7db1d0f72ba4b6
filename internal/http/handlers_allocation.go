package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bilancio/internal/allocation"
	"bilancio/internal/core"
	"bilancio/internal/period"
)

type allocationResponse struct {
	Period        string `json:"period"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	HasPartner    bool   `json:"has_partner"`
	TotalSpent    string `json:"total_spent"`
	UserSpent     string `json:"user_spent"`
	PartnerSpent  string `json:"partner_spent"`
	ActualSavings string `json:"actual_savings"`
}

// handleAllocation reports a budget period's spending split between the
// household members, with savings-flagged categories carved out.
func (s *Server) handleAllocation(w http.ResponseWriter, r *http.Request) {
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

	label := strings.TrimSpace(r.URL.Query().Get("period"))
	if label == "" {
		label = period.BudgetPeriodFor(time.Now(), profile.SalaryDay).Label
	}

	cacheKey := userID + "/" + label
	if cached, found := s.allocationCache.Get(cacheKey); found {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	start, end, err := period.PeriodDatesForLabel(label, profile.SalaryDay)
	if err != nil {
		writeError(w, http.StatusBadRequest, core.ErrInvalidPeriodLabel.Error())
		return
	}

	expenses, err := s.expenses.ListExpensesBetween(r.Context(), userID, start, end)
	if err != nil {
		slog.ErrorContext(r.Context(), "list period expenses", "user_id", userID, "period", label, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load expenses")
		return
	}

	savings, err := s.expenses.SavingsCategoryIDs(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "list savings categories", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load categories")
		return
	}

	summary := allocation.Totals(expenses, savings, profile.HasPartner())
	resp := allocationResponse{
		Period:        label,
		StartDate:     start.Format("2006-01-02"),
		EndDate:       end.Format("2006-01-02"),
		HasPartner:    profile.HasPartner(),
		TotalSpent:    summary.TotalSpent.String(),
		UserSpent:     summary.UserSpent.String(),
		PartnerSpent:  summary.PartnerSpent.String(),
		ActualSavings: summary.ActualSavings.String(),
	}
	s.allocationCache.Set(cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

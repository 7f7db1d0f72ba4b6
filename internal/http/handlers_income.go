package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/income"
	"bilancio/internal/period"
)

type incomeResponse struct {
	Period        string `json:"period"`
	TotalIncome   string `json:"total_income"`
	UserIncome    string `json:"user_income"`
	PartnerIncome string `json:"partner_income"`
	// Fallback is true when the household aggregate failed and only the
	// caller's own rows were summed. The numbers are valid but reduced.
	Fallback bool `json:"fallback"`
}

// handleIncome returns the household income total for a period, preferring
// the store-side aggregate and falling back to own-rows-only.
func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
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
	} else if _, _, err := core.ParsePeriod(label); err != nil {
		writeError(w, http.StatusBadRequest, core.ErrInvalidPeriodLabel.Error())
		return
	}

	cacheKey := userID + "/" + label
	if cached, found := s.incomeCache.Get(cacheKey); found {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	total, err := s.incomes.HouseholdTotal(r.Context(), profile, label)
	if err != nil {
		slog.ErrorContext(r.Context(), "household income total", "user_id", userID, "period", label, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load income")
		return
	}

	resp := incomeResponse{
		Period:        label,
		TotalIncome:   total.Total.String(),
		UserIncome:    total.User.String(),
		PartnerIncome: total.Partner.String(),
		Fallback:      total.Fallback,
	}
	// Fallback results are not cached: the next poll should retry the
	// full aggregate.
	if !total.Fallback {
		s.incomeCache.Set(cacheKey, resp)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleIncomePrompt decides whether the UI should nudge the user to
// register income for the current period. The session's dismissed flag
// arrives as a query parameter; it is per-session state, not server state.
func (s *Server) handleIncomePrompt(w http.ResponseWriter, r *http.Request) {
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

	label := period.BudgetPeriodFor(time.Now(), profile.SalaryDay).Label
	hasIncome, err := s.incomes.HasIncomeForPeriod(r.Context(), userID, label)
	if err != nil {
		slog.ErrorContext(r.Context(), "check income for period", "user_id", userID, "period", label, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check income")
		return
	}

	dismissed := r.URL.Query().Get("dismissed") == "true"
	writeJSON(w, http.StatusOK, map[string]any{
		"period":     label,
		"has_income": hasIncome,
		"prompt":     income.ShouldPromptIncome(hasIncome, dismissed),
	})
}

package http

import (
	"log/slog"
	"net/http"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/period"
)

type periodResponse struct {
	Label       string `json:"label"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	DisplayName string `json:"display_name"`
}

type currentPeriodResponse struct {
	periodResponse
	DaysUntilSalary int `json:"days_until_salary"`
	Progress        int `json:"progress"`
}

func toPeriodResponse(p core.BudgetPeriod) periodResponse {
	return periodResponse{
		Label:       p.Label,
		StartDate:   p.Start.Format("2006-01-02"),
		EndDate:     p.End.Format("2006-01-02"),
		DisplayName: p.DisplayName,
	}
}

func (s *Server) handleCurrentPeriod(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	salaryDay, ok := s.requestSalaryDay(w, r)
	if !ok {
		return
	}

	now := time.Now()
	writeJSON(w, http.StatusOK, currentPeriodResponse{
		periodResponse:  toPeriodResponse(period.BudgetPeriodFor(now, salaryDay)),
		DaysUntilSalary: period.DaysUntilSalary(now, salaryDay),
		Progress:        period.PeriodProgress(now, salaryDay),
	})
}

func (s *Server) handleRecentPeriods(w http.ResponseWriter, r *http.Request) {
	s.handlePeriodList(w, r, period.RecentPeriods)
}

func (s *Server) handleNextPeriods(w http.ResponseWriter, r *http.Request) {
	s.handlePeriodList(w, r, period.NextPeriods)
}

func (s *Server) handlePeriodList(w http.ResponseWriter, r *http.Request, list func(time.Time, int, int) []core.BudgetPeriod) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	salaryDay, ok := s.requestSalaryDay(w, r)
	if !ok {
		return
	}

	count := queryInt(r, "count", 6)
	if count < 1 || count > 36 {
		writeError(w, http.StatusBadRequest, "count must be between 1 and 36")
		return
	}

	periods := list(time.Now(), salaryDay, count)
	out := make([]periodResponse, len(periods))
	for i, p := range periods {
		out[i] = toPeriodResponse(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"periods": out})
}

// requestSalaryDay resolves the salary day for a period endpoint and writes
// the error response itself when resolution fails.
func (s *Server) requestSalaryDay(w http.ResponseWriter, r *http.Request) (int, bool) {
	profile, err := s.resolveProfile(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "resolve profile", "error", err)
		writeError(w, http.StatusNotFound, "profile not found")
		return 0, false
	}
	salaryDay, err := s.salaryDayFor(r, profile)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return salaryDay, true
}

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"bilancio/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// queryInt parses an integer query parameter, returning fallback when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, fallback int) int {
	if v := strings.TrimSpace(r.URL.Query().Get(name)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// resolveProfile loads the requesting user's profile; without a user_id it
// falls back to the configured defaults so read endpoints work unseeded.
func (s *Server) resolveProfile(r *http.Request) (core.Profile, error) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		return core.Profile{
			SalaryDay:       s.opts.DefaultSalaryDay,
			InvoiceBreakDay: s.opts.DefaultBreakDay,
		}, nil
	}
	return s.profiles.GetProfile(r.Context(), userID)
}

// salaryDayFor resolves the salary day for a request: an explicit
// salary_day parameter wins over the profile value.
func (s *Server) salaryDayFor(r *http.Request, profile core.Profile) (int, error) {
	day := profile.SalaryDay
	if day == 0 {
		day = s.opts.DefaultSalaryDay
	}
	if v := strings.TrimSpace(r.URL.Query().Get("salary_day")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 31 {
			return 0, core.ErrInvalidSalaryDay
		}
		day = parsed
	}
	return day, nil
}

package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"bilancio/internal/metrics"
	"bilancio/internal/services"
)

type cronResponse struct {
	Success   bool              `json:"success"`
	Processed int               `json:"processed"`
	Skipped   int               `json:"skipped"`
	Details   []services.Detail `json:"details"`
	Message   string            `json:"message"`
}

// handleProcessRecurring runs one scheduler pass. An external cron hits it
// once per day, but re-invocation is safe: the dedup check plus the storage
// uniqueness constraint make each (template, month) fire at most once.
func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	result, err := s.scheduler.ProcessDueTemplates(r.Context(), time.Now())
	metrics.ObserveRun(result.Processed, result.Skipped, time.Since(start), err)
	if err != nil {
		slog.ErrorContext(r.Context(), "recurring expense run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "recurring expense processing failed")
		return
	}

	// Materialized rows change every downstream aggregate.
	if result.Processed > 0 {
		s.invalidateSummaries()
	}

	details := result.Details
	if details == nil {
		details = []services.Detail{}
	}
	writeJSON(w, http.StatusOK, cronResponse{
		Success:   true,
		Processed: result.Processed,
		Skipped:   result.Skipped,
		Details:   details,
		Message:   fmt.Sprintf("processed %d, skipped %d", result.Processed, result.Skipped),
	})
}

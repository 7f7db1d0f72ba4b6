// Package http exposes the engine over JSON endpoints plus the cron batch
// endpoint that materializes recurring expenses.
package http

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/income"
	applog "bilancio/internal/log"
	"bilancio/internal/metrics"
	"bilancio/internal/services"
)

// ProfileStore resolves per-user engine configuration.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (core.Profile, error)
}

// ExpenseStore reads the rows the report endpoints aggregate.
type ExpenseStore interface {
	ListExpensesBetween(ctx context.Context, userID string, from, to time.Time) ([]core.Expense, error)
	ListCCMExpenses(ctx context.Context, userID string) ([]core.Expense, error)
	SavingsCategoryIDs(ctx context.Context) (map[string]bool, error)
}

// Scheduler runs one recurring-expense pass.
type Scheduler interface {
	ProcessDueTemplates(ctx context.Context, now time.Time) (services.Result, error)
}

// IncomeSource resolves household income totals.
type IncomeSource interface {
	HouseholdTotal(ctx context.Context, profile core.Profile, periodLabel string) (income.Total, error)
	HasIncomeForPeriod(ctx context.Context, userID, periodLabel string) (bool, error)
}

// Options carries the request-independent configuration.
type Options struct {
	CronSecret string
	Production bool
	// Defaults used when a request names no user and a profile row is
	// absent.
	DefaultSalaryDay int
	DefaultBreakDay  int
}

type Server struct {
	http.Server

	opts      Options
	profiles  ProfileStore
	expenses  ExpenseStore
	scheduler Scheduler
	incomes   IncomeSource

	rateLimiter *rateLimiter

	allocationCache *cache.LRU[allocationResponse]
	incomeCache     *cache.LRU[incomeResponse]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, opts Options, profiles ProfileStore, expenses ExpenseStore, scheduler Scheduler, incomes IncomeSource) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		opts:             opts,
		profiles:         profiles,
		expenses:         expenses,
		scheduler:        scheduler,
		incomes:          incomes,
		rateLimiter:      newRateLimiter(),
		allocationCache:  cache.NewLRU[allocationResponse](200, 5*time.Minute),
		incomeCache:      cache.NewLRU[incomeResponse](200, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/api/cron/process-recurring-expenses", s.withRequestLogging(s.requireCronSecret(s.handleProcessRecurring)))
	mux.HandleFunc("/api/periods/current", s.withRequestLogging(s.handleCurrentPeriod))
	mux.HandleFunc("/api/periods/recent", s.withRequestLogging(s.handleRecentPeriods))
	mux.HandleFunc("/api/periods/next", s.withRequestLogging(s.handleNextPeriods))
	mux.HandleFunc("/api/invoices", s.withRequestLogging(s.handleInvoices))
	mux.HandleFunc("/api/allocation", s.withRequestLogging(s.handleAllocation))
	mux.HandleFunc("/api/income", s.withRequestLogging(s.handleIncome))
	mux.HandleFunc("/api/income/prompt", s.withRequestLogging(s.handleIncomePrompt))

	return s
}

// Shutdown stops the cleanup goroutines along with the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateSummaries drops all cached aggregates. Summaries are keyed per
// (user, period); after a scheduler run it is simplest to drop everything.
func (s *Server) invalidateSummaries() {
	s.allocationCache.Clear()
	s.incomeCache.Clear()
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := s.allocationCache.CleanExpired() + s.incomeCache.CleanExpired()
			if cleaned > 0 {
				slog.Debug("cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// withRequestLogging adds security headers, rate limiting on mutating
// requests, a request ID and start/completion logs.
func (s *Server) withRequestLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "request started",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "rate limit exceeded", "client_ip", clientIP, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "request completed",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

// requireCronSecret enforces bearer auth on the batch endpoint. Outside
// production the check is skipped so local runs need no secret.
func (s *Server) requireCronSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.opts.Production {
			next(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || s.opts.CronSecret == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.CronSecret)) != 1 {
			slog.WarnContext(r.Context(), "cron endpoint auth failed", "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

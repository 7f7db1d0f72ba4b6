// Package metrics registers the Prometheus instruments for the batch
// scheduler and exposes them on /metrics via promhttp.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecurringProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recurring_expenses_processed_total",
		Help: "Recurring templates materialized into expense rows.",
	})

	RecurringSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recurring_expenses_skipped_total",
		Help: "Recurring templates skipped because the month was already processed.",
	})

	RecurringRunErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recurring_run_errors_total",
		Help: "Scheduler runs aborted by a storage error.",
	})

	RecurringRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recurring_run_duration_seconds",
		Help:    "Wall time of one scheduler run.",
		Buckets: prometheus.DefBuckets,
	})

	ExpenseEventsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expense_events_consumed_total",
		Help: "Expense-created events handled by the notification worker.",
	})
)

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRun records one scheduler run's outcome.
func ObserveRun(processed, skipped int, duration time.Duration, err error) {
	if err != nil {
		RecurringRunErrors.Inc()
		return
	}
	RecurringProcessed.Add(float64(processed))
	RecurringSkipped.Add(float64(skipped))
	RecurringRunDuration.Observe(duration.Seconds())
}

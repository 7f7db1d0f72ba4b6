// Package services orchestrates the batch processes built on the engine
// packages. The recurring scheduler is the only triggered unit: everything
// else in this module is pure computation over already-fetched rows.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

// expenseNamespace seeds the deterministic per-(template, month) expense ID,
// so re-running the scheduler derives the same ID and the storage uniqueness
// constraint can reject duplicates.
var expenseNamespace = uuid.MustParse("9f2c1b44-7a10-4c5e-9b63-2f8d3be0a1c7")

// Store is the repository surface the scheduler depends on.
type Store interface {
	ListActiveTemplates(ctx context.Context) ([]core.RecurringTemplate, error)
	// ListProcessedTemplateIDs returns the IDs of templates that already
	// have a materialized expense in the given "YYYY-MM" month.
	ListProcessedTemplateIDs(ctx context.Context, templateIDs []string, yearMonth string) (map[string]bool, error)
	// InsertExpenses bulk-inserts, skipping rows that conflict on the
	// (recurring_expense_id, year_month) uniqueness constraint. It
	// returns the IDs of the rows actually written.
	InsertExpenses(ctx context.Context, expenses []core.Expense) ([]string, error)
}

// EventPublisher notifies downstream consumers of materialized expenses.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, e core.Expense) error
}

// Detail describes one materialized expense in a run report.
type Detail struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	UserID      string `json:"user_id"`
}

// Result reports one scheduler run.
type Result struct {
	Processed int
	Skipped   int
	Details   []Detail
}

// RecurringScheduler materializes due recurring templates into expense rows,
// at most once per (template, month). It is safe to re-invoke: dedup is
// derived from the existence of a matching expense row plus the storage
// uniqueness constraint, never from stored flags.
type RecurringScheduler struct {
	store     Store
	publisher EventPublisher // optional
}

func NewRecurringScheduler(store Store, publisher EventPublisher) *RecurringScheduler {
	return &RecurringScheduler{
		store:     store,
		publisher: publisher,
	}
}

// TemplateDueOn reports whether a template fires on the given date. A
// template fires on its configured day, and on the last day of the month
// when its configured day does not exist in that month (day 31 in February
// fires on Feb 28/29).
func TemplateDueOn(t core.RecurringTemplate, date time.Time) bool {
	day := date.Day()
	if t.DayOfMonth == day {
		return true
	}
	lastDay := core.DaysInMonth(date.Year(), int(date.Month()))
	return day == lastDay && t.DayOfMonth > day
}

// ProcessDueTemplates runs one scheduling pass for "now". Any store error
// aborts the whole run; the next invocation retries naturally because no
// processed marker exists for the templates that were not inserted.
func (s *RecurringScheduler) ProcessDueTemplates(ctx context.Context, now time.Time) (Result, error) {
	year, month := now.Year(), int(now.Month())
	yearMonth := core.FormatPeriod(year, month)

	templates, err := s.store.ListActiveTemplates(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list active templates: %w", err)
	}

	var due []core.RecurringTemplate
	for _, t := range templates {
		if TemplateDueOn(t, now) {
			due = append(due, t)
		}
	}

	slog.InfoContext(ctx, "processing recurring templates",
		"total_active", len(templates),
		"due", len(due),
		"processing_date", now.Format("2006-01-02"))

	if len(due) == 0 {
		return Result{}, nil
	}

	ids := make([]string, len(due))
	for i, t := range due {
		ids[i] = t.ID
	}
	processed, err := s.store.ListProcessedTemplateIDs(ctx, ids, yearMonth)
	if err != nil {
		return Result{}, fmt.Errorf("list processed templates for %s: %w", yearMonth, err)
	}

	var result Result
	var expenses []core.Expense
	for _, t := range due {
		if processed[t.ID] {
			result.Skipped++
			continue
		}
		targetDay := t.DayOfMonth
		if dim := core.DaysInMonth(year, month); targetDay > dim {
			targetDay = dim
		}
		expenses = append(expenses, core.Expense{
			ID:                 materializedExpenseID(t.ID, yearMonth),
			UserID:             t.UserID,
			Date:               core.NewDate(year, month, targetDay),
			Amount:             t.Amount,
			Description:        t.Description,
			CategoryID:         t.CategoryID,
			CostAssignment:     t.CostAssignment,
			IsCCM:              t.IsCCM,
			RecurringExpenseID: t.ID,
		})
	}

	if len(expenses) > 0 {
		insertedIDs, err := s.store.InsertExpenses(ctx, expenses)
		if err != nil {
			return Result{}, fmt.Errorf("insert materialized expenses: %w", err)
		}
		// Rows rejected by the uniqueness constraint were materialized
		// by a concurrent run between our dedup read and the insert.
		// That run already reported and published them, so only the
		// rows this run wrote count here.
		inserted := make(map[string]bool, len(insertedIDs))
		for _, id := range insertedIDs {
			inserted[id] = true
		}
		result.Processed = len(insertedIDs)
		result.Skipped += len(expenses) - len(insertedIDs)

		for _, e := range expenses {
			if !inserted[e.ID] {
				continue
			}
			result.Details = append(result.Details, Detail{
				Description: e.Description,
				Amount:      e.Amount.String(),
				UserID:      e.UserID,
			})
			s.publishCreated(ctx, e)
		}
	}

	slog.InfoContext(ctx, "recurring template processing complete",
		"processed", result.Processed,
		"skipped", result.Skipped,
		"month", yearMonth)

	return result, nil
}

// publishCreated is best-effort: the expense row is already durable, so a
// publish failure is logged and the run keeps going.
func (s *RecurringScheduler) publishCreated(ctx context.Context, e core.Expense) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseCreated(ctx, e); err != nil {
		slog.ErrorContext(ctx, "failed to publish expense created event",
			"expense_id", e.ID,
			"recurring_expense_id", e.RecurringExpenseID,
			"error", err)
	}
}

// materializedExpenseID derives the idempotency key for a (template, month)
// pair. Deterministic by construction: two runs in the same month produce
// the same expense ID.
func materializedExpenseID(templateID, yearMonth string) string {
	return uuid.NewSHA1(expenseNamespace, []byte(templateID+"/"+yearMonth)).String()
}

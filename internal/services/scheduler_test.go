package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bilancio/internal/core"
)

type fakeSchedulerStore struct {
	templates     []core.RecurringTemplate
	templatesErr  error
	processedErr  error
	insertErr     error
	hideProcessed bool // answer the dedup read as if nothing was processed

	// inserted holds every row accepted so far, keyed the same way the
	// storage uniqueness constraint is: (recurring_expense_id, year_month).
	inserted map[string]core.Expense
	inserts  [][]core.Expense
}

func newFakeSchedulerStore(templates ...core.RecurringTemplate) *fakeSchedulerStore {
	return &fakeSchedulerStore{
		templates: templates,
		inserted:  make(map[string]core.Expense),
	}
}

func (f *fakeSchedulerStore) ListActiveTemplates(context.Context) ([]core.RecurringTemplate, error) {
	if f.templatesErr != nil {
		return nil, f.templatesErr
	}
	return f.templates, nil
}

func (f *fakeSchedulerStore) ListProcessedTemplateIDs(_ context.Context, templateIDs []string, yearMonth string) (map[string]bool, error) {
	if f.processedErr != nil {
		return nil, f.processedErr
	}
	out := make(map[string]bool)
	if f.hideProcessed {
		return out, nil
	}
	for _, id := range templateIDs {
		if _, ok := f.inserted[id+"/"+yearMonth]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeSchedulerStore) InsertExpenses(_ context.Context, expenses []core.Expense) ([]string, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserts = append(f.inserts, expenses)
	var ids []string
	for _, e := range expenses {
		key := e.RecurringExpenseID + "/" + e.Date.Format("2006-01")
		if _, ok := f.inserted[key]; ok {
			continue
		}
		f.inserted[key] = e
		ids = append(ids, e.ID)
	}
	return ids, nil
}

type recordingPublisher struct {
	published []core.Expense
	err       error
}

func (p *recordingPublisher) PublishExpenseCreated(_ context.Context, e core.Expense) error {
	p.published = append(p.published, e)
	return p.err
}

func template(id string, dayOfMonth int) core.RecurringTemplate {
	return core.RecurringTemplate{
		ID:             id,
		UserID:         "alice",
		DayOfMonth:     dayOfMonth,
		Amount:         core.Money{Cents: 9900},
		Description:    "gym membership",
		CategoryID:     "cat-health",
		CostAssignment: core.AssignmentPersonal,
		IsActive:       true,
	}
}

func TestTemplateDueOn(t *testing.T) {
	tests := []struct {
		name       string
		dayOfMonth int
		date       time.Time
		want       bool
	}{
		{"fires on its day", 15, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), true},
		{"silent on other days", 15, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), false},
		{"day 31 fires on short month end", 31, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), true},
		{"day 31 fires on leap february end", 31, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), true},
		{"day 30 silent before february end", 30, time.Date(2023, 2, 27, 0, 0, 0, 0, time.UTC), false},
		{"day 30 fires on february end", 30, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), true},
		{"day 31 silent mid month", 31, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), false},
		{"month-end day fires normally", 30, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := template("t1", tt.dayOfMonth)
			if got := TemplateDueOn(tpl, tt.date); got != tt.want {
				t.Errorf("TemplateDueOn(day=%d, %v) = %v, want %v",
					tt.dayOfMonth, tt.date, got, tt.want)
			}
		})
	}
}

func TestProcessDueTemplates(t *testing.T) {
	store := newFakeSchedulerStore(
		template("t-due", 15),
		template("t-not-due", 20),
	)
	pub := &recordingPublisher{}
	s := NewRecurringScheduler(store, pub)

	now := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	result, err := s.ProcessDueTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDueTemplates() error: %v", err)
	}
	if result.Processed != 1 || result.Skipped != 0 {
		t.Errorf("result = processed %d / skipped %d, want 1 / 0", result.Processed, result.Skipped)
	}
	if len(result.Details) != 1 || result.Details[0].Description != "gym membership" {
		t.Errorf("details = %+v, want one gym membership entry", result.Details)
	}
	if result.Details[0].Amount != "99.00" {
		t.Errorf("detail amount = %q, want %q", result.Details[0].Amount, "99.00")
	}

	e, ok := store.inserted["t-due/2024-06"]
	if !ok {
		t.Fatal("expense for t-due in 2024-06 was not inserted")
	}
	if e.Date.Day() != 15 || e.Date.Month() != 6 {
		t.Errorf("expense date = %v, want 2024-06-15", e.Date.Time)
	}
	if e.RecurringExpenseID != "t-due" {
		t.Errorf("RecurringExpenseID = %q, want t-due", e.RecurringExpenseID)
	}
	if len(pub.published) != 1 || pub.published[0].ID != e.ID {
		t.Errorf("published %d events, want 1 matching the inserted expense", len(pub.published))
	}
}

// Running the scheduler twice in the same month materializes nothing the
// second time: the existing expense row is the processed marker.
func TestProcessDueTemplatesIdempotent(t *testing.T) {
	store := newFakeSchedulerStore(template("t1", 15))
	s := NewRecurringScheduler(store, nil)
	now := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)

	first, err := s.ProcessDueTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("first run error: %v", err)
	}
	second, err := s.ProcessDueTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}

	if first.Processed != 1 {
		t.Errorf("first run processed %d, want 1", first.Processed)
	}
	if second.Processed != 0 || second.Skipped != 1 {
		t.Errorf("second run = processed %d / skipped %d, want 0 / 1",
			second.Processed, second.Skipped)
	}
	if len(store.inserted) != 1 {
		t.Errorf("%d expenses stored after two runs, want 1", len(store.inserted))
	}

	// A new month is a fresh slate for the same template.
	july := time.Date(2024, 7, 15, 8, 0, 0, 0, time.UTC)
	third, err := s.ProcessDueTemplates(context.Background(), july)
	if err != nil {
		t.Fatalf("third run error: %v", err)
	}
	if third.Processed != 1 {
		t.Errorf("july run processed %d, want 1", third.Processed)
	}
}

// Rows racing past the dedup read are caught by the insert's uniqueness
// handling and reported as skipped, not as errors. The racing run already
// reported and published them, so this run must emit no details and no
// events for the rejected rows.
func TestProcessDueTemplatesInsertConflict(t *testing.T) {
	store := newFakeSchedulerStore(template("t1", 15))
	pub := &recordingPublisher{}
	s := NewRecurringScheduler(store, pub)
	now := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)

	// Simulate a concurrent run landing between the dedup read and the
	// insert: pre-seed the row under the key the insert will collide on,
	// but answer the dedup read as if nothing was processed.
	store.inserted["t1/2024-06"] = core.Expense{ID: "raced"}
	store.hideProcessed = true

	result, err := s.ProcessDueTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDueTemplates() error: %v", err)
	}
	if result.Processed != 0 || result.Skipped != 1 {
		t.Errorf("result = processed %d / skipped %d, want 0 / 1", result.Processed, result.Skipped)
	}
	if len(result.Details) != 0 {
		t.Errorf("details = %+v, want none for conflict-rejected rows", result.Details)
	}
	if len(pub.published) != 0 {
		t.Errorf("published %d events for rows this run did not insert, want 0", len(pub.published))
	}
}

// A partial conflict reports and publishes only the rows this run wrote.
func TestProcessDueTemplatesPartialConflict(t *testing.T) {
	raced := template("t-raced", 15)
	fresh := template("t-fresh", 15)
	fresh.Description = "streaming subscription"
	store := newFakeSchedulerStore(raced, fresh)
	pub := &recordingPublisher{}
	s := NewRecurringScheduler(store, pub)
	now := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)

	store.inserted["t-raced/2024-06"] = core.Expense{ID: "raced"}
	store.hideProcessed = true

	result, err := s.ProcessDueTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDueTemplates() error: %v", err)
	}
	if result.Processed != 1 || result.Skipped != 1 {
		t.Errorf("result = processed %d / skipped %d, want 1 / 1", result.Processed, result.Skipped)
	}
	if len(result.Details) != 1 || result.Details[0].Description != "streaming subscription" {
		t.Errorf("details = %+v, want only the freshly inserted row", result.Details)
	}
	if len(pub.published) != 1 || pub.published[0].RecurringExpenseID != "t-fresh" {
		t.Errorf("published = %+v, want one event for t-fresh", pub.published)
	}
}

func TestProcessDueTemplatesClampsTargetDay(t *testing.T) {
	store := newFakeSchedulerStore(template("t31", 31))
	s := NewRecurringScheduler(store, nil)

	now := time.Date(2023, 2, 28, 8, 0, 0, 0, time.UTC)
	result, err := s.ProcessDueTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDueTemplates() error: %v", err)
	}
	if result.Processed != 1 {
		t.Fatalf("processed %d, want 1", result.Processed)
	}
	e := store.inserted["t31/2023-02"]
	if e.Date.Year() != 2023 || e.Date.Month() != 2 || e.Date.Day() != 28 {
		t.Errorf("expense date = %v, want 2023-02-28", e.Date.Time)
	}
}

func TestProcessDueTemplatesStoreErrors(t *testing.T) {
	now := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)

	store := newFakeSchedulerStore(template("t1", 15))
	store.templatesErr = errors.New("db down")
	if _, err := NewRecurringScheduler(store, nil).ProcessDueTemplates(context.Background(), now); err == nil {
		t.Error("expected error when listing templates fails")
	}

	store = newFakeSchedulerStore(template("t1", 15))
	store.processedErr = errors.New("db down")
	if _, err := NewRecurringScheduler(store, nil).ProcessDueTemplates(context.Background(), now); err == nil {
		t.Error("expected error when dedup lookup fails")
	}

	store = newFakeSchedulerStore(template("t1", 15))
	store.insertErr = errors.New("db down")
	if _, err := NewRecurringScheduler(store, nil).ProcessDueTemplates(context.Background(), now); err == nil {
		t.Error("expected error when insert fails")
	}
}

// A publish failure never fails the run: the expense row is already durable.
func TestProcessDueTemplatesPublishFailureIsBestEffort(t *testing.T) {
	store := newFakeSchedulerStore(template("t1", 15))
	pub := &recordingPublisher{err: errors.New("broker down")}
	s := NewRecurringScheduler(store, pub)

	now := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	result, err := s.ProcessDueTemplates(context.Background(), now)
	if err != nil {
		t.Fatalf("ProcessDueTemplates() error: %v", err)
	}
	if result.Processed != 1 {
		t.Errorf("processed %d, want 1", result.Processed)
	}
}

func TestMaterializedExpenseIDDeterministic(t *testing.T) {
	a := materializedExpenseID("t1", "2024-06")
	b := materializedExpenseID("t1", "2024-06")
	if a != b {
		t.Errorf("same inputs produced different IDs: %q vs %q", a, b)
	}
	if c := materializedExpenseID("t1", "2024-07"); c == a {
		t.Error("different months produced the same ID")
	}
	if d := materializedExpenseID("t2", "2024-06"); d == a {
		t.Error("different templates produced the same ID")
	}
}

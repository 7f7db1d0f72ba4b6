// Package storage provides the SQLite repository behind the engine. All
// amounts are stored in cents, dates as "YYYY-MM-DD" text and period labels
// as "YYYY-MM" text, zero padded.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"bilancio/internal/core"
)

const dateLayout = "2006-01-02"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type Repository struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dbPath and applies
// migrations.
func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// GetProfile loads a user's engine configuration.
func (r *Repository) GetProfile(ctx context.Context, userID string) (core.Profile, error) {
	var p core.Profile
	var partner sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id, salary_day, ccm_invoice_break_date, partner_id FROM profiles WHERE user_id = ?",
		userID,
	).Scan(&p.UserID, &p.SalaryDay, &p.InvoiceBreakDay, &partner)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Profile{}, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	p.PartnerID = partner.String
	return p, nil
}

// SaveProfile inserts or replaces a profile.
func (r *Repository) SaveProfile(ctx context.Context, p core.Profile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	var partner any
	if p.PartnerID != "" {
		partner = p.PartnerID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, salary_day, ccm_invoice_break_date, partner_id)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   salary_day = excluded.salary_day,
		   ccm_invoice_break_date = excluded.ccm_invoice_break_date,
		   partner_id = excluded.partner_id`,
		p.UserID, p.SalaryDay, p.InvoiceBreakDay, partner,
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// AddCategory registers a spending category.
func (r *Repository) AddCategory(ctx context.Context, c core.Category) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CostType == "" {
		c.CostType = core.CostTypeExpense
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (id, name, cost_type) VALUES (?, ?, ?)",
		c.ID, c.Name, string(c.CostType),
	)
	if err != nil {
		return fmt.Errorf("add category: %w", err)
	}
	return nil
}

// SavingsCategoryIDs returns the IDs of categories flagged as savings.
func (r *Repository) SavingsCategoryIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM categories WHERE cost_type = ?", string(core.CostTypeSavings))
	if err != nil {
		return nil, fmt.Errorf("list savings categories: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan savings category: %w", err)
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate savings categories: %w", err)
	}
	return ids, nil
}

// AddRecurringTemplate stores a recurring expense template.
func (r *Repository) AddRecurringTemplate(ctx context.Context, t core.RecurringTemplate) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("add recurring template: %w", err)
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	var category any
	if t.CategoryID != "" {
		category = t.CategoryID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_expenses
		   (id, user_id, day_of_month, amount_cents, description, category_id, cost_assignment, is_ccm, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.DayOfMonth, t.Amount.Cents, t.Description,
		category, string(t.CostAssignment), boolToInt(t.IsCCM), boolToInt(t.IsActive),
	)
	if err != nil {
		return "", fmt.Errorf("add recurring template: %w", err)
	}
	return t.ID, nil
}

// SetTemplateActive toggles a template without touching anything else: the
// scheduler never mutates templates, users deactivate them here.
func (r *Repository) SetTemplateActive(ctx context.Context, templateID string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE recurring_expenses SET is_active = ? WHERE id = ?",
		boolToInt(active), templateID,
	)
	if err != nil {
		return fmt.Errorf("set template active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("template %s: %w", templateID, ErrNotFound)
	}
	return nil
}

// ListActiveTemplates returns every active recurring template.
func (r *Repository) ListActiveTemplates(ctx context.Context) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, day_of_month, amount_cents, description, category_id, cost_assignment, is_ccm, is_active
		 FROM recurring_expenses WHERE is_active = 1`)
	if err != nil {
		return nil, fmt.Errorf("list active templates: %w", err)
	}
	defer rows.Close()

	var templates []core.RecurringTemplate
	for rows.Next() {
		var t core.RecurringTemplate
		var category sql.NullString
		var isCCM, isActive int
		if err := rows.Scan(&t.ID, &t.UserID, &t.DayOfMonth, &t.Amount.Cents,
			&t.Description, &category, &t.CostAssignment, &isCCM, &isActive); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		t.CategoryID = category.String
		t.IsCCM = isCCM != 0
		t.IsActive = isActive != 0
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return templates, nil
}

// ListProcessedTemplateIDs returns which of the given templates already have
// a materialized expense in the "YYYY-MM" month.
func (r *Repository) ListProcessedTemplateIDs(ctx context.Context, templateIDs []string, yearMonth string) (map[string]bool, error) {
	processed := make(map[string]bool)
	if len(templateIDs) == 0 {
		return processed, nil
	}

	placeholders := strings.Repeat("?,", len(templateIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(templateIDs)+1)
	for _, id := range templateIDs {
		args = append(args, id)
	}
	args = append(args, yearMonth)

	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT recurring_expense_id FROM expenses
		 WHERE recurring_expense_id IN (`+placeholders+`) AND year_month = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("list processed templates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan processed template id: %w", err)
		}
		processed[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processed template ids: %w", err)
	}
	return processed, nil
}

// InsertExpenses bulk-inserts in one transaction. Rows conflicting on the
// (recurring_expense_id, year_month) uniqueness index are silently skipped;
// the returned IDs identify the rows actually written.
func (r *Repository) InsertExpenses(ctx context.Context, expenses []core.Expense) ([]string, error) {
	if len(expenses) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var inserted []string
	for _, e := range expenses {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		var category, recurring any
		if e.CategoryID != "" {
			category = e.CategoryID
		}
		if e.RecurringExpenseID != "" {
			recurring = e.RecurringExpenseID
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO expenses
			   (id, user_id, date, amount_cents, description, category_id, cost_assignment, is_ccm, recurring_expense_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.UserID, e.Date.Format(dateLayout), e.Amount.Cents, e.Description,
			category, string(e.CostAssignment), boolToInt(e.IsCCM), recurring,
		)
		if err != nil {
			return nil, fmt.Errorf("insert expense %q: %w", e.Description, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted = append(inserted, e.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit expenses: %w", err)
	}

	slog.InfoContext(ctx, "expenses inserted",
		"attempted", len(expenses),
		"inserted", len(inserted))
	return inserted, nil
}

// ListExpensesBetween returns a user's expenses with from <= date <= to.
func (r *Repository) ListExpensesBetween(ctx context.Context, userID string, from, to time.Time) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, amount_cents, description, category_id, cost_assignment, is_ccm, recurring_expense_id
		 FROM expenses
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date DESC, id`,
		userID, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list expenses between: %w", err)
	}
	return scanExpenses(rows)
}

// ListCCMExpenses returns a user's credit-card flagged expenses, newest
// first, for invoice bucketing.
func (r *Repository) ListCCMExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, amount_cents, description, category_id, cost_assignment, is_ccm, recurring_expense_id
		 FROM expenses
		 WHERE user_id = ? AND is_ccm = 1
		 ORDER BY date DESC, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list ccm expenses: %w", err)
	}
	return scanExpenses(rows)
}

func scanExpenses(rows *sql.Rows) ([]core.Expense, error) {
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var e core.Expense
		var dateStr string
		var category, recurring sql.NullString
		var isCCM int
		if err := rows.Scan(&e.ID, &e.UserID, &dateStr, &e.Amount.Cents,
			&e.Description, &category, &e.CostAssignment, &isCCM, &recurring); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		d, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse expense date %q: %w", dateStr, err)
		}
		e.Date = core.Date{Time: d}
		e.CategoryID = category.String
		e.RecurringExpenseID = recurring.String
		e.IsCCM = isCCM != 0
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// AddMonthlyIncome records one income row for a (user, period). Many rows
// may exist per pair.
func (r *Repository) AddMonthlyIncome(ctx context.Context, i core.MonthlyIncome) (string, error) {
	if err := i.Validate(); err != nil {
		return "", fmt.Errorf("add monthly income: %w", err)
	}
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO monthly_incomes (id, user_id, period, name, amount_cents) VALUES (?, ?, ?, ?, ?)",
		i.ID, i.UserID, i.Period, i.Name, i.Amount.Cents,
	)
	if err != nil {
		return "", fmt.Errorf("add monthly income: %w", err)
	}
	return i.ID, nil
}

// SumIncome totals one member's income rows for a period. No rows sums to
// zero, not an error.
func (r *Repository) SumIncome(ctx context.Context, userID, period string) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount_cents), 0) FROM monthly_incomes WHERE user_id = ? AND period = ?",
		userID, period,
	).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum income: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// HasIncome reports whether at least one income row exists for the member
// in the period.
func (r *Repository) HasIncome(ctx context.Context, userID, period string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM monthly_incomes WHERE user_id = ? AND period = ? LIMIT 1",
		userID, period,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check income: %w", err)
	}
	return true, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

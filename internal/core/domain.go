package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// Cost assignments decide how an expense is split inside a household.
	AssignmentPersonal CostAssignment = "personal"
	AssignmentShared   CostAssignment = "shared"
	AssignmentPartner  CostAssignment = "partner"

	// Category cost types. Savings categories are excluded from "spent"
	// totals and reported separately.
	CostTypeExpense CostType = "expense"
	CostTypeSavings CostType = "savings"
)

type (
	CostAssignment string

	CostType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Profile carries the per-user configuration the engine consumes:
	// the salary day anchoring budget periods, the invoice break day for
	// credit-card bucketing and the optional partner link.
	Profile struct {
		UserID          string
		SalaryDay       int    // 1-31, clamped per month
		InvoiceBreakDay int    // 1-28
		PartnerID       string // empty when the user has no partner
	}

	// BudgetPeriod is a salary-day anchored window. It is recomputed on
	// demand and never persisted, so changing the salary day simply
	// reinterprets all history under the new rule.
	BudgetPeriod struct {
		Label       string // "YYYY-MM", the month the period funds
		Start       time.Time
		End         time.Time
		DisplayName string
	}

	Category struct {
		ID       string
		Name     string
		CostType CostType
	}

	// RecurringTemplate describes an expense to materialize once per
	// month. The scheduler only ever reads templates; it derives Expense
	// rows and never mutates the template itself.
	RecurringTemplate struct {
		ID             string
		UserID         string
		DayOfMonth     int
		Amount         Money
		Description    string
		CategoryID     string
		CostAssignment CostAssignment
		IsCCM          bool
		IsActive       bool
	}

	Expense struct {
		ID                 string
		UserID             string
		Date               Date
		Amount             Money
		Description        string
		CategoryID         string
		CostAssignment     CostAssignment
		IsCCM              bool
		RecurringExpenseID string // empty for manually entered expenses
	}

	MonthlyIncome struct {
		ID     string
		UserID string
		Period string // "YYYY-MM"
		Name   string
		Amount Money
	}

	// HouseholdIncomeTotal is derived, never stored.
	HouseholdIncomeTotal struct {
		Total   Money
		User    Money
		Partner Money
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidSalaryDay   = errors.New("salary day must be between 1 and 31")
	ErrInvalidBreakDay    = errors.New("invoice break day must be between 1 and 28")
	ErrInvalidDayOfMonth  = errors.New("day of month must be between 1 and 31")
	ErrInvalidAssignment  = errors.New("invalid cost assignment")
	ErrInvalidPeriodLabel = errors.New("invalid period label")
	ErrEmptyDescription   = errors.New("empty description")
)

// NewDate creates a date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as an int (1-12).
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (a CostAssignment) Validate() error {
	switch a {
	case AssignmentPersonal, AssignmentShared, AssignmentPartner:
		return nil
	default:
		return ErrInvalidAssignment
	}
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return errors.New("empty user id")
	}
	if p.SalaryDay < 1 || p.SalaryDay > 31 {
		return ErrInvalidSalaryDay
	}
	if p.InvoiceBreakDay < 1 || p.InvoiceBreakDay > 28 {
		return ErrInvalidBreakDay
	}
	return nil
}

// HasPartner reports whether the profile is linked to a partner.
func (p Profile) HasPartner() bool {
	return p.PartnerID != ""
}

func (t RecurringTemplate) Validate() error {
	if t.DayOfMonth < 1 || t.DayOfMonth > 31 {
		return ErrInvalidDayOfMonth
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return t.CostAssignment.Validate()
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return e.CostAssignment.Validate()
}

func (i MonthlyIncome) Validate() error {
	if _, _, err := ParsePeriod(i.Period); err != nil {
		return err
	}
	if len(strings.TrimSpace(i.Name)) == 0 {
		return ErrEmptyDescription
	}
	return i.Amount.Validate()
}

// FormatPeriod renders a period label, always zero padded ("2024-05").
func FormatPeriod(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// ParsePeriod parses a "YYYY-MM" label back into year and month.
func ParsePeriod(label string) (year, month int, err error) {
	if len(label) != 7 || label[4] != '-' {
		return 0, 0, ErrInvalidPeriodLabel
	}
	if _, err := fmt.Sscanf(label, "%4d-%2d", &year, &month); err != nil {
		return 0, 0, ErrInvalidPeriodLabel
	}
	if year < 1 || month < 1 || month > 12 {
		return 0, 0, ErrInvalidPeriodLabel
	}
	// Sscanf stops at the first non-digit, so re-render to reject trailing
	// garbage like "2024-5x".
	if FormatPeriod(year, month) != label {
		return 0, 0, ErrInvalidPeriodLabel
	}
	return year, month, nil
}

// DaysInMonth returns the number of calendar days in (year, month).
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

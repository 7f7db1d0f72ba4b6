// Package period maps calendar dates to salary-day anchored budget periods.
//
// A budget period starts on the (weekend-adjusted) salary day of month M and
// is named after month M+1, the month whose expenses it funds. All functions
// are pure; callers pass "now" explicitly.
package period

import (
	"fmt"
	"time"

	"bilancio/internal/core"
)

// AdjustedSalaryDate returns the effective salary date for (year, month).
// The configured day is clamped to the month's length, then moved off the
// weekend: Saturday pays one day early, Sunday two days early. The result
// is never a Saturday or Sunday and the function is idempotent for a given
// (year, month, salaryDay).
func AdjustedSalaryDate(year, month, salaryDay int) time.Time {
	day := salaryDay
	if dim := core.DaysInMonth(year, month); day > dim {
		day = dim
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	switch d.Weekday() {
	case time.Saturday:
		d = d.AddDate(0, 0, -1)
	case time.Sunday:
		d = d.AddDate(0, 0, -2)
	}
	return d
}

// salaryDateRaw is the clamped but not weekend-adjusted salary date.
// Period end boundaries use the raw date so that the day before payday
// always closes the period, even when the payout itself moved earlier.
func salaryDateRaw(year, month, salaryDay int) time.Time {
	day := salaryDay
	if dim := core.DaysInMonth(year, month); day > dim {
		day = dim
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// addMonths steps (year, month) by delta months without day normalization.
func addMonths(year, month, delta int) (int, int) {
	m := year*12 + (month - 1) + delta
	return m / 12, m%12 + 1
}

// BudgetPeriodFor returns the budget period containing date.
//
// The anchor month is date's month when date has reached that month's
// adjusted salary date, otherwise the previous month. The period is labeled
// after the anchor month plus one.
func BudgetPeriodFor(date time.Time, salaryDay int) core.BudgetPeriod {
	date = midnightUTC(date)
	anchorYear, anchorMonth := date.Year(), int(date.Month())
	anchor := AdjustedSalaryDate(anchorYear, anchorMonth, salaryDay)
	if date.Before(anchor) {
		anchorYear, anchorMonth = addMonths(anchorYear, anchorMonth, -1)
	}
	labelYear, labelMonth := addMonths(anchorYear, anchorMonth, 1)
	return core.BudgetPeriod{
		Label:       core.FormatPeriod(labelYear, labelMonth),
		Start:       AdjustedSalaryDate(anchorYear, anchorMonth, salaryDay),
		End:         salaryDateRaw(labelYear, labelMonth, salaryDay).AddDate(0, 0, -1),
		DisplayName: displayName(labelYear, labelMonth),
	}
}

// PeriodDatesForLabel computes the boundaries of a labeled period without
// reference to "today". It agrees exactly with BudgetPeriodFor for every
// date inside the period.
func PeriodDatesForLabel(label string, salaryDay int) (start, end time.Time, err error) {
	labelYear, labelMonth, err := core.ParsePeriod(label)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("period dates for %q: %w", label, err)
	}
	anchorYear, anchorMonth := addMonths(labelYear, labelMonth, -1)
	start = AdjustedSalaryDate(anchorYear, anchorMonth, salaryDay)
	end = salaryDateRaw(labelYear, labelMonth, salaryDay).AddDate(0, 0, -1)
	return start, end, nil
}

// DaysUntilSalary counts whole days from now to the next salary date, the
// day after the current period ends.
func DaysUntilSalary(now time.Time, salaryDay int) int {
	now = midnightUTC(now)
	nextPay := BudgetPeriodFor(now, salaryDay).End.AddDate(0, 0, 1)
	return int(nextPay.Sub(now) / (24 * time.Hour))
}

// PeriodProgress reports how far through the current period now is, as a
// percentage clamped to [0, 100].
func PeriodProgress(now time.Time, salaryDay int) int {
	now = midnightUTC(now)
	p := BudgetPeriodFor(now, salaryDay)
	total := int(p.End.Sub(p.Start)/(24*time.Hour)) + 1
	elapsed := int(now.Sub(p.Start)/(24*time.Hour)) + 1
	if total <= 0 {
		return 100
	}
	progress := elapsed * 100 / total
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func displayName(year, month int) string {
	return fmt.Sprintf("%s %d", time.Month(month).String(), year)
}

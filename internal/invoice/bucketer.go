// Package invoice buckets credit-card expenses into billing periods.
//
// Invoice periods anchor on a configurable break day, independent of the
// salary-day budget periods: a purchase on or after the break day lands on
// the next month's invoice.
package invoice

import (
	"sort"
	"time"

	"bilancio/internal/core"
)

// Bucket groups the expenses billed on one invoice.
type Bucket struct {
	Period   string // "YYYY-MM"
	Expenses []core.Expense
	Total    core.Money
}

// PeriodFor returns the invoice period label for an expense date. The
// mapping depends only on the day of the month and the break day, so two
// expenses on the same calendar day always share a bucket.
func PeriodFor(date time.Time, breakDay int) string {
	year, month := date.Year(), int(date.Month())
	if date.Day() >= breakDay {
		year, month = nextMonth(year, month)
	}
	return core.FormatPeriod(year, month)
}

// GroupByPeriod buckets expenses by invoice period, most recent period
// first. Expense order within a bucket follows the input order.
func GroupByPeriod(expenses []core.Expense, breakDay int) []Bucket {
	byPeriod := make(map[string]*Bucket)
	for _, e := range expenses {
		label := PeriodFor(e.Date.Time, breakDay)
		b, ok := byPeriod[label]
		if !ok {
			b = &Bucket{Period: label}
			byPeriod[label] = b
		}
		b.Expenses = append(b.Expenses, e)
		b.Total = b.Total.Add(e.Amount)
	}

	buckets := make([]Bucket, 0, len(byPeriod))
	for _, b := range byPeriod {
		buckets = append(buckets, *b)
	}
	// Zero-padded labels sort lexicographically in date order.
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Period > buckets[j].Period
	})
	return buckets
}

func nextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

package period

import (
	"time"

	"bilancio/internal/core"
)

// RecentPeriods returns the current period followed by the count-1 periods
// before it, newest first. Periods are stepped by label so the output is
// always count adjacent periods with no duplicate labels, even across year
// boundaries or around weekend-adjusted anchors.
func RecentPeriods(now time.Time, salaryDay, count int) []core.BudgetPeriod {
	return walkPeriods(now, salaryDay, count, -1)
}

// NextPeriods returns the current period followed by the count-1 periods
// after it, soonest first. Its first element is always the same period as
// RecentPeriods' first element for the same inputs.
func NextPeriods(now time.Time, salaryDay, count int) []core.BudgetPeriod {
	return walkPeriods(now, salaryDay, count, +1)
}

func walkPeriods(now time.Time, salaryDay, count, step int) []core.BudgetPeriod {
	if count <= 0 {
		return nil
	}
	current := BudgetPeriodFor(now, salaryDay)
	year, month, _ := parseLabel(current.Label)

	periods := make([]core.BudgetPeriod, 0, count)
	periods = append(periods, current)
	for i := 1; i < count; i++ {
		y, m := addMonths(year, month, i*step)
		periods = append(periods, periodForLabelMonth(y, m, salaryDay))
	}
	return periods
}

func periodForLabelMonth(labelYear, labelMonth, salaryDay int) core.BudgetPeriod {
	label := core.FormatPeriod(labelYear, labelMonth)
	start, end, _ := PeriodDatesForLabel(label, salaryDay)
	return core.BudgetPeriod{
		Label:       label,
		Start:       start,
		End:         end,
		DisplayName: displayName(labelYear, labelMonth),
	}
}

func parseLabel(label string) (int, int, error) {
	return core.ParsePeriod(label)
}

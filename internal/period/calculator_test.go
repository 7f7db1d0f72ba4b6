package period

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestAdjustedSalaryDate(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     int
		salaryDay int
		want      time.Time
	}{
		{
			name: "weekday stays put",
			year: 2024, month: 4, salaryDay: 25,
			want: date(2024, 4, 25), // Thursday
		},
		{
			name: "saturday pays one day early",
			year: 2024, month: 5, salaryDay: 25,
			want: date(2024, 5, 24), // May 25 2024 is a Saturday
		},
		{
			name: "sunday pays two days early",
			year: 2024, month: 8, salaryDay: 25,
			want: date(2024, 8, 23), // Aug 25 2024 is a Sunday
		},
		{
			name: "day 31 clamps to short month",
			year: 2023, month: 2, salaryDay: 31,
			want: date(2023, 2, 28), // Tuesday
		},
		{
			name: "day 31 clamps in leap february",
			year: 2024, month: 2, salaryDay: 31,
			want: date(2024, 2, 29), // Thursday
		},
		{
			name: "first of month on a sunday rolls into previous month",
			year: 2024, month: 9, salaryDay: 1,
			want: date(2024, 8, 30), // Sep 1 2024 is a Sunday
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdjustedSalaryDate(tt.year, tt.month, tt.salaryDay)
			if !got.Equal(tt.want) {
				t.Errorf("AdjustedSalaryDate(%d, %d, %d) = %v, want %v",
					tt.year, tt.month, tt.salaryDay, got, tt.want)
			}
		})
	}
}

func TestAdjustedSalaryDateNeverWeekend(t *testing.T) {
	for year := 2023; year <= 2026; year++ {
		for month := 1; month <= 12; month++ {
			for salaryDay := 1; salaryDay <= 31; salaryDay++ {
				got := AdjustedSalaryDate(year, month, salaryDay)
				if wd := got.Weekday(); wd == time.Saturday || wd == time.Sunday {
					t.Fatalf("AdjustedSalaryDate(%d, %d, %d) = %v falls on %v",
						year, month, salaryDay, got, wd)
				}
			}
		}
	}
}

func TestBudgetPeriodFor(t *testing.T) {
	tests := []struct {
		name      string
		date      time.Time
		salaryDay int
		wantLabel string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name: "before salary day belongs to running period",
			date: date(2024, 5, 20), salaryDay: 25,
			wantLabel: "2024-05",
			wantStart: date(2024, 4, 25),
			wantEnd:   date(2024, 5, 24),
		},
		{
			name: "after salary day opens the next period",
			date: date(2024, 5, 26), salaryDay: 25,
			wantLabel: "2024-06",
			wantStart: date(2024, 5, 24), // May 25 is a Saturday
			wantEnd:   date(2024, 6, 24),
		},
		{
			name: "adjusted payday itself starts the new period",
			date: date(2024, 5, 24), salaryDay: 25,
			wantLabel: "2024-06",
			wantStart: date(2024, 5, 24),
			wantEnd:   date(2024, 6, 24),
		},
		{
			name: "december rolls the label into the next year",
			date: date(2024, 12, 28), salaryDay: 25,
			wantLabel: "2025-01",
			wantStart: date(2024, 12, 25),
			wantEnd:   date(2025, 1, 24),
		},
		{
			name: "salary day 31 in short months",
			date: date(2023, 2, 10), salaryDay: 31,
			wantLabel: "2023-02",
			wantStart: date(2023, 1, 31),
			wantEnd:   date(2023, 2, 27),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BudgetPeriodFor(tt.date, tt.salaryDay)
			if got.Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", got.Label, tt.wantLabel)
			}
			if !got.Start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", got.Start, tt.wantStart)
			}
			if !got.End.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", got.End, tt.wantEnd)
			}
		})
	}
}

// Every calendar day must fall inside the boundaries of its own period.
func TestBudgetPeriodContainsDate(t *testing.T) {
	for salaryDay := 1; salaryDay <= 31; salaryDay++ {
		for d := date(2024, 1, 1); d.Year() == 2024; d = d.AddDate(0, 0, 1) {
			p := BudgetPeriodFor(d, salaryDay)
			if d.Before(p.Start) || d.After(p.End) {
				t.Fatalf("salaryDay=%d date=%v outside its period %s [%v, %v]",
					salaryDay, d, p.Label, p.Start, p.End)
			}
		}
	}
}

// PeriodDatesForLabel must reproduce the boundaries BudgetPeriodFor computes
// for every date inside the period.
func TestPeriodDatesForLabelRoundTrip(t *testing.T) {
	for salaryDay := 1; salaryDay <= 31; salaryDay++ {
		for d := date(2024, 1, 1); d.Year() == 2024; d = d.AddDate(0, 0, 7) {
			p := BudgetPeriodFor(d, salaryDay)
			start, end, err := PeriodDatesForLabel(p.Label, salaryDay)
			if err != nil {
				t.Fatalf("PeriodDatesForLabel(%q, %d) error: %v", p.Label, salaryDay, err)
			}
			if !start.Equal(p.Start) || !end.Equal(p.End) {
				t.Fatalf("salaryDay=%d label=%s round trip mismatch: got [%v, %v], want [%v, %v]",
					salaryDay, p.Label, start, end, p.Start, p.End)
			}
		}
	}
}

func TestPeriodDatesForLabelInvalid(t *testing.T) {
	for _, label := range []string{"", "2024", "2024-13", "24-05", "2024/05", "2024-5x"} {
		if _, _, err := PeriodDatesForLabel(label, 25); err == nil {
			t.Errorf("PeriodDatesForLabel(%q) expected error", label)
		}
	}
}

func TestDaysUntilSalary(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		salaryDay int
		want      int
	}{
		{
			name: "five days out",
			now:  date(2024, 5, 20), salaryDay: 25,
			want: 5, // next payday is the raw May 25
		},
		{
			name: "day after payday counts a full cycle",
			now:  date(2024, 5, 25), salaryDay: 25,
			want: 31, // until June 25
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysUntilSalary(tt.now, tt.salaryDay); got != tt.want {
				t.Errorf("DaysUntilSalary(%v, %d) = %d, want %d", tt.now, tt.salaryDay, got, tt.want)
			}
		})
	}
}

func TestPeriodProgress(t *testing.T) {
	// Period 2024-06 for salaryDay 25 runs May 24 .. Jun 24.
	if got := PeriodProgress(date(2024, 5, 24), 25); got < 1 || got > 5 {
		t.Errorf("progress at period start = %d, want a small positive value", got)
	}
	if got := PeriodProgress(date(2024, 6, 24), 25); got != 100 {
		t.Errorf("progress at period end = %d, want 100", got)
	}
	for d := date(2024, 1, 1); d.Year() == 2024; d = d.AddDate(0, 0, 3) {
		got := PeriodProgress(d, 25)
		if got < 0 || got > 100 {
			t.Fatalf("PeriodProgress(%v, 25) = %d out of range", d, got)
		}
	}
}

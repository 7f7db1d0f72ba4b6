package allocation

import (
	"testing"
	"time"

	"bilancio/internal/core"
)

func money(cents int64) core.Money { return core.Money{Cents: cents} }

func TestSplit(t *testing.T) {
	tests := []struct {
		name        string
		amount      int64
		assignment  core.CostAssignment
		hasPartner  bool
		wantUser    int64
		wantPartner int64
	}{
		{"personal stays with user", 1000, core.AssignmentPersonal, true, 1000, 0},
		{"partner assignment goes to partner", 1000, core.AssignmentPartner, true, 0, 1000},
		{"shared splits evenly", 1000, core.AssignmentShared, true, 500, 500},
		{"shared odd cent goes to user", 101, core.AssignmentShared, true, 51, 50},
		{"shared ten euro odd", 999, core.AssignmentShared, true, 500, 499},
		{"no partner makes shared inert", 1000, core.AssignmentShared, false, 1000, 0},
		{"no partner makes partner tag inert", 1000, core.AssignmentPartner, false, 1000, 0},
		{"unknown tag defaults to user", 1000, core.CostAssignment("mystery"), true, 1000, 0},
		{"zero amount", 0, core.AssignmentShared, true, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(money(tt.amount), tt.assignment, tt.hasPartner)
			if got.User.Cents != tt.wantUser || got.Partner.Cents != tt.wantPartner {
				t.Errorf("Split(%d, %q, %v) = user %d / partner %d, want %d / %d",
					tt.amount, tt.assignment, tt.hasPartner,
					got.User.Cents, got.Partner.Cents, tt.wantUser, tt.wantPartner)
			}
			if sum := got.User.Cents + got.Partner.Cents; sum != tt.amount {
				t.Errorf("shares sum to %d cents, want %d", sum, tt.amount)
			}
		})
	}
}

func expense(cents int64, assignment core.CostAssignment, categoryID string) core.Expense {
	return core.Expense{
		ID:             "e",
		Date:           core.Date{Time: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		Amount:         money(cents),
		CategoryID:     categoryID,
		CostAssignment: assignment,
		Description:    "test expense",
	}
}

func TestTotals(t *testing.T) {
	savings := map[string]bool{"cat-savings": true}
	expenses := []core.Expense{
		expense(1000, core.AssignmentPersonal, "cat-food"),
		expense(2001, core.AssignmentShared, "cat-rent"),
		expense(500, core.AssignmentPartner, "cat-food"),
		expense(30000, core.AssignmentShared, "cat-savings"),
	}

	got := Totals(expenses, savings, true)

	if got.TotalSpent.Cents != 3501 {
		t.Errorf("TotalSpent = %d, want 3501", got.TotalSpent.Cents)
	}
	if got.UserSpent.Cents != 1000+1001 {
		t.Errorf("UserSpent = %d, want 2001", got.UserSpent.Cents)
	}
	if got.PartnerSpent.Cents != 1000+500 {
		t.Errorf("PartnerSpent = %d, want 1500", got.PartnerSpent.Cents)
	}
	if got.ActualSavings.Cents != 30000 {
		t.Errorf("ActualSavings = %d, want 30000", got.ActualSavings.Cents)
	}
	if got.UserSpent.Cents+got.PartnerSpent.Cents != got.TotalSpent.Cents {
		t.Errorf("user %d + partner %d != total %d",
			got.UserSpent.Cents, got.PartnerSpent.Cents, got.TotalSpent.Cents)
	}
}

func TestTotalsWithoutPartner(t *testing.T) {
	expenses := []core.Expense{
		expense(1000, core.AssignmentShared, "cat-rent"),
		expense(500, core.AssignmentPartner, "cat-food"),
	}

	got := Totals(expenses, nil, false)
	if got.UserSpent.Cents != 1500 {
		t.Errorf("UserSpent = %d, want 1500", got.UserSpent.Cents)
	}
	if got.PartnerSpent.Cents != 0 {
		t.Errorf("PartnerSpent = %d, want 0", got.PartnerSpent.Cents)
	}
}

func TestTotalsEmpty(t *testing.T) {
	got := Totals(nil, nil, true)
	if got != (Summary{}) {
		t.Errorf("Totals(nil) = %+v, want zero summary", got)
	}
}

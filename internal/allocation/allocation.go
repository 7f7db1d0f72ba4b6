// Package allocation splits expense amounts between a user and an optional
// partner based on the per-expense cost assignment.
package allocation

import (
	"bilancio/internal/core"
)

// Shares is one expense's amount divided between the household members.
// User + Partner always equals the original amount to the cent.
type Shares struct {
	User    core.Money
	Partner core.Money
}

// Summary aggregates allocated amounts over a set of expenses. Expenses in
// savings-flagged categories are excluded from the spent figures and
// reported as ActualSavings instead.
type Summary struct {
	TotalSpent    core.Money
	UserSpent     core.Money
	PartnerSpent  core.Money
	ActualSavings core.Money
}

// Split divides amount according to the assignment tag. Without a partner
// the full amount goes to the user regardless of the stored tag: tags set
// while partnered keep their value but are inert once disconnected.
//
// A shared amount that is odd in cents cannot split evenly; the extra cent
// goes to the user so the two halves still sum to the original amount.
func Split(amount core.Money, assignment core.CostAssignment, hasPartner bool) Shares {
	if !hasPartner {
		return Shares{User: amount}
	}
	switch assignment {
	case core.AssignmentPartner:
		return Shares{Partner: amount}
	case core.AssignmentShared:
		half := amount.Cents / 2
		return Shares{
			User:    core.Money{Cents: amount.Cents - half},
			Partner: core.Money{Cents: half},
		}
	default:
		// Personal, and any unrecognized tag, stays with the user.
		return Shares{User: amount}
	}
}

// Totals allocates every expense and sums the shares. The savings set holds
// the category IDs flagged CostTypeSavings; those expenses are diverted to
// ActualSavings before allocation so "spent vs budget" aggregates never
// include them.
func Totals(expenses []core.Expense, savingsCategories map[string]bool, hasPartner bool) Summary {
	var s Summary
	for _, e := range expenses {
		if savingsCategories[e.CategoryID] {
			s.ActualSavings = s.ActualSavings.Add(e.Amount)
			continue
		}
		shares := Split(e.Amount, e.CostAssignment, hasPartner)
		s.TotalSpent = s.TotalSpent.Add(e.Amount)
		s.UserSpent = s.UserSpent.Add(shares.User)
		s.PartnerSpent = s.PartnerSpent.Add(shares.Partner)
	}
	return s
}

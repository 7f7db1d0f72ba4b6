// Package income combines a household's per-period income rows into totals.
//
// The aggregator prefers a store-side aggregate over both household members
// and falls back to summing the caller's own rows when that fails. The
// fallback result is valid but reduced: the partner contribution is simply
// unknown, not zero by fact.
package income

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/core"
)

// Store is the subset of the repository the aggregator needs.
type Store interface {
	SumIncome(ctx context.Context, userID, period string) (core.Money, error)
	HasIncome(ctx context.Context, userID, period string) (bool, error)
}

// PeriodSummer computes a household income total for one period. The two
// implementations, householdAggregate and ownIncomeFallback, can be unit
// tested independently of the try/fallback policy.
type PeriodSummer interface {
	Sum(ctx context.Context, profile core.Profile, periodLabel string) (core.HouseholdIncomeTotal, error)
}

// Total is the result of a household income lookup. Fallback is true when
// the primary aggregate failed and only the caller's own rows were summed.
type Total struct {
	core.HouseholdIncomeTotal
	Fallback bool
}

// Aggregator resolves household income totals with a primary/fallback
// strategy pair.
type Aggregator struct {
	primary  PeriodSummer
	fallback PeriodSummer
	store    Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{
		primary:  householdAggregate{store: store},
		fallback: ownIncomeFallback{store: store},
		store:    store,
	}
}

// HouseholdTotal returns both members' income for the period. When the
// household aggregate fails, the caller's own rows are summed instead and
// the result is flagged as a fallback; a fallback failure is a real error.
func (a *Aggregator) HouseholdTotal(ctx context.Context, profile core.Profile, periodLabel string) (Total, error) {
	total, err := a.primary.Sum(ctx, profile, periodLabel)
	if err == nil {
		return Total{HouseholdIncomeTotal: total}, nil
	}
	slog.WarnContext(ctx, "household income aggregate failed, using own-income fallback",
		"user_id", profile.UserID,
		"period", periodLabel,
		"error", err)

	total, err = a.fallback.Sum(ctx, profile, periodLabel)
	if err != nil {
		return Total{}, fmt.Errorf("income fallback for period %s: %w", periodLabel, err)
	}
	return Total{HouseholdIncomeTotal: total, Fallback: true}, nil
}

// HasIncomeForPeriod reports whether at least one income row exists for the
// calling household member in the given period.
func (a *Aggregator) HasIncomeForPeriod(ctx context.Context, userID, periodLabel string) (bool, error) {
	has, err := a.store.HasIncome(ctx, userID, periodLabel)
	if err != nil {
		return false, fmt.Errorf("check income for period %s: %w", periodLabel, err)
	}
	return has, nil
}

// ShouldPromptIncome decides whether the UI should ask the user to register
// income for the current period. The session-scoped dismissed flag is passed
// in as a value; it is per-session state, never process-wide.
func ShouldPromptIncome(hasIncome, dismissed bool) bool {
	return !hasIncome && !dismissed
}

// householdAggregate sums both members' rows, reading them concurrently.
type householdAggregate struct {
	store Store
}

func (h householdAggregate) Sum(ctx context.Context, profile core.Profile, periodLabel string) (core.HouseholdIncomeTotal, error) {
	var userIncome, partnerIncome core.Money

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := h.store.SumIncome(gctx, profile.UserID, periodLabel)
		if err != nil {
			return fmt.Errorf("sum user income: %w", err)
		}
		userIncome = m
		return nil
	})
	if profile.HasPartner() {
		g.Go(func() error {
			m, err := h.store.SumIncome(gctx, profile.PartnerID, periodLabel)
			if err != nil {
				return fmt.Errorf("sum partner income: %w", err)
			}
			partnerIncome = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return core.HouseholdIncomeTotal{}, err
	}

	return core.HouseholdIncomeTotal{
		Total:   userIncome.Add(partnerIncome),
		User:    userIncome,
		Partner: partnerIncome,
	}, nil
}

// ownIncomeFallback sums only the caller's rows; the partner share is
// reported as zero because it is unknown.
type ownIncomeFallback struct {
	store Store
}

func (o ownIncomeFallback) Sum(ctx context.Context, profile core.Profile, periodLabel string) (core.HouseholdIncomeTotal, error) {
	userIncome, err := o.store.SumIncome(ctx, profile.UserID, periodLabel)
	if err != nil {
		return core.HouseholdIncomeTotal{}, err
	}
	return core.HouseholdIncomeTotal{
		Total: userIncome,
		User:  userIncome,
	}, nil
}

package income

import (
	"context"
	"errors"
	"testing"

	"bilancio/internal/core"
)

type fakeStore struct {
	sums    map[string]int64 // userID -> cents
	failFor map[string]bool  // userID -> SumIncome error
	has     map[string]bool  // userID -> HasIncome result
	hasErr  error
}

func (f *fakeStore) SumIncome(_ context.Context, userID, _ string) (core.Money, error) {
	if f.failFor[userID] {
		return core.Money{}, errors.New("store unavailable")
	}
	return core.Money{Cents: f.sums[userID]}, nil
}

func (f *fakeStore) HasIncome(_ context.Context, userID, _ string) (bool, error) {
	if f.hasErr != nil {
		return false, f.hasErr
	}
	return f.has[userID], nil
}

func partneredProfile() core.Profile {
	return core.Profile{UserID: "alice", SalaryDay: 25, InvoiceBreakDay: 15, PartnerID: "bob"}
}

func TestHouseholdTotal(t *testing.T) {
	store := &fakeStore{sums: map[string]int64{"alice": 250000, "bob": 180000}}
	agg := NewAggregator(store)

	got, err := agg.HouseholdTotal(context.Background(), partneredProfile(), "2024-06")
	if err != nil {
		t.Fatalf("HouseholdTotal() error: %v", err)
	}
	if got.Fallback {
		t.Error("Fallback = true, want false")
	}
	if got.Total.Cents != 430000 {
		t.Errorf("Total = %d, want 430000", got.Total.Cents)
	}
	if got.User.Cents != 250000 || got.Partner.Cents != 180000 {
		t.Errorf("User/Partner = %d/%d, want 250000/180000", got.User.Cents, got.Partner.Cents)
	}
}

func TestHouseholdTotalWithoutPartner(t *testing.T) {
	store := &fakeStore{sums: map[string]int64{"alice": 250000}}
	agg := NewAggregator(store)

	profile := partneredProfile()
	profile.PartnerID = ""

	got, err := agg.HouseholdTotal(context.Background(), profile, "2024-06")
	if err != nil {
		t.Fatalf("HouseholdTotal() error: %v", err)
	}
	if got.Total.Cents != 250000 || got.Partner.Cents != 0 {
		t.Errorf("Total/Partner = %d/%d, want 250000/0", got.Total.Cents, got.Partner.Cents)
	}
}

// A failure reading the partner's rows fails the household aggregate; the
// aggregator then serves the caller's own rows, flagged as a fallback.
func TestHouseholdTotalFallback(t *testing.T) {
	store := &fakeStore{
		sums:    map[string]int64{"alice": 250000},
		failFor: map[string]bool{"bob": true},
	}
	agg := NewAggregator(store)

	got, err := agg.HouseholdTotal(context.Background(), partneredProfile(), "2024-06")
	if err != nil {
		t.Fatalf("HouseholdTotal() error: %v", err)
	}
	if !got.Fallback {
		t.Error("Fallback = false, want true")
	}
	if got.Total.Cents != 250000 {
		t.Errorf("Total = %d, want 250000", got.Total.Cents)
	}
	if got.Partner.Cents != 0 {
		t.Errorf("Partner = %d, want 0 in fallback", got.Partner.Cents)
	}
}

func TestHouseholdTotalFallbackError(t *testing.T) {
	store := &fakeStore{
		failFor: map[string]bool{"alice": true, "bob": true},
	}
	agg := NewAggregator(store)

	if _, err := agg.HouseholdTotal(context.Background(), partneredProfile(), "2024-06"); err == nil {
		t.Fatal("HouseholdTotal() expected error when fallback also fails")
	}
}

func TestHasIncomeForPeriod(t *testing.T) {
	store := &fakeStore{has: map[string]bool{"alice": true}}
	agg := NewAggregator(store)

	has, err := agg.HasIncomeForPeriod(context.Background(), "alice", "2024-06")
	if err != nil {
		t.Fatalf("HasIncomeForPeriod() error: %v", err)
	}
	if !has {
		t.Error("HasIncomeForPeriod(alice) = false, want true")
	}

	has, err = agg.HasIncomeForPeriod(context.Background(), "bob", "2024-06")
	if err != nil {
		t.Fatalf("HasIncomeForPeriod() error: %v", err)
	}
	if has {
		t.Error("HasIncomeForPeriod(bob) = true, want false")
	}

	store.hasErr = errors.New("store unavailable")
	if _, err := agg.HasIncomeForPeriod(context.Background(), "alice", "2024-06"); err == nil {
		t.Error("HasIncomeForPeriod() expected error")
	}
}

func TestShouldPromptIncome(t *testing.T) {
	tests := []struct {
		hasIncome bool
		dismissed bool
		want      bool
	}{
		{false, false, true},
		{true, false, false},
		{false, true, false},
		{true, true, false},
	}
	for _, tt := range tests {
		if got := ShouldPromptIncome(tt.hasIncome, tt.dismissed); got != tt.want {
			t.Errorf("ShouldPromptIncome(%v, %v) = %v, want %v",
				tt.hasIncome, tt.dismissed, got, tt.want)
		}
	}
}

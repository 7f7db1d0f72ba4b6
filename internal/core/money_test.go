package core

import (
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"plain decimal", "12.34", 1234, false},
		{"comma decimal", "12,34", 1234, false},
		{"integer", "12", 1200, false},
		{"one decimal digit", "12.3", 1230, false},
		{"rounds half up", "12.345", 1235, false},
		{"rounds down below half", "12.344", 1234, false},
		{"carry across the cent boundary", "12.995", 1300, false},
		{"leading dot", ".50", 50, false},
		{"sub-cent amount rounds to a cent", "0.005", 1, false},
		{"whitespace trimmed", "  9.99 ", 999, false},
		{"empty", "", 0, true},
		{"zero", "0", 0, true},
		{"zero decimal", "0.00", 0, true},
		{"negative", "-5.00", 0, true},
		{"explicit plus", "+5.00", 0, true},
		{"letters", "12.3a", 0, true},
		{"two separators", "1.2.3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("ParseDecimalToCents(%q) error = %v, want ErrInvalidAmount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{5, "0.05"},
		{100, "1.00"},
		{0, "0.00"},
		{-1234, "-12.34"},
	}
	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyAdd(t *testing.T) {
	got := Money{Cents: 150}.Add(Money{Cents: 250})
	if got.Cents != 400 {
		t.Errorf("Add = %d, want 400", got.Cents)
	}
}

package models

import (
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"0.01", 1, true},
		{" 2.50 ", 250, true},
		{"3000", 300000, true},
		{"1.234", 0, false},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in, "USD")
		if tc.ok {
			if err != nil || got.Amount != tc.want {
				t.Errorf("ParseMoney(%q) = %d, %v; want %d", tc.in, got.Amount, err, tc.want)
			}
			if got.Currency != "USD" {
				t.Errorf("ParseMoney(%q) currency = %q", tc.in, got.Currency)
			}
		} else {
			if err == nil {
				t.Errorf("ParseMoney(%q) expected error", tc.in)
			} else if !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("ParseMoney(%q) error = %v, want ErrInvalidAmount", tc.in, err)
			}
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoney(1050, "USD")
	b := NewMoney(50, "USD")

	if got := a.Add(b).Amount; got != 1100 {
		t.Errorf("Add = %d, want 1100", got)
	}
	if got := a.Sub(b).Amount; got != 1000 {
		t.Errorf("Sub = %d, want 1000", got)
	}
	if got := b.Neg().Amount; got != -50 {
		t.Errorf("Neg = %d, want -50", got)
	}
	if !a.IsPositive() || a.IsZero() {
		t.Error("1050 should be positive and non-zero")
	}
	if !a.SameCurrency(b) || a.SameCurrency(NewMoney(1, "EUR")) {
		t.Error("SameCurrency mismatch")
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		in   Money
		want string
	}{
		{NewMoney(1234, "USD"), "12.34 USD"},
		{NewMoney(5, "EUR"), "0.05 EUR"},
		{NewMoney(-950, "USD"), "-9.50 USD"},
	}
	for _, tc := range cases {
		if got := tc.in.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

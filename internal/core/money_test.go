package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mustMoney(t *testing.T, amount, currency string) Money {
	t.Helper()
	m, err := NewMoney(decimal.RequireFromString(amount), currency)
	if err != nil {
		t.Fatalf("NewMoney(%s %s): %v", currency, amount, err)
	}
	return m
}

func TestNewMoneyRejectsBadCurrency(t *testing.T) {
	for _, bad := range []string{"", "EU", "EURO", "eur"} {
		if _, err := NewMoney(decimal.NewFromInt(1), bad); err != ErrInvalidCurrency {
			t.Fatalf("%q: expected ErrInvalidCurrency, got %v", bad, err)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := mustMoney(t, "10.50", "EUR")
	b := mustMoney(t, "4.25", "EUR")

	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !sum.Amount().Equal(decimal.RequireFromString("14.75")) {
		t.Fatalf("Add: got %s", sum)
	}

	diff, err := a.Sub(b)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if !diff.Amount().Equal(decimal.RequireFromString("6.25")) {
		t.Fatalf("Sub: got %s", diff)
	}

	usd := mustMoney(t, "1", "USD")
	if _, err := a.Add(usd); err != ErrCurrencyMismatch {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
	if _, err := a.Sub(usd); err != ErrCurrencyMismatch {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestMoneyConvertTo(t *testing.T) {
	gbp := mustMoney(t, "100.50", "GBP")
	rate, err := NewExchangeRate("GBP", "EUR", decimal.RequireFromString("1.1429"), NewDate(2023, 10, 15))
	if err != nil {
		t.Fatalf("NewExchangeRate: %v", err)
	}

	eur, err := gbp.ConvertTo("EUR", rate)
	if err != nil {
		t.Fatalf("ConvertTo: %v", err)
	}
	if eur.Currency() != "EUR" {
		t.Fatalf("expected EUR, got %s", eur.Currency())
	}
	if !eur.Amount().Equal(decimal.RequireFromString("114.861450")) {
		t.Fatalf("expected 114.861450, got %s", eur.Amount())
	}

	// Pair mismatch in either direction is rejected.
	if _, err := gbp.ConvertTo("USD", rate); err != ErrCurrencyMismatch {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
	usd := mustMoney(t, "10", "USD")
	if _, err := usd.ConvertTo("EUR", rate); err != ErrCurrencyMismatch {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestNewExchangeRateRejectsNonPositive(t *testing.T) {
	date := NewDate(2023, 10, 15)
	if _, err := NewExchangeRate("EUR", "USD", decimal.Zero, date); err != ErrNonPositiveRate {
		t.Fatalf("zero rate: expected ErrNonPositiveRate, got %v", err)
	}
	if _, err := NewExchangeRate("EUR", "USD", decimal.RequireFromString("-1.1"), date); err != ErrNonPositiveRate {
		t.Fatalf("negative rate: expected ErrNonPositiveRate, got %v", err)
	}
	if _, err := NewExchangeRate("EURO", "USD", decimal.NewFromInt(1), date); err != ErrInvalidCurrency {
		t.Fatalf("bad currency: expected ErrInvalidCurrency, got %v", err)
	}
}

func TestNewPageInfo(t *testing.T) {
	cases := []struct {
		name          string
		page, size    int
		totalElements int64
		totalPages    int
		first, last   bool
	}{
		{"empty set", 0, 20, 0, 0, true, true},
		{"single partial page", 0, 20, 5, 1, true, true},
		{"exact fit", 0, 10, 20, 2, true, false},
		{"middle page", 1, 10, 35, 4, false, false},
		{"final partial page", 3, 10, 35, 4, false, true},
		{"page beyond range", 9, 10, 35, 4, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pi := NewPageInfo(tc.page, tc.size, tc.totalElements)
			if pi.TotalPages != tc.totalPages {
				t.Errorf("TotalPages: got %d, want %d", pi.TotalPages, tc.totalPages)
			}
			if pi.First != tc.first || pi.Last != tc.last {
				t.Errorf("first/last: got %v/%v, want %v/%v", pi.First, pi.Last, tc.first, tc.last)
			}
		})
	}
}

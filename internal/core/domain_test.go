package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func validTransaction() Transaction {
	return Transaction{
		ID:          "T1",
		Amount:      decimal.RequireFromString("100.50"),
		Currency:    "GBP",
		AccountIBAN: "DE89370400440532013000",
		ValueDate:   NewDate(2023, 10, 1),
		Description: "Online payment",
		CustomerID:  "P-0123456789",
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := validTransaction().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"empty id", func(tx *Transaction) { tx.ID = "  " }, ErrEmptyTransactionID},
		{"lowercase currency", func(tx *Transaction) { tx.Currency = "gbp" }, ErrInvalidCurrency},
		{"short currency", func(tx *Transaction) { tx.Currency = "GB" }, ErrInvalidCurrency},
		{"bad iban", func(tx *Transaction) { tx.AccountIBAN = "1234" }, ErrInvalidIBAN},
		{"bad customer id", func(tx *Transaction) { tx.CustomerID = "P-123" }, ErrInvalidCustomerID},
		{"zero value date", func(tx *Transaction) { tx.ValueDate = Date{} }, ErrInvalidValueDate},
		{"empty description", func(tx *Transaction) { tx.Description = "" }, ErrEmptyDescription},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTransaction()
			tc.mutate(&tx)
			if err := tx.Validate(); err != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	long := validTransaction()
	for len(long.Description) <= MaxDescriptionLen {
		long.Description += long.Description
	}
	if err := long.Validate(); err != ErrDescriptionTooLong {
		t.Fatalf("expected ErrDescriptionTooLong, got %v", err)
	}
}

func TestMonthRange(t *testing.T) {
	cases := []struct {
		yearMonth string
		start     string
		end       string
	}{
		{"2023-10", "2023-10-01", "2023-10-31"},
		{"2024-02", "2024-02-01", "2024-02-29"}, // leap year
		{"2023-02", "2023-02-01", "2023-02-28"},
		{"2023-12", "2023-12-01", "2023-12-31"},
	}
	for _, tc := range cases {
		start, end, err := MonthRange(tc.yearMonth)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.yearMonth, err)
		}
		if start.String() != tc.start || end.String() != tc.end {
			t.Fatalf("%s: got [%s, %s], want [%s, %s]",
				tc.yearMonth, start, end, tc.start, tc.end)
		}
	}

	for _, bad := range []string{"2023-13", "2023-00", "202310", "23-10", ""} {
		if _, _, err := MonthRange(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2023-10-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2023-10-02" {
		t.Fatalf("round trip mismatch: %s", d)
	}
	if _, err := ParseDate("02/10/2023"); err == nil {
		t.Fatal("expected error for non ISO date")
	}
}

func TestIsDebit(t *testing.T) {
	tx := validTransaction()
	if tx.IsDebit() {
		t.Fatal("positive amount should not be a debit")
	}
	tx.Amount = decimal.RequireFromString("-75.25")
	if !tx.IsDebit() {
		t.Fatal("negative amount should be a debit")
	}
}

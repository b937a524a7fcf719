// Package core holds the transaction history domain: transactions, money,
// exchange rates and the month statement shapes served by the query engine.
package core

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MaxDescriptionLen bounds free-text descriptions coming from events.
	MaxDescriptionLen = 500

	// DateLayout is the wire and storage format for value dates.
	DateLayout = "2006-01-02"
)

var (
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrInvalidIBAN        = errors.New("invalid IBAN")
	ErrInvalidCustomerID  = errors.New("invalid customer id")
	ErrEmptyTransactionID = errors.New("empty transaction id")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrInvalidValueDate   = errors.New("invalid value date")
	ErrCurrencyMismatch   = errors.New("currency mismatch")
	ErrNonPositiveRate    = errors.New("exchange rate must be positive")
)

var (
	currencyRe   = regexp.MustCompile(`^[A-Z]{3}$`)
	ibanRe       = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{1,30}$`)
	customerIDRe = regexp.MustCompile(`^P-[0-9]{10}$`)
	yearMonthRe  = regexp.MustCompile(`^[0-9]{4}-(0[1-9]|1[0-2])$`)
)

// Transaction is one booked transaction as reconciled from the event stream.
// The id is assigned by the upstream producer and is the only identity; a
// negative amount is a debit, a non-negative one a credit.
type Transaction struct {
	ID          string
	Amount      decimal.Decimal
	Currency    string
	AccountIBAN string
	ValueDate   Date
	Description string
	CustomerID  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyTransactionID
	}
	if !currencyRe.MatchString(t.Currency) {
		return ErrInvalidCurrency
	}
	if !ibanRe.MatchString(t.AccountIBAN) {
		return ErrInvalidIBAN
	}
	if !customerIDRe.MatchString(t.CustomerID) {
		return ErrInvalidCustomerID
	}
	if t.ValueDate.IsZero() {
		return ErrInvalidValueDate
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

// IsDebit reports whether the amount is negative.
func (t Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// ValidCurrency reports whether s is a 3-letter uppercase currency code.
func ValidCurrency(s string) bool {
	return currencyRe.MatchString(s)
}

// ValidIBAN reports whether s is IBAN-shaped (country, check digits, BBAN).
func ValidIBAN(s string) bool {
	return ibanRe.MatchString(s)
}

// ValidCustomerID reports whether s matches the P-<10 digits> format.
func ValidCustomerID(s string) bool {
	return customerIDRe.MatchString(s)
}

// ValidYearMonth reports whether s matches YYYY-MM with a real month.
func ValidYearMonth(s string) bool {
	return yearMonthRe.MatchString(s)
}

// Date is a calendar date with no time component, always UTC.
type Date struct {
	time.Time
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidValueDate
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthRange returns the first and last calendar day of a YYYY-MM month.
func MonthRange(yearMonth string) (Date, Date, error) {
	if !ValidYearMonth(yearMonth) {
		return Date{}, Date{}, ErrInvalidValueDate
	}
	t, err := time.Parse("2006-01", yearMonth)
	if err != nil {
		return Date{}, Date{}, ErrInvalidValueDate
	}
	start := Date{Time: t}
	// Day zero of the next month is the last day of this one.
	end := Date{Time: time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)}
	return start, end, nil
}

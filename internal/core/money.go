package core

import (
	"github.com/shopspring/decimal"
)

// Money is an immutable amount in a single currency. Arithmetic across
// currencies is rejected; conversion goes through an ExchangeRate whose pair
// must match exactly.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney creates a Money value. The currency must be a 3-letter code.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if !ValidCurrency(currency) {
		return Money{}, ErrInvalidCurrency
	}
	return Money{amount: amount, currency: currency}, nil
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }

// Add returns m+other. Fails if the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub returns m-other. Fails if the currencies differ.
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// ConvertTo converts into targetCurrency using rate. The rate's pair must be
// exactly (m.currency -> targetCurrency).
func (m Money) ConvertTo(targetCurrency string, rate ExchangeRate) (Money, error) {
	if rate.From() != m.currency || rate.To() != targetCurrency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: rate.Convert(m.amount), currency: targetCurrency}, nil
}

func (m Money) IsNegative() bool { return m.amount.IsNegative() }
func (m Money) IsZero() bool     { return m.amount.IsZero() }

func (m Money) String() string {
	return m.currency + " " + m.amount.String()
}

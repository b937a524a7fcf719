package core

import (
	"github.com/shopspring/decimal"
)

// ExchangeRate is an immutable conversion rate for one currency pair on one
// date. Rates for a past date never change, so a rate can be cached forever
// under its (from, to, date) key.
type ExchangeRate struct {
	from string
	to   string
	rate decimal.Decimal
	date Date
}

// NewExchangeRate creates a rate. Non-positive rates and malformed currency
// codes are rejected.
func NewExchangeRate(from, to string, rate decimal.Decimal, date Date) (ExchangeRate, error) {
	if !ValidCurrency(from) || !ValidCurrency(to) {
		return ExchangeRate{}, ErrInvalidCurrency
	}
	if !rate.IsPositive() {
		return ExchangeRate{}, ErrNonPositiveRate
	}
	return ExchangeRate{from: from, to: to, rate: rate, date: date}, nil
}

func (r ExchangeRate) From() string          { return r.from }
func (r ExchangeRate) To() string            { return r.to }
func (r ExchangeRate) Rate() decimal.Decimal { return r.rate }
func (r ExchangeRate) Date() Date            { return r.date }

// Convert applies the rate to an amount.
func (r ExchangeRate) Convert(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(r.rate)
}

func (r ExchangeRate) String() string {
	return r.from + "->" + r.to + " " + r.rate.String() + " @ " + r.date.String()
}

package rates

import (
	"context"

	"github.com/shopspring/decimal"
)

// StaticSource serves rates from a fixed in-memory table. It stands in for a
// real market data provider behind the same Source seam.
type StaticSource struct {
	supported map[string]struct{}
	rates     map[string]decimal.Decimal
}

// NewStaticSource builds a source from a pair table keyed "FROM_TO".
func NewStaticSource(supported []string, pairs map[string]string) *StaticSource {
	s := &StaticSource{
		supported: make(map[string]struct{}, len(supported)),
		rates:     make(map[string]decimal.Decimal, len(pairs)),
	}
	for _, c := range supported {
		s.supported[c] = struct{}{}
	}
	for pair, rate := range pairs {
		s.rates[pair] = decimal.RequireFromString(rate)
	}
	return s
}

// DefaultSource returns the built-in demo table covering EUR, USD, GBP, CHF
// and JPY.
func DefaultSource() *StaticSource {
	return NewStaticSource(
		[]string{"EUR", "USD", "GBP", "CHF", "JPY"},
		map[string]string{
			"EUR_USD": "1.0950",
			"EUR_GBP": "0.8750",
			"EUR_CHF": "0.9850",
			"EUR_JPY": "145.50",
			"USD_EUR": "0.9132",
			"GBP_EUR": "1.1429",
			"CHF_EUR": "1.0152",
			"JPY_EUR": "0.00687",
		},
	)
}

func (s *StaticSource) Lookup(ctx context.Context, from, to string) (decimal.Decimal, bool, error) {
	rate, ok := s.rates[from+"_"+to]
	return rate, ok, nil
}

func (s *StaticSource) Supports(currency string) bool {
	_, ok := s.supported[currency]
	return ok
}

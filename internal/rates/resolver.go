// Package rates resolves exchange rates for currency pairs. Lookup failures
// are never errors: a pair that cannot be resolved is simply absent and the
// caller decides the fallback.
package rates

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"txhistory/internal/cache"
	"txhistory/internal/core"
)

// inverseScale is the precision of rates derived from the inverse pair.
const inverseScale = 6

// Source looks up direct rates for supported currency pairs. A miss is
// (zero, false, nil); an error is reserved for transport failures, which the
// resolver downgrades to absence.
type Source interface {
	Lookup(ctx context.Context, from, to string) (decimal.Decimal, bool, error)
	Supports(currency string) bool
}

// Resolver resolves currency pairs through a Source with a same-currency
// short-circuit, an inverse-pair fallback and an injected cache. Cache
// entries are immutable once written: the same (from, to, date) key always
// maps to the same rate.
type Resolver struct {
	source Source
	cache  cache.Cache[core.ExchangeRate]
}

func NewResolver(source Source, rateCache cache.Cache[core.ExchangeRate]) *Resolver {
	return &Resolver{source: source, cache: rateCache}
}

// Supports reports whether the currency is in the supported set.
func (r *Resolver) Supports(currency string) bool {
	return r.source.Supports(currency)
}

// Resolve returns the rate for (from -> to) on the given date, or false if
// the pair cannot be resolved. Same-currency pairs resolve to 1 without any
// lookup.
func (r *Resolver) Resolve(ctx context.Context, from, to string, date core.Date) (core.ExchangeRate, bool) {
	if from == to {
		rate, err := core.NewExchangeRate(from, to, decimal.NewFromInt(1), date)
		if err != nil {
			return core.ExchangeRate{}, false
		}
		return rate, true
	}

	if !r.source.Supports(from) || !r.source.Supports(to) {
		slog.DebugContext(ctx, "Unsupported currency pair", "from", from, "to", to)
		return core.ExchangeRate{}, false
	}

	key := cacheKey(from, to, date)
	if cached, ok := r.cache.Get(key); ok {
		return cached, true
	}

	value, ok := r.lookup(ctx, from, to)
	if !ok {
		return core.ExchangeRate{}, false
	}

	rate, err := core.NewExchangeRate(from, to, value, date)
	if err != nil {
		slog.WarnContext(ctx, "Source returned invalid rate",
			"from", from, "to", to, "rate", value.String(), "error", err)
		return core.ExchangeRate{}, false
	}

	r.cache.Set(key, rate)
	return rate, true
}

// ResolveBatch resolves each source currency against toCurrency
// independently and omits pairs that resolve to absent. Callers must treat a
// missing key as "no rate", never as an error.
func (r *Resolver) ResolveBatch(ctx context.Context, fromCurrencies []string, toCurrency string, date core.Date) map[string]core.ExchangeRate {
	found := make(map[string]core.ExchangeRate, len(fromCurrencies))
	for _, from := range fromCurrencies {
		if rate, ok := r.Resolve(ctx, from, toCurrency, date); ok {
			found[from] = rate
		}
	}
	return found
}

func (r *Resolver) lookup(ctx context.Context, from, to string) (decimal.Decimal, bool) {
	direct, ok, err := r.source.Lookup(ctx, from, to)
	if err != nil {
		slog.WarnContext(ctx, "Rate lookup failed", "from", from, "to", to, "error", err)
		return decimal.Decimal{}, false
	}
	if ok {
		return direct, true
	}

	// No direct rate; derive from the inverse pair.
	inverse, ok, err := r.source.Lookup(ctx, to, from)
	if err != nil {
		slog.WarnContext(ctx, "Inverse rate lookup failed", "from", to, "to", from, "error", err)
		return decimal.Decimal{}, false
	}
	if !ok || !inverse.IsPositive() {
		return decimal.Decimal{}, false
	}

	return decimal.NewFromInt(1).DivRound(inverse, inverseScale), true
}

func cacheKey(from, to string, date core.Date) string {
	return from + "_" + to + "_" + date.String()
}

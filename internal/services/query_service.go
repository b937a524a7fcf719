package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"txhistory/internal/core"
	"txhistory/internal/metrics"
	"txhistory/internal/storage"
)

// RateResolver resolves source currencies against a base currency. Absent
// pairs are omitted from the result; the query service falls back to the
// unconverted amount for those.
type RateResolver interface {
	ResolveBatch(ctx context.Context, fromCurrencies []string, toCurrency string, date core.Date) map[string]core.ExchangeRate
}

// MonthQuery identifies one page of one customer's month, normalized into a
// base currency. The HTTP boundary validates the fields before they get here.
type MonthQuery struct {
	CustomerID   string
	YearMonth    string
	Page         int
	Size         int
	BaseCurrency string
	AccountIBAN  string // optional
}

// QueryService answers month statement queries by combining the store with
// the rate resolver. Read-only; never blocks on ingestion.
type QueryService struct {
	store     TransactionStore
	resolver  RateResolver
	collector *metrics.Collector
	now       func() time.Time
}

func NewQueryService(store TransactionStore, resolver RateResolver, collector *metrics.Collector) *QueryService {
	return &QueryService{
		store:     store,
		resolver:  resolver,
		collector: collector,
		now:       time.Now,
	}
}

// SetClock replaces the rate lookup date source. Test hook.
func (s *QueryService) SetClock(now func() time.Time) {
	s.now = now
}

// GetMonthStatement returns the requested page plus month-wide totals. The
// totals come from the full unpaged set so they are identical on every page.
// Rates are resolved at query time, not at the transactions' value dates.
func (s *QueryService) GetMonthStatement(ctx context.Context, q MonthQuery) (*core.MonthStatement, error) {
	start := time.Now()
	defer func() {
		if s.collector != nil {
			s.collector.ObserveQuery(time.Since(start))
		}
	}()

	monthStart, monthEnd, err := core.MonthRange(q.YearMonth)
	if err != nil {
		return nil, fmt.Errorf("parse year month %q: %w", q.YearMonth, err)
	}

	filter := storage.Filter{
		CustomerID:  q.CustomerID,
		StartDate:   monthStart,
		EndDate:     monthEnd,
		AccountIBAN: q.AccountIBAN,
	}

	page, total, err := s.store.QueryPage(ctx, filter, q.Page, q.Size)
	if err != nil {
		return nil, fmt.Errorf("query page: %w", err)
	}

	all, err := s.store.QueryAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query full month: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rateDate := core.Date{Time: s.now().UTC().Truncate(24 * time.Hour)}
	pageRates := s.resolver.ResolveBatch(ctx, distinctCurrencies(page), q.BaseCurrency, rateDate)
	allRates := s.resolver.ResolveBatch(ctx, distinctCurrencies(all), q.BaseCurrency, rateDate)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines := make([]core.StatementLine, len(page))
	for idx, t := range page {
		converted, degraded := convertAmount(t, q.BaseCurrency, pageRates)
		if degraded {
			slog.WarnContext(ctx, "No exchange rate, serving unconverted amount",
				"transaction_id", t.ID,
				"currency", t.Currency,
				"base_currency", q.BaseCurrency)
			if s.collector != nil {
				s.collector.ConversionFallback()
			}
		}
		lines[idx] = core.StatementLine{
			ID:              t.ID,
			Amount:          t.Amount,
			Currency:        t.Currency,
			AccountIBAN:     t.AccountIBAN,
			ValueDate:       t.ValueDate,
			Description:     t.Description,
			ConvertedAmount: converted,
			BaseCurrency:    q.BaseCurrency,
			Degraded:        degraded,
		}
	}

	summary := summarize(all, q.BaseCurrency, allRates)

	slog.DebugContext(ctx, "Month statement built",
		"customer_id", q.CustomerID,
		"year_month", q.YearMonth,
		"total_elements", total,
		"page", q.Page)

	return &core.MonthStatement{
		Transactions: lines,
		PageInfo:     core.NewPageInfo(q.Page, q.Size, total),
		Summary:      summary,
	}, nil
}

// convertAmount converts one transaction into the base currency. Same
// currency passes through unchanged; a missing rate falls back to the
// original amount and reports the degradation.
func convertAmount(t core.Transaction, baseCurrency string, found map[string]core.ExchangeRate) (decimal.Decimal, bool) {
	if t.Currency == baseCurrency {
		return t.Amount, false
	}
	if rate, ok := found[t.Currency]; ok {
		return rate.Convert(t.Amount), false
	}
	return t.Amount, true
}

// summarize partitions converted amounts by sign: credit is the sum of
// non-negative ones, debit the absolute sum of negative ones. By
// construction credit - debit equals the signed sum of all converted
// amounts, page size notwithstanding.
func summarize(all []core.Transaction, baseCurrency string, found map[string]core.ExchangeRate) core.Summary {
	totalCredit := decimal.Zero
	totalDebit := decimal.Zero
	for _, t := range all {
		converted, _ := convertAmount(t, baseCurrency, found)
		if converted.IsNegative() {
			totalDebit = totalDebit.Add(converted.Abs())
		} else {
			totalCredit = totalCredit.Add(converted)
		}
	}
	return core.Summary{
		TotalCredit:  totalCredit,
		TotalDebit:   totalDebit,
		NetAmount:    totalCredit.Sub(totalDebit),
		BaseCurrency: baseCurrency,
	}
}

func distinctCurrencies(transactions []core.Transaction) []string {
	seen := make(map[string]struct{})
	var currencies []string
	for _, t := range transactions {
		if _, ok := seen[t.Currency]; !ok {
			seen[t.Currency] = struct{}{}
			currencies = append(currencies, t.Currency)
		}
	}
	return currencies
}

package core

import (
	"github.com/shopspring/decimal"
)

// StatementLine is one transaction as presented to the customer: the original
// amount plus the amount converted into the statement's base currency.
// Degraded is set when no rate could be resolved and the converted amount
// falls back to the original, unconverted one.
type StatementLine struct {
	ID              string
	Amount          decimal.Decimal
	Currency        string
	AccountIBAN     string
	ValueDate       Date
	Description     string
	ConvertedAmount decimal.Decimal
	BaseCurrency    string
	Degraded        bool
}

// PageInfo describes the position of a page inside the full filtered set.
type PageInfo struct {
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
	First         bool
	Last          bool
}

// NewPageInfo derives page metadata from the requested page/size and the
// filter-wide element count. An empty result set has zero pages and is both
// first and last.
func NewPageInfo(page, size int, totalElements int64) PageInfo {
	totalPages := int((totalElements + int64(size) - 1) / int64(size))
	return PageInfo{
		Page:          page,
		Size:          size,
		TotalElements: totalElements,
		TotalPages:    totalPages,
		First:         page == 0,
		Last:          page >= totalPages-1,
	}
}

// Summary aggregates a whole month in the base currency: credit is the sum of
// non-negative converted amounts, debit the absolute sum of negative ones,
// net = credit - debit.
type Summary struct {
	TotalCredit  decimal.Decimal
	TotalDebit   decimal.Decimal
	NetAmount    decimal.Decimal
	BaseCurrency string
}

// MonthStatement is the full answer to a month query: the requested page,
// its metadata, and month-wide totals independent of pagination.
type MonthStatement struct {
	Transactions []StatementLine
	PageInfo     PageInfo
	Summary      Summary
}

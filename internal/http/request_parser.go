package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"txhistory/internal/core"
)

const (
	// DefaultPageSize applies when the caller omits the size parameter.
	DefaultPageSize = 20
	// MaxPageSize caps how many items one page may carry.
	MaxPageSize = 100
)

// StatementParams holds the validated query parameters of a statement request.
type StatementParams struct {
	YearMonth    string
	Page         int
	Size         int
	BaseCurrency string
	AccountIBAN  string
}

// ParseStatementParams validates the statement query string. yearMonth is
// required; page, size, baseCurrency and accountIban are optional with
// defaults. Any violation is a single descriptive error for a 400 response.
func ParseStatementParams(query url.Values, defaultBaseCurrency string) (StatementParams, error) {
	params := StatementParams{
		Page:         0,
		Size:         DefaultPageSize,
		BaseCurrency: defaultBaseCurrency,
	}

	params.YearMonth = strings.TrimSpace(query.Get("yearMonth"))
	if params.YearMonth == "" {
		return params, fmt.Errorf("yearMonth is required")
	}
	if !core.ValidYearMonth(params.YearMonth) {
		return params, fmt.Errorf("yearMonth %q must match YYYY-MM", params.YearMonth)
	}

	if v := strings.TrimSpace(query.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 0 {
			return params, fmt.Errorf("page %q must be a non-negative integer", v)
		}
		params.Page = page
	}

	if v := strings.TrimSpace(query.Get("size")); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 || size > MaxPageSize {
			return params, fmt.Errorf("size %q must be an integer between 1 and %d", v, MaxPageSize)
		}
		params.Size = size
	}

	if v := strings.TrimSpace(query.Get("baseCurrency")); v != "" {
		if !core.ValidCurrency(v) {
			return params, fmt.Errorf("baseCurrency %q must be a 3-letter uppercase code", v)
		}
		params.BaseCurrency = v
	}

	if v := strings.TrimSpace(query.Get("accountIban")); v != "" {
		if !core.ValidIBAN(v) {
			return params, fmt.Errorf("accountIban %q is not a valid IBAN", v)
		}
		params.AccountIBAN = v
	}

	return params, nil
}

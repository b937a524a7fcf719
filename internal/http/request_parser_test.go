package http

import (
	"net/url"
	"testing"
)

func TestParseStatementParamsDefaults(t *testing.T) {
	query := url.Values{"yearMonth": {"2023-10"}}

	params, err := ParseStatementParams(query, "EUR")
	if err != nil {
		t.Fatalf("ParseStatementParams: %v", err)
	}
	if params.YearMonth != "2023-10" {
		t.Errorf("yearMonth: got %q", params.YearMonth)
	}
	if params.Page != 0 || params.Size != DefaultPageSize {
		t.Errorf("paging defaults: got page=%d size=%d", params.Page, params.Size)
	}
	if params.BaseCurrency != "EUR" {
		t.Errorf("base currency default: got %q", params.BaseCurrency)
	}
	if params.AccountIBAN != "" {
		t.Errorf("accountIban default: got %q", params.AccountIBAN)
	}
}

func TestParseStatementParamsExplicit(t *testing.T) {
	query := url.Values{
		"yearMonth":    {"2023-02"},
		"page":         {"3"},
		"size":         {"50"},
		"baseCurrency": {"CHF"},
		"accountIban":  {"DE89370400440532013000"},
	}

	params, err := ParseStatementParams(query, "EUR")
	if err != nil {
		t.Fatalf("ParseStatementParams: %v", err)
	}
	if params.Page != 3 || params.Size != 50 {
		t.Errorf("paging: got page=%d size=%d", params.Page, params.Size)
	}
	if params.BaseCurrency != "CHF" {
		t.Errorf("base currency: got %q", params.BaseCurrency)
	}
	if params.AccountIBAN != "DE89370400440532013000" {
		t.Errorf("accountIban: got %q", params.AccountIBAN)
	}
}

func TestParseStatementParamsRejects(t *testing.T) {
	cases := []struct {
		name  string
		query url.Values
	}{
		{"missing yearMonth", url.Values{}},
		{"bad yearMonth format", url.Values{"yearMonth": {"202310"}}},
		{"month out of range", url.Values{"yearMonth": {"2023-13"}}},
		{"negative page", url.Values{"yearMonth": {"2023-10"}, "page": {"-1"}}},
		{"non-numeric page", url.Values{"yearMonth": {"2023-10"}, "page": {"abc"}}},
		{"zero size", url.Values{"yearMonth": {"2023-10"}, "size": {"0"}}},
		{"oversized page", url.Values{"yearMonth": {"2023-10"}, "size": {"101"}}},
		{"lowercase currency", url.Values{"yearMonth": {"2023-10"}, "baseCurrency": {"eur"}}},
		{"malformed iban", url.Values{"yearMonth": {"2023-10"}, "accountIban": {"not-an-iban"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseStatementParams(tc.query, "EUR"); err == nil {
				t.Errorf("expected error for %s", tc.name)
			}
		})
	}
}

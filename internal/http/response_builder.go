package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"txhistory/internal/core"
)

type transactionJSON struct {
	ID              string          `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	AccountIBAN     string          `json:"accountIban"`
	ValueDate       string          `json:"valueDate"`
	Description     string          `json:"description"`
	ConvertedAmount decimal.Decimal `json:"convertedAmount"`
	BaseCurrency    string          `json:"baseCurrency"`
	Converted       bool            `json:"converted"`
}

type pageInfoJSON struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

type summaryJSON struct {
	TotalCredit  decimal.Decimal `json:"totalCredit"`
	TotalDebit   decimal.Decimal `json:"totalDebit"`
	NetAmount    decimal.Decimal `json:"netAmount"`
	BaseCurrency string          `json:"baseCurrency"`
}

type statementJSON struct {
	Transactions []transactionJSON `json:"transactions"`
	PageInfo     pageInfoJSON      `json:"pageInfo"`
	Summary      summaryJSON       `json:"summary"`
}

type errorJSON struct {
	Error string `json:"error"`
}

// buildStatementResponse maps the domain statement onto the wire shape.
// Converted is false on lines that fell back to the unconverted amount.
func buildStatementResponse(stmt *core.MonthStatement) statementJSON {
	transactions := make([]transactionJSON, len(stmt.Transactions))
	for i, line := range stmt.Transactions {
		transactions[i] = transactionJSON{
			ID:              line.ID,
			Amount:          line.Amount,
			Currency:        line.Currency,
			AccountIBAN:     line.AccountIBAN,
			ValueDate:       line.ValueDate.String(),
			Description:     line.Description,
			ConvertedAmount: line.ConvertedAmount,
			BaseCurrency:    line.BaseCurrency,
			Converted:       !line.Degraded,
		}
	}

	return statementJSON{
		Transactions: transactions,
		PageInfo: pageInfoJSON{
			Page:          stmt.PageInfo.Page,
			Size:          stmt.PageInfo.Size,
			TotalElements: stmt.PageInfo.TotalElements,
			TotalPages:    stmt.PageInfo.TotalPages,
			First:         stmt.PageInfo.First,
			Last:          stmt.PageInfo.Last,
		},
		Summary: summaryJSON{
			TotalCredit:  stmt.Summary.TotalCredit,
			TotalDebit:   stmt.Summary.TotalDebit,
			NetAmount:    stmt.Summary.NetAmount,
			BaseCurrency: stmt.Summary.BaseCurrency,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorJSON{Error: message})
}

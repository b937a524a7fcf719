package http

import (
	"errors"
	"log/slog"
	"net/http"

	"txhistory/internal/core"
	"txhistory/internal/services"
)

// handleGetTransactions serves one page of the caller's month statement. The
// customer id comes from the bearer token, never from the query string.
func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}

	customerID := customerIDFrom(r.Context())
	if customerID == "" {
		writeError(w, http.StatusUnauthorized, "missing customer identity")
		return
	}

	params, err := ParseStatementParams(r.URL.Query(), s.defaultBaseCurrency)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stmt, err := s.statements.GetMonthStatement(r.Context(), services.MonthQuery{
		CustomerID:   customerID,
		YearMonth:    params.YearMonth,
		Page:         params.Page,
		Size:         params.Size,
		BaseCurrency: params.BaseCurrency,
		AccountIBAN:  params.AccountIBAN,
	})
	if err != nil {
		if errors.Is(err, core.ErrInvalidValueDate) {
			writeError(w, http.StatusBadRequest, "invalid yearMonth")
			return
		}
		slog.ErrorContext(r.Context(), "Month statement query failed",
			"customer_id", customerID,
			"year_month", params.YearMonth,
			"error", err)
		writeError(w, http.StatusInternalServerError, "could not build statement")
		return
	}

	writeJSON(w, http.StatusOK, buildStatementResponse(stmt))
}

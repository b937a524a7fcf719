package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"txhistory/internal/core"
)

type contextKey string

const customerIDKey contextKey = "customer_id"

// TokenIssuer signs short-lived HMAC tokens whose subject is the customer id.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, expiry time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, expiry: expiry, now: time.Now}
}

// Issue returns a signed token for the customer and its expiry instant.
func (i *TokenIssuer) Issue(customerID string) (string, time.Time, error) {
	if !core.ValidCustomerID(customerID) {
		return "", time.Time{}, core.ErrInvalidCustomerID
	}

	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.expiry)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   customerID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses a signed token and returns its customer id.
func (i *TokenIssuer) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if !core.ValidCustomerID(claims.Subject) {
		return "", core.ErrInvalidCustomerID
	}
	return claims.Subject, nil
}

// withAuth rejects requests without a valid bearer token and stores the
// token's customer id in the request context.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(tokenString) == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		customerID, err := s.issuer.Verify(strings.TrimSpace(tokenString))
		if err != nil {
			slog.WarnContext(r.Context(), "Rejected bearer token", "error", err)
			writeError(w, http.StatusUnauthorized, "invalid bearer token")
			return
		}

		ctx := context.WithValue(r.Context(), customerIDKey, customerID)
		next(w, r.WithContext(ctx))
	}
}

func customerIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(customerIDKey).(string); ok {
		return id
	}
	return ""
}

// handleIssueToken issues a demo token for the posted customer id.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	var body struct {
		CustomerID string `json:"customerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, expiresAt, err := s.issuer.Issue(strings.TrimSpace(body.CustomerID))
	if err != nil {
		writeError(w, http.StatusBadRequest, "customerId must match P-<10 digits>")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":     token,
		"expiresAt": expiresAt.UTC().Format(time.RFC3339),
	})
}

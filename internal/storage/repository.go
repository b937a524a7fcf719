// Package storage persists transactions in SQLite and exposes the four query
// shapes the rest of the system needs: upsert, delete, exists and the
// paged/unpaged filtered reads.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"txhistory/internal/core"

	_ "modernc.org/sqlite"
)

// Filter selects transactions for one customer within an inclusive value date
// range, optionally narrowed to a single account.
type Filter struct {
	CustomerID  string
	StartDate   core.Date
	EndDate     core.Date
	AccountIBAN string // empty means all accounts
}

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Upsert inserts the transaction or replaces all its fields if the id already
// exists. created_at is written once and never touched again; updated_at is
// refreshed on every write. Calling twice with identical input is a no-op
// value-wise, which is what makes event redelivery safe.
func (r *SQLiteRepository) Upsert(ctx context.Context, t core.Transaction) error {
	now := r.now().UTC().Format(time.RFC3339Nano)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, amount, currency, account_iban, value_date, description, customer_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount       = excluded.amount,
			currency     = excluded.currency,
			account_iban = excluded.account_iban,
			value_date   = excluded.value_date,
			description  = excluded.description,
			customer_id  = excluded.customer_id,
			updated_at   = excluded.updated_at`,
		t.ID, t.Amount.String(), t.Currency, t.AccountIBAN, t.ValueDate.String(),
		t.Description, t.CustomerID, now, now)
	if err != nil {
		return fmt.Errorf("upsert transaction %s: %w", t.ID, err)
	}

	slog.DebugContext(ctx, "Transaction upserted",
		"transaction_id", t.ID,
		"customer_id", t.CustomerID,
		"value_date", t.ValueDate.String())

	return nil
}

// Delete removes the transaction if present. Deleting an absent id succeeds
// silently.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		slog.DebugContext(ctx, "Delete of absent transaction ignored", "transaction_id", id)
	}

	return nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM transactions WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check transaction %s: %w", id, err)
	}
	return true, nil
}

// QueryPage returns one page of the filtered set ordered by value date
// descending with created_at descending as tie-break, plus the total element
// count across the whole filter.
func (r *SQLiteRepository) QueryPage(ctx context.Context, f Filter, pageIndex, pageSize int) ([]core.Transaction, int64, error) {
	where, args := buildFilter(f)

	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := `SELECT id, amount, currency, account_iban, value_date, description, customer_id, created_at, updated_at
		FROM transactions WHERE ` + where + `
		ORDER BY value_date DESC, created_at DESC
		LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, pageSize, pageIndex*pageSize)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query transactions page: %w", err)
	}
	defer rows.Close()

	items, err := scanTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// QueryAll returns the whole filtered set, same ordering as QueryPage. The
// aggregation path uses it so totals are never under-counted by pagination.
func (r *SQLiteRepository) QueryAll(ctx context.Context, f Filter) ([]core.Transaction, error) {
	where, args := buildFilter(f)

	query := `SELECT id, amount, currency, account_iban, value_date, description, customer_id, created_at, updated_at
		FROM transactions WHERE ` + where + `
		ORDER BY value_date DESC, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query all transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func buildFilter(f Filter) (string, []any) {
	conds := []string{"customer_id = ?", "value_date >= ?", "value_date <= ?"}
	args := []any{f.CustomerID, f.StartDate.String(), f.EndDate.String()}
	if f.AccountIBAN != "" {
		conds = append(conds, "account_iban = ?")
		args = append(args, f.AccountIBAN)
	}
	return strings.Join(conds, " AND "), args
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var items []core.Transaction
	for rows.Next() {
		var (
			t                    core.Transaction
			amount               string
			valueDate            string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&t.ID, &amount, &t.Currency, &t.AccountIBAN, &valueDate,
			&t.Description, &t.CustomerID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}

		var err error
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse stored amount %q for %s: %w", amount, t.ID, err)
		}
		if t.ValueDate, err = core.ParseDate(valueDate); err != nil {
			return nil, fmt.Errorf("parse stored value date %q for %s: %w", valueDate, t.ID, err)
		}
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at for %s: %w", t.ID, err)
		}
		if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at for %s: %w", t.ID, err)
		}

		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return items, nil
}

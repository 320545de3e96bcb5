package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"cofre/internal/core"
	applog "cofre/internal/log"
	"cofre/internal/report"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports a lookup that matched no row.
var ErrNotFound = errors.New("record not found")

var logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentStorage)

type SQLiteRepository struct {
	db *sql.DB
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

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func nowText() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func parseTimeText(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// InsertTransaction stores one transaction row. The day key is derived once
// here from the literal date component of OccurredAt.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	tx = tx.Normalize()
	dayKey, err := core.DayKey(tx.OccurredAt)
	if err != nil {
		return fmt.Errorf("derive day key: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, occurred_at, day_key, amount_cents, direction, category, payment_method, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID.String(), tx.OccurredAt, dayKey, tx.Amount.Cents, string(tx.Direction),
		tx.Category, tx.PaymentMethod, tx.Description, nowText())
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	logger.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		applog.FieldDirection, tx.Direction,
		applog.FieldAmountCents, tx.Amount.Cents,
		applog.FieldCategory, tx.Category,
		applog.FieldDay, dayKey)

	return nil
}

// TransactionsInRange implements report.Store. The range is inclusive on
// both ends and matches on the literal day key.
func (r *SQLiteRepository) TransactionsInRange(ctx context.Context, f report.Filter) ([]core.Transaction, error) {
	query := `
		SELECT id, occurred_at, amount_cents, direction, category, payment_method, description, created_at
		FROM transactions
		WHERE day_key >= ? AND day_key <= ?`
	args := []any{f.Start, f.End}
	if f.Direction != "" {
		query += ` AND direction = ?`
		args = append(args, string(f.Direction))
	}
	query += ` ORDER BY day_key, created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetTransaction retrieves a single transaction by ID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, occurred_at, amount_cents, direction, category, payment_method, description, created_at
		FROM transactions WHERE id = ?`, id.String())

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// DeleteTransaction removes a transaction by ID.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	logger.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// KnownCategories implements report.Store: the ordered category reference
// list for one direction.
func (r *SQLiteRepository) KnownCategories(ctx context.Context, kind core.Direction) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name FROM categories WHERE kind = ? ORDER BY position`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx            core.Transaction
		id, direction string
		createdAt     string
	)
	err := row.Scan(&id, &tx.OccurredAt, &tx.Amount.Cents, &direction,
		&tx.Category, &tx.PaymentMethod, &tx.Description, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction id %q: %w", id, err)
	}
	tx.ID = parsed
	tx.Direction = core.Direction(direction)
	tx.CreatedAt = parseTimeText(createdAt)
	return tx, nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

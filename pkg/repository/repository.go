// Package repository holds the database/sql plumbing shared by the
// Postgres-backed stores: typed row scanning, affected-row counts, and
// snapshot-consistent read transactions.
package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by *sql.DB, *sql.Tx, and *sql.Conn.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Scanner is a *sql.Row or *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanFunc reads one row into a T.
type ScanFunc[T any] func(Scanner) (T, error)

// Snapshot runs fn in a read-only REPEATABLE READ transaction so that every
// statement inside it sees the same snapshot, e.g. a page and its total.
func Snapshot(ctx context.Context, db *sql.DB, fn func(q DBTX) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// One scans the single row returned by query. sql.ErrNoRows is returned as is.
func One[T any](ctx context.Context, q DBTX, query string, args []any, scan ScanFunc[T]) (T, error) {
	return scan(q.QueryRowContext(ctx, query, args...))
}

// Many scans every row returned by query. No rows yields an empty, non-nil slice.
func Many[T any](ctx context.Context, q DBTX, query string, args []any, scan ScanFunc[T]) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Count runs a single-integer query such as SELECT COUNT(*).
func Count(ctx context.Context, q DBTX, query string, args ...any) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// Exec runs a statement and returns the number of rows it affected.
// Conditional updates use a zero count to detect a lost compare-and-set.
func Exec(ctx context.Context, q DBTX, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

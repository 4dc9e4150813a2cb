// Package dbx provides the small database abstractions shared by the
// repositories: a DBTX interface satisfied by both *sql.DB and *sql.Tx, a
// transaction helper, and result/error classification helpers.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/taxintake/intakeengine/internal/common"
)

// DBTX is the subset of database/sql used by the repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with the transactional handle, and
// commits on success or rolls back on error or panic. Panics are rethrown.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    return m.Checklist(tx).Upsert(ctx, item)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// ExpectOneRow checks that an UPDATE touched exactly one row. Zero rows is
// reported as onZero (common.ErrorNotFound when nil).
func ExpectOneRow(res sql.Result, onZero error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		if onZero == nil {
			return common.ErrorNotFound
		}
		return onZero
	default:
		return fmt.Errorf("wrong rows affected count: %d", n)
	}
}

// NotFound maps sql.ErrNoRows to common.ErrorNotFound and wraps anything else.
func NotFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, common.ErrorNotFound)
	}
	return fmt.Errorf("failed to select %s: %w", what, err)
}

// Postgres SQLSTATE codes the engine reacts to.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// IsUniqueViolation reports whether err is a Postgres unique constraint error.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

// IsForeignKeyViolation reports whether err is a Postgres FK error, which
// the repositories surface as a missing parent row.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == pgForeignKeyViolation
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// NullBytes turns a nil slice into a SQL NULL argument.
func NullBytes(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

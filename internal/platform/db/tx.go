package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/authz"
)

// SQLSTATE codes PostgreSQL raises when a concurrent writer wins.
const (
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// WithTx runs fn inside a RepeatableRead transaction. The transaction is
// rolled back when fn returns an error; nothing partial ever commits.
// Serialization failures surface as Conflict so callers know to retry.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return asConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", asConflict(err))
	}

	return nil
}

// asConflict rewraps a lost race under RepeatableRead, a serialization
// failure or deadlock, as a retryable Conflict. Everything else passes
// through unchanged.
func asConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == serializationFailure || pgErr.Code == deadlockDetected) {
		return fmt.Errorf("%w: %s", authz.ErrConflict, pgErr.Message)
	}
	return err
}

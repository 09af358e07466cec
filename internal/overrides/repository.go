package overrides

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository defines override store data access. Replace swaps the whole
// list in one transaction; readers never observe a partial list.
type Repository interface {
	List(ctx context.Context, userID int64) ([]Override, error)
	Replace(ctx context.Context, userID int64, overrides []Override) ([]Override, error)
	Delete(ctx context.Context, userID int64, key string) ([]Override, error)
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed override store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) List(ctx context.Context, userID int64) ([]Override, error) {
	if err := userExists(ctx, r.pool, userID); err != nil {
		return nil, err
	}
	return queryOverrides(ctx, r.pool, userID)
}

func (r *pgRepository) Replace(ctx context.Context, userID int64, overrides []Override) ([]Override, error) {
	var stored []Override
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_overrides WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, o := range overrides {
			if _, err := tx.Exec(ctx,
				`INSERT INTO user_overrides (user_id, permission_key, mode) VALUES ($1, $2, $3)`,
				userID, o.Key, string(o.Mode),
			); err != nil {
				return err
			}
		}
		var err error
		stored, err = queryOverrides(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *pgRepository) Delete(ctx context.Context, userID int64, key string) ([]Override, error) {
	var remaining []Override
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`DELETE FROM user_overrides WHERE user_id = $1 AND permission_key = $2`, userID, key)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: override %q for user %d", authz.ErrNotFound, key, userID)
		}
		remaining, err = queryOverrides(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return remaining, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryOverrides(ctx context.Context, q querier, userID int64) ([]Override, error) {
	rows, err := q.Query(ctx,
		`SELECT permission_key, mode FROM user_overrides WHERE user_id = $1 ORDER BY permission_key`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make([]Override, 0)
	for rows.Next() {
		var o Override
		var mode string
		if err := rows.Scan(&o.Key, &mode); err != nil {
			return nil, err
		}
		o.Mode = authz.Mode(mode)
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// lockUser serializes override writers per user at full-list granularity.
func lockUser(ctx context.Context, tx pgx.Tx, userID int64) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: user %d", authz.ErrNotFound, userID)
	}
	return err
}

func userExists(ctx context.Context, pool *pgxpool.Pool, userID int64) error {
	var id int64
	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE id = $1`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: user %d", authz.ErrNotFound, userID)
	}
	return err
}

package permissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

const uniqueViolation = "23505"

// Repository defines catalog data access.
type Repository interface {
	List(ctx context.Context) ([]Permission, error)
	Create(ctx context.Context, input CreatePermissionInput) (Permission, error)
	Delete(ctx context.Context, id int64) (CascadeResult, error)
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed catalog repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) List(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, key, name, description FROM permissions ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Key, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (r *pgRepository) Create(ctx context.Context, input CreatePermissionInput) (Permission, error) {
	var p Permission
	err := r.pool.QueryRow(ctx,
		`INSERT INTO permissions (key, name, description) VALUES ($1, $2, $3)
		 RETURNING id, key, name, description`,
		input.Key, input.Name, input.Description,
	).Scan(&p.ID, &p.Key, &p.Name, &p.Description)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Permission{}, fmt.Errorf("%w: permission key %q already exists", authz.ErrConflict, input.Key)
		}
		return Permission{}, err
	}
	return p, nil
}

// Delete removes a permission and cascades over role assignments and user
// overrides in one transaction.
func (r *pgRepository) Delete(ctx context.Context, id int64) (CascadeResult, error) {
	var result CascadeResult
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		result, err = cascadeDelete(ctx, tx, id)
		return err
	})
	if err != nil {
		return CascadeResult{}, err
	}
	return result, nil
}

// txQuerier is the slice of pgx.Tx the cascade needs.
type txQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// cascadeDelete locks the permission row, collects the roles whose granted
// set will shrink, then deletes join rows, overrides and the permission
// itself. Statement order matters: role ids must be read before their join
// rows disappear.
func cascadeDelete(ctx context.Context, tx txQuerier, id int64) (CascadeResult, error) {
	var result CascadeResult
	err := tx.QueryRow(ctx, `SELECT key FROM permissions WHERE id = $1 FOR UPDATE`, id).Scan(&result.Key)
	if errors.Is(err, pgx.ErrNoRows) {
		return CascadeResult{}, fmt.Errorf("%w: permission %d", authz.ErrNotFound, id)
	}
	if err != nil {
		return CascadeResult{}, err
	}

	// Only enabled rows count toward an effective set, so only those
	// roles need invalidation.
	rows, err := tx.Query(ctx,
		`SELECT DISTINCT role_id FROM role_permissions WHERE permission_id = $1 AND enabled`, id)
	if err != nil {
		return CascadeResult{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var roleID int64
		if err := rows.Scan(&roleID); err != nil {
			return CascadeResult{}, err
		}
		result.AffectedRoleIDs = append(result.AffectedRoleIDs, roleID)
	}
	if err := rows.Err(); err != nil {
		return CascadeResult{}, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE permission_id = $1`, id); err != nil {
		return CascadeResult{}, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_overrides WHERE permission_key = $1`, result.Key); err != nil {
		return CascadeResult{}, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id); err != nil {
		return CascadeResult{}, err
	}
	return result, nil
}

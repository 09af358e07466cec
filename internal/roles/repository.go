package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository defines role store data access. Mutations return the new
// granted set plus whether the commit actually changed anything, so the
// service can decide about event emission.
type Repository interface {
	List(ctx context.Context) ([]Role, error)
	GetByID(ctx context.Context, id int64) (Role, error)
	Permissions(ctx context.Context, roleID int64) (authz.Set, error)
	SetPermission(ctx context.Context, roleID int64, key string, enabled bool) (authz.Set, bool, error)
	SetPermissionsBulk(ctx context.Context, roleID int64, keys []string, enabled bool) (authz.Set, bool, error)
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed role store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *pgRepository) GetByID(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM roles WHERE id = $1`, id,
	).Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, fmt.Errorf("%w: role %d", authz.ErrNotFound, id)
	}
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

func (r *pgRepository) Permissions(ctx context.Context, roleID int64) (authz.Set, error) {
	if _, err := r.GetByID(ctx, roleID); err != nil {
		return nil, err
	}
	return queryGrantedKeys(ctx, r.pool, roleID)
}

func (r *pgRepository) SetPermission(ctx context.Context, roleID int64, key string, enabled bool) (authz.Set, bool, error) {
	var granted authz.Set
	var changed bool
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockRole(ctx, tx, roleID); err != nil {
			return err
		}
		permID, err := resolveKey(ctx, tx, key)
		if err != nil {
			return err
		}

		var current bool
		err = tx.QueryRow(ctx,
			`SELECT enabled FROM role_permissions WHERE role_id = $1 AND permission_id = $2`,
			roleID, permID,
		).Scan(&current)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			if _, err := tx.Exec(ctx,
				`INSERT INTO role_permissions (role_id, permission_id, enabled) VALUES ($1, $2, $3)`,
				roleID, permID, enabled,
			); err != nil {
				return err
			}
			changed = enabled
		case err != nil:
			return err
		case current != enabled:
			if _, err := tx.Exec(ctx,
				`UPDATE role_permissions SET enabled = $3 WHERE role_id = $1 AND permission_id = $2`,
				roleID, permID, enabled,
			); err != nil {
				return err
			}
			changed = true
		}

		granted, err = queryGrantedKeys(ctx, tx, roleID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return granted, changed, nil
}

func (r *pgRepository) SetPermissionsBulk(ctx context.Context, roleID int64, keys []string, enabled bool) (authz.Set, bool, error) {
	var granted authz.Set
	var changed bool
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockRole(ctx, tx, roleID); err != nil {
			return err
		}

		ids := make(map[string]int64, len(keys))
		rows, err := tx.Query(ctx, `SELECT key, id FROM permissions WHERE key = ANY($1)`, keys)
		if err != nil {
			return err
		}
		for rows.Next() {
			var key string
			var id int64
			if err := rows.Scan(&key, &id); err != nil {
				rows.Close()
				return err
			}
			ids[key] = id
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		// Any unknown key aborts the whole batch; nothing commits.
		for _, key := range keys {
			if _, ok := ids[key]; !ok {
				return fmt.Errorf("%w: %q", authz.ErrUnknownPermission, key)
			}
		}

		before, err := queryGrantedKeys(ctx, tx, roleID)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if _, err := tx.Exec(ctx,
				`INSERT INTO role_permissions (role_id, permission_id, enabled)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (role_id, permission_id) DO UPDATE SET enabled = EXCLUDED.enabled`,
				roleID, ids[key], enabled,
			); err != nil {
				return err
			}
		}

		granted, err = queryGrantedKeys(ctx, tx, roleID)
		if err != nil {
			return err
		}
		changed = !setsEqual(before, granted)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return granted, changed, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryGrantedKeys(ctx context.Context, q querier, roleID int64) (authz.Set, error) {
	rows, err := q.Query(ctx,
		`SELECT p.key FROM role_permissions rp
		 JOIN permissions p ON p.id = rp.permission_id
		 WHERE rp.role_id = $1 AND rp.enabled`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	granted := make(authz.Set)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		granted[key] = struct{}{}
	}
	return granted, rows.Err()
}

// lockRole serializes writers on one role for the transaction's lifetime.
func lockRole(ctx context.Context, tx pgx.Tx, roleID int64) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM roles WHERE id = $1 FOR UPDATE`, roleID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: role %d", authz.ErrNotFound, roleID)
	}
	return err
}

func resolveKey(ctx context.Context, tx pgx.Tx, key string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM permissions WHERE key = $1`, key).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", authz.ErrUnknownPermission, key)
	}
	return id, err
}

func setsEqual(a, b authz.Set) bool {
	if len(a) != len(b) {
		return false
	}
	for key := range a {
		if !b.Has(key) {
			return false
		}
	}
	return true
}

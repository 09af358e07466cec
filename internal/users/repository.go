package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/authz"
)

// Repository provides PostgreSQL backed persistence for users.
type Repository interface {
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	AssignRole(ctx context.Context, userID, roleID int64) (User, error)
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, name, role_id, is_active, created_at, updated_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.RoleID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *pgRepository) GetByID(ctx context.Context, id int64) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, role_id, is_active, created_at, updated_at FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Email, &user.Name, &user.RoleID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %d", authz.ErrNotFound, id)
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// AssignRole swaps the user's role in a single atomic statement. Overrides
// are untouched; they are reinterpreted against the new role on the next
// resolution.
func (r *pgRepository) AssignRole(ctx context.Context, userID, roleID int64) (User, error) {
	var exists int64
	err := r.pool.QueryRow(ctx, `SELECT id FROM roles WHERE id = $1`, roleID).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w: role %d", authz.ErrNotFound, roleID)
	}
	if err != nil {
		return User{}, err
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role_id = $2, updated_at = now() WHERE id = $1`, userID, roleID)
	if err != nil {
		return User{}, err
	}
	if tag.RowsAffected() == 0 {
		return User{}, fmt.Errorf("%w: user %d", authz.ErrNotFound, userID)
	}
	return r.GetByID(ctx, userID)
}

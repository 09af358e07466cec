package roles

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/authz"
)

type memoryRoleRepo struct {
	roles   map[int64]Role
	catalog map[string]int64
	granted map[int64]map[string]bool // roleID -> key -> enabled
}

func newMemoryRoleRepo() *memoryRoleRepo {
	return &memoryRoleRepo{
		roles: map[int64]Role{
			1: {ID: 1, Name: "Employee"},
			2: {ID: 2, Name: "Manager"},
		},
		catalog: map[string]int64{
			"invoice.read":   1,
			"invoice.create": 2,
			"product.read":   3,
		},
		granted: map[int64]map[string]bool{1: {}, 2: {}},
	}
}

func (r *memoryRoleRepo) List(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *memoryRoleRepo) GetByID(ctx context.Context, id int64) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("%w: role %d", authz.ErrNotFound, id)
	}
	return role, nil
}

func (r *memoryRoleRepo) Permissions(ctx context.Context, roleID int64) (authz.Set, error) {
	rows, ok := r.granted[roleID]
	if !ok {
		return nil, fmt.Errorf("%w: role %d", authz.ErrNotFound, roleID)
	}
	granted := make(authz.Set)
	for key, enabled := range rows {
		if enabled {
			granted[key] = struct{}{}
		}
	}
	return granted, nil
}

func (r *memoryRoleRepo) SetPermission(ctx context.Context, roleID int64, key string, enabled bool) (authz.Set, bool, error) {
	rows, ok := r.granted[roleID]
	if !ok {
		return nil, false, fmt.Errorf("%w: role %d", authz.ErrNotFound, roleID)
	}
	if _, known := r.catalog[key]; !known {
		return nil, false, fmt.Errorf("%w: %q", authz.ErrUnknownPermission, key)
	}
	current, exists := rows[key]
	changed := (!exists && enabled) || (exists && current != enabled)
	rows[key] = enabled
	granted, _ := r.Permissions(ctx, roleID)
	return granted, changed, nil
}

func (r *memoryRoleRepo) SetPermissionsBulk(ctx context.Context, roleID int64, keys []string, enabled bool) (authz.Set, bool, error) {
	rows, ok := r.granted[roleID]
	if !ok {
		return nil, false, fmt.Errorf("%w: role %d", authz.ErrNotFound, roleID)
	}
	for _, key := range keys {
		if _, known := r.catalog[key]; !known {
			// Nothing commits.
			return nil, false, fmt.Errorf("%w: %q", authz.ErrUnknownPermission, key)
		}
	}
	changed := false
	for _, key := range keys {
		current, exists := rows[key]
		if (!exists && enabled) || (exists && current != enabled) {
			changed = true
		}
		rows[key] = enabled
	}
	granted, _ := r.Permissions(ctx, roleID)
	return granted, changed, nil
}

type countingPublisher struct {
	roleEvents     []int64
	overrideEvents []int64
}

func (p *countingPublisher) RoleChanged(ctx context.Context, roleID int64) {
	p.roleEvents = append(p.roleEvents, roleID)
}

func (p *countingPublisher) OverrideChanged(ctx context.Context, userID int64) {
	p.overrideEvents = append(p.overrideEvents, userID)
}

func TestSetPermissionEnablesAndEmitsOnce(t *testing.T) {
	repo := newMemoryRoleRepo()
	pub := &countingPublisher{}
	svc := NewService(repo, pub)
	ctx := context.Background()

	granted, err := svc.SetPermission(ctx, 1, "invoice.read", true)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"invoice.read"}, granted.Keys())
	require.Equal(t, []int64{1}, pub.roleEvents)
}

func TestSetPermissionIdempotent(t *testing.T) {
	repo := newMemoryRoleRepo()
	pub := &countingPublisher{}
	svc := NewService(repo, pub)
	ctx := context.Background()

	first, err := svc.SetPermission(ctx, 1, "invoice.read", true)
	require.NoError(t, err)
	second, err := svc.SetPermission(ctx, 1, "invoice.read", true)
	require.NoError(t, err)

	require.ElementsMatch(t, first.Keys(), second.Keys())
	// Re-applying the same value is a no-op and must not emit again.
	require.Len(t, pub.roleEvents, 1)
}

func TestSetPermissionUnknownKey(t *testing.T) {
	svc := NewService(newMemoryRoleRepo(), &countingPublisher{})

	_, err := svc.SetPermission(context.Background(), 1, "ghost.module", true)
	require.ErrorIs(t, err, authz.ErrUnknownPermission)
}

func TestSetPermissionUnknownRole(t *testing.T) {
	svc := NewService(newMemoryRoleRepo(), &countingPublisher{})

	_, err := svc.SetPermission(context.Background(), 42, "invoice.read", true)
	require.ErrorIs(t, err, authz.ErrNotFound)
}

func TestBulkSetAllOrNothing(t *testing.T) {
	repo := newMemoryRoleRepo()
	pub := &countingPublisher{}
	svc := NewService(repo, pub)
	ctx := context.Background()

	_, err := svc.SetPermissionsBulk(ctx, 1, []string{"invoice.read", "ghost.module", "product.read"}, true)
	require.ErrorIs(t, err, authz.ErrUnknownPermission)

	granted, err := svc.Permissions(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, granted.Keys(), "known keys from the failed batch must remain unchanged")
	require.Empty(t, pub.roleEvents)
}

func TestBulkSetEmitsOneEventForManyKeys(t *testing.T) {
	repo := newMemoryRoleRepo()
	pub := &countingPublisher{}
	svc := NewService(repo, pub)
	ctx := context.Background()

	granted, err := svc.SetPermissionsBulk(ctx, 2, []string{"invoice.read", "invoice.create", "product.read"}, true)
	require.NoError(t, err)
	require.Len(t, granted.Keys(), 3)
	require.Equal(t, []int64{2}, pub.roleEvents, "bulk commit emits once, never per key")
}

func TestBulkSetDisableNoopEmitsNothing(t *testing.T) {
	repo := newMemoryRoleRepo()
	pub := &countingPublisher{}
	svc := NewService(repo, pub)
	ctx := context.Background()

	// Disabling keys that were never enabled changes no effective set.
	_, err := svc.SetPermissionsBulk(ctx, 1, []string{"invoice.read", "product.read"}, false)
	require.NoError(t, err)
	require.Empty(t, pub.roleEvents)
}

func TestBulkSetRejectsEmptyPayload(t *testing.T) {
	svc := NewService(newMemoryRoleRepo(), &countingPublisher{})

	_, err := svc.SetPermissionsBulk(context.Background(), 1, nil, true)
	require.ErrorIs(t, err, authz.ErrValidation)
}

package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryCatalog struct {
	keys Set
}

func (m *memoryCatalog) Keys(ctx context.Context) (Set, error) {
	return m.keys.Clone(), nil
}

type memoryRoles struct {
	granted map[int64]Set
}

func (m *memoryRoles) Permissions(ctx context.Context, roleID int64) (Set, error) {
	granted, ok := m.granted[roleID]
	if !ok {
		return nil, ErrNotFound
	}
	return granted.Clone(), nil
}

type memoryOverrides struct {
	modes map[int64]map[string]Mode
}

func (m *memoryOverrides) Modes(ctx context.Context, userID int64) (map[string]Mode, error) {
	return m.modes[userID], nil
}

func newTestService() (*Service, *memoryRoles, *memoryOverrides) {
	catalog := &memoryCatalog{keys: NewSet("invoice.read", "invoice.create", "product.read")}
	roleStore := &memoryRoles{granted: map[int64]Set{
		1: NewSet("invoice.read", "product.read"),
	}}
	overrideStore := &memoryOverrides{modes: map[int64]map[string]Mode{}}
	return NewService(catalog, roleStore, overrideStore), roleStore, overrideStore
}

func TestEffectivePermissionsRegularUser(t *testing.T) {
	svc, _, overrideStore := newTestService()
	overrideStore.modes[7] = map[string]Mode{"invoice.create": ModeGrant}

	effective, err := svc.EffectivePermissions(context.Background(), NewPrincipal(7, 1, "Employee"))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"invoice.read", "product.read", "invoice.create"}, effective.Keys())
}

func TestEffectivePermissionsSuperAdminSkipsStores(t *testing.T) {
	svc, roleStore, _ := newTestService()
	// The SuperAdmin role has no baseline rows at all; resolution must not
	// even consult the role store.
	delete(roleStore.granted, 99)

	effective, err := svc.EffectivePermissions(context.Background(), NewPrincipal(1, 99, SuperAdminRole))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"invoice.read", "invoice.create", "product.read"}, effective.Keys())
}

func TestEffectivePermissionsReflectsRoleDisable(t *testing.T) {
	svc, roleStore, overrideStore := newTestService()
	overrideStore.modes[7] = map[string]Mode{"product.read": ModeGrant}
	// User 8 has no override on product.read.
	overrideStore.modes[8] = nil

	// Admin disables product.read on the shared role.
	roleStore.granted[1] = NewSet("invoice.read")

	withOverride, err := svc.EffectivePermissions(context.Background(), NewPrincipal(7, 1, "Employee"))
	require.NoError(t, err)
	require.True(t, withOverride.Has("product.read"), "GRANT override must survive a role disable")

	withoutOverride, err := svc.EffectivePermissions(context.Background(), NewPrincipal(8, 1, "Employee"))
	require.NoError(t, err)
	require.False(t, withoutOverride.Has("product.read"), "plain member must lose the disabled key")
}

func TestEffectivePermissionsUnknownRole(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.EffectivePermissions(context.Background(), NewPrincipal(7, 42, "Ghost"))
	require.ErrorIs(t, err, ErrNotFound)
}

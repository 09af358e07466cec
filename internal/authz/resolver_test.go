package authz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fullCatalog() Set {
	return NewSet(
		"invoice.read", "invoice.create", "invoice.void",
		"product.read", "product.edit",
		"buyer.read", "supplier.read",
	)
}

func TestResolveRoleBaselineOnly(t *testing.T) {
	granted := NewSet("invoice.read", "product.read")

	effective := Resolve(fullCatalog(), granted, nil, false)

	require.ElementsMatch(t, []string{"invoice.read", "product.read"}, effective.Keys())
}

func TestResolveGrantOverrideAddsKey(t *testing.T) {
	granted := NewSet("invoice.read", "product.read")
	overrides := map[string]Mode{"invoice.create": ModeGrant}

	effective := Resolve(fullCatalog(), granted, overrides, false)

	require.ElementsMatch(t, []string{"invoice.read", "product.read", "invoice.create"}, effective.Keys())
}

func TestResolveDenyOverrideRemovesKey(t *testing.T) {
	granted := NewSet("invoice.read", "product.read")
	overrides := map[string]Mode{"product.read": ModeDeny}

	effective := Resolve(fullCatalog(), granted, overrides, false)

	require.ElementsMatch(t, []string{"invoice.read"}, effective.Keys())
}

func TestResolveSuperAdminIgnoresOverrides(t *testing.T) {
	catalog := fullCatalog()
	// Even an all-DENY override map cannot lock out the reserved role.
	overrides := make(map[string]Mode, len(catalog))
	for key := range catalog {
		overrides[key] = ModeDeny
	}

	effective := Resolve(catalog, nil, overrides, true)

	require.ElementsMatch(t, catalog.Keys(), effective.Keys())
}

func TestResolveAllGrantYieldsFullCatalog(t *testing.T) {
	catalog := fullCatalog()
	overrides := make(map[string]Mode, len(catalog))
	for key := range catalog {
		overrides[key] = ModeGrant
	}

	effective := Resolve(catalog, NewSet("invoice.read"), overrides, false)

	require.ElementsMatch(t, catalog.Keys(), effective.Keys())
}

func TestResolveAllDenyLeavesOnlyGrants(t *testing.T) {
	catalog := fullCatalog()
	granted := NewSet("invoice.read", "product.read")
	overrides := map[string]Mode{
		"invoice.read": ModeDeny,
		"product.read": ModeDeny,
		"buyer.read":   ModeGrant,
	}

	effective := Resolve(catalog, granted, overrides, false)

	require.ElementsMatch(t, []string{"buyer.read"}, effective.Keys())
}

func TestResolveIgnoresStaleOverrideKeys(t *testing.T) {
	granted := NewSet("invoice.read")
	overrides := map[string]Mode{
		"ghost.module": ModeGrant, // permission deleted after the override was written
		"invoice.read": ModeDeny,
	}

	effective := Resolve(fullCatalog(), granted, overrides, false)

	require.Empty(t, effective.Keys())
	require.False(t, effective.Has("ghost.module"))
}

func TestResolveDoesNotMutateInputs(t *testing.T) {
	catalog := fullCatalog()
	granted := NewSet("invoice.read", "product.read")
	overrides := map[string]Mode{"product.read": ModeDeny}

	_ = Resolve(catalog, granted, overrides, false)
	_ = Resolve(catalog, granted, overrides, true)

	require.Len(t, granted, 2)
	require.Len(t, overrides, 1)
	require.Len(t, catalog, 7)
}

func TestNewPrincipalReservedRoleOnly(t *testing.T) {
	require.True(t, NewPrincipal(1, 1, SuperAdminRole).IsSuperAdmin())
	require.False(t, NewPrincipal(1, 2, "superadmin").IsSuperAdmin())
	require.False(t, NewPrincipal(1, 3, "Admin").IsSuperAdmin())
}

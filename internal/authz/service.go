package authz

import "context"

// CatalogSource supplies the authoritative permission key catalog.
type CatalogSource interface {
	Keys(ctx context.Context) (Set, error)
}

// RoleSource supplies a role's granted permission keys.
type RoleSource interface {
	Permissions(ctx context.Context, roleID int64) (Set, error)
}

// OverrideSource supplies a user's sparse override map.
type OverrideSource interface {
	Modes(ctx context.Context, userID int64) (map[string]Mode, error)
}

// Service recomputes effective permission sets from live store state.
// Results are never cached: a revoked permission must stop being honored on
// the next resolution, so every caller pays the store round-trips.
type Service struct {
	catalog   CatalogSource
	roles     RoleSource
	overrides OverrideSource
}

// NewService constructs the resolution service.
func NewService(catalog CatalogSource, roles RoleSource, overrides OverrideSource) *Service {
	return &Service{catalog: catalog, roles: roles, overrides: overrides}
}

// EffectivePermissions resolves the principal's current effective set from
// the catalog, role store and override store.
func (s *Service) EffectivePermissions(ctx context.Context, principal Principal) (Set, error) {
	catalog, err := s.catalog.Keys(ctx)
	if err != nil {
		return nil, err
	}
	if principal.IsSuperAdmin() {
		return Resolve(catalog, nil, nil, true), nil
	}

	granted, err := s.roles.Permissions(ctx, principal.RoleID)
	if err != nil {
		return nil, err
	}
	modes, err := s.overrides.Modes(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	return Resolve(catalog, granted, modes, false), nil
}

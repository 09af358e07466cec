package authz

import "sort"

// SuperAdminRole is the reserved role name that bypasses override
// resolution. NewPrincipal is the only place allowed to compare against it.
const SuperAdminRole = "SuperAdmin"

// Mode distinguishes the two kinds of per-user override.
type Mode string

const (
	// ModeGrant adds a capability absent from the user's role baseline.
	ModeGrant Mode = "GRANT"
	// ModeDeny removes a capability otherwise present via the role.
	ModeDeny Mode = "DENY"
)

// Valid reports whether the mode is one of GRANT or DENY.
func (m Mode) Valid() bool {
	return m == ModeGrant || m == ModeDeny
}

// Set holds permission keys.
type Set map[string]struct{}

// NewSet builds a Set from keys.
func NewSet(keys ...string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership of key.
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the members sorted, so callers and wire encodings do not
// depend on map iteration order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Principal is the authenticated actor as supplied by the identity layer.
// It is a tagged variant: either a regular user resolved against its role
// and overrides, or a SuperAdmin that short-circuits to the full catalog.
type Principal struct {
	UserID     int64
	RoleID     int64
	superAdmin bool
}

// NewPrincipal builds a Principal from the identity layer's view of the
// user. The roleName comparison here is the single SuperAdmin check in the
// repository; no other component may branch on role names.
func NewPrincipal(userID, roleID int64, roleName string) Principal {
	return Principal{
		UserID:     userID,
		RoleID:     roleID,
		superAdmin: roleName == SuperAdminRole,
	}
}

// IsSuperAdmin reports whether the principal carries the reserved role.
func (p Principal) IsSuperAdmin() bool {
	return p.superAdmin
}

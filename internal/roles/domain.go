package roles

import "time"

// Role groups a baseline permission set. Exactly one role name, SuperAdmin,
// is reserved; its special semantics live in the resolver, not here.
type Role struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RolePermission is the join row between a role and a catalog entry. Rows
// are created on first toggle and flipped in place afterwards; only
// Enabled=true rows count toward the role's granted set.
type RolePermission struct {
	RoleID       int64
	PermissionID int64
	Enabled      bool
}

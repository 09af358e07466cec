package permissions

// Permission represents one atomic capability in the catalog.
type Permission struct {
	ID          int64  `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CreatePermissionInput carries a new catalog entry.
type CreatePermissionInput struct {
	Key         string
	Name        string
	Description string
}

// CascadeResult reports what a catalog deletion swept away. AffectedRoleIDs
// lists roles whose granted set shrank, so change propagation can notify
// their members.
type CascadeResult struct {
	Key             string
	AffectedRoleIDs []int64
}

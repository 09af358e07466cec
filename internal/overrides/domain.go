package overrides

import "github.com/meridian-erp/meridian-erp/internal/authz"

// Override is one per-user GRANT or DENY entry on top of the role baseline.
// Redundant entries, where the mode matches what the role already decides,
// are stored as submitted; the resolver no-ops on them. That policy lives
// here and nowhere else.
type Override struct {
	Key  string     `json:"key"`
	Mode authz.Mode `json:"mode"`
}

// Package events propagates permission invalidation to live sessions.
//
// Delivery is at-most-once and best-effort: a missed broadcast is corrected
// by the next server-side resolution, which always reads store state. The
// push exists so connected UIs can refresh promptly, not as a security
// boundary.
package events

import (
	"context"
	"time"
)

// Pub/sub channels. Role changes are emitted exactly once per committed
// role-permission mutation, never per changed key.
const (
	ChannelRoleChanged     = "permissions.updated"
	ChannelOverrideChanged = "permissions.user_updated"
)

// RoleChanged tells sessions of a role's members to re-resolve.
type RoleChanged struct {
	EventID    string    `json:"event_id"`
	RoleID     int64     `json:"role_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// OverrideChanged tells one user's sessions to re-resolve.
type OverrideChanged struct {
	EventID    string    `json:"event_id"`
	UserID     int64     `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher is implemented by the redis broadcaster and by test fakes.
// Implementations must not fail the caller's committed transaction; publish
// errors are logged and swallowed.
type Publisher interface {
	RoleChanged(ctx context.Context, roleID int64)
	OverrideChanged(ctx context.Context, userID int64)
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) RoleChanged(context.Context, int64)     {}
func (NopPublisher) OverrideChanged(context.Context, int64) {}

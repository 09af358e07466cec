package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Broadcaster publishes invalidation events over Redis pub/sub.
type Broadcaster struct {
	client *redis.Client
	logger *slog.Logger
	now    func() time.Time
}

var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster constructs a Broadcaster.
func NewBroadcaster(client *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{client: client, logger: logger, now: time.Now}
}

// RoleChanged publishes a role invalidation. Errors are logged, never
// propagated: the mutation already committed and correctness does not
// depend on delivery.
func (b *Broadcaster) RoleChanged(ctx context.Context, roleID int64) {
	b.publish(ctx, ChannelRoleChanged, RoleChanged{
		EventID:    uuid.NewString(),
		RoleID:     roleID,
		OccurredAt: b.now().UTC(),
	})
}

// OverrideChanged publishes a per-user invalidation.
func (b *Broadcaster) OverrideChanged(ctx context.Context, userID int64) {
	b.publish(ctx, ChannelOverrideChanged, OverrideChanged{
		EventID:    uuid.NewString(),
		UserID:     userID,
		OccurredAt: b.now().UTC(),
	})
}

func (b *Broadcaster) publish(ctx context.Context, channel string, payload any) {
	if b == nil || b.client == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		b.logError("marshal event", channel, err)
		return
	}
	if err := b.client.Publish(ctx, channel, raw).Err(); err != nil {
		b.logError("publish event", channel, err)
	}
}

func (b *Broadcaster) logError(msg, channel string, err error) {
	if b.logger != nil {
		b.logger.Error(msg, slog.String("channel", channel), slog.Any("error", err))
	}
}

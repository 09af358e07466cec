package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

const subscriptionBuffer = 8

// Notice is what a subscribed session receives.
type Notice struct {
	Channel string `json:"channel"`
	EventID string `json:"event_id"`
	RoleID  int64  `json:"role_id,omitempty"`
	UserID  int64  `json:"user_id,omitempty"`
}

// Subscription is one connected session's feed. The channel is buffered;
// when a consumer falls behind, messages are dropped rather than queued.
type Subscription struct {
	UserID int64
	RoleID int64
	C      <-chan Notice

	send chan Notice
}

// Hub holds a single Redis subscription per process and fans notices out to
// registered sessions scoped by role (role events) or user (override
// events).
type Hub struct {
	client *redis.Client
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewHub constructs a Hub.
func NewHub(client *redis.Client, logger *slog.Logger) *Hub {
	return &Hub{
		client: client,
		logger: logger,
		subs:   make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a session identified by user and role.
func (h *Hub) Subscribe(userID, roleID int64) *Subscription {
	sub := &Subscription{
		UserID: userID,
		RoleID: roleID,
		send:   make(chan Notice, subscriptionBuffer),
	}
	sub.C = sub.send
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes the session's registration.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// Run blocks consuming the Redis subscription until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	pubsub := h.client.Subscribe(ctx, ChannelRoleChanged, ChannelOverrideChanged)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h.dispatch(msg.Channel, []byte(msg.Payload))
		}
	}
}

func (h *Hub) dispatch(channel string, payload []byte) {
	var notice Notice
	switch channel {
	case ChannelRoleChanged:
		var evt RoleChanged
		if err := json.Unmarshal(payload, &evt); err != nil {
			h.logDecodeError(channel, err)
			return
		}
		notice = Notice{Channel: channel, EventID: evt.EventID, RoleID: evt.RoleID}
	case ChannelOverrideChanged:
		var evt OverrideChanged
		if err := json.Unmarshal(payload, &evt); err != nil {
			h.logDecodeError(channel, err)
			return
		}
		notice = Notice{Channel: channel, EventID: evt.EventID, UserID: evt.UserID}
	default:
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !matches(sub, notice) {
			continue
		}
		select {
		case sub.send <- notice:
		default:
			// Slow consumer; at-most-once delivery means it just misses it.
		}
	}
}

func matches(sub *Subscription, notice Notice) bool {
	switch notice.Channel {
	case ChannelRoleChanged:
		return sub.RoleID == notice.RoleID
	case ChannelOverrideChanged:
		return sub.UserID == notice.UserID
	}
	return false
}

func (h *Hub) logDecodeError(channel string, err error) {
	if h.logger != nil {
		h.logger.Warn("decode event payload", slog.String("channel", channel), slog.Any("error", err))
	}
}

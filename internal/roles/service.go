package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/events"
)

// Service handles role store business logic and event emission. One
// permissions.updated event per committed mutation, never per changed key.
type Service struct {
	repo      Repository
	publisher events.Publisher
}

var _ authz.RoleSource = (*Service)(nil)

// NewService builds Service instance.
func NewService(repo Repository, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{repo: repo, publisher: publisher}
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// GetByID fetches one role.
func (s *Service) GetByID(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetByID(ctx, id)
}

// Permissions returns the role's granted key set.
func (s *Service) Permissions(ctx context.Context, roleID int64) (authz.Set, error) {
	return s.repo.Permissions(ctx, roleID)
}

// SetPermission toggles a single role permission. Re-applying the current
// value is a no-op: nothing is written and no event is emitted.
func (s *Service) SetPermission(ctx context.Context, roleID int64, key string, enabled bool) (authz.Set, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	if key == "" {
		return nil, fmt.Errorf("%w: permission key required", authz.ErrValidation)
	}
	granted, changed, err := s.repo.SetPermission(ctx, roleID, key, enabled)
	if err != nil {
		return nil, err
	}
	if changed {
		s.publisher.RoleChanged(ctx, roleID)
	}
	return granted, nil
}

// SetPermissionsBulk toggles many keys in one all-or-nothing transaction.
func (s *Service) SetPermissionsBulk(ctx context.Context, roleID int64, keys []string, enabled bool) (authz.Set, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: at least one permission key required", authz.ErrValidation)
	}
	normalized := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(strings.ToLower(key))
		if key == "" {
			return nil, fmt.Errorf("%w: empty permission key", authz.ErrValidation)
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		normalized = append(normalized, key)
	}

	granted, changed, err := s.repo.SetPermissionsBulk(ctx, roleID, normalized, enabled)
	if err != nil {
		return nil, err
	}
	if changed {
		s.publisher.RoleChanged(ctx, roleID)
	}
	return granted, nil
}

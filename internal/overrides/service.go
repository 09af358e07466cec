package overrides

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/events"
)

// Service handles override store business logic. The full-replace contract
// mirrors how an admin submits the complete desired override state; two
// concurrent replaces resolve last-write-wins, never a merge.
type Service struct {
	repo      Repository
	catalog   authz.CatalogSource
	publisher events.Publisher
}

var _ authz.OverrideSource = (*Service)(nil)

// NewService builds Service instance.
func NewService(repo Repository, catalog authz.CatalogSource, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{repo: repo, catalog: catalog, publisher: publisher}
}

// List returns a user's stored overrides.
func (s *Service) List(ctx context.Context, userID int64) ([]Override, error) {
	return s.repo.List(ctx, userID)
}

// Modes returns the overrides as a map for the resolver.
func (s *Service) Modes(ctx context.Context, userID int64) (map[string]authz.Mode, error) {
	overrides, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	modes := make(map[string]authz.Mode, len(overrides))
	for _, o := range overrides {
		modes[o.Key] = o.Mode
	}
	return modes, nil
}

// Replace swaps the user's override list wholesale. Redundant overrides are
// stored as submitted; the resolver no-ops on them.
func (s *Service) Replace(ctx context.Context, userID int64, overrides []Override) ([]Override, error) {
	normalized, err := s.validate(ctx, overrides)
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.Replace(ctx, userID, normalized)
	if err != nil {
		return nil, err
	}
	s.publisher.OverrideChanged(ctx, userID)
	return stored, nil
}

// Delete clears one override.
func (s *Service) Delete(ctx context.Context, userID int64, key string) ([]Override, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	remaining, err := s.repo.Delete(ctx, userID, key)
	if err != nil {
		return nil, err
	}
	s.publisher.OverrideChanged(ctx, userID)
	return remaining, nil
}

func (s *Service) validate(ctx context.Context, overrides []Override) ([]Override, error) {
	catalog, err := s.catalog.Keys(ctx)
	if err != nil {
		return nil, err
	}

	normalized := make([]Override, 0, len(overrides))
	seen := make(map[string]struct{}, len(overrides))
	for _, o := range overrides {
		key := strings.TrimSpace(strings.ToLower(o.Key))
		if key == "" {
			return nil, fmt.Errorf("%w: empty permission key", authz.ErrValidation)
		}
		if !o.Mode.Valid() {
			return nil, fmt.Errorf("%w: mode %q for key %q must be GRANT or DENY", authz.ErrValidation, o.Mode, key)
		}
		// The same key with two modes at once is ambiguous; reject the
		// payload instead of picking a winner.
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: key %q appears more than once", authz.ErrValidation, key)
		}
		if !catalog.Has(key) {
			return nil, fmt.Errorf("%w: %q", authz.ErrUnknownPermission, key)
		}
		seen[key] = struct{}{}
		normalized = append(normalized, Override{Key: key, Mode: o.Mode})
	}
	return normalized, nil
}

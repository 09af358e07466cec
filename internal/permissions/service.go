package permissions

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/events"
)

// Permission keys follow <module>.<action>, lowercase.
var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*\.[a-z][a-z0-9_]*$`)

// Service manages the permission catalog.
type Service struct {
	repo      Repository
	cache     *Cache
	publisher events.Publisher
}

var _ authz.CatalogSource = (*Service)(nil)

// NewService builds a catalog Service.
func NewService(repo Repository, cache *Cache, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{repo: repo, cache: cache, publisher: publisher}
}

// List returns the catalog, served from cache when warm.
func (s *Service) List(ctx context.Context) ([]Permission, error) {
	var perms []Permission
	if err := s.cache.Fetch(ctx, &perms, s.repo.List); err != nil {
		return nil, err
	}
	return perms, nil
}

// Keys returns the catalog as a key set for the resolver.
func (s *Service) Keys(ctx context.Context) (authz.Set, error) {
	perms, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	keys := make(authz.Set, len(perms))
	for _, p := range perms {
		keys[p.Key] = struct{}{}
	}
	return keys, nil
}

// Create registers a new catalog entry and invalidates the cache.
func (s *Service) Create(ctx context.Context, input CreatePermissionInput) (Permission, error) {
	input.Key = strings.TrimSpace(input.Key)
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if !keyPattern.MatchString(input.Key) {
		return Permission{}, fmt.Errorf("%w: key %q must match <module>.<action>, lowercase", authz.ErrValidation, input.Key)
	}
	if input.Name == "" {
		input.Name = input.Key
	}

	perm, err := s.repo.Create(ctx, input)
	if err != nil {
		return Permission{}, err
	}
	if err := s.cache.Bump(ctx); err != nil {
		return Permission{}, err
	}
	return perm, nil
}

// Delete removes a catalog entry, cascading over role assignments and user
// overrides, then notifies the roles whose granted set shrank.
func (s *Service) Delete(ctx context.Context, id int64) error {
	result, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if err := s.cache.Bump(ctx); err != nil {
		return err
	}
	for _, roleID := range result.AffectedRoleIDs {
		s.publisher.RoleChanged(ctx, roleID)
	}
	return nil
}

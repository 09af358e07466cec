package permissions

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/authz"
)

type memoryCatalogRepo struct {
	perms     map[int64]Permission
	nextID    int64
	listCalls int

	cascades map[int64]CascadeResult
}

func newMemoryCatalogRepo() *memoryCatalogRepo {
	return &memoryCatalogRepo{
		perms:    make(map[int64]Permission),
		cascades: make(map[int64]CascadeResult),
	}
}

func (r *memoryCatalogRepo) List(ctx context.Context) ([]Permission, error) {
	r.listCalls++
	out := make([]Permission, 0, len(r.perms))
	for _, p := range r.perms {
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryCatalogRepo) Create(ctx context.Context, input CreatePermissionInput) (Permission, error) {
	for _, p := range r.perms {
		if p.Key == input.Key {
			return Permission{}, fmt.Errorf("%w: permission key %q already exists", authz.ErrConflict, input.Key)
		}
	}
	r.nextID++
	perm := Permission{ID: r.nextID, Key: input.Key, Name: input.Name, Description: input.Description}
	r.perms[perm.ID] = perm
	return perm, nil
}

func (r *memoryCatalogRepo) Delete(ctx context.Context, id int64) (CascadeResult, error) {
	perm, ok := r.perms[id]
	if !ok {
		return CascadeResult{}, fmt.Errorf("%w: permission %d", authz.ErrNotFound, id)
	}
	delete(r.perms, id)
	result := r.cascades[id]
	result.Key = perm.Key
	return result, nil
}

type capturingPublisher struct {
	roleEvents []int64
}

func (p *capturingPublisher) RoleChanged(ctx context.Context, roleID int64) {
	p.roleEvents = append(p.roleEvents, roleID)
}

func (p *capturingPublisher) OverrideChanged(ctx context.Context, userID int64) {}

func newCatalogService(t *testing.T) (*Service, *memoryCatalogRepo, *capturingPublisher) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryCatalogRepo()
	pub := &capturingPublisher{}
	return NewService(repo, NewCache(client, time.Minute), pub), repo, pub
}

func TestListServedFromCache(t *testing.T) {
	svc, repo, _ := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePermissionInput{Key: "invoice.read"})
	require.NoError(t, err)
	repo.listCalls = 0

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.listCalls, "second list must hit the cache")
}

func TestCreateInvalidatesCache(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePermissionInput{Key: "invoice.read"})
	require.NoError(t, err)
	before, err := svc.Keys(ctx)
	require.NoError(t, err)
	require.False(t, before.Has("invoice.void"))

	_, err = svc.Create(ctx, CreatePermissionInput{Key: "invoice.void"})
	require.NoError(t, err)

	after, err := svc.Keys(ctx)
	require.NoError(t, err)
	require.True(t, after.Has("invoice.void"), "mutation must invalidate the cached catalog")
}

func TestCreateValidatesKeyFormat(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	for _, key := range []string{"Invoice.Read", "invoice", "invoice.read.extra", ".read", "invoice.", "invoice read"} {
		_, err := svc.Create(ctx, CreatePermissionInput{Key: key})
		require.ErrorIs(t, err, authz.ErrValidation, "key %q", key)
	}
}

func TestCreateDuplicateKeyConflicts(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePermissionInput{Key: "invoice.read"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreatePermissionInput{Key: "invoice.read"})
	require.ErrorIs(t, err, authz.ErrConflict)
}

func TestDeleteCascadeNotifiesAffectedRoles(t *testing.T) {
	svc, repo, pub := newCatalogService(t)
	ctx := context.Background()

	perm, err := svc.Create(ctx, CreatePermissionInput{Key: "product.read"})
	require.NoError(t, err)
	repo.cascades[perm.ID] = CascadeResult{AffectedRoleIDs: []int64{1, 3}}

	require.NoError(t, svc.Delete(ctx, perm.ID))
	require.ElementsMatch(t, []int64{1, 3}, pub.roleEvents)

	keys, err := svc.Keys(ctx)
	require.NoError(t, err)
	require.False(t, keys.Has("product.read"), "deletion must invalidate the cached catalog")
}

func TestDeleteUnknownPermission(t *testing.T) {
	svc, _, _ := newCatalogService(t)

	err := svc.Delete(context.Background(), 99)
	require.ErrorIs(t, err, authz.ErrNotFound)
}

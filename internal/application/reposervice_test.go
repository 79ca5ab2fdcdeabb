package application_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgpanel/pkgpanel/internal/application"
	"github.com/pkgpanel/pkgpanel/internal/domain/model"
	"github.com/pkgpanel/pkgpanel/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockRepoStore struct {
	mu        sync.Mutex
	repos     []model.Repository
	listErr   error
	addErr    error
	removeErr error
	removed   []string
}

func (m *mockRepoStore) Add(_ context.Context, repo model.Repository) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	for _, existing := range m.repos {
		if existing.ID == repo.ID || existing.URL == repo.URL {
			return driven.ErrRepoAlreadyExists
		}
	}
	m.repos = append(m.repos, repo)
	return nil
}

func (m *mockRepoStore) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, id)
	if m.removeErr != nil {
		return m.removeErr
	}
	for i, repo := range m.repos {
		if repo.ID == id {
			m.repos = append(m.repos[:i], m.repos[i+1:]...)
			return nil
		}
	}
	return driven.ErrRepoNotFound
}

func (m *mockRepoStore) GetByID(_ context.Context, id string) (*model.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, repo := range m.repos {
		if repo.ID == id {
			r := repo
			return &r, nil
		}
	}
	return nil, nil
}

func (m *mockRepoStore) GetByURL(_ context.Context, url string) (*model.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, repo := range m.repos {
		if repo.URL == url {
			r := repo
			return &r, nil
		}
	}
	return nil, nil
}

func (m *mockRepoStore) ListAll(_ context.Context) ([]model.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]model.Repository, len(m.repos))
	copy(out, m.repos)
	return out, nil
}

type mockVisibilityStore struct {
	mu      sync.Mutex
	hidden  map[string]struct{}
	hideErr error
	showErr error
}

func newMockVisibilityStore() *mockVisibilityStore {
	return &mockVisibilityStore{hidden: map[string]struct{}{}}
}

func (m *mockVisibilityStore) Hide(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hideErr != nil {
		return m.hideErr
	}
	m.hidden[id] = struct{}{}
	return nil
}

func (m *mockVisibilityStore) Show(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.showErr != nil {
		return m.showErr
	}
	delete(m.hidden, id)
	return nil
}

func (m *mockVisibilityStore) IsHidden(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.hidden[id]
	return ok, nil
}

func (m *mockVisibilityStore) ListHidden(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.hidden))
	for id := range m.hidden {
		ids = append(ids, id)
	}
	return ids, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func userRepo(id string) model.Repository {
	return model.Repository{ID: id, DisplayName: id, URL: "https://" + id + ".example.com"}
}

// --- Snapshot and visibility ---

func TestRepositoryService_Snapshot(t *testing.T) {
	repos := &mockRepoStore{repos: []model.Repository{userRepo("a"), userRepo("b")}}
	vis := newMockVisibilityStore()
	vis.hidden["b"] = struct{}{}
	svc := application.NewRepositoryService(repos, vis, discardLogger())

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.UserRepositories, 2)
	assert.True(t, snap.IsHidden("b"))
	assert.False(t, snap.IsHidden("a"))
}

func TestRepositoryService_HideShowHide_RoundTrip(t *testing.T) {
	repos := &mockRepoStore{repos: []model.Repository{userRepo("a")}}
	vis := newMockVisibilityStore()
	svc := application.NewRepositoryService(repos, vis, discardLogger())
	ctx := context.Background()

	require.NoError(t, svc.SetVisibility(ctx, "a", false))
	require.NoError(t, svc.SetVisibility(ctx, "a", true))
	require.NoError(t, svc.SetVisibility(ctx, "a", false))

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"a": {}}, snap.HiddenIDs)
}

func TestRepositoryService_HideAlreadyHidden_NoDuplicate(t *testing.T) {
	repos := &mockRepoStore{repos: []model.Repository{userRepo("a")}}
	vis := newMockVisibilityStore()
	svc := application.NewRepositoryService(repos, vis, discardLogger())
	ctx := context.Background()

	require.NoError(t, svc.SetVisibility(ctx, "a", false))
	require.NoError(t, svc.SetVisibility(ctx, "a", false))

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.HiddenIDs, 1)
}

func TestRepositoryService_ShowNotHidden_NoOp(t *testing.T) {
	repos := &mockRepoStore{repos: []model.Repository{userRepo("a")}}
	vis := newMockVisibilityStore()
	svc := application.NewRepositoryService(repos, vis, discardLogger())
	ctx := context.Background()

	require.NoError(t, svc.SetVisibility(ctx, "a", true))

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.HiddenIDs)
}

func TestRepositoryService_HideFailure_RollsBack(t *testing.T) {
	// Scenario: one user repository "a", empty hidden set. Hiding "a"
	// shows the optimistic state; the store failure reverts it exactly.
	repos := &mockRepoStore{repos: []model.Repository{userRepo("a")}}
	vis := newMockVisibilityStore()
	svc := application.NewRepositoryService(repos, vis, discardLogger())
	ctx := context.Background()

	before, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Empty(t, before.HiddenIDs)

	vis.hideErr = errors.New("backend down")
	err = svc.SetVisibility(ctx, "a", false)
	require.Error(t, err)

	after, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, after.HiddenIDs, "hidden set must revert to its pre-mutation value")
	assert.Equal(t, before.UserRepositories, after.UserRepositories)
}

func TestRepositoryService_HideBuiltin(t *testing.T) {
	repos := &mockRepoStore{}
	vis := newMockVisibilityStore()
	svc := application.NewRepositoryService(repos, vis, discardLogger())
	ctx := context.Background()

	// Built-ins can be hidden even though they are never in the user list.
	require.NoError(t, svc.SetVisibility(ctx, model.OfficialRepoID, false))

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.IsHidden(model.OfficialRepoID))
}

// --- Removal ---

func TestRepositoryService_Remove_PreservesOrder(t *testing.T) {
	repos := &mockRepoStore{repos: []model.Repository{userRepo("a"), userRepo("b"), userRepo("c")}}
	vis := newMockVisibilityStore()
	svc := application.NewRepositoryService(repos, vis, discardLogger())
	ctx := context.Background()

	require.NoError(t, svc.Remove(ctx, "b"))

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.UserRepositories, 2)
	assert.Equal(t, "a", snap.UserRepositories[0].ID)
	assert.Equal(t, "c", snap.UserRepositories[1].ID)
}

func TestRepositoryService_Remove_FailureReconciles(t *testing.T) {
	repos := &mockRepoStore{repos: []model.Repository{userRepo("a")}}
	vis := newMockVisibilityStore()
	svc := application.NewRepositoryService(repos, vis, discardLogger())
	ctx := context.Background()

	_, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	repos.removeErr = errors.New("backend down")
	err = svc.Remove(ctx, "a")
	require.Error(t, err)

	// Remove has no rollback; the cache reconciles by re-fetching the
	// authoritative state, in which "a" still exists.
	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.UserRepositories, 1)
	assert.Equal(t, "a", snap.UserRepositories[0].ID)
}

func TestRepositoryService_Remove_Builtin(t *testing.T) {
	repos := &mockRepoStore{repos: []model.Repository{userRepo("a")}}
	vis := newMockVisibilityStore()
	svc := application.NewRepositoryService(repos, vis, discardLogger())
	ctx := context.Background()

	for _, id := range []string{model.OfficialRepoID, model.CuratedRepoID} {
		err := svc.Remove(ctx, id)
		assert.True(t, errors.Is(err, driven.ErrBuiltinRepo))
	}

	// The removal path never reached the store.
	assert.Empty(t, repos.removed)
}

// --- Row derivation ---

func TestRows(t *testing.T) {
	snap := &model.RepositorySnapshot{
		UserRepositories: []model.Repository{userRepo("a"), userRepo("b")},
		HiddenIDs: map[string]struct{}{
			"b":                   {},
			model.CuratedRepoID:   {},
			"ghost-of-removed-id": {}, // inert: matches no row
		},
	}

	rows := application.Rows(snap)
	require.Len(t, rows, 4)

	assert.Equal(t, model.OfficialRepoID, rows[0].ID)
	assert.True(t, rows[0].Builtin)
	assert.False(t, rows[0].Hidden)

	assert.Equal(t, model.CuratedRepoID, rows[1].ID)
	assert.True(t, rows[1].Builtin)
	assert.True(t, rows[1].Hidden)

	assert.Equal(t, "a", rows[2].ID)
	assert.False(t, rows[2].Builtin)
	assert.False(t, rows[2].Hidden)

	assert.Equal(t, "b", rows[3].ID)
	assert.True(t, rows[3].Hidden)
}

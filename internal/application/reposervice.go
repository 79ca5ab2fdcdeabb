package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkgpanel/pkgpanel/internal/domain/model"
	"github.com/pkgpanel/pkgpanel/internal/domain/port/driven"
)

// RepositoryService owns the repository list snapshot and dispatches the
// two locally-predictable mutations (remove, show/hide) with optimistic
// cache updates. All other mutations (add, import) go through their own
// services and reconcile by invalidating the cache.
type RepositoryService struct {
	repos      driven.RepoStore
	visibility driven.VisibilityStore
	cache      *SnapshotCache
	logger     *slog.Logger
}

// NewRepositoryService creates a RepositoryService with an unloaded cache.
func NewRepositoryService(repos driven.RepoStore, visibility driven.VisibilityStore, logger *slog.Logger) *RepositoryService {
	s := &RepositoryService{
		repos:      repos,
		visibility: visibility,
		logger:     logger,
	}
	s.cache = NewSnapshotCache(s.fetchSnapshot)
	return s
}

// fetchSnapshot assembles the authoritative snapshot from the stores.
func (s *RepositoryService) fetchSnapshot(ctx context.Context) (*model.RepositorySnapshot, error) {
	repos, err := s.repos.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch repositories: %w", err)
	}

	hidden, err := s.visibility.ListHidden(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch hidden set: %w", err)
	}

	hiddenIDs := make(map[string]struct{}, len(hidden))
	for _, id := range hidden {
		hiddenIDs[id] = struct{}{}
	}

	return &model.RepositorySnapshot{
		UserRepositories: repos,
		HiddenIDs:        hiddenIDs,
	}, nil
}

// Snapshot returns the current repository snapshot, reading through the
// cache. Optimistic state from a pending mutation is visible here until
// the mutation settles.
func (s *RepositoryService) Snapshot(ctx context.Context) (*model.RepositorySnapshot, error) {
	return s.cache.Read(ctx)
}

// Invalidate discards the cached snapshot. Exposed for the services that
// mutate repository state outside this dispatcher.
func (s *RepositoryService) Invalidate() {
	s.cache.Invalidate()
}

// Remove deletes a user repository. The entry is dropped from the cached
// snapshot optimistically before the store call is issued; remaining
// entries keep their relative order. Built-in repositories are never
// removable.
//
// A failed remove is logged and returned but the optimistic state is not
// rolled back; the invalidate-refetch cycle reconciles the cache against
// the store, which remains the source of truth.
func (s *RepositoryService) Remove(ctx context.Context, id string) error {
	if model.IsBuiltinID(id) {
		return fmt.Errorf("remove repository %s: %w", id, driven.ErrBuiltinRepo)
	}

	s.cache.Patch(func(snap *model.RepositorySnapshot) {
		kept := snap.UserRepositories[:0]
		for _, repo := range snap.UserRepositories {
			if repo.ID != id {
				kept = append(kept, repo)
			}
		}
		snap.UserRepositories = kept
	})

	if err := s.repos.Remove(ctx, id); err != nil {
		s.logger.Error("remove repository failed", "id", id, "error", err)
		s.cache.Invalidate()
		return err
	}

	s.cache.Invalidate()
	s.logger.Info("repository removed", "id", id)
	return nil
}

// SetVisibility hides or shows a repository. The predicted hidden set is
// installed optimistically; on store failure the captured pre-mutation
// snapshot is restored exactly. Hiding an already-hidden id and showing an
// id that is not hidden are set no-ops.
func (s *RepositoryService) SetVisibility(ctx context.Context, id string, shown bool) error {
	rollback := s.cache.Patch(func(snap *model.RepositorySnapshot) {
		if shown {
			delete(snap.HiddenIDs, id)
		} else if !snap.IsHidden(id) {
			snap.HiddenIDs[id] = struct{}{}
		}
	})

	var err error
	if shown {
		err = s.visibility.Show(ctx, id)
	} else {
		err = s.visibility.Hide(ctx, id)
	}

	if err != nil {
		rollback()
		s.logger.Error("set repository visibility failed", "id", id, "shown", shown, "error", err)
		return err
	}

	s.cache.Invalidate()
	s.logger.Info("repository visibility changed", "id", id, "shown", shown)
	return nil
}

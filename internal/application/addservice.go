package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkgpanel/pkgpanel/internal/domain/model"
	"github.com/pkgpanel/pkgpanel/internal/domain/port/driven"
)

// AddService runs the add-repository flow: fetch the remote index to learn
// the repository's declared id and name, reject duplicates, persist, and
// invalidate the snapshot cache. It tracks whether a flow is in progress
// so deep-link intake can apply its reentrancy guard.
type AddService struct {
	repos      driven.RepoStore
	index      driven.IndexClient
	invalidate func()
	logger     *slog.Logger

	mu      sync.Mutex
	active  int
	settled chan struct{}
}

// NewAddService creates an AddService. invalidate is called after every
// successful add to force a reconciling snapshot re-fetch.
func NewAddService(repos driven.RepoStore, index driven.IndexClient, invalidate func(), logger *slog.Logger) *AddService {
	return &AddService{
		repos:      repos,
		index:      index,
		invalidate: invalidate,
		logger:     logger,
		settled:    make(chan struct{}, 1),
	}
}

// InProgress reports whether an add flow is currently running.
func (s *AddService) InProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active > 0
}

func (s *AddService) begin() {
	s.mu.Lock()
	s.active++
	s.mu.Unlock()
}

func (s *AddService) end() {
	s.mu.Lock()
	s.active--
	idle := s.active == 0
	s.mu.Unlock()

	if idle {
		select {
		case s.settled <- struct{}{}:
		default:
		}
	}
}

// Settled returns a channel signaled whenever the last in-progress add flow
// completes, regardless of which caller started it. The channel holds one
// pending notification.
func (s *AddService) Settled() <-chan struct{} {
	return s.settled
}

// Add fetches the index at rawURL and registers it as a user repository.
// Returns ErrBuiltinRepo when the URL or declared id belongs to a built-in
// repository and ErrRepoAlreadyExists when it is already registered.
func (s *AddService) Add(ctx context.Context, rawURL string, headers map[string]string) (*model.Repository, error) {
	s.begin()
	defer s.end()

	if model.IsBuiltinURL(rawURL) {
		return nil, fmt.Errorf("add repository %s: %w", rawURL, driven.ErrBuiltinRepo)
	}

	if existing, err := s.repos.GetByURL(ctx, rawURL); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("add repository %s: %w", rawURL, driven.ErrRepoAlreadyExists)
	}

	idx, err := s.index.FetchIndex(ctx, rawURL, headers)
	if err != nil {
		s.logger.Error("fetch repository index failed", "url", rawURL, "error", err)
		return nil, err
	}

	id := idx.ID
	if id == "" {
		// Indexes without a declared id still get a stable handle.
		id = uuid.NewString()
	}

	if model.IsBuiltinID(id) {
		return nil, fmt.Errorf("add repository %s: %w", rawURL, driven.ErrBuiltinRepo)
	}

	if existing, err := s.repos.GetByID(ctx, id); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("add repository %s: id %s: %w", rawURL, id, driven.ErrRepoAlreadyExists)
	}

	repo := model.Repository{
		ID:          id,
		DisplayName: idx.Name,
		URL:         rawURL,
		Headers:     headers,
		AddedAt:     time.Now().UTC(),
	}

	if err := s.repos.Add(ctx, repo); err != nil {
		return nil, err
	}

	s.invalidate()
	s.logger.Info("repository added", "id", repo.ID, "name", repo.DisplayName, "url", repo.URL)
	return &repo, nil
}

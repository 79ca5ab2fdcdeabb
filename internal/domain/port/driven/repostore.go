package driven

import (
	"context"
	"errors"

	"github.com/pkgpanel/pkgpanel/internal/domain/model"
)

// Sentinel errors returned by RepoStore implementations and the services
// built on top of them.
var (
	// ErrRepoNotFound indicates the requested repository does not exist.
	ErrRepoNotFound = errors.New("repository not found")

	// ErrRepoAlreadyExists indicates a repository with the same id or URL
	// already exists.
	ErrRepoAlreadyExists = errors.New("repository already exists")

	// ErrBuiltinRepo indicates the operation targeted a built-in
	// repository, which can be hidden but never removed or re-added.
	ErrBuiltinRepo = errors.New("built-in repository")
)

// RepoStore defines the driven port for user-repository persistence.
// Add returns ErrRepoAlreadyExists if the id or URL is already present.
// Remove returns ErrRepoNotFound if the repository does not exist.
type RepoStore interface {
	Add(ctx context.Context, repo model.Repository) error
	Remove(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Repository, error)
	GetByURL(ctx context.Context, url string) (*model.Repository, error)
	ListAll(ctx context.Context) ([]model.Repository, error)
}

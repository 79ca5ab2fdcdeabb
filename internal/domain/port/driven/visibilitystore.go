package driven

import "context"

// VisibilityStore defines the driven port for the hidden-repository set.
// Hide and Show are idempotent: hiding an already-hidden id or showing an
// id that is not hidden is a no-op. The set may carry ids that no known
// repository has (for example after a repository is removed); such entries
// are preserved and ignored by callers.
type VisibilityStore interface {
	Hide(ctx context.Context, id string) error
	Show(ctx context.Context, id string) error
	IsHidden(ctx context.Context, id string) (bool, error)
	ListHidden(ctx context.Context) ([]string, error)
}

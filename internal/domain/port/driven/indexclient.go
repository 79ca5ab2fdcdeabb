package driven

import (
	"context"
	"errors"

	"github.com/pkgpanel/pkgpanel/internal/domain/model"
)

// ErrIndexUnreachable indicates the remote index could not be fetched or
// did not parse as a repository index.
var ErrIndexUnreachable = errors.New("repository index unreachable")

// IndexClient defines the driven port for fetching a remote package
// repository index. headers are sent verbatim on the request.
type IndexClient interface {
	FetchIndex(ctx context.Context, url string, headers map[string]string) (*model.RemoteIndex, error)
}

package httphandler

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/pkgpanel/pkgpanel/internal/application"
	"github.com/pkgpanel/pkgpanel/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// RepositoryResponse is the JSON representation of a user repository.
type RepositoryResponse struct {
	ID          string            `json:"id"`
	DisplayName string            `json:"display_name"`
	URL         string            `json:"url"`
	Headers     map[string]string `json:"headers,omitempty"`
	AddedAt     string            `json:"added_at"`
}

// RowResponse is one derived display row of the repositories page.
type RowResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
	Builtin     bool   `json:"builtin"`
	Hidden      bool   `json:"hidden"`
}

// RepositoriesResponse is the snapshot returned by the list endpoint.
type RepositoriesResponse struct {
	UserRepositories    []RepositoryResponse `json:"user_repositories"`
	HiddenRepositoryIDs []string             `json:"hidden_repository_ids"`
	Rows                []RowResponse        `json:"rows"`
}

// AddRepositoryRequest is the JSON body for the add and deep-link endpoints.
type AddRepositoryRequest struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

// SetVisibilityRequest is the JSON body for the visibility endpoint.
type SetVisibilityRequest struct {
	Shown bool `json:"shown"`
}

// ExportResponse is the JSON representation of a completed export.
type ExportResponse struct {
	Path string `json:"path"`
}

// ImportRequest is the JSON body for the import endpoint.
type ImportRequest struct {
	Path string `json:"path"`
}

// ImportResponse is the JSON representation of a completed import.
type ImportResponse struct {
	Added int `json:"added"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toRepositoryResponse converts a domain Repository to its JSON representation.
func toRepositoryResponse(repo model.Repository) RepositoryResponse {
	return RepositoryResponse{
		ID:          repo.ID,
		DisplayName: repo.DisplayName,
		URL:         repo.URL,
		Headers:     repo.Headers,
		AddedAt:     repo.AddedAt.UTC().Format(time.RFC3339),
	}
}

// toRepositoriesResponse converts a snapshot to the list endpoint response.
// Hidden ids are sorted for stable output.
func toRepositoriesResponse(snap *model.RepositorySnapshot) RepositoriesResponse {
	userRepos := make([]RepositoryResponse, 0, len(snap.UserRepositories))
	for _, repo := range snap.UserRepositories {
		userRepos = append(userRepos, toRepositoryResponse(repo))
	}

	hiddenIDs := make([]string, 0, len(snap.HiddenIDs))
	for id := range snap.HiddenIDs {
		hiddenIDs = append(hiddenIDs, id)
	}
	sort.Strings(hiddenIDs)

	rows := application.Rows(snap)
	rowResponses := make([]RowResponse, 0, len(rows))
	for _, row := range rows {
		rowResponses = append(rowResponses, RowResponse{
			ID:          row.ID,
			DisplayName: row.DisplayName,
			URL:         row.URL,
			Builtin:     row.Builtin,
			Hidden:      row.Hidden,
		})
	}

	return RepositoriesResponse{
		UserRepositories:    userRepos,
		HiddenRepositoryIDs: hiddenIDs,
		Rows:                rowResponses,
	}
}

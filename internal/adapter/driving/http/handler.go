// Package httphandler is the HTTP driving adapter: the loopback REST API
// the desktop shell calls for repository management.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/pkgpanel/pkgpanel/internal/application"
	"github.com/pkgpanel/pkgpanel/internal/domain/model"
	"github.com/pkgpanel/pkgpanel/internal/domain/port/driven"
)

// Handler serves the REST API.
type Handler struct {
	repoSvc     *application.RepositoryService
	addSvc      *application.AddService
	transferSvc *application.TransferService
	deepLinks   *application.DeepLinkQueue
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	repoSvc *application.RepositoryService,
	addSvc *application.AddService,
	transferSvc *application.TransferService,
	deepLinks *application.DeepLinkQueue,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		repoSvc:     repoSvc,
		addSvc:      addSvc,
		transferSvc: transferSvc,
		deepLinks:   deepLinks,
		logger:      logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/repositories", h.ListRepositories)
	mux.HandleFunc("POST /api/v1/repositories", h.AddRepository)
	mux.HandleFunc("DELETE /api/v1/repositories/{id}", h.RemoveRepository)
	mux.HandleFunc("PUT /api/v1/repositories/{id}/visibility", h.SetVisibility)
	mux.HandleFunc("POST /api/v1/repositories/export", h.ExportRepositories)
	mux.HandleFunc("POST /api/v1/repositories/import", h.ImportRepositories)
	mux.HandleFunc("POST /api/v1/deep-links/add-repository", h.OfferDeepLink)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// ListRepositories returns the current snapshot: user repositories, the
// hidden id set, and the derived display rows.
func (h *Handler) ListRepositories(w http.ResponseWriter, r *http.Request) {
	snap, err := h.repoSvc.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to read repository snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toRepositoriesResponse(snap))
}

// AddRepository registers a new user repository by fetching its index.
func (h *Handler) AddRepository(w http.ResponseWriter, r *http.Request) {
	var req AddRepositoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !isValidIndexURL(req.URL) {
		writeError(w, http.StatusBadRequest, "invalid repository url: expected http(s) url")
		return
	}

	repo, err := h.addSvc.Add(r.Context(), req.URL, req.Headers)
	if err != nil {
		switch {
		case errors.Is(err, driven.ErrBuiltinRepo):
			writeError(w, http.StatusConflict, "built-in repository cannot be added")
		case errors.Is(err, driven.ErrRepoAlreadyExists):
			writeError(w, http.StatusConflict, "repository already exists")
		case errors.Is(err, driven.ErrIndexUnreachable):
			writeError(w, http.StatusBadGateway, "repository index unreachable")
		default:
			h.logger.Error("failed to add repository", "url", req.URL, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toRepositoryResponse(*repo))
}

// RemoveRepository removes a user repository. Built-in repositories are
// never removable.
func (h *Handler) RemoveRepository(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.repoSvc.Remove(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, driven.ErrBuiltinRepo):
			writeError(w, http.StatusForbidden, "built-in repository cannot be removed")
		case errors.Is(err, driven.ErrRepoNotFound):
			writeError(w, http.StatusNotFound, "repository not found")
		default:
			h.logger.Error("failed to remove repository", "id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetVisibility hides or shows a repository (built-in or user).
func (h *Handler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req SetVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.repoSvc.SetVisibility(r.Context(), id, req.Shown); err != nil {
		h.logger.Error("failed to set repository visibility", "id", id, "shown", req.Shown, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExportRepositories writes the user repository list to the export
// directory and returns the written path.
func (h *Handler) ExportRepositories(w http.ResponseWriter, r *http.Request) {
	path, err := h.transferSvc.Export(r.Context())
	if err != nil {
		h.logger.Error("failed to export repositories", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ExportResponse{Path: path})
}

// ImportRepositories reads a repositories document and registers every
// entry not already present.
func (h *Handler) ImportRepositories(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	added, err := h.transferSvc.Import(r.Context(), req.Path)
	if err != nil {
		h.logger.Error("failed to import repositories", "path", req.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{Added: added})
}

// OfferDeepLink buffers an OS-delivered add-repository request for intake.
// The single-slot queue means a newer request replaces an unconsumed one.
func (h *Handler) OfferDeepLink(w http.ResponseWriter, r *http.Request) {
	var req AddRepositoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !isValidIndexURL(req.URL) {
		// A malformed deep link is "nothing to do", not a server error.
		writeError(w, http.StatusBadRequest, "invalid repository url")
		return
	}

	h.deepLinks.Offer(model.AddRequest{URL: req.URL, Headers: req.Headers})
	w.WriteHeader(http.StatusAccepted)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// isValidIndexURL validates that raw parses as an absolute http(s) URL.
func isValidIndexURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

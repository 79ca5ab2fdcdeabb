package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"github.com/pkgpanel/pkgpanel/internal/domain/model"
	"github.com/pkgpanel/pkgpanel/internal/domain/port/driven"
)

// TransferService exports the user repository list to a JSON document and
// imports such documents back, skipping entries already registered.
type TransferService struct {
	repos      driven.RepoStore
	exportDir  string
	invalidate func()
	logger     *slog.Logger
}

// NewTransferService creates a TransferService writing exports under
// exportDir. invalidate is called after an import that added entries.
func NewTransferService(repos driven.RepoStore, exportDir string, invalidate func(), logger *slog.Logger) *TransferService {
	return &TransferService{
		repos:      repos,
		exportDir:  exportDir,
		invalidate: invalidate,
		logger:     logger,
	}
}

// repositoriesDocument is the export file format. The same shape is
// accepted on import.
type repositoriesDocument struct {
	Repositories []exportedRepository `json:"repositories"`
}

type exportedRepository struct {
	ID          string            `json:"id,omitempty"`
	DisplayName string            `json:"display_name"`
	URL         string            `json:"url"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// Export writes all user repositories to a timestamped JSON file in the
// export directory and returns the written path. The write is atomic
// (write-then-rename) so a crash never leaves a torn file.
func (s *TransferService) Export(ctx context.Context) (string, error) {
	repos, err := s.repos.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("export repositories: %w", err)
	}

	doc := repositoriesDocument{Repositories: make([]exportedRepository, 0, len(repos))}
	for _, repo := range repos {
		doc.Repositories = append(doc.Repositories, exportedRepository{
			ID:          repo.ID,
			DisplayName: repo.DisplayName,
			URL:         repo.URL,
			Headers:     repo.Headers,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}

	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(s.exportDir, fmt.Sprintf("repositories-%s.json", time.Now().UTC().Format("20060102-150405")))
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("write export %s: %w", path, err)
	}

	s.logger.Info("repositories exported", "path", path, "count", len(doc.Repositories))
	return path, nil
}

// Import reads a repositories document from path and registers every entry
// not already present. Duplicates (by URL or id) and built-in entries are
// skipped, not errors. Returns the number of repositories added.
func (s *TransferService) Import(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read import %s: %w", path, err)
	}

	var doc repositoriesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("parse import %s: %w", path, err)
	}

	var added int
	for _, entry := range doc.Repositories {
		if entry.URL == "" {
			continue
		}
		repo, err := s.importOne(ctx, entry)
		if err != nil {
			return added, err
		}
		if repo != nil {
			added++
		}
	}

	if added > 0 {
		s.invalidate()
	}

	s.logger.Info("repositories imported", "path", path, "added", added, "total", len(doc.Repositories))
	return added, nil
}

// importOne registers a single entry, returning nil, nil when it is skipped
// as a duplicate or built-in.
func (s *TransferService) importOne(ctx context.Context, entry exportedRepository) (*model.Repository, error) {
	if model.IsBuiltinURL(entry.URL) || model.IsBuiltinID(entry.ID) {
		return nil, nil
	}

	if existing, err := s.repos.GetByURL(ctx, entry.URL); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, nil
	}

	if entry.ID != "" {
		if existing, err := s.repos.GetByID(ctx, entry.ID); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, nil
		}
	}

	repo := model.Repository{
		ID:          entry.ID,
		DisplayName: entry.DisplayName,
		URL:         entry.URL,
		Headers:     entry.Headers,
		AddedAt:     time.Now().UTC(),
	}
	if repo.ID == "" {
		repo.ID = uuid.NewString()
	}
	if repo.DisplayName == "" {
		repo.DisplayName = repo.URL
	}

	if err := s.repos.Add(ctx, repo); err != nil {
		// Concurrent add between the duplicate check and the insert.
		if errors.Is(err, driven.ErrRepoAlreadyExists) {
			return nil, nil
		}
		return nil, err
	}

	return &repo, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pkgpanel/pkgpanel/internal/domain/model"
	"github.com/pkgpanel/pkgpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RepoStore = (*RepoRepo)(nil)

// RepoRepo is the SQLite implementation of the RepoStore port interface.
type RepoRepo struct {
	db *DB
}

// NewRepoRepo creates a new RepoRepo backed by the given DB.
func NewRepoRepo(db *DB) *RepoRepo {
	return &RepoRepo{db: db}
}

// Add inserts a new user repository. Returns ErrRepoAlreadyExists if a
// repository with the same id or URL is already present.
func (r *RepoRepo) Add(ctx context.Context, repo model.Repository) error {
	const query = `INSERT INTO repositories (id, display_name, url, headers, added_at) VALUES (?, ?, ?, ?, ?)`

	addedAt := repo.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}

	headers, err := encodeHeaders(repo.Headers)
	if err != nil {
		return fmt.Errorf("add repository %s: %w", repo.ID, err)
	}

	_, err = r.db.Writer.ExecContext(ctx, query,
		repo.ID, repo.DisplayName, repo.URL, headers, addedAt.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("add repository %s: %w", repo.ID, driven.ErrRepoAlreadyExists)
		}
		return fmt.Errorf("add repository %s: %w", repo.ID, err)
	}

	return nil
}

// Remove deletes a user repository by id. Returns ErrRepoNotFound if the
// repository does not exist. The hidden set is left untouched; a hidden
// entry for a removed id is inert.
func (r *RepoRepo) Remove(ctx context.Context, id string) error {
	const query = `DELETE FROM repositories WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("remove repository %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("remove repository %s: %w", id, driven.ErrRepoNotFound)
	}

	return nil
}

// GetByID retrieves a repository by id. Returns nil, nil if it does not exist.
func (r *RepoRepo) GetByID(ctx context.Context, id string) (*model.Repository, error) {
	const query = `SELECT id, display_name, url, headers, added_at FROM repositories WHERE id = ?`

	repo, err := scanRepository(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get repository %s: %w", id, err)
	}

	return repo, nil
}

// GetByURL retrieves a repository by its index URL. Returns nil, nil if no
// repository has that URL.
func (r *RepoRepo) GetByURL(ctx context.Context, url string) (*model.Repository, error) {
	const query = `SELECT id, display_name, url, headers, added_at FROM repositories WHERE url = ?`

	repo, err := scanRepository(r.db.Reader.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get repository by url %s: %w", url, err)
	}

	return repo, nil
}

// ListAll returns all user repositories in the order they were added.
func (r *RepoRepo) ListAll(ctx context.Context) ([]model.Repository, error) {
	const query = `SELECT id, display_name, url, headers, added_at FROM repositories ORDER BY added_at, id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repos = append(repos, *repo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repositories: %w", err)
	}

	return repos, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRepository(s scanner) (*model.Repository, error) {
	var repo model.Repository
	var headers, addedAt string

	err := s.Scan(&repo.ID, &repo.DisplayName, &repo.URL, &headers, &addedAt)
	if err != nil {
		return nil, err
	}

	repo.Headers, err = decodeHeaders(headers)
	if err != nil {
		return nil, fmt.Errorf("parse headers: %w", err)
	}

	repo.AddedAt, err = parseTime(addedAt)
	if err != nil {
		return nil, fmt.Errorf("parse added_at: %w", err)
	}

	return &repo, nil
}

func encodeHeaders(headers map[string]string) (string, error) {
	if len(headers) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(headers)
	if err != nil {
		return "", fmt.Errorf("encode headers: %w", err)
	}
	return string(data), nil
}

func decodeHeaders(raw string) (map[string]string, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var headers map[string]string
	if err := json.Unmarshal([]byte(raw), &headers); err != nil {
		return nil, err
	}
	return headers, nil
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}

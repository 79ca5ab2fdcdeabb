package sqlite

import (
	"context"
	"fmt"

	"github.com/pkgpanel/pkgpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.VisibilityStore = (*VisibilityRepo)(nil)

// VisibilityRepo is the SQLite implementation of the VisibilityStore port
// interface. It manages the hidden-repository id set.
type VisibilityRepo struct {
	db *DB
}

// NewVisibilityRepo creates a new VisibilityRepo backed by the given DB.
func NewVisibilityRepo(db *DB) *VisibilityRepo {
	return &VisibilityRepo{db: db}
}

// Hide adds a repository id to the hidden set. Idempotent — silently
// succeeds if the id is already hidden.
func (r *VisibilityRepo) Hide(ctx context.Context, id string) error {
	const query = `INSERT OR IGNORE INTO hidden_repositories (repo_id) VALUES (?)`
	_, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("hide repository %s: %w", id, err)
	}
	return nil
}

// Show removes a repository id from the hidden set. No-op if the id is not
// hidden.
func (r *VisibilityRepo) Show(ctx context.Context, id string) error {
	const query = `DELETE FROM hidden_repositories WHERE repo_id = ?`
	_, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("show repository %s: %w", id, err)
	}
	return nil
}

// IsHidden returns whether the given repository id is currently hidden.
func (r *VisibilityRepo) IsHidden(ctx context.Context, id string) (bool, error) {
	const query = `SELECT COUNT(*) FROM hidden_repositories WHERE repo_id = ?`
	var count int
	if err := r.db.Reader.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		return false, fmt.Errorf("check hidden repository %s: %w", id, err)
	}
	return count > 0, nil
}

// ListHidden returns all hidden repository ids, oldest first.
func (r *VisibilityRepo) ListHidden(ctx context.Context) ([]string, error) {
	const query = `SELECT repo_id FROM hidden_repositories ORDER BY hidden_at, repo_id`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list hidden repositories: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan hidden repository: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hidden repositories: %w", err)
	}
	return ids, nil
}

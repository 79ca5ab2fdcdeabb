package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkgpanel/pkgpanel/internal/domain/model"
	"github.com/pkgpanel/pkgpanel/internal/domain/port/driven"
)

func makeRepo(id, name, url string, addedAt time.Time) model.Repository {
	return model.Repository{
		ID:          id,
		DisplayName: name,
		URL:         url,
		AddedAt:     addedAt,
	}
}

var baseTime = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestRepoRepo_Add(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	r := makeRepo("com.example.repo", "Example", "https://example.com/index.json", baseTime)
	r.Headers = map[string]string{"Authorization": "Bearer tok"}
	require.NoError(t, repo.Add(ctx, r))

	got, err := repo.GetByID(ctx, "com.example.repo")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "com.example.repo", got.ID)
	assert.Equal(t, "Example", got.DisplayName)
	assert.Equal(t, "https://example.com/index.json", got.URL)
	assert.Equal(t, map[string]string{"Authorization": "Bearer tok"}, got.Headers)
	assert.True(t, got.AddedAt.Equal(baseTime))
}

func TestRepoRepo_Add_DuplicateID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	r := makeRepo("com.example.repo", "Example", "https://example.com/index.json", baseTime)
	require.NoError(t, repo.Add(ctx, r))

	r.URL = "https://example.com/other.json"
	err := repo.Add(ctx, r)
	assert.True(t, errors.Is(err, driven.ErrRepoAlreadyExists))
}

func TestRepoRepo_Add_DuplicateURL(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, makeRepo("com.example.one", "One", "https://example.com/index.json", baseTime)))

	err := repo.Add(ctx, makeRepo("com.example.two", "Two", "https://example.com/index.json", baseTime))
	assert.True(t, errors.Is(err, driven.ErrRepoAlreadyExists))
}

func TestRepoRepo_Remove(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, makeRepo("com.example.repo", "Example", "https://example.com/index.json", baseTime)))

	require.NoError(t, repo.Remove(ctx, "com.example.repo"))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRepoRepo_Remove_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	err := repo.Remove(ctx, "com.example.missing")
	assert.True(t, errors.Is(err, driven.ErrRepoNotFound))
}

func TestRepoRepo_ListAll_AddOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, makeRepo("com.example.c", "C", "https://c.example.com", baseTime.Add(2*time.Hour))))
	require.NoError(t, repo.Add(ctx, makeRepo("com.example.a", "A", "https://a.example.com", baseTime)))
	require.NoError(t, repo.Add(ctx, makeRepo("com.example.b", "B", "https://b.example.com", baseTime.Add(time.Hour))))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	// Ordered by added_at, not id.
	assert.Equal(t, "com.example.a", all[0].ID)
	assert.Equal(t, "com.example.b", all[1].ID)
	assert.Equal(t, "com.example.c", all[2].ID)
}

func TestRepoRepo_GetByURL(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, makeRepo("com.example.repo", "Example", "https://example.com/index.json", baseTime)))

	got, err := repo.GetByURL(ctx, "https://example.com/index.json")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "com.example.repo", got.ID)

	missing, err := repo.GetByURL(ctx, "https://example.com/nope.json")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepoRepo_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	got, err := repo.GetByID(ctx, "com.example.missing")
	require.NoError(t, err)
	assert.Nil(t, got, "non-existent repo should return nil without error")
}

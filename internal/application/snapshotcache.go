// Package application contains use-case orchestration services.
package application

import (
	"context"
	"sync"

	"github.com/pkgpanel/pkgpanel/internal/domain/model"
)

// fetchFunc retrieves the authoritative repository snapshot from the stores.
type fetchFunc func(ctx context.Context) (*model.RepositorySnapshot, error)

// SnapshotCache holds the last known authoritative repository snapshot and
// supports optimistic local mutation with rollback.
//
// The state machine per mutation is: committed snapshot -> optimistic patch
// installed (pending state visible to readers) -> either Invalidate on
// success (forcing a reconciling re-fetch) or the rollback closure on
// failure (restoring the captured pre-patch snapshot).
//
// A generation counter stands in for fetch cancellation: Patch and
// Invalidate bump it, and a fetch started under an older generation
// discards its result instead of clobbering the newer state.
type SnapshotCache struct {
	mu         sync.Mutex
	committed  *model.RepositorySnapshot // nil until first successful fetch
	generation uint64
	fetch      fetchFunc
}

// NewSnapshotCache creates an unloaded cache that populates itself through
// fetch on first read.
func NewSnapshotCache(fetch fetchFunc) *SnapshotCache {
	return &SnapshotCache{fetch: fetch}
}

// Read returns the cached snapshot, fetching the authoritative state when
// the cache is unloaded. The returned snapshot is a private copy; callers
// may inspect it freely. Concurrent fetches are last-write-wins, which is
// acceptable because fetching is read-only against the stores.
func (c *SnapshotCache) Read(ctx context.Context) (*model.RepositorySnapshot, error) {
	c.mu.Lock()
	if c.committed != nil {
		snap := c.committed.Clone()
		c.mu.Unlock()
		return snap, nil
	}
	gen := c.generation
	c.mu.Unlock()

	fetched, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A patch or invalidate landed while the fetch was in flight; the
	// fetched value is stale and must not overwrite the newer state.
	if c.generation == gen {
		c.committed = fetched
	}
	if c.committed != nil {
		return c.committed.Clone(), nil
	}
	return fetched.Clone(), nil
}

// Loaded reports whether the cache currently holds a snapshot.
func (c *SnapshotCache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed != nil
}

// Patch cancels any in-flight fetch, applies fn to a copy of the current
// snapshot, installs the copy as the visible state, and returns a rollback
// closure restoring the pre-patch snapshot. Patch on an unloaded cache is
// a no-op returning a no-op rollback: there is no predicted state to show
// and the next read fetches authoritative state anyway.
func (c *SnapshotCache) Patch(fn func(*model.RepositorySnapshot)) (rollback func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	prev := c.committed
	if prev == nil {
		return func() {}
	}

	next := prev.Clone()
	fn(next)
	c.committed = next

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.generation++
		c.committed = prev
	}
}

// Invalidate discards the cached snapshot, forcing a re-fetch on the next
// read, and cancels any in-flight fetch.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.committed = nil
}

package pipeline

import (
	"context"

	"github.com/storeport/migrator/internal/domain/migration"
)

// ParentFetchFunc fetches a parent record from the source provider.
type ParentFetchFunc func(ctx context.Context, parentID string) (*migration.ParentRecord, error)

type cacheEntry struct {
	record *migration.ParentRecord
	err    error
}

// ReferenceCache memoizes parent lookups so that repeated records sharing a
// parent cause at most one remote fetch per unique parent id per run.
// Fetch failures are memoized too and propagated to every caller.
//
// The cache is exclusively owned by a single run and is never accessed
// concurrently, so no locking is needed.
type ReferenceCache struct {
	fetch   ParentFetchFunc
	entries map[string]cacheEntry
	fetches int
}

// NewReferenceCache creates a cache backed by the given fetch function.
func NewReferenceCache(fetch ParentFetchFunc) *ReferenceCache {
	return &ReferenceCache{
		fetch:   fetch,
		entries: make(map[string]cacheEntry),
	}
}

// Resolve returns the parent record for parentID, fetching it remotely on
// first use only.
func (c *ReferenceCache) Resolve(ctx context.Context, parentID string) (*migration.ParentRecord, error) {
	if entry, ok := c.entries[parentID]; ok {
		return entry.record, entry.err
	}
	c.fetches++
	record, err := c.fetch(ctx, parentID)
	c.entries[parentID] = cacheEntry{record: record, err: err}
	return record, err
}

// Fetches returns the number of remote fetches performed so far.
func (c *ReferenceCache) Fetches() int {
	return c.fetches
}

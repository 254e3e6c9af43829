// Package cache holds the volatile fallback cache: a process-local
// snapshot of ingested documents used as a read fallback when the
// durable record store is unreachable. It is best-effort availability
// only; the cache is empty after every restart and entries are never
// updated after creation, so reads are stale-but-available snapshots,
// not a source of truth.
package cache

import (
	"sort"
	"sync"
	"time"
)

// Entry mirrors the subset of a document record written at ingestion
// time, before extraction may have completed in the background.
type Entry struct {
	DocumentID string
	OwnerID    string
	Filename   string
	BlobPath   string
	Text       string
	CreatedAt  time.Time
}

// Cache is a lock-guarded two-level map: ownerId -> documentId -> entry.
// It is owned by whoever constructs it and injected into the
// orchestrator; Put and Get never fail.
type Cache struct {
	mu     sync.RWMutex
	owners map[string]map[string]Entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{owners: make(map[string]map[string]Entry)}
}

// Put stores an entry. Entries have no independent lifecycle: a second
// Put for the same key overwrites, but the pipeline only writes each
// document once.
func (c *Cache) Put(entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	docs, ok := c.owners[entry.OwnerID]
	if !ok {
		docs = make(map[string]Entry)
		c.owners[entry.OwnerID] = docs
	}
	docs[entry.DocumentID] = entry
}

// Get returns the entry for (ownerID, documentID), if present.
func (c *Cache) Get(ownerID, documentID string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.owners[ownerID][documentID]
	return entry, ok
}

// List returns the owner's entries, newest first.
func (c *Cache) List(ownerID string) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docs := c.owners[ownerID]
	entries := make([]Entry, 0, len(docs))
	for _, entry := range docs {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries
}

// Len reports the number of cached entries across all owners.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, docs := range c.owners {
		n += len(docs)
	}
	return n
}

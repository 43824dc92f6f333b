package cache

import (
    "time"

    "github.com/maypok86/otter"

    "github.com/hyperifyio/askpage/internal/dom"
)

// SnapshotCache keeps recently parsed page snapshots in memory keyed by URL.
// Snapshots are immutable so a cached document can be shared freely.
type SnapshotCache struct {
    c otter.Cache[string, *dom.Document]
}

// NewSnapshotCache returns a cache bounded to capacity entries. A positive
// ttl expires entries that long after they were stored.
func NewSnapshotCache(capacity int, ttl time.Duration) (*SnapshotCache, error) {
    if capacity <= 0 {
        capacity = 64
    }
    b := otter.MustBuilder[string, *dom.Document](capacity)
    var (
        c   otter.Cache[string, *dom.Document]
        err error
    )
    if ttl > 0 {
        c, err = b.WithTTL(ttl).Build()
    } else {
        c, err = b.Build()
    }
    if err != nil {
        return nil, err
    }
    return &SnapshotCache{c: c}, nil
}

// Get returns the snapshot stored for url.
func (s *SnapshotCache) Get(url string) (*dom.Document, bool) {
    if s == nil {
        return nil, false
    }
    return s.c.Get(url)
}

// Set stores doc under url. Nil documents are ignored.
func (s *SnapshotCache) Set(url string, doc *dom.Document) {
    if s == nil || doc == nil || url == "" {
        return
    }
    s.c.Set(url, doc)
}

// Invalidate drops the snapshot for url.
func (s *SnapshotCache) Invalidate(url string) {
    if s == nil {
        return
    }
    s.c.Delete(url)
}

// Close releases the cache's background resources.
func (s *SnapshotCache) Close() {
    if s == nil {
        return
    }
    s.c.Close()
}

package dataset

import (
	"context"
	"sync"
)

// Cache memoizes loaded datasets by resource URL. The source file is
// static, so entries never expire; invalidation happens only by starting a
// fresh Cache at session start.
type Cache struct {
	loader *Loader

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	once sync.Once
	ds   *Dataset
	err  error
}

// NewCache wraps a Loader with per-URL memoization.
func NewCache(loader *Loader) *Cache {
	return &Cache{
		loader:  loader,
		entries: make(map[string]*entry),
	}
}

// Get returns the dataset for url, loading it on first use. Concurrent
// callers for the same URL share a single load. A failed load is cached
// too: with no fallback data there is nothing useful a retry loop at this
// layer could add beyond what the loader's own retries did.
func (c *Cache) Get(ctx context.Context, url string) (*Dataset, error) {
	c.mu.Lock()
	e, ok := c.entries[url]
	if !ok {
		e = &entry{}
		c.entries[url] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.ds, e.err = c.loader.Load(ctx, url)
	})
	return e.ds, e.err
}

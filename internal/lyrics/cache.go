package lyrics

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/llehouerou/singalong/internal/lrclib"
)

// Cache stores remote synced lyrics by query, shared between lookups.
// Get reports a miss with ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (synced string, ok bool, err error)
	Set(ctx context.Context, key, synced string) error
}

// CacheKey derives the cache key of a query. Artist, title and album are
// compared case-insensitively; the duration is rounded to seconds.
func CacheKey(q lrclib.Query) string {
	secs := int(q.Duration.Round(time.Second) / time.Second)
	return strings.Join([]string{
		strings.ToLower(strings.TrimSpace(q.Artist)),
		strings.ToLower(strings.TrimSpace(q.Title)),
		strings.ToLower(strings.TrimSpace(q.Album)),
		strconv.Itoa(secs),
	}, "|")
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[key]
	return s, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key, synced string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = synced
	return nil
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Package content caches CMS-rendered marketing sections (hero, footer, FAQ)
// stale-while-revalidate: cached copies are served immediately and refreshed
// in the background. Purely a latency optimization, never a source of truth.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"giafashion/internal/api"
	"giafashion/internal/models"
	"giafashion/internal/observability"
	"giafashion/internal/store"
)

// Entry is a cached content section plus the time it was fetched.
type Entry struct {
	Section   string `json:"section"`
	Payload   string `json:"payload"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Cache serves content sections from the persisted state store.
type Cache struct {
	client *api.Client
	kv     store.Store
	logger *observability.Logger
	ttl    time.Duration

	mu           sync.Mutex
	revalidating map[string]struct{}
}

// NewCache creates a content cache with the given freshness window.
func NewCache(client *api.Client, kv store.Store, ttl time.Duration, logger *observability.Logger) *Cache {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Cache{
		client:       client,
		kv:           kv,
		logger:       logger,
		ttl:          ttl,
		revalidating: make(map[string]struct{}),
	}
}

func cacheKey(section string) string {
	return "content:" + section
}

// Get returns the section content. A cached copy is returned immediately;
// when it is older than the TTL a background revalidation replaces it for the
// next caller. A cache miss fetches synchronously.
func (c *Cache) Get(ctx context.Context, section string) (Entry, error) {
	data, ok, err := c.kv.Get(cacheKey(section))
	if err == nil && ok {
		var entry Entry
		if json.Unmarshal(data, &entry) == nil && entry.Payload != "" {
			if time.Since(entry.FetchedAt) > c.ttl {
				c.revalidateAsync(section)
			}
			return entry, nil
		}
		// corrupt cache entry: drop and refetch
		_ = c.kv.Delete(cacheKey(section))
	}

	return c.Revalidate(ctx, section)
}

// Revalidate fetches the section from the backend and replaces the cached
// copy.
func (c *Cache) Revalidate(ctx context.Context, section string) (Entry, error) {
	var res models.ContentSection
	path := fmt.Sprintf("/content/%s", section)
	if err := c.client.Do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return Entry{}, err
	}

	entry := Entry{Section: section, Payload: res.Payload, FetchedAt: time.Now()}
	data, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("encode content entry: %w", err)
	}
	if err := c.kv.Set(cacheKey(section), data); err != nil {
		// cache write failure is not fatal; the fetched content is still good
		c.logger.Warn("content cache write failed", "section", section, "error", err)
	}
	return entry, nil
}

// revalidateAsync refreshes a stale section in the background, at most one
// refresh per section at a time. Errors are logged, never surfaced: the
// caller already has a usable (stale) copy.
func (c *Cache) revalidateAsync(section string) {
	c.mu.Lock()
	if _, busy := c.revalidating[section]; busy {
		c.mu.Unlock()
		return
	}
	c.revalidating[section] = struct{}{}
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.revalidating, section)
			c.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := c.Revalidate(ctx, section); err != nil {
			c.logger.Warn("content revalidation failed", "section", section, "error", err)
		}
	}()
}

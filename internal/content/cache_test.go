package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"giafashion/internal/api"
	"giafashion/internal/models"
	"giafashion/internal/observability"
	"giafashion/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contentBackend struct {
	mu      sync.Mutex
	payload string
	calls   int
}

func (b *contentBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.calls++
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/content/hero" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Content section not found"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    models.ContentSection{Section: "hero", Payload: b.payload},
		})
	})
}

func (b *contentBackend) stats() (string, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.payload, b.calls
}

func newTestCache(t *testing.T, backend *contentBackend, ttl time.Duration) (*Cache, store.Store) {
	t.Helper()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)
	kv, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewCache(api.New(srv.URL), kv, ttl, observability.NopLogger()), kv
}

func TestGetMissFetchesAndCaches(t *testing.T) {
	backend := &contentBackend{payload: `{"headline":"v1"}`}
	cache, kv := newTestCache(t, backend, time.Minute)

	entry, err := cache.Get(context.Background(), "hero")
	require.NoError(t, err)
	assert.Equal(t, `{"headline":"v1"}`, entry.Payload)

	_, calls := backend.stats()
	assert.Equal(t, 1, calls)

	// the fetched copy is persisted for the next process
	data, ok, err := kv.Get("content:hero")
	require.NoError(t, err)
	require.True(t, ok)
	var persisted Entry
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, entry.Payload, persisted.Payload)
}

func TestGetFreshHitSkipsNetwork(t *testing.T) {
	backend := &contentBackend{payload: `{"headline":"v1"}`}
	cache, _ := newTestCache(t, backend, time.Minute)

	_, err := cache.Get(context.Background(), "hero")
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), "hero")
	require.NoError(t, err)

	_, calls := backend.stats()
	assert.Equal(t, 1, calls)
}

func TestGetStaleServesImmediatelyThenRevalidates(t *testing.T) {
	backend := &contentBackend{payload: `{"headline":"v1"}`}
	cache, kv := newTestCache(t, backend, time.Minute)

	_, err := cache.Get(context.Background(), "hero")
	require.NoError(t, err)

	// age the cached entry past the TTL and change the origin
	stale := Entry{Section: "hero", Payload: `{"headline":"v1"}`, FetchedAt: time.Now().Add(-2 * time.Minute)}
	data, _ := json.Marshal(stale)
	require.NoError(t, kv.Set("content:hero", data))
	backend.mu.Lock()
	backend.payload = `{"headline":"v2"}`
	backend.mu.Unlock()

	// stale copy is returned without blocking
	entry, err := cache.Get(context.Background(), "hero")
	require.NoError(t, err)
	assert.Equal(t, `{"headline":"v1"}`, entry.Payload)

	// the background refresh lands for the next caller
	assert.Eventually(t, func() bool {
		e, getErr := cache.Get(context.Background(), "hero")
		return getErr == nil && e.Payload == `{"headline":"v2"}`
	}, 3*time.Second, 20*time.Millisecond)
}

func TestGetCorruptEntryRefetches(t *testing.T) {
	backend := &contentBackend{payload: `{"headline":"v1"}`}
	cache, kv := newTestCache(t, backend, time.Minute)

	require.NoError(t, kv.Set("content:hero", []byte("{{{not json")))

	entry, err := cache.Get(context.Background(), "hero")
	require.NoError(t, err)
	assert.Equal(t, `{"headline":"v1"}`, entry.Payload)
}

func TestGetUnknownSection(t *testing.T) {
	backend := &contentBackend{payload: "x"}
	cache, _ := newTestCache(t, backend, time.Minute)

	_, err := cache.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

package docsearch

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*AnswerCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewAnswerCache(client, ttl, nil), mr
}

func TestAnswerCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	resp := &ChatResponse{
		Success:       true,
		Answer:        "Two workers have expired certificates.",
		DocumentCount: 2,
	}
	cache.Put(ctx, "org-1", "who has expired certificates?", resp)

	got, ok := cache.Get(ctx, "org-1", "who has expired certificates?")
	require.True(t, ok)
	assert.Equal(t, resp.Answer, got.Answer)
	assert.Equal(t, 2, got.DocumentCount)

	// Key normalizes case and whitespace.
	got, ok = cache.Get(ctx, "org-1", "  WHO has expired certificates?  ")
	require.True(t, ok)
	assert.Equal(t, resp.Answer, got.Answer)
}

func TestAnswerCacheScopedPerOrg(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.Put(ctx, "org-1", "query", &ChatResponse{Success: true, Answer: "org-1 answer"})

	_, ok := cache.Get(ctx, "org-2", "query")
	assert.False(t, ok, "cached answers must not leak across organizations")
}

func TestAnswerCacheSkipsFailures(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.Put(ctx, "org-1", "query", &ChatResponse{Success: false, Answer: "error"})

	_, ok := cache.Get(ctx, "org-1", "query")
	assert.False(t, ok)
}

func TestAnswerCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.Put(ctx, "org-1", "query", &ChatResponse{Success: true, Answer: "answer"})
	mr.FastForward(2 * time.Minute)

	_, ok := cache.Get(ctx, "org-1", "query")
	assert.False(t, ok)
}

func TestAnswerCacheNilClient(t *testing.T) {
	cache := NewAnswerCache(nil, time.Minute, nil)
	ctx := context.Background()

	cache.Put(ctx, "org-1", "query", &ChatResponse{Success: true})
	_, ok := cache.Get(ctx, "org-1", "query")
	assert.False(t, ok)

	// A nil cache value is also safe.
	var disabled *AnswerCache
	disabled.Put(ctx, "org-1", "query", &ChatResponse{Success: true})
	_, ok = disabled.Get(ctx, "org-1", "query")
	assert.False(t, ok)
}

package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practimatch/job-match-api/internal/models"
)

// These tests need a real Redis; set REDIS_TEST_URL to run them, e.g.
// REDIS_TEST_URL=redis://localhost:6379/9
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set, skipping Redis integration tests")
	}

	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	rdb := redis.NewClient(opts)
	require.NoError(t, rdb.Ping(context.Background()).Err())

	t.Cleanup(func() {
		rdb.FlushDB(context.Background())
		rdb.Close()
	})

	return rdb
}

func sampleMatches(userID, fileURL string, totals ...float64) *models.CachedMatches {
	cached := &models.CachedMatches{
		UserID:    userID,
		CVFileURL: fileURL,
		CreatedAt: time.Now(),
	}
	for i, total := range totals {
		cached.Postings = append(cached.Postings, models.MatchedPosting{
			ID:          string(rune('a' + i)),
			Collection:  "practicas",
			MatchScores: models.MatchScores{Total: total},
		})
	}
	return cached
}

func TestMatchCacheRoundTrip(t *testing.T) {
	cache := NewMatchCache(newTestRedis(t))
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, sampleMatches("user-1", "cv_a.pdf", 87.5, 42.0)))

	got, err := cache.Get(ctx, "user-1", "cv_a.pdf")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)
	require.Len(t, got.Postings, 2)
	assert.Equal(t, 87.5, got.Postings[0].MatchScores.Total)
}

func TestMatchCacheMisses(t *testing.T) {
	cache := NewMatchCache(newTestRedis(t))
	ctx := context.Background()

	got, err := cache.Get(ctx, "user-1", "cv_a.pdf")
	require.NoError(t, err)
	assert.Nil(t, got)

	// A different CV file reference for the same user is a different key
	require.NoError(t, cache.Put(ctx, sampleMatches("user-1", "cv_a.pdf", 50)))
	got, err = cache.Get(ctx, "user-1", "cv_b.pdf")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMatchCacheWriteReplaces(t *testing.T) {
	cache := NewMatchCache(newTestRedis(t))
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, sampleMatches("user-1", "cv_a.pdf", 10)))
	require.NoError(t, cache.Put(ctx, sampleMatches("user-1", "cv_a.pdf", 99)))

	got, err := cache.Get(ctx, "user-1", "cv_a.pdf")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Postings, 1)
	assert.Equal(t, 99.0, got.Postings[0].MatchScores.Total)
}

func TestMatchCacheEntriesDoNotExpire(t *testing.T) {
	rdb := newTestRedis(t)
	cache := NewMatchCache(rdb)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, sampleMatches("user-1", "cv_a.pdf", 75)))

	ttl, err := rdb.TTL(ctx, matchKey("user-1", "cv_a.pdf")).Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)
}

func TestMatchCacheClearAll(t *testing.T) {
	cache := NewMatchCache(newTestRedis(t))
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, sampleMatches("user-1", "cv_a.pdf", 10)))
	require.NoError(t, cache.Put(ctx, sampleMatches("user-2", "cv_b.pdf", 20)))
	require.NoError(t, cache.Put(ctx, sampleMatches("user-3", "cv_c.pdf", 30)))

	removed, err := cache.ClearAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	for _, key := range [][2]string{{"user-1", "cv_a.pdf"}, {"user-2", "cv_b.pdf"}, {"user-3", "cv_c.pdf"}} {
		got, err := cache.Get(ctx, key[0], key[1])
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}

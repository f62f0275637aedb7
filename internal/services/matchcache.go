package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"practimatch/job-match-api/internal/models"
)

const matchKeyPrefix = "match:"

// MatchCache stores computed match lists per (user, CV file reference). A
// cached entry stays valid until the pipeline clears the cache or the user
// uploads a new CV, which changes the file reference and therefore the key.
type MatchCache interface {
	Get(ctx context.Context, userID, cvFileURL string) (*models.CachedMatches, error)
	Put(ctx context.Context, matches *models.CachedMatches) error
	ClearAll(ctx context.Context) (int, error)
}

type matchCache struct {
	rdb *redis.Client
}

func NewMatchCache(rdb *redis.Client) MatchCache {
	return &matchCache{rdb: rdb}
}

func matchKey(userID, cvFileURL string) string {
	sum := sha256.Sum256([]byte(cvFileURL))
	return fmt.Sprintf("%s%s:%s", matchKeyPrefix, userID, hex.EncodeToString(sum[:])[:16])
}

// Get implements MatchCache. A miss returns (nil, nil).
func (c *matchCache) Get(ctx context.Context, userID, cvFileURL string) (*models.CachedMatches, error) {
	raw, err := c.rdb.Get(ctx, matchKey(userID, cvFileURL)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read match cache: %w", err)
	}

	var cached models.CachedMatches
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("failed to decode cached matches: %w", err)
	}

	return &cached, nil
}

// Put implements MatchCache. Entries carry no TTL: freshness is handled by
// the pipeline's cache-clear stage.
func (c *matchCache) Put(ctx context.Context, matches *models.CachedMatches) error {
	raw, err := json.Marshal(matches)
	if err != nil {
		return fmt.Errorf("failed to encode matches: %w", err)
	}

	key := matchKey(matches.UserID, matches.CVFileURL)
	if err := c.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write match cache: %w", err)
	}

	return nil
}

// ClearAll implements MatchCache. It scans instead of KEYS so a large cache
// does not block the server.
func (c *matchCache) ClearAll(ctx context.Context) (int, error) {
	var removed int

	iter := c.rdb.Scan(ctx, 0, matchKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("failed to delete cache key %s: %w", iter.Val(), err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("failed to scan match cache: %w", err)
	}

	return removed, nil
}

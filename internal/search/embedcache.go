package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// EmbedCache caches query embeddings in redis so repeated queries skip the
// embedding call. Misses and redis errors are both treated as cache misses.
type EmbedCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewEmbedCache wraps a redis client. ttl <= 0 defaults to one hour.
func NewEmbedCache(rdb *redis.Client, ttl time.Duration, logger *log.Logger) *EmbedCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[EMBEDCACHE] ", log.LstdFlags)
	}
	return &EmbedCache{rdb: rdb, ttl: ttl, logger: logger}
}

func embedKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embed:" + hex.EncodeToString(sum[:])
}

// Get returns the cached vector for text, if present.
func (c *EmbedCache) Get(ctx context.Context, text string) ([]float32, bool) {
	raw, err := c.rdb.Get(ctx, embedKey(text)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Printf("cache get failed: %v", err)
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, false
	}
	return vec, true
}

// Put stores the vector for text; failures are logged and ignored.
func (c *EmbedCache) Put(ctx context.Context, text string, vec []float32) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, embedKey(text), raw, c.ttl).Err(); err != nil {
		c.logger.Printf("cache set failed: %v", err)
	}
}

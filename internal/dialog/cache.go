// internal/dialog/cache.go
package dialog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"care-chatbot/internal/common/config"
	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/common/metrics"
)

const answerCacheKeyPrefix = "answer:"

// AnswerCache stores synthesized knowledge answers in Redis so repeated
// questions skip the retrieval pipeline. Cache errors are logged and treated
// as misses; the cache never blocks a turn.
type AnswerCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

// NewAnswerCache builds the cache. Returns nil when disabled so callers can
// nil-check instead of branching on config.
func NewAnswerCache(client *redis.Client, cfg config.RetrievalConfig, log logger.Logger) *AnswerCache {
	if !cfg.AnswerCacheEnabled || client == nil {
		return nil
	}
	ttl := time.Duration(cfg.AnswerCacheTTL) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AnswerCache{client: client, ttl: ttl, log: log}
}

// Get returns the cached answer for a query, or false on a miss.
func (c *AnswerCache) Get(ctx context.Context, query string) (string, bool) {
	answer, err := c.client.Get(ctx, cacheKey(query)).Result()
	if err == redis.Nil {
		metrics.AnswerCacheHits.WithLabelValues("miss").Inc()
		return "", false
	}
	if err != nil {
		metrics.AnswerCacheHits.WithLabelValues("error").Inc()
		c.log.WithError(err).Warn("answer cache read failed", nil)
		return "", false
	}
	metrics.AnswerCacheHits.WithLabelValues("hit").Inc()
	return answer, true
}

// Set stores an answer under the normalized query key.
func (c *AnswerCache) Set(ctx context.Context, query, answer string) {
	if err := c.client.Set(ctx, cacheKey(query), answer, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("answer cache write failed", nil)
	}
}

// Invalidate drops one cached answer, e.g. after reindexing.
func (c *AnswerCache) Invalidate(ctx context.Context, query string) {
	if err := c.client.Del(ctx, cacheKey(query)).Err(); err != nil {
		c.log.WithError(err).Warn("answer cache invalidation failed", nil)
	}
}

// cacheKey hashes the normalized query so arbitrary text never lands in a
// Redis key.
func cacheKey(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return answerCacheKeyPrefix + hex.EncodeToString(sum[:16])
}

// internal/dialog/cache_test.go
package dialog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"care-chatbot/internal/common/config"
	"care-chatbot/internal/common/logger"
)

func newTestCache(t *testing.T) (*AnswerCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cache := NewAnswerCache(client, config.RetrievalConfig{
		AnswerCacheEnabled: true,
		AnswerCacheTTL:     60,
	}, logger.NewTestLogger(t))
	require.NotNil(t, cache)
	return cache, mr
}

func TestAnswerCache_RoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "what are your pricing plans")
	assert.False(t, ok)

	cache.Set(ctx, "what are your pricing plans", "Here's our pricing information.")

	answer, ok := cache.Get(ctx, "what are your pricing plans")
	assert.True(t, ok)
	assert.Equal(t, "Here's our pricing information.", answer)
}

func TestAnswerCache_KeyNormalization(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "What Are Your   Pricing Plans", "answer")

	answer, ok := cache.Get(ctx, "what are your pricing plans")
	assert.True(t, ok)
	assert.Equal(t, "answer", answer)
}

func TestAnswerCache_Expiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "query", "answer")
	mr.FastForward(2 * time.Minute)

	_, ok := cache.Get(ctx, "query")
	assert.False(t, ok)
}

func TestAnswerCache_Invalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "query", "answer")
	cache.Invalidate(ctx, "query")

	_, ok := cache.Get(ctx, "query")
	assert.False(t, ok)
}

func TestNewAnswerCache_DisabledReturnsNil(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cache := NewAnswerCache(client, config.RetrievalConfig{AnswerCacheEnabled: false}, logger.NewTestLogger(t))
	assert.Nil(t, cache)
}

package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sentiforecast/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	return client
}

// liveClient connects to TEST_REDIS_ADDR or skips
func liveClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping integration test")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, DB: 15})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFromRedis(rdb)
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")
	cfg := InferenceRateLimit(5)

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 5, remaining)

	assert.NoError(t, limiter.Bind(cfg).Wait(context.Background()))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	many, err := cache.GetMany(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Empty(t, many)

	assert.NoError(t, cache.Set(ctx, "key", "v", TTLShort))
	assert.NoError(t, cache.SetMany(ctx, map[string]interface{}{"a": 1}, TTLShort))

	calls := 0
	var out int
	err = cache.GetOrSet(ctx, "k", &out, TTLShort, func() (interface{}, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, out)
	assert.Equal(t, 1, calls)
}

func TestCacheKeys(t *testing.T) {
	a := TextKey("sentiment", "vader", "to the moon $TSLA")
	b := TextKey("sentiment", "vader", "to the moon $TSLA")
	c := TextKey("sentiment", "finbert", "to the moon $TSLA")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "sentiment:vader:"))
	assert.Len(t, strings.TrimPrefix(a, "sentiment:vader:"), 32)

	assert.Equal(t, "forecast:TSLA:abc", ForecastKey("TSLA", "abc"))
}

func TestCache_Live(t *testing.T) {
	client := liveClient(t)
	cache := NewCache(client, "sentiforecast-test")
	ctx := context.Background()

	type score struct {
		Compound float64 `json:"compound"`
	}

	require.NoError(t, cache.SetMany(ctx, map[string]interface{}{
		"a": score{0.5},
		"b": score{-0.2},
	}, time.Minute))

	var got score
	found, err := cache.Get(ctx, "a", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 0.5, got.Compound)

	many, err := cache.GetMany(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Len(t, many, 2)

	require.NoError(t, cache.Delete(ctx, "a"))
	found, err = cache.Get(ctx, "a", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRateLimiter_Live(t *testing.T) {
	limiter := NewRateLimiter(liveClient(t), "sentiforecast-test")
	cfg := RateLimitConfig{Key: "probe-" + time.Now().Format("150405.000"), Limit: 2, Window: time.Second}
	ctx := context.Background()

	allowed, _, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, err = limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, remaining, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathclass/rating-hub/pkg/circuitbreaker"
)

// unreachable returns a cache whose client never connects; only argument
// checks that run before any I/O are exercised through it.
func unreachable(t *testing.T) *Cache {
	t.Helper()
	c := NewCacheFromClient(goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	}))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewCache_ConnectionFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:1"
	cfg.DialTimeout = 100 * time.Millisecond
	cfg.MaxRetries = -1

	_, err := NewCache(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCacheConnection)
}

func TestCache_ArgumentChecks(t *testing.T) {
	c := unreachable(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.Set(ctx, "", 1, time.Minute), ErrCacheKeyEmpty)
	assert.ErrorIs(t, c.Set(ctx, KeyStudents, 1, -time.Second), ErrCacheInvalidTTL)
	assert.ErrorIs(t, c.Set(ctx, KeyStudents, make(chan int), time.Minute), ErrCacheSerialization)

	var dest []int
	assert.ErrorIs(t, c.Get(ctx, "", &dest), ErrCacheKeyEmpty)

	assert.NoError(t, c.Delete(ctx))
}

func TestNewRatingCache_DefaultTTL(t *testing.T) {
	c := unreachable(t)

	assert.Equal(t, DefaultTTL, NewRatingCache(c, 0).ttl)
	assert.Equal(t, time.Minute, NewRatingCache(c, time.Minute).ttl)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "rating:students", KeyStudents)
	assert.Equal(t, "rating:achievements", KeyAchievements)
}

func TestRatingCache_BreakerOpensOnOutage(t *testing.T) {
	cb := circuitbreaker.New("test", circuitbreaker.WithFailureThreshold(2), circuitbreaker.WithIsFailure(IsOutage))
	rc := NewRatingCache(unreachable(t), time.Minute, WithBreaker(cb))
	ctx := context.Background()

	for range 2 {
		_, err := rc.GetStudents(ctx)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCacheMiss)
	}
	require.Equal(t, circuitbreaker.StateOpen, cb.State())

	_, err := rc.GetStudents(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, rc.SetStudents(ctx, nil))
	assert.NoError(t, rc.Invalidate(ctx))
}

func TestIsOutage(t *testing.T) {
	assert.False(t, IsOutage(nil))
	assert.False(t, IsOutage(ErrCacheMiss))
	assert.False(t, IsOutage(fmt.Errorf("%w: bad json", ErrCacheSerialization)))
	assert.True(t, IsOutage(errors.New("dial tcp: connection refused")))
}

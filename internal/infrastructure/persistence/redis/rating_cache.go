package redis

import (
	"context"
	"errors"
	"time"

	"github.com/mathclass/rating-hub/internal/domain/achievement"
	"github.com/mathclass/rating-hub/internal/domain/student"
	"github.com/mathclass/rating-hub/pkg/circuitbreaker"
)

// RatingCache implements student.Cache and achievement.Cache.
type RatingCache struct {
	cache   *Cache
	ttl     time.Duration
	breaker *circuitbreaker.CircuitBreaker
}

var (
	_ student.Cache     = (*RatingCache)(nil)
	_ achievement.Cache = (*RatingCache)(nil)
)

// RatingCacheOption configures a RatingCache.
type RatingCacheOption func(*RatingCache)

// WithBreaker routes every Redis call through cb. While the circuit is open
// reads report ErrCacheMiss and writes are dropped.
func WithBreaker(cb *circuitbreaker.CircuitBreaker) RatingCacheOption {
	return func(r *RatingCache) { r.breaker = cb }
}

// NewRatingCache creates a RatingCache. A non-positive ttl uses DefaultTTL.
func NewRatingCache(cache *Cache, ttl time.Duration, opts ...RatingCacheOption) *RatingCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &RatingCache{cache: cache, ttl: ttl}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsOutage reports whether err says Redis itself is unhealthy. Misses and
// payload errors do not count against the breaker.
func IsOutage(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrCacheMiss) &&
		!errors.Is(err, ErrCacheSerialization) &&
		!errors.Is(err, ErrCacheKeyEmpty) &&
		!errors.Is(err, ErrCacheInvalidTTL)
}

func (r *RatingCache) read(ctx context.Context, key string, dest any) error {
	if r.breaker == nil {
		return r.cache.Get(ctx, key, dest)
	}
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		return r.cache.Get(ctx, key, dest)
	})
	if circuitbreaker.Skipped(err) {
		return ErrCacheMiss
	}
	return err
}

func (r *RatingCache) write(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.breaker == nil {
		return fn(ctx)
	}
	err := r.breaker.Execute(ctx, fn)
	if circuitbreaker.Skipped(err) {
		return nil
	}
	return err
}

// GetStudents returns the cached ordered roster or ErrCacheMiss.
func (r *RatingCache) GetStudents(ctx context.Context) ([]student.Student, error) {
	var out []student.Student
	if err := r.read(ctx, KeyStudents, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStudents caches the ordered roster.
func (r *RatingCache) SetStudents(ctx context.Context, students []student.Student) error {
	return r.write(ctx, func(ctx context.Context) error {
		return r.cache.Set(ctx, KeyStudents, students, r.ttl)
	})
}

// Invalidate drops the students payload. The achievements payload does not
// change on score updates and is left to expire.
//
// A delete skipped by an open circuit is not reported: the stale entry
// expires within ttl.
func (r *RatingCache) Invalidate(ctx context.Context) error {
	return r.write(ctx, func(ctx context.Context) error {
		return r.cache.Delete(ctx, KeyStudents)
	})
}

// GetAchievements returns the cached catalog or ErrCacheMiss.
func (r *RatingCache) GetAchievements(ctx context.Context) ([]achievement.Achievement, error) {
	var out []achievement.Achievement
	if err := r.read(ctx, KeyAchievements, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetAchievements caches the catalog.
func (r *RatingCache) SetAchievements(ctx context.Context, items []achievement.Achievement) error {
	return r.write(ctx, func(ctx context.Context) error {
		return r.cache.Set(ctx, KeyAchievements, items, r.ttl)
	})
}

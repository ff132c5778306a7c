package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Backend is the key-value surface the store needs. The production
// implementation is Redis; tests use an in-memory backend.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	Delete(ctx context.Context, keys ...string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	ZIncrBy(ctx context.Context, key, member string, delta float64) error
	ZTop(ctx context.Context, key string, count int64) ([]string, error)
	Ping(ctx context.Context) error
}

// Store is a cache-aside wrapper over a Backend. Every backend failure
// is logged and absorbed: reads fall through to the compute function,
// writes are dropped. Cached values are always derived data, so losing
// the cache only costs latency.
type Store struct {
	backend Backend
	log     *logrus.Entry
}

func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		log:     logrus.WithField("component", "cache"),
	}
}

// GetOrCompute returns the cached value for key, or invokes compute,
// caches its result with the given TTL, and returns it. The zero value
// of T round-trips like any other value; an empty result is still a
// cacheable result.
//
// Key construction is the caller's responsibility and must cover every
// parameter that affects the result.
func GetOrCompute[T any](ctx context.Context, s *Store, key string, ttl time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	raw, found, err := s.backend.Get(ctx, key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache read failed, computing directly")
		return compute(ctx)
	}

	if found {
		var cached T
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return cached, nil
		}
		s.log.WithField("key", key).Warn("cache entry undecodable, recomputing")
	}

	value, err := compute(ctx)
	if err != nil {
		return value, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache encode failed, returning uncached value")
		return value, nil
	}

	if err := s.backend.Set(ctx, key, string(encoded), ttl); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}

	return value, nil
}

// Invalidate deletes every key matching a glob-style pattern and
// returns the count removed. Unlike reads, invalidation errors are
// surfaced: a failed invalidation means stale data may outlive a write.
func (s *Store) Invalidate(ctx context.Context, pattern string) (int64, error) {
	keys, err := s.backend.Keys(ctx, pattern)
	if err != nil {
		return 0, fmt.Errorf("failed to enumerate keys for %q: %w", pattern, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	removed, err := s.backend.Delete(ctx, keys...)
	if err != nil {
		return removed, fmt.Errorf("failed to delete keys for %q: %w", pattern, err)
	}

	s.log.WithFields(logrus.Fields{"pattern": pattern, "removed": removed}).Info("cache invalidated")
	return removed, nil
}

// IncrementCounter bumps an analytics counter, setting the TTL when the
// counter is first created. Best-effort: failures return 0.
func (s *Store) IncrementCounter(ctx context.Context, key string, ttl time.Duration) int64 {
	count, err := s.backend.Incr(ctx, key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("counter increment failed")
		return 0
	}
	if count == 1 {
		if err := s.backend.Expire(ctx, key, ttl); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("counter expire failed")
		}
	}
	return count
}

// AddToSortedSet bumps a member's score in an analytics sorted set and
// refreshes the set's TTL, so idle sets expire instead of growing
// forever. Best-effort.
func (s *Store) AddToSortedSet(ctx context.Context, key, member string, delta float64, ttl time.Duration) {
	if err := s.backend.ZIncrBy(ctx, key, member, delta); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("sorted set update failed")
		return
	}
	if err := s.backend.Expire(ctx, key, ttl); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("sorted set expire failed")
	}
}

// TopFromSortedSet returns the highest-scored members of a sorted set.
// Best-effort: failures return an empty slice.
func (s *Store) TopFromSortedSet(ctx context.Context, key string, count int) []string {
	members, err := s.backend.ZTop(ctx, key, int64(count))
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("sorted set read failed")
		return nil
	}
	return members
}

// Healthy reports whether the backend is reachable. The store keeps
// working either way; this exists so health endpoints can surface a
// fail-open degradation.
func (s *Store) Healthy(ctx context.Context) bool {
	return s.backend.Ping(ctx) == nil
}

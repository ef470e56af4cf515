package enrollment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/p-n-ai/pai-course/internal/platform/cache"
)

const defaultCacheTTL = 10 * time.Minute

// CachedStore is a read-through Redis cache in front of another Store.
// Cache failures never fail a request; the inner store stays authoritative.
type CachedStore struct {
	inner Store
	cache *cache.Cache
	ttl   time.Duration
}

// NewCachedStore wraps inner with a cache. A zero ttl uses the default.
func NewCachedStore(inner Store, c *cache.Cache, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedStore{inner: inner, cache: c, ttl: ttl}
}

func (s *CachedStore) Create(ctx context.Context, learnerID, courseID string) (*Enrollment, error) {
	e, err := s.inner.Create(ctx, learnerID, courseID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, learnerID, courseID)
	return e, nil
}

func (s *CachedStore) Fetch(ctx context.Context, learnerID, courseID string) (*Enrollment, error) {
	key := cacheKey(learnerID, courseID)

	var cached Enrollment
	err := s.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("enrollment cache read failed", "key", key, "error", err)
	}

	e, err := s.inner.Fetch(ctx, learnerID, courseID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, e, s.ttl); err != nil {
		slog.Warn("enrollment cache write failed", "key", key, "error", err)
	}
	return e, nil
}

func (s *CachedStore) PersistCompletion(ctx context.Context, c Completion) error {
	if err := s.inner.PersistCompletion(ctx, c); err != nil {
		return err
	}
	s.invalidate(ctx, c.LearnerID, c.CourseID)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, learnerID, courseID string) {
	if learnerID == "" || courseID == "" {
		return
	}
	key := cacheKey(learnerID, courseID)
	if err := s.cache.Delete(ctx, key); err != nil {
		slog.Warn("enrollment cache invalidation failed", "key", key, "error", err)
	}
}

func cacheKey(learnerID, courseID string) string {
	return "enrollment:" + learnerID + ":" + courseID
}

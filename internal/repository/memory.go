package repository

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimitStore keeps a token-bucket limiter per client key. It only sees
// one process, so it is the fallback when redis is down or not configured.
type MemoryLimitStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewMemoryLimitStore() *MemoryLimitStore {
	return &MemoryLimitStore{limiters: make(map[string]*rate.Limiter)}
}

func (m *MemoryLimitStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}

	m.mu.Lock()
	limiter, ok := m.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(limit)/window.Seconds()), limit)
		m.limiters[key] = limiter
	}
	m.mu.Unlock()

	return limiter.Allow(), nil
}

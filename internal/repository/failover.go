package repository

import (
	"context"
	"sync/atomic"
	"time"

	"hallbook/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverLimitStore serves from the primary store and drops to the fallback
// when the primary errors, probing the primary again after a minute.
type FailoverLimitStore struct {
	primary   domain.RateLimitStore
	fallback  domain.RateLimitStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverLimitStore(primary, fallback domain.RateLimitStore, logger *zerolog.Logger) *FailoverLimitStore {
	return &FailoverLimitStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (f *FailoverLimitStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !f.isDown.Load() {
		ok, err := f.primary.Allow(ctx, key, limit, window)
		if err == nil {
			return ok, nil
		}
		f.logger.Error().Err(err).Msg("primary rate limit store failed, falling back to memory")
		f.isDown.Store(true)
		f.lastCheck = time.Now()
	}

	if f.isDown.Load() && time.Since(f.lastCheck) > recoveryInterval {
		ok, err := f.primary.Allow(ctx, key, limit, window)
		if err == nil {
			f.isDown.Store(false)
			return ok, nil
		}
		f.lastCheck = time.Now()
	}

	return f.fallback.Allow(ctx, key, limit, window)
}

package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMiniredisStore(t *testing.T) (*RedisLimitStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLimitStore(client), mr
}

func TestRedisLimitStoreAllow(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := store.Allow(ctx, "1.2.3.4", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d within limit", i+1)
	}

	ok, err := store.Allow(ctx, "1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "fourth request exceeds limit")

	// other clients are unaffected
	ok, err = store.Allow(ctx, "5.6.7.8", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// window expiry resets the counter
	mr.FastForward(2 * time.Minute)
	ok, err = store.Allow(ctx, "1.2.3.4", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimitStoreNilClient(t *testing.T) {
	store := NewRedisLimitStore(nil)
	_, err := store.Allow(context.Background(), "k", 1, time.Minute)
	assert.Error(t, err)
}

func TestMemoryLimitStoreAllow(t *testing.T) {
	store := NewMemoryLimitStore()
	ctx := context.Background()

	allowed := 0
	for i := 0; i < 10; i++ {
		ok, err := store.Allow(ctx, "client", 5, time.Minute)
		require.NoError(t, err)
		if ok {
			allowed++
		}
	}
	assert.Equal(t, 5, allowed)

	ok, err := store.Allow(ctx, "other", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")
}

func TestMemoryLimitStoreDisabled(t *testing.T) {
	store := NewMemoryLimitStore()
	ok, err := store.Allow(context.Background(), "client", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "zero limit means no limiting")
}

type mockLimitStore struct {
	mock.Mock
}

func (m *mockLimitStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverLimitStore(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary := new(mockLimitStore)
		fallback := new(mockLimitStore)
		store := NewFailoverLimitStore(primary, fallback, &logger)

		primary.On("Allow", ctx, "k", 5, time.Minute).Return(true, nil).Once()

		ok, err := store.Allow(ctx, "k", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, ok)
		primary.AssertExpectations(t)
		fallback.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("PrimaryFailFallback", func(t *testing.T) {
		primary := new(mockLimitStore)
		fallback := new(mockLimitStore)
		store := NewFailoverLimitStore(primary, fallback, &logger)

		primary.On("Allow", ctx, "k", 5, time.Minute).Return(false, errors.New("redis down")).Once()
		fallback.On("Allow", ctx, "k", 5, time.Minute).Return(true, nil).Twice()

		ok, err := store.Allow(ctx, "k", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, store.isDown.Load())

		// while down the primary is not retried
		ok, err = store.Allow(ctx, "k", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, ok)
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAfterInterval", func(t *testing.T) {
		primary := new(mockLimitStore)
		fallback := new(mockLimitStore)
		store := NewFailoverLimitStore(primary, fallback, &logger)
		store.isDown.Store(true)
		store.lastCheck = time.Now().Add(-2 * time.Minute)

		primary.On("Allow", ctx, "k", 5, time.Minute).Return(true, nil).Once()

		ok, err := store.Allow(ctx, "k", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.False(t, store.isDown.Load())
		primary.AssertExpectations(t)
	})
}

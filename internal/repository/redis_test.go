package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	locker := NewRedisLocker(client)
	ctx := context.Background()

	t.Run("AcquireRelease", func(t *testing.T) {
		release, err := locker.Acquire(ctx, "staff-1:2025-06-02", 10*time.Second)
		require.NoError(t, err)
		assert.True(t, s.Exists(lockKeyPrefix+"staff-1:2025-06-02"))

		_, err = locker.Acquire(ctx, "staff-1:2025-06-02", 10*time.Second)
		assert.ErrorIs(t, err, ErrLockHeld)

		require.NoError(t, release(ctx))
		assert.False(t, s.Exists(lockKeyPrefix+"staff-1:2025-06-02"))
	})

	t.Run("TTLExpiry", func(t *testing.T) {
		release, err := locker.Acquire(ctx, "ttl", time.Second)
		require.NoError(t, err)

		s.FastForward(2 * time.Second)

		_, err = locker.Acquire(ctx, "ttl", time.Second)
		require.NoError(t, err)

		// the stale token must not delete the new holder's key
		require.NoError(t, release(ctx))
		assert.True(t, s.Exists(lockKeyPrefix+"ttl"))
	})

	t.Run("NilClient", func(t *testing.T) {
		_, err := NewRedisLocker(nil).Acquire(ctx, "x", time.Second)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("ServerDown", func(t *testing.T) {
		down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
		defer down.Close()

		_, err := NewRedisLocker(down).Acquire(ctx, "x", time.Second)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrLockHeld)
	})

	t.Run("Close", func(t *testing.T) {
		assert.NoError(t, Close(client))
	})
}

package api

import (
	"testing"
	"time"

	"salonhub/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		l := newRateLimiter(config.APIRateLimitConfig{})
		for i := 0; i < 100; i++ {
			assert.True(t, l.Allow("client"))
		}
		assert.Equal(t, 0, l.size())

		var nilLimiter *rateLimiter
		assert.True(t, nilLimiter.Allow("client"))
	})

	t.Run("PerClientBurst", func(t *testing.T) {
		now := time.Date(2030, 6, 3, 9, 0, 0, 0, time.UTC)
		l := newRateLimiter(config.APIRateLimitConfig{RPS: 1, Burst: 2})
		l.now = func() time.Time { return now }

		assert.True(t, l.Allow("a"))
		assert.True(t, l.Allow("a"))
		assert.False(t, l.Allow("a"))
		assert.True(t, l.Allow("b"))

		now = now.Add(time.Second)
		assert.True(t, l.Allow("a"))
	})

	t.Run("DefaultBurst", func(t *testing.T) {
		now := time.Date(2030, 6, 3, 9, 0, 0, 0, time.UTC)
		l := newRateLimiter(config.APIRateLimitConfig{RPS: 0.001})
		l.now = func() time.Time { return now }

		for i := 0; i < defaultBurst; i++ {
			assert.True(t, l.Allow("a"))
		}
		assert.False(t, l.Allow("a"))
	})

	t.Run("EvictsIdleClients", func(t *testing.T) {
		now := time.Date(2030, 6, 3, 9, 0, 0, 0, time.UTC)
		l := newRateLimiter(config.APIRateLimitConfig{RPS: 1, Burst: 1})
		l.now = func() time.Time { return now }

		l.Allow("a")
		l.Allow("b")
		assert.Equal(t, 2, l.size())

		now = now.Add(limiterIdleAfter + time.Second)
		l.Allow("c")
		assert.Equal(t, 1, l.size())
	})
}

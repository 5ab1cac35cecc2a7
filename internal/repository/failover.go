package repository

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"salonhub/internal/domain"

	"github.com/rs/zerolog"
)

const primaryRetryInterval = time.Minute

// FailoverLocker prefers the primary locker and switches to the fallback
// when the primary errors, retrying the primary once a minute.
type FailoverLocker struct {
	primary  domain.Locker
	fallback domain.Locker
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverLocker(primary, fallback domain.Locker, logger *zerolog.Logger) *FailoverLocker {
	return &FailoverLocker{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (l *FailoverLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if !l.isDown.Load() || l.shouldRetryPrimary() {
		release, err := l.primary.Acquire(ctx, key, ttl)
		if err == nil || errors.Is(err, ErrLockHeld) {
			if l.isDown.CompareAndSwap(true, false) {
				l.logger.Info().Msg("Primary locker recovered")
			}
			return release, err
		}
		if !l.isDown.Swap(true) {
			l.logger.Error().Err(err).Msg("Primary locker failed, falling back to memory")
		}
		l.markChecked()
	}

	return l.fallback.Acquire(ctx, key, ttl)
}

func (l *FailoverLocker) shouldRetryPrimary() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.now().Sub(l.lastCheck) > primaryRetryInterval {
		l.lastCheck = l.now()
		return true
	}
	return false
}

func (l *FailoverLocker) markChecked() {
	l.mu.Lock()
	l.lastCheck = l.now()
	l.mu.Unlock()
}

package api

import (
	"sync"
	"time"

	"salonhub/internal/config"

	"golang.org/x/time/rate"
)

const (
	defaultBurst     = 5
	limiterIdleAfter = 10 * time.Minute
)

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter hands out one token bucket per client key. It is shared by the
// HTTP middleware and the gRPC interceptor. Buckets idle for longer than
// limiterIdleAfter are evicted on the next sweep.
type rateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*clientBucket
	limit     rate.Limit
	burst     int
	disabled  bool
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiter(cfg config.APIRateLimitConfig) *rateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	return &rateLimiter{
		buckets:  make(map[string]*clientBucket),
		limit:    rate.Limit(cfg.RPS),
		burst:    burst,
		disabled: cfg.RPS <= 0,
		now:      time.Now,
	}
}

// Allow reports whether key may proceed. A non-positive RPS disables limiting.
func (l *rateLimiter) Allow(key string) bool {
	if l == nil || l.disabled {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

func (l *rateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < limiterIdleAfter {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= limiterIdleAfter {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

func (l *rateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

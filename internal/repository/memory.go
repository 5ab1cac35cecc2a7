package repository

import (
	"context"
	"sync"
	"time"
)

// memorySweepEvery bounds how often Acquire scans for expired keys.
const memorySweepEvery = time.Minute

type memoryLock struct {
	token     uint64
	expiresAt time.Time
}

// MemoryLocker is a process-local domain.Locker. Expired keys are dropped
// by a sweep that runs from Acquire at most once per memorySweepEvery.
type MemoryLocker struct {
	mu        sync.Mutex
	locks     map[string]memoryLock
	next      uint64
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]memoryLock),
		now:   time.Now,
	}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	if held, ok := l.locks[key]; ok && now.Before(held.expiresAt) {
		return nil, ErrLockHeld
	}

	l.next++
	token := l.next
	l.locks[key] = memoryLock{token: token, expiresAt: now.Add(ttl)}

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if held, ok := l.locks[key]; ok && held.token == token {
			delete(l.locks, key)
		}
		return nil
	}
	return release, nil
}

func (l *MemoryLocker) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < memorySweepEvery {
		return
	}
	for key, held := range l.locks {
		if !now.Before(held.expiresAt) {
			delete(l.locks, key)
		}
	}
	l.lastSweep = now
}

func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

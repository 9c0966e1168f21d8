package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker implements Locker using in-memory locks.
// Expired entries are dropped lazily on the next access to the same key.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time
	now   func() time.Time
}

// NewMemoryLocker creates a new in-memory locker.
func NewMemoryLocker() *MemoryLocker {
	return NewMemoryLockerWithClock(time.Now)
}

// NewMemoryLockerWithClock creates an in-memory locker with a custom clock.
func NewMemoryLockerWithClock(now func() time.Time) *MemoryLocker {
	return &MemoryLocker{
		locks: make(map[string]time.Time),
		now:   now,
	}
}

// Acquire attempts to acquire a lock.
func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.heldLocked(key, now) {
		return false, nil
	}

	m.locks[key] = now.Add(ttl)
	return true, nil
}

// Release releases a lock.
func (m *MemoryLocker) Release(ctx context.Context, key string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	held := m.heldLocked(key, m.now())
	delete(m.locks, key)
	return held, nil
}

// IsHeld checks if a lock is currently held.
func (m *MemoryLocker) IsHeld(ctx context.Context, key string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heldLocked(key, m.now()), nil
}

// heldLocked must be called with mu held.
func (m *MemoryLocker) heldLocked(key string, now time.Time) bool {
	expiresAt, ok := m.locks[key]
	if !ok {
		return false
	}
	if !now.Before(expiresAt) {
		delete(m.locks, key)
		return false
	}
	return true
}

// Ensure MemoryLocker implements Locker.
var _ Locker = (*MemoryLocker)(nil)

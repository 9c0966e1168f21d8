// Package lock provides local locking for background jobs.
// The marketplace runs as a single process, so only in-process lockers exist.
package lock

import (
	"context"
	"time"
)

// Locker defines the interface for job locking.
type Locker interface {
	// Acquire attempts to acquire a lock.
	// Returns true if the lock was acquired, false if it's held elsewhere.
	// The lock will automatically expire after the specified TTL.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release releases a lock.
	// Returns true if the lock was released, false if it wasn't held.
	Release(ctx context.Context, key string) (bool, error)

	// IsHeld checks if the lock is currently held.
	IsHeld(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Common Lock Keys
// =============================================================================

// Keys provides lock key generation for common scenarios.
var Keys = lockKeys{}

type lockKeys struct{}

// PayoutCycle returns the lock key for the payout-cycle job.
// Prevents a manual run from overlapping a scheduled one.
func (lockKeys) PayoutCycle() string {
	return "lock:payout:cycle"
}

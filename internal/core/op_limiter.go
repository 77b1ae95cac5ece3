package core

// op_limiter.go gates operation execution.
//
// The controller admits one transform at a time. A request that arrives
// while a slot is taken is rejected immediately with ErrBusy rather than
// queued. WaitForDrain lets shutdown wait for the in-flight operation.

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrentOps is the default number of operations allowed in flight.
const DefaultMaxConcurrentOps = 1

// OpLimiter is a non-blocking counting gate backed by a weighted semaphore.
type OpLimiter struct {
	sem  *semaphore.Weighted
	size int64

	mu     sync.RWMutex
	active int
}

// NewOpLimiter creates a limiter admitting at most maxConcurrent operations.
func NewOpLimiter(maxConcurrent int) *OpLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentOps
	}
	return &OpLimiter{
		sem:  semaphore.NewWeighted(int64(maxConcurrent)),
		size: int64(maxConcurrent),
	}
}

// TryAcquire takes a slot without blocking. Returns false when none is free.
// The caller must call Release after a successful TryAcquire.
func (l *OpLimiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.mu.Lock()
	l.active++
	l.mu.Unlock()
	return true
}

// Release frees a slot taken by TryAcquire.
func (l *OpLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	l.sem.Release(1)
}

// ActiveCount returns the number of operations in flight.
func (l *OpLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the configured slot count.
func (l *OpLimiter) MaxConcurrent() int {
	return int(l.size)
}

// WaitForDrain blocks until every slot is free or ctx ends.
// Slots stay free afterwards; new operations may start again.
func (l *OpLimiter) WaitForDrain(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, l.size); err != nil {
		return err
	}
	l.sem.Release(l.size)
	return nil
}

// OpLimiterStatus is a snapshot of the limiter's state.
type OpLimiterStatus struct {
	Active        int `json:"active"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *OpLimiter) Status() OpLimiterStatus {
	return OpLimiterStatus{
		Active:        l.ActiveCount(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}

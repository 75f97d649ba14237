package odata

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyFetches is returned when every fetch slot stays occupied for
// longer than the limiter's wait.
var ErrTooManyFetches = errors.New("too many concurrent remote fetches")

// DefaultMaxConcurrentFetches is the slot count used when none is configured.
const DefaultMaxConcurrentFetches = 4

// DefaultMaxWait is how long Acquire waits for a slot when none is configured.
const DefaultMaxWait = 10 * time.Second

// FetchLimiter bounds the number of remote fetches in flight. One limiter
// is shared by every session browsing the same remote service.
type FetchLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active int
}

// NewFetchLimiter allows at most maxConcurrent fetches at once.
func NewFetchLimiter(maxConcurrent int, maxWait time.Duration) *FetchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentFetches
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &FetchLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire blocks until a slot is free. It returns ctx.Err() when ctx ends
// first and ErrTooManyFetches when the wait expires. Every successful
// Acquire must be paired with Release.
func (l *FetchLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyFetches
	}
}

// Release frees a slot taken by Acquire.
func (l *FetchLimiter) Release() {
	select {
	case <-l.slots:
		l.mu.Lock()
		l.active--
		l.mu.Unlock()
	default:
	}
}

// Active returns the number of fetches holding a slot.
func (l *FetchLimiter) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Capacity returns the maximum number of concurrent fetches.
func (l *FetchLimiter) Capacity() int {
	return cap(l.slots)
}

package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aurelhotels/credential-service/internal/core/port"
)

// RateLimitRepository keeps rate-limit attempts in process memory. It is only
// correct for single-instance deployments; horizontal deployments must use
// the Redis-backed store so the window is shared across instances.
type RateLimitRepository struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

// NewRateLimitRepository constructs an empty in-memory store.
func NewRateLimitRepository() *RateLimitRepository {
	return &RateLimitRepository{
		attempts: make(map[string][]time.Time),
	}
}

// RecordAttempt appends the timestamp to the identifier's attempt list.
func (r *RateLimitRepository) RecordAttempt(_ context.Context, identifier string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempts[identifier] = append(r.attempts[identifier], at)
	return nil
}

// CountAttempts returns how many attempts occurred within the window ending at reference time.
func (r *RateLimitRepository) CountAttempts(_ context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	threshold := reference.Add(-window)
	for _, at := range r.attempts[identifier] {
		if at.After(threshold) && !at.After(reference) {
			count++
		}
	}

	return count, nil
}

// TrimWindow discards attempts older than the window; empty records are
// removed entirely so the map does not grow unbounded.
func (r *RateLimitRepository) TrimWindow(_ context.Context, identifier string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errors.New("window must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	threshold := reference.Add(-window)
	kept := r.attempts[identifier][:0]
	for _, at := range r.attempts[identifier] {
		if at.After(threshold) {
			kept = append(kept, at)
		}
	}

	if len(kept) == 0 {
		delete(r.attempts, identifier)
		return nil
	}
	r.attempts[identifier] = kept

	return nil
}

// OldestAttempt returns the oldest attempt remaining inside the active window.
func (r *RateLimitRepository) OldestAttempt(_ context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	return r.boundaryAttempt(identifier, window, reference, false)
}

// LatestAttempt returns the most recent attempt inside the active window.
func (r *RateLimitRepository) LatestAttempt(_ context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	return r.boundaryAttempt(identifier, window, reference, true)
}

func (r *RateLimitRepository) boundaryAttempt(identifier string, window time.Duration, reference time.Time, latest bool) (time.Time, bool, error) {
	if window <= 0 {
		return time.Time{}, false, errors.New("window must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	threshold := reference.Add(-window)
	var boundary time.Time
	found := false
	for _, at := range r.attempts[identifier] {
		if !at.After(threshold) || at.After(reference) {
			continue
		}
		if !found {
			boundary = at
			found = true
			continue
		}
		if latest && at.After(boundary) {
			boundary = at
		}
		if !latest && at.Before(boundary) {
			boundary = at
		}
	}

	return boundary, found, nil
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)

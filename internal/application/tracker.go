package application

import (
	"sync"
	"time"
)

// FailureTracker maintains, per principal, a failure count inside a sliding
// window. Implementations must serialize increments for the same principal
// without serializing unrelated principals against each other.
type FailureTracker interface {
	// RecordFailure notes a denied attempt and returns the post-increment count.
	RecordFailure(userID string) int
	// Reset discards any tracked state for the principal. Idempotent.
	Reset(userID string)
}

type failureEntry struct {
	mu            sync.Mutex
	count         int
	lastFailureAt time.Time
}

// MemoryFailureTracker is the in-process FailureTracker. State is transient:
// it is never persisted and dies with the process.
type MemoryFailureTracker struct {
	mu      sync.Mutex
	entries map[string]*failureEntry
	window  time.Duration
	now     func() time.Time
}

// NewMemoryFailureTracker constructs a tracker with the given sliding window.
func NewMemoryFailureTracker(window time.Duration, now func() time.Time) *MemoryFailureTracker {
	if window <= 0 {
		window = 5 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryFailureTracker{
		entries: make(map[string]*failureEntry),
		window:  window,
		now:     now,
	}
}

// RecordFailure increments the principal's counter, first resetting it when
// the previous failure fell outside the window. The boundary is exclusive:
// exactly window elapsed still counts as inside.
func (t *MemoryFailureTracker) RecordFailure(userID string) int {
	t.mu.Lock()
	entry, ok := t.entries[userID]
	if !ok {
		entry = &failureEntry{}
		t.entries[userID] = entry
	}
	t.mu.Unlock()

	now := t.now()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.count > 0 && now.Sub(entry.lastFailureAt) > t.window {
		entry.count = 0
	}
	entry.count++
	entry.lastFailureAt = now
	return entry.count
}

// Reset removes any tracked state for the principal.
func (t *MemoryFailureTracker) Reset(userID string) {
	t.mu.Lock()
	delete(t.entries, userID)
	t.mu.Unlock()
}

package orchestrator

import (
	"sync"
	"time"
)

// dedupTracker implements the orchestrator's re-delivery guard: if a key has
// been seen within the configured window, the new invocation is treated as a
// duplicate and must not start a second Run.
type dedupTracker struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	now     func() time.Time
	entries int // watermark for opportunistic pruning
}

func newDedupTracker(now func() time.Time) *dedupTracker {
	if now == nil {
		now = time.Now
	}
	return &dedupTracker{seen: make(map[string]time.Time), now: now}
}

// markIfNew records key as seen and returns true if it was not already
// present within window. A duplicate call within window returns false
// without updating the recorded time, so the window is anchored to the
// first delivery, not the latest retry.
func (d *dedupTracker) markIfNew(key string, window time.Duration) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if window <= 0 {
		d.seen[key] = now
		return true
	}

	if at, ok := d.seen[key]; ok && now.Sub(at) < window {
		return false
	}

	d.seen[key] = now
	d.entries++
	if d.entries >= 256 {
		d.prune(now, window)
	}
	return true
}

func (d *dedupTracker) prune(now time.Time, window time.Duration) {
	for k, at := range d.seen {
		if now.Sub(at) >= window {
			delete(d.seen, k)
		}
	}
	d.entries = 0
}

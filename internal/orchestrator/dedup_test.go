package orchestrator

import (
	"testing"
	"time"
)

func TestDedupTracker_FirstDeliveryIsNew(t *testing.T) {
	t.Parallel()

	d := newDedupTracker(nil)
	if !d.markIfNew("abc:synchronize", 10*time.Minute) {
		t.Fatal("first delivery of a key must be treated as new")
	}
}

func TestDedupTracker_RetryWithinWindowIsDuplicate(t *testing.T) {
	t.Parallel()

	now := time.Now()
	clock := func() time.Time { return now }
	d := newDedupTracker(clock)

	if !d.markIfNew("abc:synchronize", 10*time.Minute) {
		t.Fatal("first delivery must be new")
	}
	now = now.Add(5 * time.Minute)
	if d.markIfNew("abc:synchronize", 10*time.Minute) {
		t.Fatal("retry inside the window must be a duplicate")
	}
}

func TestDedupTracker_WindowAnchoredToFirstDelivery(t *testing.T) {
	t.Parallel()

	now := time.Now()
	clock := func() time.Time { return now }
	d := newDedupTracker(clock)

	if !d.markIfNew("abc:synchronize", 10*time.Minute) {
		t.Fatal("first delivery must be new")
	}

	// A retry at t+9m is still a duplicate and must not reset the window.
	now = now.Add(9 * time.Minute)
	if d.markIfNew("abc:synchronize", 10*time.Minute) {
		t.Fatal("retry at t+9m must be a duplicate")
	}

	// At t+11m from the *first* delivery, the window has elapsed even though
	// the retry landed only 2m after the last check.
	now = now.Add(2 * time.Minute)
	if !d.markIfNew("abc:synchronize", 10*time.Minute) {
		t.Fatal("delivery past the window anchored to first delivery must be new")
	}
}

func TestDedupTracker_DistinctKeysAreIndependent(t *testing.T) {
	t.Parallel()

	d := newDedupTracker(nil)
	if !d.markIfNew("abc:synchronize", 10*time.Minute) {
		t.Fatal("key abc must be new")
	}
	if !d.markIfNew("def:synchronize", 10*time.Minute) {
		t.Fatal("distinct key def must be new")
	}
}

func TestDedupTracker_ZeroWindowNeverDeduplicates(t *testing.T) {
	t.Parallel()

	d := newDedupTracker(nil)
	if !d.markIfNew("abc:synchronize", 0) {
		t.Fatal("first call with zero window must be new")
	}
	if !d.markIfNew("abc:synchronize", 0) {
		t.Fatal("a zero window disables deduplication entirely")
	}
}

func TestDedupTracker_PruneDropsExpiredEntries(t *testing.T) {
	t.Parallel()

	now := time.Now()
	clock := func() time.Time { return now }
	d := newDedupTracker(clock)

	d.markIfNew("abc:synchronize", time.Minute)
	now = now.Add(2 * time.Minute)
	d.prune(now, time.Minute)

	if _, ok := d.seen["abc:synchronize"]; ok {
		t.Fatal("expired entry should have been pruned")
	}
}

// internal/escalation/tracker.go
package escalation

import (
	"sync"
	"time"
)

// failureRecord tracks per-user failed interactions inside a sliding window.
type failureRecord struct {
	count    int
	lastTime time.Time
	reasons  []string
}

// failureTracker counts failed interactions per user. Failures age out when
// no new failure arrives within the window.
type failureTracker struct {
	mu     sync.Mutex
	users  map[string]*failureRecord
	window time.Duration
	now    func() time.Time
}

func newFailureTracker(window time.Duration) *failureTracker {
	return &failureTracker{
		users:  make(map[string]*failureRecord),
		window: window,
		now:    time.Now,
	}
}

// Record adds one failure and returns the current count and recent reasons.
func (t *failureTracker) Record(userID, reason string) (int, []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.users[userID]
	if rec == nil {
		rec = &failureRecord{}
		t.users[userID] = rec
	}

	now := t.now()
	if rec.count > 0 && now.Sub(rec.lastTime) > t.window {
		rec.count = 0
		rec.reasons = nil
	}

	rec.count++
	rec.lastTime = now
	rec.reasons = append(rec.reasons, reason)
	if len(rec.reasons) > 3 {
		rec.reasons = rec.reasons[len(rec.reasons)-3:]
	}

	return rec.count, append([]string(nil), rec.reasons...)
}

// Count returns the live failure count for a user.
func (t *failureTracker) Count(userID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.users[userID]
	if rec == nil {
		return 0
	}
	if rec.count > 0 && t.now().Sub(rec.lastTime) > t.window {
		rec.count = 0
		rec.reasons = nil
	}
	return rec.count
}

// Reset clears the counter after a successful interaction.
func (t *failureTracker) Reset(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.users, userID)
}

// internal/dialog/session_test.go
package dialog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"care-chatbot/internal/common/config"
	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/models"
)

func newTestSessionStore(t *testing.T) *SessionStore {
	return NewSessionStore(config.SessionConfig{
		TTL:           1800,
		SweepInterval: 60,
		MaxHistory:    5,
	}, logger.NewTestLogger(t))
}

func TestSessionStore_AcquireIsIdempotent(t *testing.T) {
	store := newTestSessionStore(t)

	first := store.Acquire("user-1")
	second := store.Acquire("user-1")

	assert.Same(t, first, second)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "user-1", first.State.UserID)
}

func TestSessionStore_TouchCapsHistory(t *testing.T) {
	store := newTestSessionStore(t)
	session := store.Acquire("user-1")

	for i := 0; i < 12; i++ {
		session.State.History = append(session.State.History, models.Turn{UserText: "hi"})
	}
	store.Touch(session.State)

	assert.Len(t, session.State.History, 5)
	assert.False(t, session.State.LastActivity.IsZero())
}

func TestSessionStore_SweepEvictsExpired(t *testing.T) {
	store := newTestSessionStore(t)

	stale := store.Acquire("stale-user")
	stale.State.LastActivity = time.Now().UTC().Add(-2 * time.Hour)

	fresh := store.Acquire("fresh-user")
	fresh.State.LastActivity = time.Now().UTC()

	evicted := store.Sweep()

	assert.Equal(t, 1, evicted)
	_, ok := store.Get("stale-user")
	assert.False(t, ok)
	_, ok = store.Get("fresh-user")
	assert.True(t, ok)
}

func TestSessionStore_SweepWaitsForLiveTurn(t *testing.T) {
	store := newTestSessionStore(t)

	session := store.Acquire("user-1")
	session.State.LastActivity = time.Now().UTC().Add(-2 * time.Hour)

	// Simulate a turn in flight: the sweep must block on the entry lock and
	// then see the refreshed activity instead of evicting.
	session.Lock()
	done := make(chan int, 1)
	go func() { done <- store.Sweep() }()

	session.State.LastActivity = time.Now().UTC()
	session.Unlock()

	select {
	case evicted := <-done:
		assert.Equal(t, 0, evicted)
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not finish")
	}

	_, ok := store.Get("user-1")
	require.True(t, ok)
}

func TestSessionStore_Remove(t *testing.T) {
	store := newTestSessionStore(t)
	store.Acquire("user-1")

	assert.True(t, store.Remove("user-1"))
	assert.False(t, store.Remove("user-1"))
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.ActiveUsers())
}

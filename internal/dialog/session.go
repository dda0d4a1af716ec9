// internal/dialog/session.go
package dialog

import (
	"context"
	"sync"
	"time"

	"care-chatbot/internal/common/config"
	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/common/metrics"
	"care-chatbot/internal/models"
)

// Session is one user's conversation entry. The mutex is held for the whole
// turn so concurrent requests for the same user serialize, and so the sweeper
// never evicts an entry mid-turn.
type Session struct {
	mu    sync.Mutex
	State *models.ConversationState
}

// Lock acquires the session for one turn.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session after the turn.
func (s *Session) Unlock() { s.mu.Unlock() }

// SessionStore keeps conversation state per user with TTL-based eviction.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl        time.Duration
	sweepEvery time.Duration
	maxHistory int
	log        logger.Logger
	now        func() time.Time
}

const (
	defaultSessionTTL = 60 * time.Minute
	defaultSweepEvery = 5 * time.Minute
	defaultMaxHistory = 50
)

// NewSessionStore builds the store from config, falling back to safe defaults.
func NewSessionStore(cfg config.SessionConfig, log logger.Logger) *SessionStore {
	ttl := time.Duration(cfg.TTL) * time.Second
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	sweep := time.Duration(cfg.SweepInterval) * time.Second
	if sweep <= 0 {
		sweep = defaultSweepEvery
	}
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}

	return &SessionStore{
		sessions:   make(map[string]*Session),
		ttl:        ttl,
		sweepEvery: sweep,
		maxHistory: maxHistory,
		log:        log,
		now:        time.Now,
	}
}

// Acquire returns the user's session, creating it on first contact. The
// caller must Lock the session before touching its state.
func (s *SessionStore) Acquire(userID string) *Session {
	s.mu.RLock()
	session, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok {
		return session
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok = s.sessions[userID]; ok {
		return session
	}

	session = &Session{State: models.NewConversationState(userID)}
	s.sessions[userID] = session
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.log.Debug("session created", map[string]interface{}{"user_id": userID})
	return session
}

// Get returns the session without creating one.
func (s *SessionStore) Get(userID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	return session, ok
}

// Touch records activity and caps history length. Called with the session
// already locked.
func (s *SessionStore) Touch(state *models.ConversationState) {
	state.LastActivity = s.now().UTC()
	if len(state.History) > s.maxHistory {
		state.History = state.History[len(state.History)-s.maxHistory:]
	}
}

// Remove drops a user's session entirely.
func (s *SessionStore) Remove(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; !ok {
		return false
	}
	delete(s.sessions, userID)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	return true
}

// ActiveUsers lists user IDs with live sessions.
func (s *SessionStore) ActiveUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, 0, len(s.sessions))
	for userID := range s.sessions {
		users = append(users, userID)
	}
	return users
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// RunSweeper evicts expired sessions until ctx is cancelled. Each candidate
// entry is locked before eviction so an in-flight turn finishes first.
func (s *SessionStore) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep performs one eviction pass and returns how many sessions were removed.
func (s *SessionStore) Sweep() int {
	cutoff := s.now().UTC().Add(-s.ttl)

	s.mu.RLock()
	candidates := make(map[string]*Session)
	for userID, session := range s.sessions {
		candidates[userID] = session
	}
	s.mu.RUnlock()

	evicted := 0
	for userID, session := range candidates {
		session.Lock()
		expired := session.State.LastActivity.Before(cutoff)
		session.Unlock()
		if !expired {
			continue
		}

		s.mu.Lock()
		// Re-check under the store lock: a turn may have landed meanwhile.
		if current, ok := s.sessions[userID]; ok && current == session {
			current.Lock()
			if current.State.LastActivity.Before(cutoff) {
				delete(s.sessions, userID)
				evicted++
			}
			current.Unlock()
		}
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
		s.mu.Unlock()
	}

	if evicted > 0 {
		s.log.Info("expired sessions evicted", map[string]interface{}{"count": evicted})
	}
	return evicted
}

// Package session keeps per-conversation chat history in memory.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rmacedo/apontabot/internal/domain"
)

// Defaults for idle expiry.
const (
	DefaultIdleTimeout   = 30 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

// Store holds active sessions keyed by conversation id. All methods are
// safe for concurrent use.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*domain.Session
	idleTimeout time.Duration
	now         func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithIdleTimeout overrides the idle expiry.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions:    make(map[string]*domain.Session),
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreate returns the session for the conversation, creating it with
// empty history on first use.
func (s *Store) GetOrCreate(conversationID string) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[conversationID]; ok {
		return sess
	}
	now := s.now()
	sess := &domain.Session{
		ConversationID: conversationID,
		CreatedAt:      now,
		LastActivityAt: now,
		Context:        make(map[string]any),
	}
	s.sessions[conversationID] = sess
	return sess
}

// Append records a turn on the conversation, creating the session if
// needed. History is capped to the most recent turns; the total turn count
// keeps growing.
func (s *Store) Append(conversationID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[conversationID]
	if !ok {
		now := s.now()
		sess = &domain.Session{
			ConversationID: conversationID,
			CreatedAt:      now,
			LastActivityAt: now,
			Context:        make(map[string]any),
		}
		s.sessions[conversationID] = sess
	}
	sess.AppendTurn(role, content, s.now())
}

// History returns a copy of the conversation's recent turns, newest last.
// n <= 0 returns the whole capped history.
func (s *Store) History(conversationID string, n int) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[conversationID]
	if !ok {
		return nil
	}
	if n <= 0 {
		n = len(sess.History)
	}
	turns := sess.RecentTurns(n)
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out
}

// Sweep drops every session idle longer than the timeout and reports how
// many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var removed int
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActivityAt) > s.idleTimeout {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Stats summarizes the live sessions for the health endpoint.
type Stats struct {
	Active   int            `json:"active_sessions"`
	PerTurns map[string]int `json:"turns_per_session,omitempty"`
}

// Stats snapshots the active session count and per-session turn counts.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{Active: len(s.sessions)}
	if len(s.sessions) > 0 {
		st.PerTurns = make(map[string]int, len(s.sessions))
		for id, sess := range s.sessions {
			st.PerTurns[id] = sess.TurnCount
		}
	}
	return st
}

// RunSweeper sweeps on the given interval until the context is canceled.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("expired idle sessions", "removed", n)
			}
		}
	}
}

package domain

import (
	"time"
)

// MaxSessionTurns bounds the per-conversation history. Oldest turns are
// dropped first so the model prompt cost stays bounded.
const MaxSessionTurns = 20

// Turn is a single exchange item in a conversation history.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session holds the isolated state of one conversation. Sessions are never
// shared across conversation IDs.
type Session struct {
	ConversationID string
	History        []Turn
	Context        map[string]any
	CreatedAt      time.Time
	LastActivityAt time.Time
	TurnCount      int
}

// AppendTurn records a turn, bumps the counter and trims history to the most
// recent MaxSessionTurns entries.
func (s *Session) AppendTurn(role, content string, now time.Time) {
	s.History = append(s.History, Turn{Role: role, Content: content, Timestamp: now})
	s.TurnCount++
	if len(s.History) > MaxSessionTurns {
		s.History = s.History[len(s.History)-MaxSessionTurns:]
	}
	s.LastActivityAt = now
}

// RecentTurns returns the last n turns of history.
func (s *Session) RecentTurns(n int) []Turn {
	if n >= len(s.History) {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

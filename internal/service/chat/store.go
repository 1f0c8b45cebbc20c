package chat

import (
	"sync"

	"github.com/rafiq-chat/backend/internal/model/chat"
)

// Store holds the transcript of one browser session in insertion order.
type Store struct {
	mu    sync.RWMutex
	turns []chat.Turn
}

// NewStore returns an empty transcript.
func NewStore() *Store {
	return &Store{turns: make([]chat.Turn, 0, 16)}
}

// Append adds turn to the end of the transcript.
func (s *Store) Append(turn chat.Turn) {
	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.mu.Unlock()
}

// All returns a snapshot of the transcript; callers may modify it freely.
func (s *Store) All() []chat.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Turn, len(s.turns))
	copy(copied, s.turns)
	return copied
}

// Len reports the number of turns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

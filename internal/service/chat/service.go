package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rafiq-chat/backend/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session already has a reply in progress")
)

type entry struct {
	session chat.Session
	store   *Store
	busy    bool
}

// Service owns the transcripts of all live browser sessions. Nothing is
// shared between sessions and nothing is persisted.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*entry
	idleTTL  time.Duration
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithIdleTTL sets how long an untouched session survives before Sweep drops it.
// Zero disables expiry.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *Service) { s.idleTTL = ttl }
}

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService bootstraps the in-memory session registry.
func NewService(opts ...Option) *Service {
	s := &Service{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession provisions an anonymous session with an empty transcript.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	now := s.now().UTC()
	session := chat.Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		LastActive: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = &entry{session: session, store: NewStore()}
	s.mu.Unlock()

	log.Debug().Str("session", session.ID).Msg("session created")
	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return e.session, nil
}

// Store returns the transcript store of a session.
func (s *Service) Store(_ context.Context, sessionID string) (*Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.store, nil
}

// LoadTranscript returns a snapshot of the session's turns.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Turn, error) {
	store, err := s.Store(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return store.All(), nil
}

// Acquire marks the session as having a reply in flight. The returned
// release func must be called exactly once when the turn is finished.
func (s *Service) Acquire(_ context.Context, sessionID string) (*Store, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	if e.busy {
		return nil, nil, ErrSessionBusy
	}

	e.busy = true
	e.session.LastActive = s.now().UTC()

	var once sync.Once
	release := func() {
		once.Do(func() {
			s.mu.Lock()
			e.busy = false
			e.session.LastActive = s.now().UTC()
			s.mu.Unlock()
		})
	}
	return e.store, release, nil
}

// EndSession discards a session and its transcript.
func (s *Service) EndSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	log.Debug().Str("session", sessionID).Msg("session ended")
	return nil
}

// Count reports the number of live sessions.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the configured TTL and returns
// how many were removed. Sessions with a reply in flight are kept.
func (s *Service) Sweep(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}

	cutoff := now.UTC().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.sessions {
		if e.busy || e.session.LastActive.After(cutoff) {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 || s.idleTTL <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				log.Info().Int("removed", n).Int("live", s.Count()).Msg("expired idle sessions")
			}
		}
	}
}

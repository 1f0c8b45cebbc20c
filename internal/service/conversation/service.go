// Package conversation runs one user turn end to end: record the message,
// generate the reply, forward its chunks, record the reply.
package conversation

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/rafiq-chat/backend/internal/model/chat"
	"github.com/rafiq-chat/backend/internal/service/ai"
	chatservice "github.com/rafiq-chat/backend/internal/service/chat"
)

// ErrEmptyMessage is returned for blank submissions.
var ErrEmptyMessage = errors.New("message is empty")

// EmitFunc receives reply chunks as they arrive. An error stops forwarding
// but not the turn itself.
type EmitFunc func(ai.Chunk) error

// Service coordinates the session registry and the response pipeline.
type Service struct {
	sessions *chatservice.Service
	pipeline ai.Pipeline
}

// NewService creates a conversation runner.
func NewService(sessions *chatservice.Service, pipeline ai.Pipeline) *Service {
	return &Service{sessions: sessions, pipeline: pipeline}
}

// Submit runs one turn for sessionID. Configuration errors are returned
// before anything is recorded. Otherwise the user turn and the assistant
// turn are both appended, even when the reply is the failure message or the
// caller stopped listening.
func (s *Service) Submit(ctx context.Context, sessionID, text string, emit EmitFunc) (chat.Turn, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Turn{}, ErrEmptyMessage
	}
	if s.pipeline == nil {
		return chat.Turn{}, errors.Wrap(ai.ErrConfiguration, "no response pipeline")
	}

	store, release, err := s.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return chat.Turn{}, err
	}
	defer release()

	// Once issued, a model call runs to completion; a closed browser tab
	// must not leave the transcript with a dangling user turn.
	callCtx := context.WithoutCancel(ctx)

	userTurn := chat.UserTurn(text)
	transcript := append(store.All(), userTurn)

	reply, err := s.pipeline.Generate(callCtx, text, transcript)
	if err != nil {
		return chat.Turn{}, err
	}
	defer reply.Close()

	store.Append(userTurn)

	emitting := emit != nil
	chunks := 0
	for {
		chunk, recvErr := reply.Recv()
		if recvErr != nil {
			break
		}
		chunks++
		if !emitting {
			continue
		}
		if err := emit(chunk); err != nil {
			log.Debug().Err(err).Str("session", sessionID).Msg("listener gone, finishing turn silently")
			emitting = false
		}
	}

	assistantTurn := chat.AssistantTurn(reply.Content())
	store.Append(assistantTurn)

	log.Info().
		Str("session", sessionID).
		Int("chunks", chunks).
		Int("turns", store.Len()).
		Int("length", len(assistantTurn.Text)).
		Bool("fallback", reply.FellBack()).
		Bool("failed", reply.Failed()).
		Msg("turn completed")

	return assistantTurn, nil
}

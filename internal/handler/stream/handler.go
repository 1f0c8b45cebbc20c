package stream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/rafiq-chat/backend/internal/handler/apierror"
	"github.com/rafiq-chat/backend/internal/model/persona"
	"github.com/rafiq-chat/backend/internal/service/ai"
	"github.com/rafiq-chat/backend/internal/service/conversation"
	"github.com/rafiq-chat/backend/pkg/utils"
)

// Handler manages streaming AI responses via Server-Sent Events
type Handler struct {
	conversation *conversation.Service
	persona      persona.Persona
}

// New creates a new stream handler
func New(convo *conversation.Service, p persona.Persona) *Handler {
	return &Handler{
		conversation: convo,
		persona:      p,
	}
}

// Event names sent to the browser.
const (
	EventStart   = "start"
	EventDelta   = "delta"
	EventReplace = "replace"
	EventMessage = "message"
	EventError   = "error"
	EventEnd     = "end"
)

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Failed    bool   `json:"failed,omitempty"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest runs one turn for sessionID and streams its chunks.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	_ = h.sendSSE(w, flusher, StreamResponse{
		Event:     EventStart,
		SessionID: sessionID,
		Content:   h.persona.Name,
	})

	turn, err := h.conversation.Submit(ctx, sessionID, userMessage, func(chunk ai.Chunk) error {
		event := EventDelta
		if chunk.Replace {
			event = EventReplace
		}
		return h.sendSSE(w, flusher, StreamResponse{
			Event:     event,
			SessionID: sessionID,
			Content:   chunk.Text,
			Failed:    chunk.Failed,
		})
	})
	if err != nil {
		h.sendSSEError(w, flusher, sessionID, err)
		return err
	}

	_ = h.sendSSE(w, flusher, StreamResponse{
		Event:     EventMessage,
		SessionID: sessionID,
		Content:   turn.Text,
	})
	_ = h.sendSSE(w, flusher, StreamResponse{
		Event:     EventEnd,
		SessionID: sessionID,
		Finished:  true,
	})

	log.Debug().Str("session", sessionID).Msg("[stream] completed response")
	return nil
}

// sendSSE sends a Server-Sent Event
func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) error {
	return utils.SendSSEChunk(w, flusher, response)
}

// sendSSEError reports err and closes the exchange; the browser must not
// keep the EventSource open after an error.
func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, sessionID string, err error) {
	_ = h.sendSSE(w, flusher, StreamResponse{
		Event:     EventError,
		SessionID: sessionID,
		Code:      apierror.Code(err),
		Error:     err.Error(),
	})
	_ = h.sendSSE(w, flusher, StreamResponse{
		Event:     EventEnd,
		SessionID: sessionID,
		Finished:  true,
	})
}

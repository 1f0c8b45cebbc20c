// Package apierror maps service errors onto HTTP statuses and short codes
// shared by the REST, SSE and websocket transports.
package apierror

import (
	"errors"
	"net/http"

	"github.com/rafiq-chat/backend/internal/service/ai"
	chatservice "github.com/rafiq-chat/backend/internal/service/chat"
	"github.com/rafiq-chat/backend/internal/service/conversation"
)

// Status returns the HTTP status for err.
func Status(err error) int {
	switch {
	case errors.Is(err, chatservice.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatservice.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, conversation.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, ai.ErrConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a stable machine-readable code for err.
func Code(err error) string {
	switch {
	case errors.Is(err, chatservice.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, chatservice.ErrSessionBusy):
		return "session_busy"
	case errors.Is(err, conversation.ErrEmptyMessage):
		return "empty_message"
	case errors.Is(err, ai.ErrConfiguration):
		return "configuration"
	default:
		return "internal"
	}
}

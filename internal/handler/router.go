package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/rafiq-chat/backend/internal/handler/chat"
	"github.com/rafiq-chat/backend/internal/handler/persona"
	"github.com/rafiq-chat/backend/internal/handler/stream"
	"github.com/rafiq-chat/backend/internal/handler/web"
	"github.com/rafiq-chat/backend/internal/handler/ws"
	middlewarePkg "github.com/rafiq-chat/backend/internal/middleware"
	personaModel "github.com/rafiq-chat/backend/internal/model/persona"
	chatService "github.com/rafiq-chat/backend/internal/service/chat"
	"github.com/rafiq-chat/backend/internal/service/conversation"
	"github.com/rafiq-chat/backend/pkg/utils"
)

// Readiness reports whether the response pipeline can reach a model.
type Readiness interface {
	Ready() error
}

// NewRouter wires HTTP routes to core services.
func NewRouter(p personaModel.Persona, chatSvc *chatService.Service, convo *conversation.Service, pipeline Readiness) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	// Create handlers
	personaHandler := persona.New(p)
	chatHandler := chat.New(chatSvc)
	streamHandler := stream.New(convo, p)
	wsHandler := ws.New(chatSvc, convo, p)

	web.New().RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		status := "ready"
		if err := pipeline.Ready(); err != nil {
			status = err.Error()
		}
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"pipeline": status,
			"sessions": chatSvc.Count(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				// headers are already sent; the error went out as an SSE event
				log.Debug().Err(err).Str("session", sessionID).Msg("[stream] turn rejected")
			}
		})
	})

	return r
}

package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rafiq-chat/backend/internal/model/persona"
	"github.com/rafiq-chat/backend/pkg/utils"
)

// Handler persona展示信息的HTTP处理器
type Handler struct {
	persona persona.Persona
}

// New 创建persona处理器
func New(p persona.Persona) *Handler {
	return &Handler{persona: p}
}

// RegisterRoutes 注册persona相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/persona", h.handleGetPersona)
}

// handleGetPersona 返回UI需要的persona信息，不包含提示词模板
func (h *Handler) handleGetPersona(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.persona)
}

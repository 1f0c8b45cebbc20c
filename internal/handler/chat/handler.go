package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rafiq-chat/backend/internal/handler/apierror"
	chatService "github.com/rafiq-chat/backend/internal/service/chat"
	"github.com/rafiq-chat/backend/pkg/utils"
)

// Handler 会话生命周期与对话记录的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}", h.handleGetSession)
	r.Get("/session/{sessionID}/transcript", h.handleTranscript)
	r.Delete("/session/{sessionID}", h.handleEndSession)
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, apierror.Status(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleGetSession 查询会话
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, apierror.Status(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, session)
}

// handleTranscript 返回按顺序排列的对话记录
func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turns, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, apierror.Status(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"turns":     turns,
	})
}

// handleEndSession 结束会话并丢弃对话记录
func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.EndSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		utils.RespondError(w, apierror.Status(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

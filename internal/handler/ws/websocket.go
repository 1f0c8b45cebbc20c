package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/rafiq-chat/backend/internal/handler/apierror"
	"github.com/rafiq-chat/backend/internal/model/persona"
	"github.com/rafiq-chat/backend/internal/service/ai"
	chatservice "github.com/rafiq-chat/backend/internal/service/chat"
	"github.com/rafiq-chat/backend/internal/service/conversation"
)

const (
	defaultReadTimeout = 60 * time.Second
	writeTimeout       = 10 * time.Second
	maxFrameSize       = 64 << 10
)

// Handler WebSocket对话处理器：同一连接上按顺序处理消息，每次只有一个回复在进行。
type Handler struct {
	chatSvc      *chatservice.Service
	conversation *conversation.Service
	persona      persona.Persona
	upgrader     websocket.Upgrader
	readTimeout  time.Duration
}

// Option 定制处理器
type Option func(*Handler)

// WithReadTimeout 设置空闲连接的读超时；ping 间隔取其九成。
func WithReadTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.readTimeout = d
		}
	}
}

// New 创建WebSocket处理器
func New(chatSvc *chatservice.Service, convo *conversation.Service, p persona.Persona, opts ...Option) *Handler {
	h := &Handler{
		chatSvc:      chatSvc,
		conversation: convo,
		persona:      p,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		readTimeout: defaultReadTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) pingInterval() time.Duration {
	return h.readTimeout * 9 / 10
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// InboundMessage is a frame sent by the browser.
type InboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// OutgoingMessage is a frame sent to the browser. Types mirror the SSE events.
type OutgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Text      string `json:"text,omitempty"`
	Failed    bool   `json:"failed,omitempty"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, err.Error(), apierror.Status(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("[websocket] upgrade failed")
		return
	}
	defer conn.Close()

	log.Debug().Str("session", sessionID).Msg("[websocket] connection opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	go h.pingLoop(ctx, conn)

	h.send(conn, OutgoingMessage{Type: "connected", SessionID: sessionID, Text: h.persona.Name})

	for {
		var msg InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("session", sessionID).Msg("[websocket] read error")
			} else {
				log.Debug().Err(err).Str("session", sessionID).Msg("[websocket] connection closed")
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))

		switch msg.Type {
		case "message":
			// 回复期间不读取，pong 无法续期，先取消读超时，结束后重新计时
			_ = conn.SetReadDeadline(time.Time{})
			h.handleUserText(ctx, conn, sessionID, msg.Text)
			_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
		case "ping":
			h.send(conn, OutgoingMessage{Type: "pong", SessionID: sessionID})
		default:
			h.send(conn, OutgoingMessage{Type: "error", SessionID: sessionID, Code: "unsupported", Error: "unsupported message type: " + msg.Type})
		}
	}
}

func (h *Handler) handleUserText(ctx context.Context, conn *websocket.Conn, sessionID, text string) {
	h.send(conn, OutgoingMessage{Type: "start", SessionID: sessionID, Text: h.persona.Name})

	turn, err := h.conversation.Submit(ctx, sessionID, text, func(chunk ai.Chunk) error {
		kind := "delta"
		if chunk.Replace {
			kind = "replace"
		}
		return h.send(conn, OutgoingMessage{Type: kind, SessionID: sessionID, Text: chunk.Text, Failed: chunk.Failed})
	})
	if err != nil {
		h.send(conn, OutgoingMessage{Type: "error", SessionID: sessionID, Code: apierror.Code(err), Error: err.Error()})
		h.send(conn, OutgoingMessage{Type: "end", SessionID: sessionID})
		return
	}

	h.send(conn, OutgoingMessage{Type: "message", SessionID: sessionID, Text: turn.Text})
	h.send(conn, OutgoingMessage{Type: "end", SessionID: sessionID})
}

// send writes one frame. Only the read loop goroutine calls it; pings go
// through WriteControl, which gorilla allows concurrently.
func (h *Handler) send(conn *websocket.Conn, msg OutgoingMessage) error {
	msg.Timestamp = time.Now().Unix()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		log.Debug().Err(err).Str("type", msg.Type).Msg("[websocket] write failed")
		return err
	}
	return nil
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.pingInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

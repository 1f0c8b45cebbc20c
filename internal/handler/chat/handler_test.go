package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/rafiq-chat/backend/internal/model/chat"
	chatservice "github.com/rafiq-chat/backend/internal/service/chat"
)

func setupRouter() (*chi.Mux, *chatservice.Service) {
	chatSvc := chatservice.NewService()
	handler := New(chatSvc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func TestCreateSession(t *testing.T) {
	r, chatSvc := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/session", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)

	var session model.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))
	assert.NotEmpty(t, session.ID)

	_, err := chatSvc.GetSession(context.Background(), session.ID)
	assert.NoError(t, err)
}

func TestTranscriptReturnsTurnsInOrder(t *testing.T) {
	r, chatSvc := setupRouter()
	ctx := context.Background()
	session, _ := chatSvc.CreateSession(ctx)
	store, _ := chatSvc.Store(ctx, session.ID)
	store.Append(model.UserTurn("hello"))
	store.Append(model.AssistantTurn("Hi there"))

	req := httptest.NewRequest(http.MethodGet, "/session/"+session.ID+"/transcript", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		SessionID string       `json:"sessionId"`
		Turns     []model.Turn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, session.ID, body.SessionID)
	require.Len(t, body.Turns, 2)
	assert.Equal(t, model.RoleUser, body.Turns[0].Role)
	assert.Equal(t, "Hi there", body.Turns[1].Text)
}

func TestTranscriptUnknownSession(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/session/missing/transcript", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestEndSession(t *testing.T) {
	r, chatSvc := setupRouter()
	session, _ := chatSvc.CreateSession(context.Background())

	req := httptest.NewRequest(http.MethodDelete, "/session/"+session.ID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	req = httptest.NewRequest(http.MethodGet, "/session/"+session.ID, nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

// Package aitest provides a canned chat model and pipeline for transport tests.
package aitest

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/rafiq-chat/backend/internal/config"
	"github.com/rafiq-chat/backend/internal/model/persona"
	"github.com/rafiq-chat/backend/internal/service/ai"
)

// Model streams Chunks on every call, or fails with Err. Delay holds each
// call before it answers.
type Model struct {
	Chunks []string
	Err    error
	Delay  time.Duration
	calls  atomic.Int32
}

// Calls reports how many times the model was called.
func (m *Model) Calls() int {
	return int(m.calls.Load())
}

func (m *Model) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.calls.Add(1)
	time.Sleep(m.Delay)
	if m.Err != nil {
		return nil, m.Err
	}
	var text string
	for _, c := range m.Chunks {
		text += c
	}
	return schema.AssistantMessage(text, nil), nil
}

func (m *Model) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.calls.Add(1)
	time.Sleep(m.Delay)
	if m.Err != nil {
		return nil, m.Err
	}
	msgs := make([]*schema.Message, 0, len(m.Chunks))
	for _, c := range m.Chunks {
		msgs = append(msgs, schema.AssistantMessage(c, nil))
	}
	return schema.StreamReaderFromArray(msgs), nil
}

// Config returns a streaming configuration with a dummy credential.
func Config() config.AIConfig {
	return config.AIConfig{
		Provider:       config.ProviderGemini,
		GoogleAPIKey:   "test-key",
		GeminiModel:    "gemini-2.0-flash-exp",
		StreamResponse: true,
		Timeout:        5 * time.Second,
	}
}

// Pipeline wires m into a real ai.Service.
func Pipeline(t testing.TB, m *Model) *ai.Service {
	t.Helper()
	svc, err := ai.New(context.Background(), persona.Rafiq(), Config(), m)
	if err != nil {
		t.Fatalf("ai.New: %v", err)
	}
	return svc
}

package ai

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// fakeModel scripts a chat model and counts calls to it.
type fakeModel struct {
	mu sync.Mutex

	streamChunks []string
	streamErr    error
	midStreamErr error

	generateText string
	generateErr  error

	streamCalls   int
	generateCalls int
	lastInput     []*schema.Message
}

func (f *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.generateCalls++
	f.lastInput = input
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return schema.AssistantMessage(f.generateText, nil), nil
}

func (f *fakeModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.streamCalls++
	f.lastInput = input
	if f.streamErr != nil {
		return nil, f.streamErr
	}

	sr, sw := schema.Pipe[*schema.Message](len(f.streamChunks) + 1)
	for _, text := range f.streamChunks {
		sw.Send(schema.AssistantMessage(text, nil), nil)
	}
	if f.midStreamErr != nil {
		sw.Send(nil, f.midStreamErr)
	}
	sw.Close()
	return sr, nil
}

func (f *fakeModel) calls() (stream, generate int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streamCalls, f.generateCalls
}

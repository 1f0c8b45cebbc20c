package ai

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
)

// Chunk is one piece of a reply. Replace means the text supersedes
// everything delivered before it; Failed marks the persona's failure message.
type Chunk struct {
	Text    string `json:"text"`
	Replace bool   `json:"replace,omitempty"`
	Failed  bool   `json:"failed,omitempty"`
}

// Reply is a lazy, finite, non-restartable sequence of chunks. It is not safe
// for concurrent use.
type Reply struct {
	svc    *Service
	ctx    context.Context
	input  map[string]any
	stream *schema.StreamReader[*schema.Message]
	cancel context.CancelFunc

	pending   []Chunk
	content   strings.Builder
	delivered bool
	fellBack  bool
	failed    bool
	done      bool
}

// Recv returns the next chunk, or io.EOF once the reply is complete.
func (r *Reply) Recv() (Chunk, error) {
	for {
		if r.done {
			return Chunk{}, io.EOF
		}

		if len(r.pending) > 0 {
			chunk := r.pending[0]
			r.pending = r.pending[1:]
			r.record(chunk)
			return chunk, nil
		}

		if r.stream == nil {
			r.done = true
			return Chunk{}, io.EOF
		}

		msg, err := r.stream.Recv()
		if errors.Is(err, io.EOF) {
			r.closeStream()
			continue
		}
		if err != nil {
			r.closeStream()
			log.Warn().Err(err).Bool("partial", r.delivered).Msg("[ai] stream interrupted, falling back")
			r.fallback()
			continue
		}
		if msg == nil || msg.Content == "" {
			continue
		}

		chunk := Chunk{Text: msg.Content}
		r.record(chunk)
		return chunk, nil
	}
}

// Close releases the underlying stream. Calling it before EOF abandons the
// rest of the reply.
func (r *Reply) Close() {
	r.closeStream()
	r.pending = nil
	r.done = true
}

// Content is the concatenated reply text delivered so far, honoring Replace.
func (r *Reply) Content() string {
	return r.content.String()
}

// FellBack reports whether the non-streaming fallback ran.
func (r *Reply) FellBack() bool {
	return r.fellBack
}

// Failed reports whether the reply ended in the failure message.
func (r *Reply) Failed() bool {
	return r.failed
}

// Collect drains reply and returns the final text.
func Collect(reply *Reply) (string, error) {
	defer reply.Close()
	for {
		if _, err := reply.Recv(); err != nil {
			if errors.Is(err, io.EOF) {
				return reply.Content(), nil
			}
			return reply.Content(), err
		}
	}
}

func (r *Reply) record(chunk Chunk) {
	if chunk.Replace {
		r.content.Reset()
	}
	r.content.WriteString(chunk.Text)
	r.delivered = true
	r.failed = chunk.Failed
}

func (r *Reply) closeStream() {
	if r.stream != nil {
		r.stream.Close()
		r.stream = nil
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

// fallback runs the single non-streaming retry.
func (r *Reply) fallback() {
	if r.fellBack {
		return
	}
	r.fellBack = true
	r.complete()
}

// complete queues the result of one non-streaming call, or the failure
// message when that call fails.
func (r *Reply) complete() {
	text, err := r.svc.invoke(r.ctx, r.input)
	if err != nil {
		log.Error().Err(err).Msg("[ai] non-streaming call failed")
		r.pending = append(r.pending, Chunk{
			Text:    r.svc.persona.FailureMessage,
			Replace: r.delivered,
			Failed:  true,
		})
		return
	}
	r.pending = append(r.pending, Chunk{Text: text, Replace: r.delivered})
}

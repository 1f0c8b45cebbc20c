package ai

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/rafiq-chat/backend/internal/config"
	"github.com/rafiq-chat/backend/internal/model/chat"
	"github.com/rafiq-chat/backend/internal/model/persona"
)

// ErrConfiguration is returned by Generate when the model endpoint has no
// usable credential. No network call is made in that case.
var ErrConfiguration = config.ErrConfiguration

const defaultAttemptTimeout = 2 * time.Minute

// Pipeline turns a user message plus the running transcript into a reply.
type Pipeline interface {
	Generate(ctx context.Context, userText string, transcript []chat.Turn) (*Reply, error)
}

// Service renders the persona template and calls the chat model through an
// eino chain. It holds no per-session state and caches nothing.
type Service struct {
	persona   persona.Persona
	cfg       config.AIConfig
	configErr error
	template  prompt.ChatTemplate
	chain     compose.Runnable[map[string]any, *schema.Message]
}

var _ Pipeline = (*Service)(nil)

// NewService builds the chat model from cfg and wires the pipeline. When cfg
// lacks a credential the returned service is unconfigured: no client is
// created and every Generate fails with ErrConfiguration.
func NewService(ctx context.Context, p persona.Persona, cfg config.AIConfig) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return New(ctx, p, cfg, nil)
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create chat model")
	}
	return New(ctx, p, cfg, chatModel)
}

// New wires the pipeline around an existing chat model.
func New(ctx context.Context, p persona.Persona, cfg config.AIConfig, chatModel model.BaseChatModel) (*Service, error) {
	template := prompt.FromMessages(schema.FString, schema.UserMessage(p.Template))

	s := &Service{
		persona:  p,
		cfg:      cfg,
		template: template,
	}

	if err := cfg.Validate(); err != nil {
		s.configErr = err
		return s, nil
	}
	if chatModel == nil {
		s.configErr = errors.Wrap(ErrConfiguration, "no chat model")
		return s, nil
	}

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile chat chain")
	}
	s.chain = runnable
	return s, nil
}

// Ready reports whether the pipeline can reach a model endpoint.
func (s *Service) Ready() error {
	if s == nil {
		return errors.Wrap(ErrConfiguration, "pipeline not initialized")
	}
	return s.configErr
}

// StreamingEnabled 指示是否优先使用流式调用。
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// Persona returns the persona the pipeline speaks as.
func (s *Service) Persona() persona.Persona {
	return s.persona
}

// Generate starts a reply. Only configuration problems are returned as
// errors; transport failures are absorbed by the reply (one non-streaming
// fallback, then the persona's failure message).
func (s *Service) Generate(ctx context.Context, userText string, transcript []chat.Turn) (*Reply, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	reply := &Reply{
		svc:   s,
		ctx:   ctx,
		input: s.buildChainInput(transcript, userText),
	}

	if !s.StreamingEnabled() {
		reply.complete()
		return reply, nil
	}

	streamCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout())
	stream, err := s.chain.Stream(streamCtx, reply.input)
	if err != nil {
		cancel()
		log.Warn().Err(err).Msg("[ai] streaming call failed, falling back")
		reply.fallback()
		return reply, nil
	}

	reply.stream = stream
	reply.cancel = cancel
	return reply, nil
}

// RenderPrompt returns the exact prompt text sent for transcript and userText.
func (s *Service) RenderPrompt(ctx context.Context, transcript []chat.Turn, userText string) (string, error) {
	messages, err := s.template.Format(ctx, s.buildChainInput(transcript, userText))
	if err != nil {
		return "", errors.Wrap(err, "render persona template")
	}
	if len(messages) == 0 || messages[0] == nil {
		return "", errors.New("persona template rendered no message")
	}
	return messages[0].Content, nil
}

// invoke runs one non-streaming call and returns its text.
func (s *Service) invoke(ctx context.Context, input map[string]any) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout())
	defer cancel()

	response, err := s.chain.Invoke(callCtx, input)
	if err != nil {
		return "", errors.Wrap(err, "failed to run AI chain")
	}
	if response == nil {
		return "", errors.New("model returned no message")
	}
	return response.Content, nil
}

func (s *Service) buildChainInput(transcript []chat.Turn, userText string) map[string]any {
	return map[string]any{
		persona.HistorySlot:  FormatHistory(s.persona, transcript),
		persona.QuestionSlot: userText,
	}
}

func (s *Service) attemptTimeout() time.Duration {
	if s.cfg.Timeout > 0 {
		return s.cfg.Timeout
	}
	return defaultAttemptTimeout
}

// Package gemini adapts the Google Gemini API to eino's chat model interface
// so it can sit in the same compose chain as the Ark model.
package gemini

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"
	"google.golang.org/genai"
)

// Config describes a Gemini chat model.
type Config struct {
	APIKey      string
	Model       string
	Temperature *float32
	TopP        *float32
	MaxTokens   *int

	// BaseURL 为空时使用官方端点
	BaseURL string
}

// ChatModel implements model.BaseChatModel on top of genai.
type ChatModel struct {
	client *genai.Client
	conf   Config
}

var _ model.BaseChatModel = (*ChatModel)(nil)

// NewChatModel creates a Gemini client bound to cfg.Model.
func NewChatModel(ctx context.Context, cfg *Config) (*ChatModel, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini: model is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, errors.Wrap(err, "gemini: create client")
	}

	return &ChatModel{client: client, conf: *cfg}, nil
}

// Generate returns the complete reply in one message.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	modelName, contents, genCfg := m.prepare(input, opts)

	resp, err := m.client.Models.GenerateContent(ctx, modelName, contents, genCfg)
	if err != nil {
		return nil, errors.Wrap(err, "gemini: generate content")
	}
	if resp == nil {
		return nil, errors.New("gemini: empty response")
	}

	return schema.AssistantMessage(resp.Text(), nil), nil
}

// Stream pumps the Gemini response stream into an eino stream reader. The
// reader ends with io.EOF, or with the transport error that stopped it.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	modelName, contents, genCfg := m.prepare(input, opts)

	sr, sw := schema.Pipe[*schema.Message](8)
	go func() {
		defer sw.Close()
		for resp, err := range m.client.Models.GenerateContentStream(ctx, modelName, contents, genCfg) {
			if err != nil {
				sw.Send(nil, errors.Wrap(err, "gemini: stream content"))
				return
			}
			if resp == nil {
				continue
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if closed := sw.Send(schema.AssistantMessage(text, nil), nil); closed {
				return
			}
		}
	}()

	return sr, nil
}

func (m *ChatModel) prepare(input []*schema.Message, opts []model.Option) (string, []*genai.Content, *genai.GenerateContentConfig) {
	modelName := m.conf.Model
	options := model.GetCommonOptions(&model.Options{
		Model:       &modelName,
		Temperature: m.conf.Temperature,
		TopP:        m.conf.TopP,
		MaxTokens:   m.conf.MaxTokens,
	}, opts...)

	contents, system := toContents(input)

	genCfg := &genai.GenerateContentConfig{
		Temperature: options.Temperature,
		TopP:        options.TopP,
	}
	if options.MaxTokens != nil {
		genCfg.MaxOutputTokens = int32(*options.MaxTokens)
	}
	if len(options.Stop) > 0 {
		genCfg.StopSequences = options.Stop
	}
	if system != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	if options.Model != nil && *options.Model != "" {
		modelName = *options.Model
	}
	return modelName, contents, genCfg
}

// toContents maps eino messages to Gemini contents. System messages are
// merged into one system instruction; tool messages are not used here.
func toContents(input []*schema.Message) ([]*genai.Content, string) {
	contents := make([]*genai.Content, 0, len(input))
	var system []string

	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			system = append(system, msg.Content)
		case schema.Assistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		case schema.User:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	return contents, strings.Join(system, "\n\n")
}

package gemini

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToContentsMapsRoles(t *testing.T) {
	contents, system := toContents([]*schema.Message{
		schema.SystemMessage("be kind"),
		schema.UserMessage("hello"),
		schema.AssistantMessage("Hi there", nil),
		nil,
		schema.SystemMessage("stay short"),
	})

	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "hello", contents[0].Parts[0].Text)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "Hi there", contents[1].Parts[0].Text)
	assert.Equal(t, "be kind\n\nstay short", system)
}

func TestNewChatModelRequiresKeyAndModel(t *testing.T) {
	_, err := NewChatModel(context.Background(), &Config{Model: "gemini-2.0-flash-exp"})
	assert.Error(t, err)

	_, err = NewChatModel(context.Background(), &Config{APIKey: "k"})
	assert.Error(t, err)

	_, err = NewChatModel(context.Background(), nil)
	assert.Error(t, err)
}

func TestPrepareAppliesOptions(t *testing.T) {
	temp := float32(0.3)
	maxTokens := 128
	m := &ChatModel{conf: Config{Model: "gemini-2.0-flash-exp", Temperature: &temp, MaxTokens: &maxTokens}}

	name, contents, cfg := m.prepare([]*schema.Message{
		schema.SystemMessage("persona"),
		schema.UserMessage("hello"),
	}, nil)

	assert.Equal(t, "gemini-2.0-flash-exp", name)
	require.Len(t, contents, 1)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.3, *cfg.Temperature, 1e-6)
	assert.Equal(t, int32(128), cfg.MaxOutputTokens)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "persona", cfg.SystemInstruction.Parts[0].Text)
}

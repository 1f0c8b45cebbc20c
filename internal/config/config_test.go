package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "AI_PROVIDER", "GOOGLE_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL",
		"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "ARK_MODEL", "Model",
		"AI_TEMPERATURE", "AI_TOP_P", "AI_MAX_TOKENS", "AI_STREAM", "AI_TIMEOUT",
		"SESSION_IDLE_TTL", "SESSION_SWEEP_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "gemini-2.0-flash-exp", cfg.AI.GeminiModel)
	require.NotNil(t, cfg.AI.Temperature)
	assert.InDelta(t, 0.3, *cfg.AI.Temperature, 1e-9)
	assert.True(t, cfg.AI.StreamResponse)
	assert.Equal(t, 2*time.Minute, cfg.AI.Timeout)
	assert.Equal(t, 6*time.Hour, cfg.Session.IdleTTL)
	assert.Equal(t, 5*time.Minute, cfg.Session.SweepInterval)
	assert.ErrorIs(t, cfg.AI.Validate(), ErrConfiguration)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("AI_PROVIDER", "ARK")
	t.Setenv("ARK_API_KEY", "key")
	t.Setenv("Model", "ep-123")
	t.Setenv("AI_STREAM", "false")
	t.Setenv("AI_MAX_TOKENS", "256")
	t.Setenv("SESSION_IDLE_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, ProviderArk, cfg.AI.Provider)
	assert.Equal(t, "ep-123", cfg.AI.ArkModel)
	assert.False(t, cfg.AI.StreamResponse)
	require.NotNil(t, cfg.AI.MaxTokens)
	assert.Equal(t, 256, *cfg.AI.MaxTokens)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.NoError(t, cfg.AI.Validate())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":             "80 80",
		"AI_STREAM":        "maybe",
		"AI_TEMPERATURE":   "warm",
		"AI_TIMEOUT":       "-1s",
		"SESSION_IDLE_TTL": "forever",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParseAddr(t *testing.T) {
	got, err := ParseAddr("3000")
	require.NoError(t, err)
	assert.Equal(t, ":3000", got.Addr)

	got, err = ParseAddr(":3000")
	require.NoError(t, err)
	assert.Equal(t, ":3000", got.Addr)

	_, err = ParseAddr("")
	assert.Error(t, err)
}

func TestValidateByProvider(t *testing.T) {
	gem := AIConfig{Provider: ProviderGemini, GeminiModel: "m"}
	assert.True(t, errors.Is(gem.Validate(), ErrConfiguration))
	gem.GoogleAPIKey = "k"
	assert.NoError(t, gem.Validate())

	arkCfg := AIConfig{Provider: ProviderArk, ArkModel: "ep", ArkAccessKey: "ak"}
	assert.True(t, errors.Is(arkCfg.Validate(), ErrConfiguration))
	arkCfg.ArkSecretKey = "sk"
	assert.NoError(t, arkCfg.Validate())

	assert.True(t, errors.Is(AIConfig{Provider: "openai"}.Validate(), ErrConfiguration))
}

func TestNewChatModelWithoutCredential(t *testing.T) {
	cfg := AIConfig{Provider: ProviderGemini, GeminiModel: "gemini-2.0-flash-exp"}

	m, err := cfg.NewChatModel(context.Background())
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

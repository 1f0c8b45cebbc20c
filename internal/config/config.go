package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/pkg/errors"

	"github.com/rafiq-chat/backend/internal/llm/gemini"
)

// ErrConfiguration 表示模型端点缺少必需配置，调用方不应再尝试任何网络请求。
var ErrConfiguration = errors.New("model endpoint not configured")

// 支持的模型提供方。
const (
	ProviderGemini = "gemini"
	ProviderArk    = "ark"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Session SessionConfig
	Log     LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		Session: session,
		Log:     LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "info")},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// LogConfig 描述日志配置。
type LogConfig struct {
	Level string
}

// SessionConfig 控制浏览器会话在内存中的保留时间。
type SessionConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}
	return ParseAddr(port)
}

// ParseAddr 接受 "8080"、":8080" 或 "127.0.0.1:8080"。
func ParseAddr(raw string) (ServerConfig, error) {
	port := strings.TrimSpace(raw)
	if port == "" || strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", raw)
	}
	if strings.Contains(port, ":") {
		return ServerConfig{Addr: port}, nil
	}
	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig 描述大模型相关配置。凭证在启动时读取一次，之后只读。
type AIConfig struct {
	Provider       string
	GoogleAPIKey   string
	GeminiModel    string
	GeminiBaseURL  string
	ArkAPIKey      string
	ArkAccessKey   string
	ArkSecretKey   string
	ArkModel       string
	ArkBaseURL     string
	ArkRegion      string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool
	Timeout        time.Duration
}

func (c AIConfig) validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.GoogleAPIKey == "" {
			return errors.Wrap(ErrConfiguration, "GOOGLE_API_KEY is not set")
		}
		if c.GeminiModel == "" {
			return errors.Wrap(ErrConfiguration, "GEMINI_MODEL is empty")
		}
	case ProviderArk:
		if c.ArkModel == "" {
			return errors.Wrap(ErrConfiguration, "Ark model is not set")
		}
		if c.ArkAPIKey == "" && (c.ArkAccessKey == "" || c.ArkSecretKey == "") {
			return errors.Wrap(ErrConfiguration, "provide ARK_API_KEY or ARK_ACCESS_KEY + ARK_SECRET_KEY")
		}
	default:
		return errors.Wrapf(ErrConfiguration, "unknown provider %q", c.Provider)
	}
	return nil
}

// Validate 返回缺失配置的具体原因，未缺失时返回 nil。
func (c AIConfig) Validate() error {
	return c.validate()
}

// NewChatModel 使用配置创建一个模型实例。凭证缺失时不会创建任何客户端。
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	switch c.Provider {
	case ProviderArk:
		cfg := &ark.ChatModelConfig{
			BaseURL:     c.ArkBaseURL,
			Region:      c.ArkRegion,
			APIKey:      c.ArkAPIKey,
			AccessKey:   c.ArkAccessKey,
			SecretKey:   c.ArkSecretKey,
			Model:       c.ArkModel,
			MaxTokens:   c.MaxTokens,
			Temperature: temperature,
			TopP:        topP,
		}
		return ark.NewChatModel(ctx, cfg)
	default:
		return gemini.NewChatModel(ctx, &gemini.Config{
			APIKey:      c.GoogleAPIKey,
			Model:       c.GeminiModel,
			BaseURL:     c.GeminiBaseURL,
			Temperature: temperature,
			TopP:        topP,
			MaxTokens:   c.MaxTokens,
		})
	}
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if temperature == nil {
		// 与原版页面保持一致的低温度。
		def := 0.3
		temperature = &def
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("AI_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", 2*time.Minute)
	if err != nil {
		return AIConfig{}, err
	}

	arkModel := strings.TrimSpace(os.Getenv("ARK_MODEL"))
	if arkModel == "" {
		arkModel = strings.TrimSpace(os.Getenv("Model"))
	}

	return AIConfig{
		Provider:       strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderGemini)),
		GoogleAPIKey:   strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
		GeminiModel:    getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash-exp"),
		GeminiBaseURL:  strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
		ArkAPIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:       arkModel,
		ArkBaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
		Timeout:        timeout,
	}, nil
}

func loadSessionConfig() (SessionConfig, error) {
	ttl, err := parseDurationEnv("SESSION_IDLE_TTL", 6*time.Hour)
	if err != nil {
		return SessionConfig{}, err
	}

	interval, err := parseDurationEnv("SESSION_SWEEP_INTERVAL", 5*time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}

	return SessionConfig{IdleTTL: ttl, SweepInterval: interval}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

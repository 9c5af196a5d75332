package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Provider names accepted by AI_PROVIDER.
const (
	ProviderGemini  = "gemini"
	ProviderChatAPI = "chatapi"
	ProviderNone    = "none"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Chat      ChatConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// AIConfig selects and configures the generative model provider.
// CircuitBreaker is off by default so that every chat message reaches
// the provider.
type AIConfig struct {
	Provider       string        `envconfig:"AI_PROVIDER" default:"gemini"`
	APIKey         string        `envconfig:"AI_API_KEY"`
	Model          string        `envconfig:"AI_MODEL"`
	BaseURL        string        `envconfig:"AI_BASE_URL"`
	Timeout        time.Duration `envconfig:"AI_TIMEOUT" default:"20s"`
	CircuitBreaker bool          `envconfig:"AI_CIRCUIT_BREAKER" default:"false"`
}

// EffectiveProvider returns the provider to build. A missing key means no
// provider, so every chat is answered from the fallback table.
func (a AIConfig) EffectiveProvider() string {
	if strings.TrimSpace(a.APIKey) == "" {
		return ProviderNone
	}
	return strings.ToLower(strings.TrimSpace(a.Provider))
}

// ChatConfig holds fallback table and catalog data sources.
type ChatConfig struct {
	FallbackTable string `envconfig:"CHAT_FALLBACK_TABLE"`
	CatalogPath   string `envconfig:"CATALOG_PATH"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CORSConfig holds allowed browser origins.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFiles loads .env style files into the environment, without
// overriding variables that are already set, then calls Load. Missing
// files are ignored.
func LoadFiles(paths ...string) (*Config, error) {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	return Load()
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		AI: AIConfig{
			Provider: ProviderGemini,
			Timeout:  20 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
		CORS: CORSConfig{
			Origins: []string{"*"},
		},
	}
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.AI.Provider)) {
	case ProviderGemini, ProviderChatAPI, ProviderNone:
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AI.Provider)
	}
	if c.AI.Timeout <= 0 {
		return errors.New("AI_TIMEOUT must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

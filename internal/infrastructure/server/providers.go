package server

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	httpapi "github.com/GriffinCanCode/KrishiMitra/backend/internal/api/http"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/domain/chat"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/providers/chatapi"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/providers/gemini"
)

// NewGenerator builds the configured model provider. It returns a nil
// generator, with no error, when no provider is configured; the resolver
// then answers everything from the fallback table. The breaker reporter
// is nil unless AI_CIRCUIT_BREAKER is set.
func NewGenerator(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (chat.Generator, httpapi.BreakerReporter, error) {
	provider := cfg.EffectiveProvider()

	switch provider {
	case config.ProviderNone:
		if cfg.Provider != config.ProviderNone {
			logger.Warn("AI_API_KEY is not set, answering from the fallback table only",
				zap.String("configured_provider", cfg.Provider))
		}
		return nil, nil, nil

	case config.ProviderGemini:
		gen, err := gemini.New(ctx, gemini.Config{
			APIKey:         cfg.APIKey,
			Model:          cfg.Model,
			BaseURL:        cfg.BaseURL,
			CircuitBreaker: cfg.CircuitBreaker,
		})
		if err != nil {
			return nil, nil, err
		}
		if !cfg.CircuitBreaker {
			return gen, nil, nil
		}
		return gen, gen, nil

	case config.ProviderChatAPI:
		gen := chatapi.New(chatapi.Config{
			URL:            cfg.BaseURL,
			APIKey:         cfg.APIKey,
			Model:          cfg.Model,
			Timeout:        cfg.Timeout,
			CircuitBreaker: cfg.CircuitBreaker,
		})
		if !cfg.CircuitBreaker {
			return gen, nil, nil
		}
		return gen, gen, nil

	default:
		return nil, nil, fmt.Errorf("unknown AI provider %q", provider)
	}
}

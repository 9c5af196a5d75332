// Package gemini implements chat.Generator on Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/GriffinCanCode/KrishiMitra/backend/internal/domain/chat"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/resilience"
)

const DefaultModel = "gemini-1.5-flash"

// Config holds client settings. BaseURL is only set in tests and when
// routing through a proxy. CircuitBreaker stops calls after a run of
// upstream failures.
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string
	CircuitBreaker bool
}

// Generator calls GenerateContent once per message.
type Generator struct {
	client  *genai.Client
	model   string
	breaker *resilience.Breaker // nil when disabled
}

// New creates a Gemini generator.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g := &Generator{client: client, model: cfg.Model}
	if !cfg.CircuitBreaker {
		return g, nil
	}

	g.breaker = resilience.New("gemini", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			code, _, _, ok := apiError(err)
			return ok && code != http.StatusTooManyRequests && code < http.StatusInternalServerError
		},
	})
	return g, nil
}

// Name implements chat.Generator.
func (g *Generator) Name() string {
	return "gemini"
}

// BreakerState exposes the upstream breaker for health reporting.
func (g *Generator) BreakerState() resilience.State {
	if g.breaker == nil {
		return resilience.StateClosed
	}
	return g.breaker.State()
}

// Generate implements chat.Generator.
func (g *Generator) Generate(ctx context.Context, message string) (string, error) {
	send := func() (*genai.GenerateContentResponse, error) {
		return g.client.Models.GenerateContent(ctx, g.model, genai.Text(message), nil)
	}

	var resp *genai.GenerateContentResponse
	var err error
	if g.breaker == nil {
		resp, err = send()
	} else {
		resp, err = resilience.Call(g.breaker, send)
	}
	if err != nil {
		return "", classify(err)
	}
	if resp == nil {
		return "", chat.NewProviderError(chat.ReasonInvalidResponse, errors.New("nil response"))
	}

	text := resp.Text()
	if text == "" {
		return "", chat.NewProviderError(chat.ReasonInvalidResponse, errors.New("response has no text"))
	}
	return text, nil
}

func classify(err error) error {
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return chat.NewProviderError(chat.ReasonUnavailable, err)
	}
	if code, status, msg, ok := apiError(err); ok {
		return chat.NewProviderError(chat.ReasonForStatus(code, status, msg), err)
	}
	// Anything else never reached the API or never produced a response.
	return chat.NewProviderError(chat.ReasonNetwork, err)
}

// apiError extracts the status of a Gemini API error. The SDK has returned
// APIError both by value and by pointer across releases.
func apiError(err error) (code int, status, message string, ok bool) {
	var byValue genai.APIError
	if errors.As(err, &byValue) {
		return byValue.Code, byValue.Status, byValue.Message, true
	}
	var byPointer *genai.APIError
	if errors.As(err, &byPointer) && byPointer != nil {
		return byPointer.Code, byPointer.Status, byPointer.Message, true
	}
	return 0, "", "", false
}

// Package chatapi implements chat.Generator against a JSON chat endpoint
// that speaks the Cohere v2 /chat request and response shape.
package chatapi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/GriffinCanCode/KrishiMitra/backend/internal/domain/chat"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/providers/http/client"
)

const (
	DefaultURL   = "https://api.cohere.com/v2/chat"
	DefaultModel = "command-r-plus-08-2024"
)

// Config holds endpoint settings. CircuitBreaker stops calls to an
// upstream that keeps failing; without it every Generate sends a request.
type Config struct {
	URL            string
	APIKey         string
	Model          string
	Timeout        time.Duration
	CircuitBreaker bool
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type payload struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type reply struct {
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

type errorBody struct {
	Message string `json:"message"`
}

// Generator sends one user message per call.
type Generator struct {
	url    string
	model  string
	client *client.Client
}

// New creates a generator. Empty URL and model fall back to the defaults.
func New(cfg Config) *Generator {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := client.DefaultConfig("chatapi")
	if cfg.Timeout > 0 {
		clientCfg.Timeout = cfg.Timeout
	}
	if cfg.CircuitBreaker {
		clientCfg.Breaker = client.DefaultBreaker()
	}

	c := client.NewClient(clientCfg)
	c.SetBearerAuth(cfg.APIKey)
	c.SetHeader("Content-Type", "application/json")
	c.SetHeader("Accept", "application/json")

	return &Generator{url: cfg.URL, model: cfg.Model, client: c}
}

// Name implements chat.Generator.
func (g *Generator) Name() string {
	return "chatapi"
}

// BreakerState exposes the upstream breaker for health reporting.
func (g *Generator) BreakerState() resilience.State {
	return g.client.BreakerState()
}

// Generate implements chat.Generator.
func (g *Generator) Generate(ctx context.Context, text string) (string, error) {
	body, err := sonic.Marshal(payload{
		Model:    g.model,
		Messages: []message{{Role: "user", Content: text}},
	})
	if err != nil {
		return "", chat.NewProviderError(chat.ReasonInvalidResponse, fmt.Errorf("encode request: %w", err))
	}

	resp, err := g.client.Do(ctx, func(req *resty.Request) (*resty.Response, error) {
		return req.SetBody(body).Post(g.url)
	})
	if err != nil {
		return "", classify(err)
	}

	var out reply
	if err := sonic.Unmarshal(resp.Body(), &out); err != nil {
		return "", chat.NewProviderError(chat.ReasonInvalidResponse, fmt.Errorf("decode response: %w", err))
	}

	for _, part := range out.Message.Content {
		if strings.TrimSpace(part.Text) != "" {
			return part.Text, nil
		}
	}
	return "", chat.NewProviderError(chat.ReasonInvalidResponse, errors.New("response has no text content"))
}

func classify(err error) error {
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return chat.NewProviderError(chat.ReasonUnavailable, err)
	}

	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		var detail errorBody
		msg := statusErr.Body
		if sonic.UnmarshalString(statusErr.Body, &detail) == nil && detail.Message != "" {
			msg = detail.Message
		}
		return chat.NewProviderError(chat.ReasonForStatus(statusErr.Code, "", msg), err)
	}

	// Transport failures, timeouts and rate-limiter cancellation.
	return chat.NewProviderError(chat.ReasonNetwork, err)
}

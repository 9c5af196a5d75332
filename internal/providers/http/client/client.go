package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/resilience"
)

// Config defines client behavior.
type Config struct {
	Name      string
	Timeout   time.Duration
	UserAgent string
	// RateLimit is requests per second; 0 means unlimited.
	RateLimit float64
	// Breaker guards the upstream when set. Nil sends every request.
	Breaker   *resilience.Settings
}

// DefaultConfig returns settings suited to a hosted model endpoint. The
// circuit breaker is off; see DefaultBreaker.
func DefaultConfig(name string) Config {
	return Config{
		Name:      name,
		Timeout:   20 * time.Second,
		UserAgent: "KrishiMitra-Backend/1.0",
	}
}

// DefaultBreaker returns breaker settings for a hosted model endpoint.
func DefaultBreaker() *resilience.Settings {
	return &resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			// Hosted models have bursts of 5xx; trip on a streak or a sustained
			// failure rate, not on isolated errors.
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.6)
		},
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Upstream reports whether the status indicates an unhealthy upstream.
func (e *StatusError) Upstream() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// Client wraps resty with rate limiting and an optional circuit breaker.
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker // nil when disabled
	Mu      sync.RWMutex
}

// NewClient creates a client with retries disabled.
func NewClient(cfg Config) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.UserAgent).
		SetTransport(retryClient.HTTPClient.Transport)

	c := &Client{
		Resty:   restyClient,
		Limiter: rate.NewLimiter(rate.Inf, 0),
	}
	if cfg.Breaker != nil {
		settings := *cfg.Breaker
		if settings.IsSuccessful == nil {
			settings.IsSuccessful = countsAsSuccess
		}
		c.Breaker = resilience.New(cfg.Name, settings)
	}
	c.SetRateLimit(cfg.RateLimit)
	return c
}

// countsAsSuccess keeps client-side errors from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return !statusErr.Upstream()
	}
	return false
}

// SetHeader adds default header
func (c *Client) SetHeader(key, value string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetHeader(key, value)
}

// SetBearerAuth configures bearer token authentication
func (c *Client) SetBearerAuth(token string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetAuthToken(token)
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// Request creates a request bound to ctx once the breaker and rate
// limiter admit it.
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if c.Breaker != nil && c.Breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrCircuitOpen
	}

	c.Mu.RLock()
	limiter := c.Limiter
	c.Mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Resty.R().SetContext(ctx), nil
}

// Do builds a request, runs send through the breaker and converts non-2xx
// responses into *StatusError. The response is returned alongside a
// StatusError so callers can inspect the body.
func (c *Client) Do(ctx context.Context, send func(req *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	req, err := c.Request(ctx)
	if err != nil {
		return nil, err
	}

	var resp *resty.Response
	call := func() error {
		var sendErr error
		resp, sendErr = send(req)
		if sendErr != nil {
			return sendErr
		}
		if resp.IsError() {
			return &StatusError{Code: resp.StatusCode(), Body: truncate(resp.String(), 512)}
		}
		return nil
	}
	if c.Breaker == nil {
		return resp, call()
	}
	err = c.Breaker.Execute(call)
	return resp, err
}

// BreakerState returns the current circuit breaker state. A client
// without a breaker is always closed.
func (c *Client) BreakerState() resilience.State {
	if c.Breaker == nil {
		return resilience.StateClosed
	}
	return c.Breaker.State()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

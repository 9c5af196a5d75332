package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/KrishiMitra/backend/internal/domain/chat"
)

func newGenerator(t *testing.T, status int, body string) *Generator {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)

	gen, err := New(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL + "/"})
	require.NoError(t, err)
	return gen
}

func apiErrorBody(code int, status, message string) string {
	return fmt.Sprintf(`{"error":{"code":%d,"message":%q,"status":%q}}`, code, message, status)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}

func TestGenerateReturnsText(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Hello"}],"role":"model"}}]}`)
	}))
	defer server.Close()

	gen, err := New(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	text, err := gen.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Contains(t, path, DefaultModel)
	assert.Equal(t, "gemini", gen.Name())
}

func TestGenerateFailureReasons(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		reason chat.Reason
	}{
		{
			name:   "quota",
			status: http.StatusTooManyRequests,
			body:   apiErrorBody(429, "RESOURCE_EXHAUSTED", "Quota exceeded"),
			reason: chat.ReasonQuota,
		},
		{
			name:   "invalid key",
			status: http.StatusBadRequest,
			body:   apiErrorBody(400, "INVALID_ARGUMENT", "API key not valid. Please pass a valid API key."),
			reason: chat.ReasonPermission,
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   apiErrorBody(403, "PERMISSION_DENIED", "Permission denied"),
			reason: chat.ReasonPermission,
		},
		{
			name:   "unknown model",
			status: http.StatusNotFound,
			body:   apiErrorBody(404, "NOT_FOUND", "models/x is not found"),
			reason: chat.ReasonUnavailable,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   apiErrorBody(500, "INTERNAL", "internal"),
			reason: chat.ReasonNetwork,
		},
		{
			name:   "no candidates",
			status: http.StatusOK,
			body:   `{"candidates":[]}`,
			reason: chat.ReasonInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newGenerator(t, tt.status, tt.body)
			_, err := gen.Generate(context.Background(), "hi")
			require.Error(t, err)
			assert.Equal(t, tt.reason, chat.ReasonOf(err))
		})
	}
}

func TestGenerateUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	gen, err := New(context.Background(), Config{APIKey: "test-key", BaseURL: url + "/"})
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, chat.ReasonNetwork, chat.ReasonOf(err))
}

func TestGenerateCallsUpstreamAfterFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if hits.Add(1) <= 6 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, apiErrorBody(500, "INTERNAL", "internal"))
			return
		}
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Recovered"}],"role":"model"}}]}`)
	}))
	defer server.Close()

	gen, err := New(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	for hits.Load() < 6 {
		before := hits.Load()
		_, err := gen.Generate(context.Background(), "hi")
		require.Error(t, err)
		assert.Equal(t, chat.ReasonNetwork, chat.ReasonOf(err))
		require.Greater(t, hits.Load(), before)
	}

	text, err := gen.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "Recovered", text)
	assert.Equal(t, "closed", gen.BreakerState().String())
}

func TestCircuitBreakerStopsCalls(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, apiErrorBody(500, "INTERNAL", "internal"))
	}))
	defer server.Close()

	gen, err := New(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL + "/", CircuitBreaker: true})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := gen.Generate(context.Background(), "hi")
		require.Equal(t, chat.ReasonNetwork, chat.ReasonOf(err))
	}
	require.Equal(t, "open", gen.BreakerState().String())

	before := hits.Load()
	_, err = gen.Generate(context.Background(), "hi")
	assert.Equal(t, chat.ReasonUnavailable, chat.ReasonOf(err))
	assert.Equal(t, before, hits.Load())
}

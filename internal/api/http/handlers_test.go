package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/KrishiMitra/backend/internal/domain/catalog"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/domain/chat"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/resilience"
)

type stubGenerator struct {
	text string
	err  error
}

func (s stubGenerator) Generate(context.Context, string) (string, error) { return s.text, s.err }
func (s stubGenerator) Name() string                                     { return "stub" }

type stubBreaker struct{}

func (stubBreaker) BreakerState() resilience.State { return resilience.StateHalfOpen }

func setupRouter(t *testing.T, gen chat.Generator) (*gin.Engine, *monitoring.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	table, err := chat.DefaultTable()
	require.NoError(t, err)
	cat, err := catalog.Default()
	require.NoError(t, err)

	metrics := monitoring.NewMetrics()
	resolver := chat.NewResolver(gen, table, chat.WithRecorder(metrics))

	router := gin.New()
	NewHandlers(resolver, cat, stubBreaker{}, NewHandlerMetrics(metrics)).Register(router)
	return router, metrics
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestRootAndHealth(t *testing.T) {
	router, _ := setupRouter(t, stubGenerator{text: "hi"})

	w := do(router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), Version)

	w = do(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var health struct {
		Status   string `json:"status"`
		Provider struct {
			Name    string `json:"name"`
			Breaker string `json:"breaker"`
		} `json:"provider"`
		FallbackLanguages []string `json:"fallback_languages"`
	}
	decode(t, w, &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "stub", health.Provider.Name)
	assert.Equal(t, "half-open", health.Provider.Breaker)
	assert.Contains(t, health.FallbackLanguages, "en")
	assert.Contains(t, health.FallbackLanguages, "hi")
}

func TestChat(t *testing.T) {
	tests := []struct {
		name       string
		gen        chat.Generator
		body       string
		wantStatus int
		wantSource chat.Source
		wantReason chat.Reason
		wantLang   string
		wantText   string
	}{
		{
			name:       "live answer",
			gen:        stubGenerator{text: "Hello"},
			body:       `{"message":"hi","language":"en"}`,
			wantStatus: http.StatusOK,
			wantSource: chat.SourceLive,
			wantLang:   "en",
			wantText:   "Hello",
		},
		{
			name:       "provider failure falls back",
			gen:        stubGenerator{err: chat.NewProviderError(chat.ReasonQuota, errors.New("429"))},
			body:       `{"message":"tomato leaves have spots","language":"hi"}`,
			wantStatus: http.StatusOK,
			wantSource: chat.SourceFallback,
			wantReason: chat.ReasonQuota,
			wantLang:   "hi",
		},
		{
			name:       "empty message still answered",
			gen:        stubGenerator{text: "unused"},
			body:       `{"message":"","language":"kn"}`,
			wantStatus: http.StatusOK,
			wantSource: chat.SourceFallback,
			wantReason: chat.ReasonEmptyInput,
			wantLang:   "kn",
		},
		{
			name:       "missing fields",
			gen:        stubGenerator{text: "unused"},
			body:       `{}`,
			wantStatus: http.StatusOK,
			wantSource: chat.SourceFallback,
			wantReason: chat.ReasonEmptyInput,
			wantLang:   "en",
		},
		{
			name:       "malformed json",
			gen:        stubGenerator{text: "unused"},
			body:       `{"message":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupRouter(t, tt.gen)
			w := do(router, http.MethodPost, "/chat", tt.body)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Contains(t, w.Body.String(), "error")
				return
			}

			var resp chat.Response
			decode(t, w, &resp)
			assert.Equal(t, tt.wantSource, resp.Source)
			assert.Equal(t, tt.wantReason, resp.Reason)
			assert.Equal(t, tt.wantLang, resp.Language)
			assert.NotEmpty(t, resp.Message)
			if tt.wantText != "" {
				assert.Equal(t, tt.wantText, resp.Message)
			}
			if resp.Source == chat.SourceLive {
				assert.Equal(t, chat.LiveConfidence, resp.Confidence)
			} else {
				assert.Equal(t, chat.FallbackConfidence, resp.Confidence)
			}
		})
	}
}

func TestChatBodyTooLarge(t *testing.T) {
	router, _ := setupRouter(t, stubGenerator{text: "hi"})
	body := `{"message":"` + strings.Repeat("a", maxChatBody) + `"}`

	w := do(router, http.MethodPost, "/chat", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestChatCountsAnswers(t *testing.T) {
	router, metrics := setupRouter(t, nil)

	do(router, http.MethodPost, "/chat", `{"message":"weather tomorrow?"}`)
	do(router, http.MethodPost, "/chat", `{"message":""}`)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(2), snap.FallbackAnswers)
	assert.Equal(t, int64(0), snap.LiveAnswers)
}

func TestLanguages(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w := do(router, http.MethodGet, "/chat/languages", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Default   string          `json:"default"`
		Languages []chat.Language `json:"languages"`
	}
	decode(t, w, &body)
	assert.Equal(t, "en", body.Default)
	assert.Len(t, body.Languages, len(chat.SupportedLanguages))
}

func TestCatalogEndpoints(t *testing.T) {
	router, _ := setupRouter(t, nil)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		contains   string
	}{
		{name: "list crops", path: "/crops", wantStatus: http.StatusOK, contains: `"wheat-north"`},
		{name: "one crop", path: "/crops/tomato-plot", wantStatus: http.StatusOK, contains: `"planted_on":"2025-12-01"`},
		{name: "missing crop", path: "/crops/rice", wantStatus: http.StatusNotFound, contains: "not found"},
		{name: "all prices", path: "/market/prices", wantStatus: http.StatusOK, contains: `"count":9`},
		{name: "filtered prices", path: "/market/prices?commodity=onion&market=lasalgaon", wantStatus: http.StatusOK, contains: `"count":1`},
		{name: "summary", path: "/market/prices/wheat/summary", wantStatus: http.StatusOK, contains: `"markets":3`},
		{name: "missing summary", path: "/market/prices/rice/summary", wantStatus: http.StatusNotFound, contains: "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}
}

func TestCatalogOperationsAreTimed(t *testing.T) {
	router, metrics := setupRouter(t, nil)

	do(router, http.MethodGet, "/crops/tomato-plot", "")
	do(router, http.MethodGet, "/crops/rice", "")
	do(router, http.MethodGet, "/market/prices/onion/summary", "")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ServiceCalls.WithLabelValues("catalog", "crop", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ServiceCalls.WithLabelValues("catalog", "crop", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ServiceCalls.WithLabelValues("catalog", "summary", "success")))
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.ServiceDuration))
}

func TestNilHandlerMetrics(t *testing.T) {
	var hm *HandlerMetrics
	assert.NotPanics(t, func() { hm.TrackCatalogOperation("crops")("success") })
	assert.Equal(t, monitoring.Snapshot{}, hm.Snapshot())

	assert.NotPanics(t, func() { NewHandlerMetrics(nil).TrackCatalogOperation("crops")("success") })
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/KrishiMitra/backend/internal/shared/id"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		wantStatus  int
		allowOrigin string
	}{
		{
			name:        "wildcard simple GET",
			origins:     []string{"*"},
			method:      http.MethodGet,
			origin:      "http://localhost:3000",
			wantStatus:  http.StatusOK,
			allowOrigin: "*",
		},
		{
			name:        "wildcard preflight",
			origins:     []string{"*"},
			method:      http.MethodOptions,
			origin:      "http://localhost:3000",
			wantStatus:  http.StatusNoContent,
			allowOrigin: "*",
		},
		{
			name:       "no origin header",
			origins:    []string{"*"},
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
		},
		{
			name:        "listed origin",
			origins:     []string{"https://krishi.example"},
			method:      http.MethodGet,
			origin:      "https://krishi.example",
			wantStatus:  http.StatusOK,
			allowOrigin: "https://krishi.example",
		},
		{
			name:       "unlisted origin",
			origins:    []string{"https://krishi.example"},
			method:     http.MethodGet,
			origin:     "https://evil.example",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCORSConfig()
			cfg.AllowOrigins = tt.origins

			router := setupTestRouter()
			router.Use(CORS(cfg))
			router.GET("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "success"})
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.allowOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRateLimit(t *testing.T) {
	router := setupTestRouter()
	router.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))

	// Limits are per client.
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestRateLimitRefills(t *testing.T) {
	router := setupTestRouter()
	router.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 20, Burst: 1, IdleTTL: time.Millisecond}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	send := func() int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, http.StatusOK, send())
}

func TestRequestID(t *testing.T) {
	existingULID := id.NewRequestID().String()
	existingUUID := uuid.NewString()

	tests := []struct {
		name     string
		incoming string
		reused   bool
	}{
		{name: "none", incoming: ""},
		{name: "ulid", incoming: existingULID, reused: true},
		{name: "uuid", incoming: existingUUID, reused: true},
		{name: "garbage", incoming: "<script>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fromCtx, fromGin id.RequestID

			router := setupTestRouter()
			router.Use(RequestID())
			router.GET("/test", func(c *gin.Context) {
				fromCtx = id.RequestFromContext(c.Request.Context())
				fromGin = GetRequestID(c)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			header := w.Header().Get(RequestIDHeader)
			require.NotEmpty(t, header)
			assert.Equal(t, header, fromCtx.String())
			assert.Equal(t, fromCtx, fromGin)
			if tt.reused {
				assert.Equal(t, tt.incoming, header)
			} else {
				assert.NotEqual(t, tt.incoming, header)
				assert.True(t, id.IsValid(header))
			}
		})
	}
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	router := setupTestRouter()
	router.Use(RequestID(), AccessLog(zap.New(core), 20*time.Millisecond))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/slow", func(c *gin.Context) {
		time.Sleep(40 * time.Millisecond)
		c.Status(http.StatusOK)
	})
	router.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	tests := []struct {
		path    string
		level   zapcore.Level
		message string
	}{
		{path: "/ok", level: zapcore.DebugLevel, message: "Request served"},
		{path: "/slow", level: zapcore.WarnLevel, message: "Slow request"},
		{path: "/bad", level: zapcore.WarnLevel, message: "Request rejected"},
		{path: "/boom", level: zapcore.ErrorLevel, message: "Request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			entries := logs.TakeAll()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Equal(t, tt.message, entries[0].Message)
			assert.Equal(t, w.Header().Get(RequestIDHeader), entries[0].ContextMap()["request_id"])
		})
	}
}

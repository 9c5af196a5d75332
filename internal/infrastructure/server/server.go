package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/GriffinCanCode/KrishiMitra/backend/internal/api/http"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/api/middleware"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/api/ws"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/domain/catalog"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/domain/chat"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/monitoring"
)

const (
	shutdownTimeout = 15 * time.Second
	slowRequest     = 5 * time.Second
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	handler   http.Handler
	wsHandler *ws.Handler
	resolver  *chat.Resolver
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Initializing KrishiMitra server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("provider", cfg.AI.EffectiveProvider()),
	)

	metrics := monitoring.NewMetrics()

	table, err := chat.LoadTable(cfg.Chat.FallbackTable)
	if err != nil {
		return nil, fmt.Errorf("failed to load fallback table: %w", err)
	}
	cat, err := catalog.Load(cfg.Chat.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	gen, breaker, err := NewGenerator(ctx, cfg.AI, logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}

	resolver := chat.NewResolver(gen, table,
		chat.WithTimeout(cfg.AI.Timeout),
		chat.WithLogger(logger.Logger.Named("chat")),
		chat.WithRecorder(metrics),
	)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(logger.Logger.Named("http"), slowRequest))
	router.Use(monitoring.Middleware(metrics))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.CORS.Origins
	router.Use(middleware.CORS(corsCfg))

	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := httpapi.NewHandlers(resolver, cat, breaker, httpapi.NewHandlerMetrics(metrics))
	handlers.Register(router)

	wsHandler := ws.NewHandler(resolver, logger.Logger.Named("ws"), metrics)
	router.GET("/chat/stream", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized",
		zap.String("provider", resolver.Provider()),
		zap.Strings("fallback_languages", table.Languages()),
	)

	return &Server{
		router:    router,
		handler:   compress(router),
		wsHandler: wsHandler,
		resolver:  resolver,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

// compress gzips responses for clients that accept it. WebSocket upgrades
// bypass the gzip writer, which cannot be hijacked.
func compress(next http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			next.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Resolver returns the chat resolver.
func (s *Server) Resolver() *chat.Resolver {
	return s.resolver
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.wsHandler.Shutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	_ = s.logger.Sync()
	return err
}

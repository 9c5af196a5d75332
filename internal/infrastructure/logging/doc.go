// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for log shippers
//   - Development: colored console output
//
// Components take a *zap.Logger. Request-scoped loggers carry the
// request_id attached by the request ID middleware.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	logger.Info("Server starting", zap.String("addr", ":8000"))
//	logging.FromContext(ctx, logger.Logger).Warn("Chat provider failed", zap.Error(err))
package logging

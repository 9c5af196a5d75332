/*
Package monitoring provides Prometheus metrics for the backend.

# Overview

Each Metrics value owns a private registry. It tracks HTTP traffic, chat
resolutions by source and fallback reason, model call latency, catalog
lookups and WebSocket activity. Metrics implements chat.Recorder.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	resolver := chat.NewResolver(gen, table, chat.WithRecorder(metrics))

	timer := monitoring.NewTimer(metrics, "catalog", "prices")
	// ... perform lookup ...
	timer.Stop("success")
*/
package monitoring

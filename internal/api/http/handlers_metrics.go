package http

import (
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/monitoring"
)

// HandlerMetrics wraps handlers with metrics tracking
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper. A nil collector disables
// tracking.
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// TrackCatalogOperation times a catalog lookup. The returned func takes the
// outcome status.
func (hm *HandlerMetrics) TrackCatalogOperation(operation string) func(status string) {
	var metrics *monitoring.Metrics
	if hm != nil {
		metrics = hm.metrics
	}
	return monitoring.NewTimer(metrics, "catalog", operation).Stop
}

// Snapshot returns running totals, or zero values without a collector.
func (hm *HandlerMetrics) Snapshot() monitoring.Snapshot {
	if hm == nil || hm.metrics == nil {
		return monitoring.Snapshot{}
	}
	return hm.metrics.Snapshot()
}

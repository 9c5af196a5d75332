package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/KrishiMitra/backend/internal/domain/catalog"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/domain/chat"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/resilience"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// maxChatBody caps POST /chat bodies.
const maxChatBody = 64 << 10

// BreakerReporter is implemented by providers that guard their upstream
// with a circuit breaker.
type BreakerReporter interface {
	BreakerState() resilience.State
}

// Handlers contains all HTTP handlers
type Handlers struct {
	resolver *chat.Resolver
	catalog  *catalog.Catalog
	breaker  BreakerReporter
	metrics  *HandlerMetrics
}

// NewHandlers creates a new handler set. breaker may be nil.
func NewHandlers(resolver *chat.Resolver, cat *catalog.Catalog, breaker BreakerReporter, metrics *HandlerMetrics) *Handlers {
	return &Handlers{
		resolver: resolver,
		catalog:  cat,
		breaker:  breaker,
		metrics:  metrics,
	}
}

// Register mounts all routes on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.POST("/chat", h.Chat)
	r.GET("/chat/languages", h.Languages)

	r.GET("/crops", h.ListCrops)
	r.GET("/crops/:id", h.GetCrop)
	r.GET("/market/prices", h.ListPrices)
	r.GET("/market/prices/:commodity/summary", h.PriceSummary)
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "KrishiMitra farm assistant",
		"version": Version,
	})
}

// Health reports provider and fallback table status. The service is
// healthy whenever it can answer, which the fallback table guarantees.
func (h *Handlers) Health(c *gin.Context) {
	provider := gin.H{"name": h.resolver.Provider()}
	if h.breaker != nil {
		provider["breaker"] = h.breaker.BreakerState().String()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "healthy",
		"provider":           provider,
		"fallback_languages": h.resolver.Table().Languages(),
		"answers":            h.metrics.Snapshot(),
	})
}

// Chat resolves one message. Only a malformed body is an error; every
// well-formed request gets an answer.
func (h *Handlers) Chat(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxChatBody)

	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": "invalid request body"})
		return
	}

	c.JSON(http.StatusOK, h.resolver.Resolve(c.Request.Context(), req))
}

// Languages lists supported response languages
func (h *Handlers) Languages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default":   chat.DefaultLanguage,
		"languages": chat.SupportedLanguages,
	})
}

// ListCrops lists crop records
func (h *Handlers) ListCrops(c *gin.Context) {
	done := h.metrics.TrackCatalogOperation("crops")
	crops := h.catalog.Crops()
	done("success")

	c.JSON(http.StatusOK, gin.H{
		"crops": crops,
		"count": len(crops),
	})
}

// GetCrop returns one crop
func (h *Handlers) GetCrop(c *gin.Context) {
	done := h.metrics.TrackCatalogOperation("crop")
	crop, err := h.catalog.Crop(c.Param("id"))
	if err != nil {
		done("not_found")
		h.catalogError(c, err)
		return
	}
	done("success")

	c.JSON(http.StatusOK, crop)
}

// ListPrices lists mandi prices filtered by commodity and market
func (h *Handlers) ListPrices(c *gin.Context) {
	done := h.metrics.TrackCatalogOperation("prices")
	prices := h.catalog.Prices(c.Query("commodity"), c.Query("market"))
	done("success")

	c.JSON(http.StatusOK, gin.H{
		"prices": prices,
		"count":  len(prices),
		"unit":   "INR/quintal",
	})
}

// PriceSummary aggregates modal prices for one commodity
func (h *Handlers) PriceSummary(c *gin.Context) {
	done := h.metrics.TrackCatalogOperation("summary")
	summary, err := h.catalog.Summary(c.Param("commodity"))
	if err != nil {
		done("not_found")
		h.catalogError(c, err)
		return
	}
	done("success")

	c.JSON(http.StatusOK, summary)
}

func (h *Handlers) catalogError(c *gin.Context, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

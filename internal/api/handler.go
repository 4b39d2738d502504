package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"stock-service/internal/models"
	"stock-service/internal/service"
	"stock-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// StockIngester runs stock reconciliation over undecoded entries
type StockIngester interface {
	Ingest(ctx context.Context, entries []json.RawMessage) *service.IngestResult
}

// ItemManager mutates and soft-deletes items and batches
type ItemManager interface {
	UpdateThreshold(ctx context.Context, itemID string, reorderLevel int, status models.ItemStatus) (*models.InventoryItem, error)
	SoftDeleteItem(ctx context.Context, itemID string) error
	SoftDeleteBatch(ctx context.Context, batchID string) error
}

type ItemProber interface {
	Probe(ctx context.Context, itemName string) (*service.ProbeResult, error)
}

type InventoryLister interface {
	ListItems(ctx context.Context) ([]models.ItemView, error)
}

// Pinger reports whether a backing dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	ingester StockIngester
	items    ItemManager
	prober   ItemProber
	lister   InventoryLister
	db       Pinger
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	ingester StockIngester,
	items ItemManager,
	prober ItemProber,
	lister InventoryLister,
	db Pinger,
) *Handler {
	return &Handler{
		ingester: ingester,
		items:    items,
		prober:   prober,
		lister:   lister,
		db:       db,
		logger:   util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/items", h.listItems)
		v1.PUT("/items", h.updateItem)
		v1.PATCH("/items", h.deleteItem)
		v1.GET("/items/check-existing", h.checkExisting)
		v1.POST("/stock", h.ingestStock)
		v1.PATCH("/batches", h.deleteBatch)
	}
}

// ingestRequest leaves entries undecoded; each one is decoded on its own
// so a badly typed entry fails alone.
type ingestRequest struct {
	StockItems []json.RawMessage `json:"stockItems"`
}

type updateItemRequest struct {
	ItemID       string `json:"item_id"`
	ReorderLevel int    `json:"reorder_level"`
	Status       string `json:"status"`
}

type deleteItemRequest struct {
	ItemID string `json:"item_id"`
}

type deleteBatchRequest struct {
	BatchID string `json:"batch_id"`
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only when the database answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) listItems(c *gin.Context) {
	items, err := h.lister.ListItems(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to list items", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"items":   items,
	})
}

// ingestStock reconciles a batch of stock entries. Per-entry failures are
// reported in the results and do not change the status code.
func (h *Handler) ingestStock(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}
	if req.StockItems == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "stockItems is required",
		})
		return
	}

	result := h.ingester.Ingest(c.Request.Context(), req.StockItems)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) updateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	item, err := h.items.UpdateThreshold(c.Request.Context(), req.ItemID, req.ReorderLevel, models.ItemStatus(req.Status))
	if err != nil {
		h.respondError(c, "Failed to update item", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"item":    item,
		"message": "Item updated successfully",
	})
}

func (h *Handler) deleteItem(c *gin.Context) {
	var req deleteItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	if err := h.items.SoftDeleteItem(c.Request.Context(), req.ItemID); err != nil {
		h.respondError(c, "Failed to delete item", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) deleteBatch(c *gin.Context) {
	var req deleteBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	if err := h.items.SoftDeleteBatch(c.Request.Context(), req.BatchID); err != nil {
		h.respondError(c, "Failed to delete batch", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) checkExisting(c *gin.Context) {
	result, err := h.prober.Probe(c.Request.Context(), c.Query("itemName"))
	if err != nil {
		h.respondError(c, "Failed to check item", err)
		return
	}

	body := gin.H{
		"success": true,
		"exists":  result.Exists,
	}
	if result.Exists {
		body["item"] = result.Item
	}
	c.JSON(http.StatusOK, body)
}

// respondError writes the error envelope with the status for err's kind
func (h *Handler) respondError(c *gin.Context, msg string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	}

	body := gin.H{
		"success": false,
		"error":   err.Error(),
	}
	var partial *service.PartialCascadeError
	if errors.As(err, &partial) {
		body["partial"] = true
	}
	c.JSON(status, body)
}

func errorStatus(err error) int {
	var partial *service.PartialCascadeError
	switch {
	case errors.As(err, &partial):
		return http.StatusInternalServerError
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

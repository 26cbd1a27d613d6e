package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scoro2clearbooks/internal/sync"
)

// SyncRunner runs one reconciliation pass
type SyncRunner interface {
	Run(ctx context.Context) ([]sync.InvoiceError, error)
}

// Handler serves the trigger routes
type Handler struct {
	runner SyncRunner
	logger *zap.Logger
}

// NewHandler creates a new handler
func NewHandler(runner SyncRunner, logger *zap.Logger) *Handler {
	return &Handler{
		runner: runner,
		logger: logger,
	}
}

// Register attaches the routes to the router
func (h *Handler) Register(router *gin.Engine) {
	router.GET("/", h.Greeting)
	router.GET("/health", h.Health)
	router.GET("/sync", h.Sync)
}

// Greeting returns a friendly greeting
func (h *Handler) Greeting(c *gin.Context) {
	c.String(http.StatusOK, "Hello World!")
}

// Health reports service health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "scoro2clearbooks",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// Sync runs a reconciliation pass and reports the outcome. Per-invoice
// failures are listed in the body; only a setup failure yields a 500.
func (h *Handler) Sync(c *gin.Context) {
	errs, err := h.runner.Run(c.Request.Context())
	if err != nil {
		h.logger.Error("Sync run aborted", zap.Error(err))
		c.String(http.StatusInternalServerError, "Sync failed: %s", err.Error())
		return
	}

	if len(errs) == 0 {
		c.String(http.StatusOK, "Complete")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Complete with %d errors\n", len(errs))
	for _, e := range errs {
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	c.String(http.StatusOK, b.String())
}

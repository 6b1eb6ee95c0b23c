package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger func(ctx context.Context) error

// HealthHandler serves liveness and metrics endpoints.
type HealthHandler struct {
	db      Pinger // nil when storage has nothing to ping
	metrics http.Handler
}

// NewHealthHandler creates a HealthHandler. Either argument may be nil.
func NewHealthHandler(db Pinger, metrics http.Handler) *HealthHandler {
	return &HealthHandler{db: db, metrics: metrics}
}

// RegisterRoutes mounts /health and, when configured, /metrics.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
	if h.metrics != nil {
		router.Get("/metrics", adaptor.HTTPHandler(h.metrics))
	}
}

// HandleHealth reports "healthy" or, when the database ping fails, 503.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	dbState := "not configured"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.db(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "unhealthy",
				"database": "unreachable",
				"error":    err.Error(),
			})
		}
		dbState = "connected"
	}
	return c.JSON(fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": dbState,
	})
}

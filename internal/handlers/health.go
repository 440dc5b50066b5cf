package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"todoflow/internal/services"
	"todoflow/internal/store"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store    *store.Store
	sessions *services.SessionService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(st *store.Store, sessions *services.SessionService) *HealthHandler {
	return &HealthHandler{
		store:    st,
		sessions: sessions,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":          "healthy",
		"todos":           len(h.store.Load()),
		"active_sessions": h.sessions.Count(),
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}

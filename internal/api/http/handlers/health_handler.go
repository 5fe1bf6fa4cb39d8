package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	// A failing journal blocks readiness; a failing cache only degrades it.
	journal Pinger
	cache   Pinger
}

// NewHealthHandler returns a new handler instance. journal may be nil when
// the postgres journal is not configured.
func NewHealthHandler(serviceName, version string, journal, cache Pinger) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, journal: journal, cache: cache}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	switch {
	case h.journal == nil:
		depStatus["postgres"] = "disabled"
	case h.journal.Ping(ctx) != nil:
		depStatus["postgres"] = "unavailable"
		ready = false
	default:
		depStatus["postgres"] = "ok"
	}

	if h.cache == nil {
		depStatus["redis"] = "disabled"
	} else if err := h.cache.Ping(ctx); err != nil {
		depStatus["redis"] = "degraded: " + err.Error()
	} else {
		depStatus["redis"] = "ok"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}

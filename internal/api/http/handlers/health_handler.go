package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/attendance-service/internal/api/dto"
	"github.com/spec-kit/attendance-service/internal/observability"
)

// Dependency is a backing service probed for readiness. A nil Dependency
// means the feature is off and is reported without failing readiness.
type Dependency interface {
	Ping(ctx context.Context) error
}

// HealthInfo names the running service.
type HealthInfo struct {
	Name        string
	Version     string
	Environment string
}

// HealthHandler responds to the banner, probes and metrics endpoints.
type HealthHandler struct {
	info     HealthInfo
	postgres Dependency
	redis    Dependency
	metrics  *observability.Metrics
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(info HealthInfo, postgres, redis Dependency, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{info: info, postgres: postgres, redis: redis, metrics: metrics}
}

// Banner handles GET /.
func (h *HealthHandler) Banner(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "ok",
		"message":     h.info.Name,
		"version":     h.info.Version,
		"environment": h.info.Environment,
	})
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.info.Name,
		"version": h.info.Version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true
	probe := func(name string, dep Dependency, offLabel string) {
		if dep == nil {
			depStatus[name] = offLabel
			return
		}
		if err := dep.Ping(ctx); err != nil {
			depStatus[name] = err.Error()
			ready = false
			return
		}
		depStatus[name] = "ok"
	}
	probe("postgres", h.postgres, "in-memory")
	probe("redis", h.redis, "disabled")

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(dto.Envelope{
		Status:  dto.StatusError,
		Message: "one or more dependencies unavailable",
		Data:    fiber.Map{"dependencies": depStatus},
	})
}

// Metrics returns the request counter snapshot.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}

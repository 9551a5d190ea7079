package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/deskops/sla-service/internal/persistence"
	"github.com/deskops/sla-service/internal/sla"
)

// Pinger is a dependency that can report its connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SLAConfigReader exposes the configuration snapshot readiness reports on.
type SLAConfigReader interface {
	Calendar(ctx context.Context) (*sla.Calendar, error)
	DefaultPolicy(ctx context.Context) (*sla.Policy, error)
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	postgres    Pinger
	cache       Pinger
	slaConfig   SLAConfigReader
}

// NewHealthHandler returns a new handler instance. cache may be nil when the
// SLA configuration cache is not deployed.
func NewHealthHandler(serviceName, version string, postgres, cache Pinger, slaConfig SLAConfigReader) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, postgres: postgres, cache: cache, slaConfig: slaConfig}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports readiness. Postgres and a loadable SLA configuration are
// required; the redis cache only degrades lookups when it is down.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if err := h.postgres.Ping(ctx); err != nil {
		depStatus["postgres"] = err.Error()
		ready = false
	} else {
		depStatus["postgres"] = "ok"
	}

	depStatus["sla_cache"] = h.cacheStatus(ctx)

	if h.slaConfig != nil {
		status, err := h.configStatus(ctx)
		if err != nil {
			depStatus["sla_config"] = err.Error()
			ready = false
		} else {
			depStatus["sla_config"] = status
		}
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

func (h *HealthHandler) cacheStatus(ctx context.Context) string {
	if h.cache == nil {
		return "disabled"
	}
	err := h.cache.Ping(ctx)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, persistence.ErrRedisDisabled):
		return "disabled"
	default:
		return "degraded: " + err.Error()
	}
}

func (h *HealthHandler) configStatus(ctx context.Context) (fiber.Map, error) {
	cal, err := h.slaConfig.Calendar(ctx)
	if err != nil {
		return nil, err
	}
	policy, err := h.slaConfig.DefaultPolicy(ctx)
	if err != nil {
		return nil, err
	}

	mode := "wall_clock"
	if cal.Configured() {
		mode = "business_hours"
	}
	defaultPolicy := "none"
	if policy != nil {
		defaultPolicy = policy.Name
	}
	return fiber.Map{
		"calendar":       mode,
		"timezone":       cal.Location().String(),
		"default_policy": defaultPolicy,
	}, nil
}

package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/pkg/metrics"
)

const (
	checkOK            = "ok"
	checkNotConfigured = "not configured"
	readyCheckKey      = "pokemap:ready-check"
)

// HealthHandler reports liveness and the size of the local registry.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"uptime":    time.Since(startedAt).Truncate(time.Second).String(),
			"version":   "dev",
			"map_items": deps.Map.Count(),
		})
	}
}

// backendCheck reports whether a backend is configured and, if so, whether it
// answered.
type backendCheck func(ctx context.Context) (configured bool, err error)

func readinessChecks(deps *Dependencies) map[string]backendCheck {
	return map[string]backendCheck{
		"database": func(ctx context.Context) (bool, error) {
			if deps.DB == nil {
				return false, nil
			}
			defer metrics.UpdateDBPoolMetrics(deps.DB.Stat())
			return true, deps.DB.Ping(ctx)
		},
		"nats": func(context.Context) (bool, error) {
			if deps.NATS == nil {
				return false, nil
			}
			if !deps.NATS.IsConnected() {
				return true, errors.New("disconnected")
			}
			return true, nil
		},
		"cache": func(ctx context.Context) (bool, error) {
			if deps.Cache == nil {
				return false, nil
			}
			_, err := deps.Cache.Get(ctx, readyCheckKey)
			if errors.Is(err, domain.ErrNotFound) {
				err = nil
			}
			return true, err
		},
	}
}

// ReadyHandler checks every configured backend. Unconfigured backends are
// reported but never fail readiness.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	backends := readinessChecks(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string, len(backends))
		ready := true
		for name, check := range backends {
			configured, err := check(ctx)
			switch {
			case !configured:
				checks[name] = checkNotConfigured
			case err != nil:
				checks[name] = "error: " + err.Error()
				ready = false
			default:
				checks[name] = checkOK
			}
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": checks})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": checks})
	}
}

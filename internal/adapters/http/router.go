package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/pokemap/internal/pkg/metrics"
)

// detailsSunset is when the /v1/details alias goes away.
var detailsSunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
		Next: func(c *fiber.Ctx) bool {
			// long-lived sessions count once at upgrade time only
			return websocket.IsWebSocketUpgrade(c)
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(DeprecationMiddleware([]DeprecatedRoute{
		{Path: "/v1/details/:key", SunsetDate: detailsSunset, Alternative: "/v1/pokemon/:key"},
	}))

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1, 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Get("/pokemon", timeout.NewWithContext(ListPokemonHandler(deps), 15*time.Second))
	v1.Get("/pokemon/:key", timeout.NewWithContext(GetPokemonHandler(deps), 15*time.Second))
	v1.Get("/details/:key", timeout.NewWithContext(GetPokemonHandler(deps), 15*time.Second))

	v1.Get("/favorite", timeout.NewWithContext(GetFavoriteHandler(deps), 15*time.Second))
	v1.Put("/favorite", timeout.NewWithContext(SetFavoriteHandler(deps), 15*time.Second))
	v1.Delete("/favorite", timeout.NewWithContext(ClearFavoriteHandler(deps), 15*time.Second))

	v1.Get("/map/items", ListMapItemsHandler(deps))
	v1.Post("/map/items", timeout.NewWithContext(PlaceMapItemHandler(deps), 15*time.Second))
	v1.Delete("/map/items", timeout.NewWithContext(ClearMapItemsHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app, deps.OpenAPIPath)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(MapSessionHandler(deps)))
}

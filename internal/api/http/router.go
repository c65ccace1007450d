package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-service/internal/api/dispatch"
	"github.com/spec-kit/user-service/internal/api/http/handlers"
	"github.com/spec-kit/user-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Dispatcher     *dispatch.Dispatcher
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Unknown paths answer 404 No Such Method.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	users := app.Group(dispatch.ResourceUsers)
	users.All("", gateway(cfg.Dispatcher, cfg.AuthMiddleware, dispatch.ResourceUsers))
	users.All("/create", gateway(cfg.Dispatcher, cfg.AuthMiddleware, dispatch.ResourceCreateUser))
	users.All("/:userId", gateway(cfg.Dispatcher, cfg.AuthMiddleware, dispatch.ResourceUserByID))

	app.Use(noSuchMethod)
}

package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/converso/routing-service/internal/api/http/handlers"
	"github.com/converso/routing-service/internal/auth"
	"github.com/converso/routing-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Threads        *handlers.ThreadsHandler
	Routing        *handlers.RoutingHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/stats", cfg.Health.Stats)

	threads := app.Group("/threads", cfg.AuthMiddleware.Handle)
	threads.Get("/:id", cfg.Threads.GetThread)
	threads.Get("/:id/history", cfg.Threads.History)
	threads.Post("/:id/update", auth.RequireRole(domain.RoleSupervisor, domain.RoleAdmin), cfg.Threads.UpdateThread)
	// Takeover and release enforce their own gate: feature flag first,
	// then role. A route-level guard would invert that order.
	threads.Post("/:id/takeover", cfg.Threads.Takeover)
	threads.Post("/:id/release", cfg.Threads.Release)

	routing := app.Group("/routing", cfg.AuthMiddleware.Handle)
	routing.Get("/mappings", cfg.Routing.ListMappings)
	routing.Put("/mappings", auth.RequireRole(domain.RoleAdmin), cfg.Routing.UpsertMappings)
}

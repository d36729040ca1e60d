package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-dashboard/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Dashboard *handlers.DashboardHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	v1 := app.Group("/v1")
	v1.Get("/facets", cfg.Dashboard.Facets)

	sessions := v1.Group("/sessions")
	sessions.Post("", cfg.Dashboard.CreateSession)
	sessions.Get("/:id", cfg.Dashboard.GetSession)
	sessions.Delete("/:id", cfg.Dashboard.DeleteSession)
	sessions.Get("/:id/dashboard", cfg.Dashboard.GetDashboard)
	sessions.Post("/:id/events", cfg.Dashboard.ApplyEvent)
}

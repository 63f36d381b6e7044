package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/actor"
	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Tickets         *handlers.TicketsHandler
	Stream          *handlers.StreamHandler
	ActorMiddleware *actor.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", cfg.ActorMiddleware.Handle)
	api.Post("/tickets", cfg.Tickets.Create)
	api.Get("/tickets", cfg.Tickets.List)
	api.Get("/tickets/stream", cfg.Stream.Stream)
	api.Patch("/tickets/:id/status", cfg.Tickets.SetStatus)
	api.Patch("/tickets/:id/feedback", cfg.Tickets.SetFeedback)
}

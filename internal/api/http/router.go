package http

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/helpdesk-core/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Actors         *handlers.ActorsHandler
	Tickets        *handlers.TicketsHandler
	WorkLogs       *handlers.WorkLogsHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Authorization beyond authentication
// happens in the services against the capability table; route-level guards
// only cover the purely role-gated admin surface.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Actors.Register)
	authGroup.Post("/login", cfg.Actors.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	protected.Get("/departments", cfg.Tickets.ListDepartments)
	protected.Get("/departments/:id/categories", cfg.Tickets.ListCategories)

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/by-number/:number", cfg.Tickets.GetByNumber)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Post("/:id/transition", cfg.Tickets.Transition)
	tickets.Post("/:id/reopen", cfg.Tickets.Reopen)
	tickets.Post("/:id/assign", cfg.Tickets.Assign)
	tickets.Patch("/:id/department", cfg.Tickets.Reroute)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Delete("/:id", auth.RequireCapability(domain.CapTicketsDelete), cfg.Tickets.Delete)
	tickets.Post("/:id/worklogs", cfg.WorkLogs.Create)
	tickets.Get("/:id/worklogs", cfg.WorkLogs.List)

	notifications := protected.Group("/notifications")
	notifications.Get("", cfg.Notifications.List)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)
	notifications.Delete("/:id", cfg.Notifications.Dismiss)

	actors := protected.Group("/actors", auth.RequireRole(domain.RoleAdmin))
	actors.Post("", cfg.Actors.Create)
	actors.Get("", cfg.Actors.List)
	actors.Patch("/:id/active", cfg.Actors.SetActive)
}

package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/deskops/sla-service/internal/api/http/handlers"
	"github.com/deskops/sla-service/internal/auth"
	"github.com/deskops/sla-service/internal/domain"
	"github.com/deskops/sla-service/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Tasks          *handlers.TasksHandler
	SLAAdmin       *handlers.SLAAdminHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	MetricsPath    string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	if cfg.Health != nil {
		app.Get("/health/live", cfg.Health.Live)
		app.Get("/health/ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())

	tickets := api.Group("/tickets")
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/sla", cfg.Tickets.GetSLA)
	tickets.Get("/:id/violations", cfg.Tickets.ListViolations)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/priority", cfg.Tickets.UpdatePriority)
	tickets.Post("/:id/first-response", cfg.Tickets.MarkFirstResponse)
	tickets.Post("/:id/pause", cfg.Tickets.PauseSLA)
	tickets.Post("/:id/resume", cfg.Tickets.ResumeSLA)

	tasks := api.Group("/tasks")
	tasks.Get("", cfg.Tasks.ListTasks)
	tasks.Post("", cfg.Tasks.CreateTask)
	tasks.Get("/:id", cfg.Tasks.GetTask)
	tasks.Get("/:id/sla", cfg.Tasks.GetSLA)
	tasks.Get("/:id/violations", cfg.Tasks.ListViolations)
	tasks.Patch("/:id/status", cfg.Tasks.UpdateStatus)
	tasks.Patch("/:id/priority", cfg.Tasks.UpdatePriority)
	tasks.Post("/:id/pause", cfg.Tasks.PauseSLA)
	tasks.Post("/:id/resume", cfg.Tasks.ResumeSLA)

	admin := api.Group("/sla", auth.RequireStaffRole(domain.StaffRoleAdmin, domain.StaffRoleTeamLead))
	admin.Get("/policies", cfg.SLAAdmin.ListPolicies)
	admin.Post("/policies", cfg.SLAAdmin.CreatePolicy)
	admin.Get("/calendar", cfg.SLAAdmin.GetCalendar)
	admin.Put("/calendar/days", cfg.SLAAdmin.ReplaceDays)
	admin.Post("/calendar/holidays", cfg.SLAAdmin.AddHoliday)
	admin.Post("/monitor/run", cfg.SLAAdmin.RunMonitor)
}

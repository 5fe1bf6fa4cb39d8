package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-dashboard/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Dashboard *handlers.DashboardHandler
	Reassign  *handlers.ReassignHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	dashboard := app.Group("/api/dashboard")
	dashboard.Get("", cfg.Dashboard.GetDashboard)
	dashboard.Post("/tickets/load", cfg.Dashboard.LoadTickets)
	dashboard.Put("/filter", cfg.Dashboard.SetFilter)
	dashboard.Get("/teams", cfg.Dashboard.ListTeams)

	selection := dashboard.Group("/selection")
	selection.Get("", cfg.Dashboard.GetSelection)
	selection.Delete("", cfg.Dashboard.Deselect)
	selection.Post("/replies", cfg.Dashboard.PostReply)
	selection.Get("/activities", cfg.Dashboard.ListActivities)
	selection.Get("/journal", cfg.Dashboard.ListJournal)
	selection.Put("/:ticketNumber", cfg.Dashboard.Select)

	reassign := dashboard.Group("/reassign")
	reassign.Get("", cfg.Reassign.GetModal)
	reassign.Delete("", cfg.Reassign.Close)
	reassign.Post("/open", cfg.Reassign.Open)
	reassign.Put("/form", cfg.Reassign.UpdateForm)
	reassign.Post("/submit", cfg.Reassign.Submit)
}

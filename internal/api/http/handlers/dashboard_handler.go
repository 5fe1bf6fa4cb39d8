package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/triage-dashboard/internal/api/dto"
	"github.com/spec-kit/triage-dashboard/internal/service"
)

// DashboardHandler serves the listing, filter, selection and reply endpoints.
type DashboardHandler struct {
	dashboard *service.DashboardService
	teams     *service.TeamService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboard *service.DashboardService, teams *service.TeamService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, teams: teams}
}

// GetDashboard GET /api/dashboard.
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dashboardResponse(h.dashboard.View())})
}

// LoadTickets POST /api/dashboard/tickets/load.
func (h *DashboardHandler) LoadTickets(c *fiber.Ctx) error {
	var req dto.LoadTicketsRequest
	if len(c.Body()) > 0 {
		if err := bindJSON(c, &req); err != nil {
			return err
		}
	}
	result, err := h.dashboard.LoadTickets(c.UserContext(), req.Team)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoadTicketsResponse{
		Applied:  result.Applied,
		Sequence: result.Sequence,
		Count:    result.Count,
	}})
}

// SetFilter PUT /api/dashboard/filter.
func (h *DashboardHandler) SetFilter(c *fiber.Ctx) error {
	var req dto.FilterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	view, err := h.dashboard.SetFilter(req.Tab, req.Search)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dashboardResponse(view)})
}

// GetSelection GET /api/dashboard/selection.
func (h *DashboardHandler) GetSelection(c *fiber.Ctx) error {
	ticket, err := h.dashboard.Selected()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(&ticket)})
}

// Select PUT /api/dashboard/selection/:ticketNumber.
func (h *DashboardHandler) Select(c *fiber.Ctx) error {
	// Params are only valid for the lifetime of the request.
	number := utils.CopyString(c.Params("ticketNumber"))
	ticket, err := h.dashboard.Select(c.UserContext(), number)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(&ticket)})
}

// Deselect DELETE /api/dashboard/selection.
func (h *DashboardHandler) Deselect(c *fiber.Ctx) error {
	h.dashboard.Deselect()
	return c.SendStatus(fiber.StatusNoContent)
}

// PostReply POST /api/dashboard/selection/replies.
func (h *DashboardHandler) PostReply(c *fiber.Ctx) error {
	var req dto.ReplyRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	msg, err := h.dashboard.PostReply(c.UserContext(), req.Text)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.MessageResponse{By: msg.By, Text: msg.Text, At: msg.At}})
}

// ListActivities GET /api/dashboard/selection/activities.
func (h *DashboardHandler) ListActivities(c *fiber.Ctx) error {
	activities, err := h.dashboard.Activities(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(activities))
	for _, activity := range activities {
		items = append(items, activityResponse(activity))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListJournal GET /api/dashboard/selection/journal.
func (h *DashboardHandler) ListJournal(c *fiber.Ctx) error {
	entries, err := h.dashboard.Journal(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	items := make([]dto.JournalEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, journalEntryResponse(entry))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListTeams GET /api/dashboard/teams.
func (h *DashboardHandler) ListTeams(c *fiber.Ctx) error {
	list := h.teams.Teams(c.UserContext())
	items := make([]dto.TeamResponse, 0, len(list.Teams))
	for _, team := range list.Teams {
		items = append(items, dto.TeamResponse{ID: team.ID, Name: team.Name})
	}
	return c.JSON(fiber.Map{"data": dto.TeamsResponse{Teams: items, Source: list.Source}})
}

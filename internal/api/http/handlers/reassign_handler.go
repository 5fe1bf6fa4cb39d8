package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/triage-dashboard/internal/api/dto"
	"github.com/spec-kit/triage-dashboard/internal/workflow"
)

// ReassignHandler drives the reassign modal.
type ReassignHandler struct {
	workflow *workflow.Reassignment
}

// NewReassignHandler constructs handler.
func NewReassignHandler(reassignment *workflow.Reassignment) *ReassignHandler {
	return &ReassignHandler{workflow: reassignment}
}

// GetModal GET /api/dashboard/reassign.
func (h *ReassignHandler) GetModal(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": modalResponse(h.workflow.Snapshot())})
}

// Open POST /api/dashboard/reassign/open.
func (h *ReassignHandler) Open(c *fiber.Ctx) error {
	snapshot, err := h.workflow.Open(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": modalResponse(snapshot)})
}

// UpdateForm PUT /api/dashboard/reassign/form.
func (h *ReassignHandler) UpdateForm(c *fiber.Ctx) error {
	var req dto.ReassignFormRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	snapshot, err := h.workflow.UpdateForm(workflow.Form{
		HumanAssignedTeam: req.HumanAssignedTeam,
		AISuggestedWrong:  req.AISuggestedWrong,
		TeamReview:        req.TeamReview,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": modalResponse(snapshot)})
}

// Submit POST /api/dashboard/reassign/submit.
func (h *ReassignHandler) Submit(c *fiber.Ctx) error {
	result, err := h.workflow.Submit(c.UserContext())
	if err != nil {
		return err
	}
	resp := dto.ReassignResultResponse{
		Activity: activityResponse(result.Activity),
		Modal:    modalResponse(h.workflow.Snapshot()),
	}
	if result.Ticket.TicketNumber != "" {
		detail := ticketDetail(&result.Ticket)
		resp.Ticket = &detail
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Close DELETE /api/dashboard/reassign.
func (h *ReassignHandler) Close(c *fiber.Ctx) error {
	snapshot, err := h.workflow.Close()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": modalResponse(snapshot)})
}

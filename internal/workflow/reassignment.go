// Package workflow drives the reassignment modal: an agent opens it on the
// selected ticket, picks a team, and submits a human override that is only
// applied locally once the backend confirms it.
package workflow

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-dashboard/internal/domain"
	"github.com/spec-kit/triage-dashboard/internal/events"
	apperrors "github.com/spec-kit/triage-dashboard/pkg/util/errorutil"
)

// State is the modal lifecycle state.
type State string

const (
	StateClosed     State = "closed"
	StateOpen       State = "open"
	StateSubmitting State = "submitting"
)

// TicketSource is the part of the ticket store the workflow needs.
type TicketSource interface {
	Selected() (domain.Ticket, bool)
	Get(number string) (domain.Ticket, bool)
	PatchAssignedTeam(number, team string) (domain.Ticket, error)
}

// Reassigner submits an override to the backend.
type Reassigner interface {
	Reassign(ctx context.Context, ticketNumber string, req domain.ReassignmentRequest) (*domain.ReassignmentActivity, error)
}

// Form holds the agent's in-progress input.
type Form struct {
	HumanAssignedTeam string
	AISuggestedWrong  bool
	TeamReview        string
}

// Snapshot is a read-only view of the modal.
type Snapshot struct {
	State        State
	TicketNumber string
	Form         Form
	LastError    string
}

// Result describes a confirmed reassignment.
type Result struct {
	Ticket   domain.Ticket
	Activity domain.ReassignmentActivity
}

// Reassignment is the modal state machine for one dashboard.
type Reassignment struct {
	tickets    TicketSource
	reassigner Reassigner
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu        sync.Mutex
	state     State
	ticket    string
	form      Form
	lastError string
}

// NewReassignment creates a closed workflow.
func NewReassignment(tickets TicketSource, reassigner Reassigner, dispatcher events.Dispatcher, logger *zap.Logger) *Reassignment {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reassignment{
		tickets:    tickets,
		reassigner: reassigner,
		dispatcher: dispatcher,
		logger:     logger.Named("reassignment"),
		state:      StateClosed,
	}
}

// Open shows the modal for the currently selected ticket.
func (w *Reassignment) Open(ctx context.Context) (Snapshot, error) {
	snapshot, err := w.open()
	if apperrors.HasCode(err, apperrors.CodeSelectionRequired) {
		w.logger.Warn("reassign opened without a selected ticket")
		events.Publish(ctx, w.dispatcher, events.Event{
			Type:    events.EventSelectionPrecondition,
			Payload: events.SelectionPreconditionPayload{Operation: "reassign.open"},
		})
	}
	return snapshot, err
}

func (w *Reassignment) open() (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case StateOpen:
		return w.snapshotLocked(), nil
	case StateSubmitting:
		return Snapshot{}, errSubmissionInFlight()
	}

	ticket, ok := w.tickets.Selected()
	if !ok {
		return Snapshot{}, apperrors.NewSelectionRequired("select a ticket before reassigning")
	}
	w.state = StateOpen
	w.ticket = ticket.TicketNumber
	w.form = Form{}
	w.lastError = ""
	return w.snapshotLocked(), nil
}

// UpdateForm replaces the form values while the modal is open.
func (w *Reassignment) UpdateForm(form Form) (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case StateClosed:
		return Snapshot{}, errModalClosed()
	case StateSubmitting:
		return Snapshot{}, errSubmissionInFlight()
	}
	w.form = form
	return w.snapshotLocked(), nil
}

// Close dismisses the modal and discards the form.
func (w *Reassignment) Close() (Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitting {
		return Snapshot{}, errSubmissionInFlight()
	}
	w.reset()
	return w.snapshotLocked(), nil
}

// Snapshot returns the current modal view.
func (w *Reassignment) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Submit sends the override for the bound ticket. The ticket's assigned team
// is read at submit time and sent as the AI-assigned team. The store is only
// patched after the backend confirms.
func (w *Reassignment) Submit(ctx context.Context) (Result, error) {
	w.mu.Lock()
	switch w.state {
	case StateClosed:
		w.mu.Unlock()
		return Result{}, errModalClosed()
	case StateSubmitting:
		w.mu.Unlock()
		return Result{}, errSubmissionInFlight()
	}

	humanTeam := strings.TrimSpace(w.form.HumanAssignedTeam)
	if humanTeam == "" {
		w.lastError = "select a team"
		w.mu.Unlock()
		return Result{}, apperrors.NewValidationError("human assigned team is required",
			map[string]any{"field": "humanAssignedTeam"})
	}

	number := w.ticket
	ticket, ok := w.tickets.Get(number)
	if !ok {
		w.reset()
		w.mu.Unlock()
		return Result{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": number})
	}

	req := domain.NewReassignmentRequest(ticket.AssignedTeamName(), humanTeam, w.form.AISuggestedWrong, w.form.TeamReview)
	w.state = StateSubmitting
	w.lastError = ""
	w.mu.Unlock()

	activity, err := w.reassigner.Reassign(ctx, number, req)
	if err != nil {
		return Result{}, w.fail(ctx, number, req, err)
	}
	return w.succeed(ctx, number, req, activity), nil
}

func (w *Reassignment) fail(ctx context.Context, number string, req domain.ReassignmentRequest, cause error) error {
	w.mu.Lock()
	w.state = StateOpen
	w.lastError = cause.Error()
	w.mu.Unlock()

	w.logger.Error("reassignment failed",
		zap.String("ticket_number", number),
		zap.String("human_team", req.HumanAssignedTeam),
		zap.Error(cause))
	events.Publish(ctx, w.dispatcher, events.Event{
		Type:         events.EventReassignmentFailed,
		TicketNumber: number,
		Payload:      events.ReassignmentPayload{Request: req, Error: cause.Error()},
	})
	return apperrors.NewSubmissionFailure(number, cause)
}

func (w *Reassignment) succeed(ctx context.Context, number string, req domain.ReassignmentRequest, activity *domain.ReassignmentActivity) Result {
	result := Result{}
	if activity != nil {
		result.Activity = *activity
	}

	patched, err := w.tickets.PatchAssignedTeam(number, req.HumanAssignedTeam)
	if err != nil {
		// A reload replaced the ticket while the call was in flight.
		w.logger.Warn("confirmed reassignment for a ticket no longer loaded",
			zap.String("ticket_number", number), zap.Error(err))
	} else {
		result.Ticket = patched
	}

	w.mu.Lock()
	w.reset()
	w.mu.Unlock()

	w.logger.Info("ticket reassigned",
		zap.String("ticket_number", number),
		zap.String("ai_team", req.AIAssignedTeam),
		zap.String("human_team", req.HumanAssignedTeam),
		zap.Bool("ai_suggested_wrong", req.AISuggestedWrong))
	events.Publish(ctx, w.dispatcher, events.Event{
		Type:         events.EventTicketReassigned,
		TicketNumber: number,
		Payload:      events.ReassignmentPayload{Request: req, ActivityID: result.Activity.ID},
	})
	return result
}

func (w *Reassignment) reset() {
	w.state = StateClosed
	w.ticket = ""
	w.form = Form{}
	w.lastError = ""
}

func (w *Reassignment) snapshotLocked() Snapshot {
	return Snapshot{
		State:        w.state,
		TicketNumber: w.ticket,
		Form:         w.form,
		LastError:    w.lastError,
	}
}

func errModalClosed() error {
	return apperrors.NewConflict(apperrors.CodeModalClosed, "reassign modal is not open")
}

func errSubmissionInFlight() error {
	return apperrors.NewConflict(apperrors.CodeSubmissionInFlight, "a reassignment is already in flight")
}

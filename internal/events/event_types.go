package events

import (
	"time"

	"github.com/spec-kit/triage-dashboard/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketsLoaded         EventType = "tickets_loaded"
	EventTicketsLoadFailed     EventType = "tickets_load_failed"
	EventTicketSelected        EventType = "ticket_selected"
	EventReplyPosted           EventType = "reply_posted"
	EventTicketReassigned      EventType = "ticket_reassigned"
	EventReassignmentFailed    EventType = "reassignment_failed"
	EventSelectionPrecondition EventType = "selection_precondition"
)

// Event represents a dashboard event delivered to the observability sink.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	TicketNumber string      `json:"ticket_number,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// TicketsLoadedPayload payload.
type TicketsLoadedPayload struct {
	Team     string `json:"team,omitempty"`
	Sequence uint64 `json:"sequence"`
	Count    int    `json:"count"`
}

// TicketsLoadFailedPayload payload.
type TicketsLoadFailedPayload struct {
	Team     string `json:"team,omitempty"`
	Sequence uint64 `json:"sequence"`
	Error    string `json:"error"`
}

// ReplyPostedPayload payload.
type ReplyPostedPayload struct {
	Preview string `json:"preview"`
}

// ReassignmentPayload describes one submitted override and its outcome.
type ReassignmentPayload struct {
	Request    domain.ReassignmentRequest `json:"request"`
	ActivityID int64                      `json:"activity_id,omitempty"`
	Error      string                     `json:"error,omitempty"`
}

// SelectionPreconditionPayload payload.
type SelectionPreconditionPayload struct {
	Operation string `json:"operation"`
}

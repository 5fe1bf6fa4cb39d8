package domain

import (
	"strings"
	"time"
)

// TicketStatus is the display lifecycle state of a ticket.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
)

// TicketPriority is the display urgency of a ticket.
type TicketPriority string

const (
	TicketPriorityHigh   TicketPriority = "High"
	TicketPriorityMedium TicketPriority = "Medium"
	TicketPriorityLow    TicketPriority = "Low"
)

// ParseTicketStatus maps the upper-case wire form to the display status.
// Unrecognized values fall back to Open.
func ParseTicketStatus(wire string) TicketStatus {
	switch strings.ToUpper(strings.TrimSpace(wire)) {
	case "RESOLVED":
		return TicketStatusResolved
	case "IN_PROGRESS":
		return TicketStatusInProgress
	default:
		return TicketStatusOpen
	}
}

// ParseTicketPriority maps the upper-case wire form to the display priority.
// Unrecognized values fall back to Low.
func ParseTicketPriority(wire string) TicketPriority {
	switch strings.ToUpper(strings.TrimSpace(wire)) {
	case "HIGH":
		return TicketPriorityHigh
	case "MEDIUM":
		return TicketPriorityMedium
	default:
		return TicketPriorityLow
	}
}

// AIInsight carries the upstream model's top prediction for a ticket.
type AIInsight struct {
	PredictedTeam   string
	ConfidenceScore float64
	Reason          string
	Verified        bool
}

// Ticket is the dashboard view of a support request.
type Ticket struct {
	ID             int64
	TicketNumber   string
	Subject        string
	RequesterName  string
	RequesterEmail string
	CreatedAt      time.Time
	Status         TicketStatus
	Priority       TicketPriority
	AssignedTeam   *string
	AISuggestions  []AISuggestion
	Insight        *AIInsight
	Conversation   []Message
	Timeline       []TimelineItem
}

// AssignedTeamName returns the assigned team or an empty string when unassigned.
func (t *Ticket) AssignedTeamName() string {
	if t.AssignedTeam == nil {
		return ""
	}
	return *t.AssignedTeam
}

// Clone returns a deep copy so callers cannot alias store-owned slices.
func (t Ticket) Clone() Ticket {
	out := t
	if t.AssignedTeam != nil {
		team := *t.AssignedTeam
		out.AssignedTeam = &team
	}
	if t.Insight != nil {
		insight := *t.Insight
		out.Insight = &insight
	}
	out.AISuggestions = append([]AISuggestion(nil), t.AISuggestions...)
	out.Conversation = append([]Message(nil), t.Conversation...)
	out.Timeline = append([]TimelineItem(nil), t.Timeline...)
	return out
}

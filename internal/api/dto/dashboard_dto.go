package dto

import (
	"time"

	"github.com/spec-kit/triage-dashboard/internal/domain"
)

// LoadTicketsRequest payload.
type LoadTicketsRequest struct {
	Team string `json:"team" validate:"max=200"`
}

// FilterRequest payload.
type FilterRequest struct {
	Tab    string `json:"tab" validate:"max=32"`
	Search string `json:"search" validate:"max=200"`
}

// ReplyRequest payload.
type ReplyRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// ReassignFormRequest payload.
type ReassignFormRequest struct {
	HumanAssignedTeam string `json:"human_assigned_team" validate:"max=200"`
	AISuggestedWrong  bool   `json:"ai_suggested_wrong"`
	TeamReview        string `json:"team_review" validate:"max=2000"`
}

// LoadTicketsResponse reports how a load request was handled.
type LoadTicketsResponse struct {
	Applied  bool   `json:"applied"`
	Sequence uint64 `json:"sequence"`
	Count    int    `json:"count"`
}

// SuggestionResponse is one AI suggestion with its confidence tier.
type SuggestionResponse struct {
	Team       string                `json:"team"`
	Confidence float64               `json:"confidence"`
	Rank       int                   `json:"rank"`
	Tier       domain.ConfidenceTier `json:"tier"`
}

// InsightResponse is the backend's AI prediction for a ticket.
type InsightResponse struct {
	PredictedTeam   string                `json:"predicted_team"`
	ConfidenceScore float64               `json:"confidence_score"`
	Tier            domain.ConfidenceTier `json:"tier"`
	Reason          string                `json:"reason"`
	Verified        bool                  `json:"verified"`
}

// MessageResponse is one conversation entry.
type MessageResponse struct {
	By   domain.MessageAuthor `json:"by"`
	Text string               `json:"text"`
	At   time.Time            `json:"at"`
}

// TimelineResponse is one timeline entry.
type TimelineResponse struct {
	Title string    `json:"title"`
	At    time.Time `json:"at"`
	Meta  string    `json:"meta,omitempty"`
}

// TicketSummary is a listing row.
type TicketSummary struct {
	ID             int64                 `json:"id"`
	TicketNumber   string                `json:"ticket_number"`
	Subject        string                `json:"subject"`
	RequesterName  string                `json:"requester_name"`
	RequesterEmail string                `json:"requester_email"`
	CreatedAt      *time.Time            `json:"created_at"`
	Status         domain.TicketStatus   `json:"status"`
	Priority       domain.TicketPriority `json:"priority"`
	AssignedTeam   *string               `json:"assigned_team"`
	TopSuggestion  *SuggestionResponse   `json:"top_suggestion,omitempty"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	AISuggestions []SuggestionResponse `json:"ai_suggestions"`
	Insight       *InsightResponse     `json:"insight,omitempty"`
	Conversation  []MessageResponse    `json:"conversation"`
	Timeline      []TimelineResponse   `json:"timeline"`
}

// FilterResponse echoes the active filter.
type FilterResponse struct {
	Tab    string `json:"tab"`
	Search string `json:"search"`
}

// StatsResponse counts tickets by resolution.
type StatsResponse struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Solved  int `json:"solved"`
}

// LoadStatusResponse describes the last applied load.
type LoadStatusResponse struct {
	Team     string `json:"team"`
	Sequence uint64 `json:"sequence"`
	Count    int    `json:"count"`
	Error    string `json:"error,omitempty"`
}

// DashboardResponse is the full listing screen.
type DashboardResponse struct {
	Tickets  []TicketSummary       `json:"tickets"`
	Filter   FilterResponse        `json:"filter"`
	Stats    StatsResponse         `json:"stats"`
	Selected *TicketDetailResponse `json:"selected"`
	Team     string                `json:"team"`
	LastLoad LoadStatusResponse    `json:"last_load"`
}

// ReassignFormResponse echoes the modal form.
type ReassignFormResponse struct {
	HumanAssignedTeam string `json:"human_assigned_team"`
	AISuggestedWrong  bool   `json:"ai_suggested_wrong"`
	TeamReview        string `json:"team_review"`
}

// ReassignModalResponse is the modal state.
type ReassignModalResponse struct {
	State        string               `json:"state"`
	TicketNumber string               `json:"ticket_number,omitempty"`
	Form         ReassignFormResponse `json:"form"`
	LastError    string               `json:"last_error,omitempty"`
}

// ReassignResultResponse is returned after a confirmed reassignment.
type ReassignResultResponse struct {
	Ticket   *TicketDetailResponse `json:"ticket,omitempty"`
	Activity ActivityResponse      `json:"activity"`
	Modal    ReassignModalResponse `json:"modal"`
}

// ActivityResponse is one backend reassignment record.
type ActivityResponse struct {
	ID                int64      `json:"id"`
	AIAssignedTeam    string     `json:"ai_assigned_team"`
	HumanAssignedTeam string     `json:"human_assigned_team"`
	AISuggestedWrong  bool       `json:"ai_suggested_wrong"`
	TeamReview        string     `json:"team_review"`
	CreatedAt         *time.Time `json:"created_at"`
}

// TeamResponse is one selectable team.
type TeamResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TeamsResponse lists teams and where they came from.
type TeamsResponse struct {
	Teams  []TeamResponse `json:"teams"`
	Source string         `json:"source"`
}

// JournalEntryResponse is one locally recorded submission.
type JournalEntryResponse struct {
	ID                int64     `json:"id"`
	EventID           string    `json:"event_id"`
	TicketNumber      string    `json:"ticket_number"`
	Outcome           string    `json:"outcome"`
	AIAssignedTeam    string    `json:"ai_assigned_team"`
	HumanAssignedTeam string    `json:"human_assigned_team"`
	AISuggestedWrong  bool      `json:"ai_suggested_wrong"`
	TeamReview        string    `json:"team_review"`
	ActivityID        *int64    `json:"activity_id,omitempty"`
	Error             string    `json:"error,omitempty"`
	RecordedAt        time.Time `json:"recorded_at"`
}

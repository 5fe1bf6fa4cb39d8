package domain

import (
	"strings"
	"time"
)

// ReassignmentRequest is the human override sent to the backend for one ticket.
type ReassignmentRequest struct {
	AIAssignedTeam    string `json:"aiAssignedTeam"`
	HumanAssignedTeam string `json:"humanAssignedTeam"`
	AISuggestedWrong  bool   `json:"aiSuggestedWrong"`
	TeamReview        string `json:"teamReview"`
}

// NewReassignmentRequest builds a request, trimming the free-text review.
func NewReassignmentRequest(aiTeam, humanTeam string, aiWrong bool, review string) ReassignmentRequest {
	return ReassignmentRequest{
		AIAssignedTeam:    aiTeam,
		HumanAssignedTeam: humanTeam,
		AISuggestedWrong:  aiWrong,
		TeamReview:        strings.TrimSpace(review),
	}
}

// ReassignmentActivity is the backend's record of a confirmed reassignment.
type ReassignmentActivity struct {
	ID                int64
	AIAssignedTeam    string
	HumanAssignedTeam string
	AISuggestedWrong  bool
	TeamReview        string
	CreatedAt         time.Time
}

// ReassignmentOutcome is the result recorded for a submitted override.
type ReassignmentOutcome string

const (
	OutcomeConfirmed ReassignmentOutcome = "confirmed"
	OutcomeFailed    ReassignmentOutcome = "failed"
)

// JournalEntry is the local audit record of one submission attempt.
type JournalEntry struct {
	ID           int64
	EventID      string
	TicketNumber string
	Outcome      ReassignmentOutcome
	Request      ReassignmentRequest
	ActivityID   *int64
	Error        string
	RecordedAt   time.Time
}

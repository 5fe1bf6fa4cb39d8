package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/triage-dashboard/internal/domain"
)

// ticketRecord is the upstream ticket listing schema.
type ticketRecord struct {
	ID               int64               `json:"id"`
	TicketNumber     string              `json:"ticketNumber" validate:"required"`
	Subject          string              `json:"subject"`
	Status           string              `json:"status"`
	Priority         string              `json:"priority"`
	AssignedTeamName *string             `json:"assignedTeamName"`
	RequesterName    string              `json:"requesterName"`
	RequesterEmail   string              `json:"requesterEmail"`
	CreatedAt        string              `json:"createdAt"`
	TicketDetail     *ticketDetailRecord `json:"ticketDetail"`
	Teams            []suggestionRecord  `json:"teams" validate:"dive"`
}

type ticketDetailRecord struct {
	AIConfidenceScore *float64 `json:"aiConfidenceScore"`
	AIPredictedTeam   string   `json:"aiPredictedTeam"`
	AIReason          string   `json:"aiReason"`
	AIVerified        *bool    `json:"aiVerified"`
}

type suggestionRecord struct {
	Team       string   `json:"team" validate:"required"`
	Confidence *float64 `json:"confidence"`
	RankOrder  *int     `json:"rankOrder"`
}

type teamRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
}

type activityRecord struct {
	ID                int64  `json:"id"`
	AIAssignedTeam    string `json:"aiAssignedTeam"`
	HumanAssignedTeam string `json:"humanAssignedTeam"`
	AISuggestedWrong  *bool  `json:"aiSuggestedWrong"`
	TeamReview        string `json:"teamReview"`
	CreatedAt         string `json:"createdAt"`
}

// Spring serializes LocalDateTime without a zone; those are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

type decoder struct {
	validate *validator.Validate
}

func newDecoder() *decoder {
	return &decoder{validate: validator.New()}
}

func (d *decoder) tickets(op string, body []byte) ([]domain.Ticket, error) {
	var records []ticketRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	tickets := make([]domain.Ticket, 0, len(records))
	for i, record := range records {
		if err := d.validate.Struct(record); err != nil {
			return nil, &DecodeError{Op: op, Err: fmt.Errorf("ticket[%d]: %w", i, err)}
		}
		ticket, err := record.toDomain()
		if err != nil {
			return nil, &DecodeError{Op: op, Err: fmt.Errorf("ticket[%d]: %w", i, err)}
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

func (d *decoder) teams(op string, body []byte) ([]domain.Team, error) {
	var records []teamRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	teams := make([]domain.Team, 0, len(records))
	for i, record := range records {
		if err := d.validate.Struct(record); err != nil {
			return nil, &DecodeError{Op: op, Err: fmt.Errorf("team[%d]: %w", i, err)}
		}
		teams = append(teams, domain.Team{ID: record.ID, Name: record.Name})
	}
	return teams, nil
}

func (d *decoder) activity(op string, body []byte) (*domain.ReassignmentActivity, error) {
	var record activityRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	activity, err := record.toDomain()
	if err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	return &activity, nil
}

func (d *decoder) activities(op string, body []byte) ([]domain.ReassignmentActivity, error) {
	var records []activityRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	out := make([]domain.ReassignmentActivity, 0, len(records))
	for i, record := range records {
		activity, err := record.toDomain()
		if err != nil {
			return nil, &DecodeError{Op: op, Err: fmt.Errorf("activity[%d]: %w", i, err)}
		}
		out = append(out, activity)
	}
	return out, nil
}

func (r ticketRecord) toDomain() (domain.Ticket, error) {
	createdAt, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return domain.Ticket{}, err
	}

	ticket := domain.Ticket{
		ID:             r.ID,
		TicketNumber:   r.TicketNumber,
		Subject:        r.Subject,
		RequesterName:  r.RequesterName,
		RequesterEmail: r.RequesterEmail,
		CreatedAt:      createdAt,
		Status:         domain.ParseTicketStatus(r.Status),
		Priority:       domain.ParseTicketPriority(r.Priority),
		AISuggestions:  make([]domain.AISuggestion, 0, len(r.Teams)),
		Conversation:   []domain.Message{},
		Timeline:       []domain.TimelineItem{},
	}
	if r.AssignedTeamName != nil && strings.TrimSpace(*r.AssignedTeamName) != "" {
		team := *r.AssignedTeamName
		ticket.AssignedTeam = &team
	}
	for i, s := range r.Teams {
		suggestion := domain.AISuggestion{Team: s.Team, Rank: i + 1}
		if s.Confidence != nil {
			suggestion.Confidence = *s.Confidence
		}
		if s.RankOrder != nil {
			suggestion.Rank = *s.RankOrder
		}
		ticket.AISuggestions = append(ticket.AISuggestions, suggestion)
	}
	if r.TicketDetail != nil {
		insight := &domain.AIInsight{
			PredictedTeam: r.TicketDetail.AIPredictedTeam,
			Reason:        r.TicketDetail.AIReason,
		}
		if r.TicketDetail.AIConfidenceScore != nil {
			insight.ConfidenceScore = *r.TicketDetail.AIConfidenceScore
		}
		if r.TicketDetail.AIVerified != nil {
			insight.Verified = *r.TicketDetail.AIVerified
		}
		ticket.Insight = insight
	}
	if !createdAt.IsZero() {
		ticket.Timeline = append(ticket.Timeline, domain.TimelineItem{Title: "Ticket created", At: createdAt})
	}
	return ticket, nil
}

func (r activityRecord) toDomain() (domain.ReassignmentActivity, error) {
	createdAt, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return domain.ReassignmentActivity{}, err
	}
	activity := domain.ReassignmentActivity{
		ID:                r.ID,
		AIAssignedTeam:    r.AIAssignedTeam,
		HumanAssignedTeam: r.HumanAssignedTeam,
		TeamReview:        r.TeamReview,
		CreatedAt:         createdAt,
	}
	if r.AISuggestedWrong != nil {
		activity.AISuggestedWrong = *r.AISuggestedWrong
	}
	return activity, nil
}

package handlers

import (
	"time"

	"github.com/spec-kit/triage-dashboard/internal/api/dto"
	"github.com/spec-kit/triage-dashboard/internal/domain"
	"github.com/spec-kit/triage-dashboard/internal/service"
	"github.com/spec-kit/triage-dashboard/internal/workflow"
)

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func suggestionResponse(s domain.AISuggestion) dto.SuggestionResponse {
	return dto.SuggestionResponse{
		Team:       s.Team,
		Confidence: s.Confidence,
		Rank:       s.Rank,
		Tier:       s.Tier(),
	}
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	summary := dto.TicketSummary{
		ID:             ticket.ID,
		TicketNumber:   ticket.TicketNumber,
		Subject:        ticket.Subject,
		RequesterName:  ticket.RequesterName,
		RequesterEmail: ticket.RequesterEmail,
		CreatedAt:      optionalTime(ticket.CreatedAt),
		Status:         ticket.Status,
		Priority:       ticket.Priority,
		AssignedTeam:   ticket.AssignedTeam,
	}
	if len(ticket.AISuggestions) > 0 {
		top := suggestionResponse(ticket.AISuggestions[0])
		summary.TopSuggestion = &top
	}
	return summary
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	suggestions := make([]dto.SuggestionResponse, 0, len(ticket.AISuggestions))
	for _, s := range ticket.AISuggestions {
		suggestions = append(suggestions, suggestionResponse(s))
	}
	conversation := make([]dto.MessageResponse, 0, len(ticket.Conversation))
	for _, m := range ticket.Conversation {
		conversation = append(conversation, dto.MessageResponse{By: m.By, Text: m.Text, At: m.At})
	}
	timeline := make([]dto.TimelineResponse, 0, len(ticket.Timeline))
	for _, item := range ticket.Timeline {
		timeline = append(timeline, dto.TimelineResponse{Title: item.Title, At: item.At, Meta: item.Meta})
	}

	detail := dto.TicketDetailResponse{
		TicketSummary: ticketSummary(ticket),
		AISuggestions: suggestions,
		Conversation:  conversation,
		Timeline:      timeline,
	}
	if ticket.Insight != nil {
		detail.Insight = &dto.InsightResponse{
			PredictedTeam:   ticket.Insight.PredictedTeam,
			ConfidenceScore: ticket.Insight.ConfidenceScore,
			Tier:            domain.Tier(ticket.Insight.ConfidenceScore),
			Reason:          ticket.Insight.Reason,
			Verified:        ticket.Insight.Verified,
		}
	}
	return detail
}

func dashboardResponse(view service.DashboardView) dto.DashboardResponse {
	tickets := make([]dto.TicketSummary, 0, len(view.Tickets))
	for i := range view.Tickets {
		tickets = append(tickets, ticketSummary(&view.Tickets[i]))
	}
	resp := dto.DashboardResponse{
		Tickets: tickets,
		Filter:  dto.FilterResponse{Tab: string(view.Filter.Tab), Search: view.Filter.Term},
		Stats: dto.StatsResponse{
			Total:   view.Stats.Total,
			Pending: view.Stats.Pending,
			Solved:  view.Stats.Solved,
		},
		Team: view.Team,
		LastLoad: dto.LoadStatusResponse{
			Team:     view.LastLoad.Team,
			Sequence: view.LastLoad.Sequence,
			Count:    view.LastLoad.Count,
			Error:    view.LastLoad.Error,
		},
	}
	if view.Selected != nil {
		detail := ticketDetail(view.Selected)
		resp.Selected = &detail
	}
	return resp
}

func modalResponse(snapshot workflow.Snapshot) dto.ReassignModalResponse {
	return dto.ReassignModalResponse{
		State:        string(snapshot.State),
		TicketNumber: snapshot.TicketNumber,
		Form: dto.ReassignFormResponse{
			HumanAssignedTeam: snapshot.Form.HumanAssignedTeam,
			AISuggestedWrong:  snapshot.Form.AISuggestedWrong,
			TeamReview:        snapshot.Form.TeamReview,
		},
		LastError: snapshot.LastError,
	}
}

func activityResponse(activity domain.ReassignmentActivity) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:                activity.ID,
		AIAssignedTeam:    activity.AIAssignedTeam,
		HumanAssignedTeam: activity.HumanAssignedTeam,
		AISuggestedWrong:  activity.AISuggestedWrong,
		TeamReview:        activity.TeamReview,
		CreatedAt:         optionalTime(activity.CreatedAt),
	}
}

func journalEntryResponse(entry domain.JournalEntry) dto.JournalEntryResponse {
	return dto.JournalEntryResponse{
		ID:                entry.ID,
		EventID:           entry.EventID,
		TicketNumber:      entry.TicketNumber,
		Outcome:           string(entry.Outcome),
		AIAssignedTeam:    entry.Request.AIAssignedTeam,
		HumanAssignedTeam: entry.Request.HumanAssignedTeam,
		AISuggestedWrong:  entry.Request.AISuggestedWrong,
		TeamReview:        entry.Request.TeamReview,
		ActivityID:        entry.ActivityID,
		Error:             entry.Error,
		RecordedAt:        entry.RecordedAt,
	}
}

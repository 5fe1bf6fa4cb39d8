package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-dashboard/internal/domain"
	"github.com/spec-kit/triage-dashboard/internal/events"
	"github.com/spec-kit/triage-dashboard/internal/observability"
	"github.com/spec-kit/triage-dashboard/internal/repository"
)

// AuditService is the observability sink for dashboard events.
type AuditService struct {
	dispatcher events.Dispatcher
	journal    repository.ReassignmentJournal
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAuditService creates the service. journal may be nil.
func NewAuditService(dispatcher events.Dispatcher, journal repository.ReassignmentJournal, metrics *observability.Metrics, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		journal:    journal,
		metrics:    metrics,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketsLoaded, a.handleTicketsLoaded)
	a.dispatcher.Subscribe(events.EventTicketsLoadFailed, a.handleTicketsLoadFailed)
	a.dispatcher.Subscribe(events.EventTicketSelected, a.handleTicketSelected)
	a.dispatcher.Subscribe(events.EventReplyPosted, a.handleReplyPosted)
	a.dispatcher.Subscribe(events.EventTicketReassigned, a.handleReassignment)
	a.dispatcher.Subscribe(events.EventReassignmentFailed, a.handleReassignment)
	a.dispatcher.Subscribe(events.EventSelectionPrecondition, a.handleSelectionPrecondition)
}

func (a *AuditService) handleTicketsLoaded(ctx context.Context, event events.Event) error {
	a.metrics.RecordOutcome(string(event.Type))
	a.logger.Info("TicketsLoaded", zap.String("event_id", event.ID), zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleTicketsLoadFailed(ctx context.Context, event events.Event) error {
	a.metrics.RecordOutcome(string(event.Type))
	a.logger.Error("TicketsLoadFailed", zap.String("event_id", event.ID), zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleTicketSelected(ctx context.Context, event events.Event) error {
	a.metrics.RecordOutcome(string(event.Type))
	a.logger.Debug("TicketSelected", zap.String("ticket_number", event.TicketNumber))
	return nil
}

func (a *AuditService) handleReplyPosted(ctx context.Context, event events.Event) error {
	a.metrics.RecordOutcome(string(event.Type))
	a.logger.Info("ReplyPosted", zap.String("ticket_number", event.TicketNumber), zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleSelectionPrecondition(ctx context.Context, event events.Event) error {
	a.metrics.RecordOutcome(string(event.Type))
	a.logger.Warn("SelectionPrecondition", zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleReassignment(ctx context.Context, event events.Event) error {
	a.metrics.RecordOutcome(string(event.Type))
	payload, ok := event.Payload.(events.ReassignmentPayload)
	if !ok {
		a.logger.Warn("unexpected reassignment payload", zap.String("event_id", event.ID))
		return nil
	}

	entry := &domain.JournalEntry{
		EventID:      event.ID,
		TicketNumber: event.TicketNumber,
		Outcome:      domain.OutcomeConfirmed,
		Request:      payload.Request,
		Error:        payload.Error,
	}
	if event.Type == events.EventReassignmentFailed {
		entry.Outcome = domain.OutcomeFailed
		a.logger.Error("ReassignmentFailed",
			zap.String("ticket_number", event.TicketNumber),
			zap.String("human_team", payload.Request.HumanAssignedTeam),
			zap.String("error", payload.Error))
	} else {
		if payload.ActivityID != 0 {
			id := payload.ActivityID
			entry.ActivityID = &id
		}
		a.logger.Info("TicketReassigned",
			zap.String("ticket_number", event.TicketNumber),
			zap.String("ai_team", payload.Request.AIAssignedTeam),
			zap.String("human_team", payload.Request.HumanAssignedTeam),
			zap.Bool("ai_suggested_wrong", payload.Request.AISuggestedWrong))
	}

	if a.journal == nil {
		return nil
	}
	if err := a.journal.Record(ctx, entry); err != nil {
		a.logger.Error("journal write failed", zap.String("ticket_number", event.TicketNumber), zap.Error(err))
		return err
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-dashboard/internal/domain"
	"github.com/spec-kit/triage-dashboard/internal/events"
	"github.com/spec-kit/triage-dashboard/internal/observability"
	"github.com/spec-kit/triage-dashboard/internal/repository"
)

type failingJournal struct{}

func (failingJournal) Record(context.Context, *domain.JournalEntry) error {
	return errors.New("disk full")
}

func (failingJournal) ListByTicket(context.Context, string, int) ([]domain.JournalEntry, error) {
	return nil, nil
}

func TestAuditJournalsReassignments(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	journal := repository.NewMemoryReassignmentJournal()
	metrics := observability.NewMetrics()
	NewAuditService(dispatcher, journal, metrics, zap.NewNop()).RegisterHandlers()
	ctx := context.Background()

	req := domain.NewReassignmentRequest("", "Networking", false, "")
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:         events.EventReassignmentFailed,
		TicketNumber: "T-100",
		Payload:      events.ReassignmentPayload{Request: req, Error: "status 500"},
	}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:         events.EventTicketReassigned,
		TicketNumber: "T-100",
		Payload:      events.ReassignmentPayload{Request: req, ActivityID: 31},
	}))

	entries, err := journal.ListByTicket(ctx, "T-100", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.OutcomeConfirmed, entries[0].Outcome)
	require.NotNil(t, entries[0].ActivityID)
	assert.Equal(t, int64(31), *entries[0].ActivityID)
	assert.Equal(t, domain.OutcomeFailed, entries[1].Outcome)
	assert.Equal(t, "status 500", entries[1].Error)
	assert.NotEmpty(t, entries[1].EventID)

	snapshot := metrics.Snapshot()
	assert.Equal(t, int64(1), snapshot["outcome|ticket_reassigned"])
	assert.Equal(t, int64(1), snapshot["outcome|reassignment_failed"])
}

func TestAuditCountsOtherEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	NewAuditService(dispatcher, nil, metrics, nil).RegisterHandlers()
	ctx := context.Background()

	for _, eventType := range []events.EventType{
		events.EventTicketsLoaded,
		events.EventTicketsLoadFailed,
		events.EventTicketSelected,
		events.EventReplyPosted,
		events.EventSelectionPrecondition,
	} {
		require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: eventType}))
		assert.Equal(t, int64(1), metrics.Snapshot()["outcome|"+string(eventType)], eventType)
	}
}

func TestAuditSurfacesJournalError(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	NewAuditService(dispatcher, failingJournal{}, nil, zap.NewNop()).RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:         events.EventTicketReassigned,
		TicketNumber: "T-100",
		Payload:      events.ReassignmentPayload{Request: domain.NewReassignmentRequest("", "Storage", false, "")},
	})
	assert.Error(t, err)
}

package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []Event
	d.Subscribe(EventTicketReassigned, func(_ context.Context, e Event) error {
		got = append(got, e)
		return nil
	})
	d.Subscribe(EventReplyPosted, func(_ context.Context, e Event) error {
		t.Fatalf("unexpected delivery of %s", e.Type)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketReassigned, TicketNumber: "T-100"}))

	require.Len(t, got, 1)
	assert.Equal(t, "T-100", got[0].TicketNumber)
	assert.NotEmpty(t, got[0].ID)
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("journal down")
	calls := 0
	d.Subscribe(EventReassignmentFailed, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventReassignmentFailed, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventReassignmentFailed})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestPublishHelperToleratesNil(t *testing.T) {
	assert.NotPanics(t, func() {
		Publish(context.Background(), nil, Event{Type: EventTicketsLoaded})
	})
}

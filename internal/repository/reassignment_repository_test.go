package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/triage-dashboard/internal/domain"
)

func entry(ticket string, outcome domain.ReassignmentOutcome, team string) *domain.JournalEntry {
	return &domain.JournalEntry{
		EventID:      uuid.NewString(),
		TicketNumber: ticket,
		Outcome:      outcome,
		Request:      domain.NewReassignmentRequest("", team, false, ""),
	}
}

func TestMemoryJournalNewestFirst(t *testing.T) {
	journal := NewMemoryReassignmentJournal()
	ctx := context.Background()

	require.NoError(t, journal.Record(ctx, entry("T-100", domain.OutcomeFailed, "Storage")))
	require.NoError(t, journal.Record(ctx, entry("T-200", domain.OutcomeConfirmed, "Networking")))
	require.NoError(t, journal.Record(ctx, entry("T-100", domain.OutcomeConfirmed, "Networking")))

	entries, err := journal.ListByTicket(ctx, "T-100", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.OutcomeConfirmed, entries[0].Outcome)
	assert.Equal(t, domain.OutcomeFailed, entries[1].Outcome)
	assert.Greater(t, entries[0].ID, entries[1].ID)

	limited, err := journal.ListByTicket(ctx, "T-100", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := journal.ListByTicket(ctx, "T-999", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryJournalIgnoresReplayedEvent(t *testing.T) {
	journal := NewMemoryReassignmentJournal()
	ctx := context.Background()

	first := entry("T-100", domain.OutcomeConfirmed, "Storage")
	require.NoError(t, journal.Record(ctx, first))
	replay := *first
	replay.ID = 0
	require.NoError(t, journal.Record(ctx, &replay))

	assert.Equal(t, first.ID, replay.ID)
	entries, err := journal.ListByTicket(ctx, "T-100", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, defaultJournalLimit, normalizeLimit(0))
	assert.Equal(t, 10, normalizeLimit(10))
	assert.Equal(t, maxJournalLimit, normalizeLimit(10_000))
}

// TestPostgresJournal runs against a real database when JOURNAL_TEST_DSN is set.
func TestPostgresJournal(t *testing.T) {
	dsn := os.Getenv("JOURNAL_TEST_DSN")
	if dsn == "" {
		t.Skip("JOURNAL_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_reassignment_journal.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	journal := NewReassignmentJournal(pool)
	ticket := "T-" + uuid.NewString()
	activityID := int64(31)
	confirmed := entry(ticket, domain.OutcomeConfirmed, "Networking")
	confirmed.ActivityID = &activityID
	require.NoError(t, journal.Record(ctx, confirmed))
	assert.NotZero(t, confirmed.ID)

	entries, err := journal.ListByTicket(ctx, ticket, 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Networking", entries[0].Request.HumanAssignedTeam)
	require.NotNil(t, entries[0].ActivityID)
	assert.Equal(t, activityID, *entries[0].ActivityID)
}

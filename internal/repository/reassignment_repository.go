package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/triage-dashboard/internal/domain"
)

// ReassignmentJournal stores every submitted override and its outcome.
type ReassignmentJournal interface {
	Record(ctx context.Context, entry *domain.JournalEntry) error
	ListByTicket(ctx context.Context, ticketNumber string, limit int) ([]domain.JournalEntry, error)
}

type reassignmentJournal struct {
	pool *pgxpool.Pool
}

// NewReassignmentJournal builds the postgres journal.
func NewReassignmentJournal(pool *pgxpool.Pool) ReassignmentJournal {
	return &reassignmentJournal{pool: pool}
}

// Record inserts the entry. Replaying the same event id is a no-op.
func (r *reassignmentJournal) Record(ctx context.Context, entry *domain.JournalEntry) error {
	const query = `
        INSERT INTO reassignment_journal (event_id, ticket_number, outcome, ai_assigned_team,
            human_assigned_team, ai_suggested_wrong, team_review, activity_id, error)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (event_id) DO UPDATE SET event_id = EXCLUDED.event_id
        RETURNING id, recorded_at`
	return r.pool.QueryRow(ctx, query,
		entry.EventID,
		entry.TicketNumber,
		string(entry.Outcome),
		entry.Request.AIAssignedTeam,
		entry.Request.HumanAssignedTeam,
		entry.Request.AISuggestedWrong,
		entry.Request.TeamReview,
		entry.ActivityID,
		entry.Error,
	).Scan(&entry.ID, &entry.RecordedAt)
}

// ListByTicket returns the newest entries first.
func (r *reassignmentJournal) ListByTicket(ctx context.Context, ticketNumber string, limit int) ([]domain.JournalEntry, error) {
	const query = `
        SELECT id, event_id, ticket_number, outcome, ai_assigned_team, human_assigned_team,
            ai_suggested_wrong, team_review, activity_id, error, recorded_at
        FROM reassignment_journal WHERE ticket_number=$1
        ORDER BY recorded_at DESC, id DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, ticketNumber, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.JournalEntry{}
	for rows.Next() {
		var (
			entry   domain.JournalEntry
			outcome string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.EventID,
			&entry.TicketNumber,
			&outcome,
			&entry.Request.AIAssignedTeam,
			&entry.Request.HumanAssignedTeam,
			&entry.Request.AISuggestedWrong,
			&entry.Request.TeamReview,
			&entry.ActivityID,
			&entry.Error,
			&entry.RecordedAt,
		); err != nil {
			return nil, err
		}
		entry.Outcome = domain.ReassignmentOutcome(outcome)
		result = append(result, entry)
	}
	return result, rows.Err()
}

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 500
)

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultJournalLimit
	}
	if limit > maxJournalLimit {
		return maxJournalLimit
	}
	return limit
}

type memoryJournal struct {
	mu      sync.Mutex
	now     func() time.Time
	nextID  int64
	entries []domain.JournalEntry
	seen    map[string]int64
}

// NewMemoryReassignmentJournal keeps the journal in process memory. It is used
// when no postgres DSN is configured.
func NewMemoryReassignmentJournal() ReassignmentJournal {
	return &memoryJournal{now: time.Now, seen: map[string]int64{}}
}

func (m *memoryJournal) Record(_ context.Context, entry *domain.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.seen[entry.EventID]; ok && entry.EventID != "" {
		for _, existing := range m.entries {
			if existing.ID == id {
				entry.ID = existing.ID
				entry.RecordedAt = existing.RecordedAt
			}
		}
		return nil
	}
	m.nextID++
	entry.ID = m.nextID
	entry.RecordedAt = m.now()
	m.entries = append(m.entries, *entry)
	if entry.EventID != "" {
		m.seen[entry.EventID] = entry.ID
	}
	return nil
}

func (m *memoryJournal) ListByTicket(_ context.Context, ticketNumber string, limit int) ([]domain.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	limit = normalizeLimit(limit)
	result := []domain.JournalEntry{}
	for i := len(m.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if m.entries[i].TicketNumber == ticketNumber {
			result = append(result, m.entries[i])
		}
	}
	return result, nil
}

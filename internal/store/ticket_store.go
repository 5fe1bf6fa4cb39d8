package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/triage-dashboard/internal/domain"
	apperrors "github.com/spec-kit/triage-dashboard/pkg/util/errorutil"
)

// TicketLoader fetches the authoritative ticket sequence.
type TicketLoader interface {
	ListTickets(ctx context.Context, team string) ([]domain.Ticket, error)
}

// LoadResult describes how a finished load was handled.
type LoadResult struct {
	Sequence uint64
	// Applied is false when a newer load was issued before this one finished.
	Applied bool
	Count   int
}

// Stats summarises the full ticket set.
type Stats struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Solved  int `json:"solved"`
}

var (
	ErrNoSelection = apperrors.NewSelectionRequired("no ticket selected")
	ErrEmptyReply  = apperrors.NewValidationError("reply text required", nil)
)

// TicketStore owns the full ticket sequence and the current selection.
// Callers only ever receive copies.
type TicketStore struct {
	loader TicketLoader
	now    func() time.Time

	mu       sync.Mutex
	tickets  []*domain.Ticket
	index    map[string]*domain.Ticket
	selected string
	issued   uint64
}

// NewTicketStore creates an empty store. A nil clock defaults to time.Now.
func NewTicketStore(loader TicketLoader, now func() time.Time) *TicketStore {
	if now == nil {
		now = time.Now
	}
	return &TicketStore{
		loader: loader,
		now:    now,
		index:  map[string]*domain.Ticket{},
	}
}

// Load replaces the ticket sequence with a fresh fetch. Only the most
// recently issued load may change the store; an older response, success or
// failure, is discarded. A failed load leaves the store empty.
func (s *TicketStore) Load(ctx context.Context, team string) (LoadResult, error) {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	tickets, err := s.loader.ListTickets(ctx, team)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.issued {
		return LoadResult{Sequence: seq}, nil
	}
	if err != nil {
		s.replace(nil)
		return LoadResult{Sequence: seq, Applied: true}, apperrors.NewLoadFailure(err)
	}
	s.replace(tickets)
	return LoadResult{Sequence: seq, Applied: true, Count: len(s.tickets)}, nil
}

// Replace installs a ticket sequence directly. Duplicate ticket numbers keep
// the first occurrence.
func (s *TicketStore) Replace(tickets []domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(tickets)
}

func (s *TicketStore) replace(tickets []domain.Ticket) {
	s.tickets = make([]*domain.Ticket, 0, len(tickets))
	s.index = make(map[string]*domain.Ticket, len(tickets))
	for _, t := range tickets {
		if _, dup := s.index[t.TicketNumber]; dup {
			continue
		}
		ticket := t.Clone()
		if ticket.Conversation == nil {
			ticket.Conversation = []domain.Message{}
		}
		if ticket.Timeline == nil {
			ticket.Timeline = []domain.TimelineItem{}
		}
		s.tickets = append(s.tickets, &ticket)
		s.index[ticket.TicketNumber] = &ticket
	}
	if _, ok := s.index[s.selected]; !ok {
		s.selected = ""
	}
}

// Snapshot returns copies of every ticket in load order.
func (s *TicketStore) Snapshot() []domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		out = append(out, t.Clone())
	}
	return out
}

// Pick returns copies of the named tickets in the given order, skipping
// numbers no longer in the store.
func (s *TicketStore) Pick(numbers []string) []domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Ticket, 0, len(numbers))
	for _, number := range numbers {
		if t, ok := s.index[number]; ok {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Get returns a copy of one ticket.
func (s *TicketStore) Get(number string) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.index[number]
	if !ok {
		return domain.Ticket{}, false
	}
	return t.Clone(), true
}

// Select marks a loaded ticket as selected.
func (s *TicketStore) Select(number string) (domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.index[number]
	if !ok {
		return domain.Ticket{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": number})
	}
	s.selected = t.TicketNumber
	return t.Clone(), nil
}

// Deselect clears the selection.
func (s *TicketStore) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = ""
}

// Selected returns a copy of the selected ticket, if any.
func (s *TicketStore) Selected() (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.selectedLocked()
	if !ok {
		return domain.Ticket{}, false
	}
	return ticket.Clone(), true
}

// selectedLocked resolves the selection against the index. A selection that
// no longer names a loaded ticket is cleared.
func (s *TicketStore) selectedLocked() (*domain.Ticket, bool) {
	if s.selected == "" {
		return nil, false
	}
	ticket, ok := s.index[s.selected]
	if !ok {
		s.selected = ""
		return nil, false
	}
	return ticket, true
}

// AppendReply adds an agent reply to the selected ticket's conversation.
func (s *TicketStore) AppendReply(text string) (domain.Message, error) {
	msg := strings.TrimSpace(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.selectedLocked()
	if !ok {
		return domain.Message{}, ErrNoSelection
	}
	if msg == "" {
		return domain.Message{}, ErrEmptyReply
	}
	entry := domain.Message{By: domain.AuthorAgent, Text: msg, At: s.now()}
	ticket.Conversation = append(ticket.Conversation, entry)
	return entry, nil
}

// PatchAssignedTeam records a confirmed reassignment on a ticket.
func (s *TicketStore) PatchAssignedTeam(number, team string) (domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.index[number]
	if !ok {
		return domain.Ticket{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": number})
	}
	previous := ticket.AssignedTeamName()
	assigned := team
	ticket.AssignedTeam = &assigned
	item := domain.TimelineItem{Title: "Reassigned to " + team, At: s.now()}
	if previous != "" {
		item.Meta = "from " + previous
	}
	ticket.Timeline = append(ticket.Timeline, item)
	return ticket.Clone(), nil
}

// Stats counts the loaded tickets by resolution.
func (s *TicketStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := Stats{Total: len(s.tickets)}
	for _, t := range s.tickets {
		if t.Status == domain.TicketStatusResolved {
			stats.Solved++
		} else {
			stats.Pending++
		}
	}
	return stats
}

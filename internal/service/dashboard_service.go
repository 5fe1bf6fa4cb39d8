package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/triage-dashboard/internal/domain"
	"github.com/spec-kit/triage-dashboard/internal/events"
	"github.com/spec-kit/triage-dashboard/internal/filter"
	"github.com/spec-kit/triage-dashboard/internal/repository"
	"github.com/spec-kit/triage-dashboard/internal/store"
	apperrors "github.com/spec-kit/triage-dashboard/pkg/util/errorutil"
)

const replyPreviewLength = 80

// ActivityLister reads the backend's reassignment history for a ticket.
type ActivityLister interface {
	ListActivities(ctx context.Context, ticketNumber string) ([]domain.ReassignmentActivity, error)
}

// DashboardService composes the ticket store with the listing view state.
type DashboardService struct {
	tickets    *store.TicketStore
	activities ActivityLister
	journal    repository.ReassignmentJournal
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu       sync.Mutex
	filter   filter.State
	visible  []string
	team     string
	lastLoad LoadStatus
}

// DashboardDependencies bundles collaborators for the dashboard service.
type DashboardDependencies struct {
	Tickets    *store.TicketStore
	Activities ActivityLister
	Journal    repository.ReassignmentJournal
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// LoadStatus reports the last applied load.
type LoadStatus struct {
	Team     string `json:"team"`
	Sequence uint64 `json:"sequence"`
	Count    int    `json:"count"`
	Error    string `json:"error,omitempty"`
}

// DashboardView is everything the listing screen renders.
type DashboardView struct {
	Tickets  []domain.Ticket
	Filter   filter.State
	Stats    store.Stats
	Selected *domain.Ticket
	Team     string
	LastLoad LoadStatus
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		tickets:    deps.Tickets,
		activities: deps.Activities,
		journal:    deps.Journal,
		dispatcher: deps.Dispatcher,
		logger:     logger.Named("dashboard"),
		filter:     filter.DefaultState(),
		visible:    []string{},
	}
}

// LoadTickets refreshes the store for a team (empty for all teams). A load
// superseded by a newer one returns Applied=false and changes nothing. The
// team and load status only ever describe the newest applied load.
func (s *DashboardService) LoadTickets(ctx context.Context, team string) (store.LoadResult, error) {
	result, err := s.tickets.Load(ctx, team)
	if !result.Applied {
		s.logger.Debug("discarded superseded ticket load",
			zap.String("team", team), zap.Uint64("sequence", result.Sequence))
		return result, nil
	}

	status := LoadStatus{Team: team, Sequence: result.Sequence, Count: result.Count}
	if err != nil {
		status.Error = err.Error()
		s.logger.Error("ticket load failed", zap.String("team", team), zap.Error(err))
		events.Publish(ctx, s.dispatcher, events.Event{
			Type:    events.EventTicketsLoadFailed,
			Payload: events.TicketsLoadFailedPayload{Team: team, Sequence: result.Sequence, Error: err.Error()},
		})
	} else {
		events.Publish(ctx, s.dispatcher, events.Event{
			Type:    events.EventTicketsLoaded,
			Payload: events.TicketsLoadedPayload{Team: team, Sequence: result.Sequence, Count: result.Count},
		})
	}

	s.mu.Lock()
	if result.Sequence > s.lastLoad.Sequence {
		s.team = team
		s.lastLoad = status
	}
	s.recomputeLocked()
	s.mu.Unlock()
	return result, err
}

// SetFilter changes the tab and search term and recomputes the visible subset.
func (s *DashboardService) SetFilter(tab, term string) (DashboardView, error) {
	parsed, err := filter.ParseTab(tab)
	if err != nil {
		return DashboardView{}, err
	}
	s.mu.Lock()
	s.filter = filter.State{Tab: parsed, Term: term}
	s.recomputeLocked()
	s.mu.Unlock()
	return s.View(), nil
}

// View materializes the visible subset from the store.
func (s *DashboardService) View() DashboardView {
	s.mu.Lock()
	visible := append([]string(nil), s.visible...)
	view := DashboardView{
		Filter:   s.filter,
		Team:     s.team,
		LastLoad: s.lastLoad,
	}
	s.mu.Unlock()

	view.Tickets = s.tickets.Pick(visible)
	view.Stats = s.tickets.Stats()
	if selected, ok := s.tickets.Selected(); ok {
		view.Selected = &selected
	}
	return view
}

// Select marks a ticket as the one under review.
func (s *DashboardService) Select(ctx context.Context, ticketNumber string) (domain.Ticket, error) {
	ticket, err := s.tickets.Select(ticketNumber)
	if err != nil {
		return domain.Ticket{}, err
	}
	events.Publish(ctx, s.dispatcher, events.Event{
		Type:         events.EventTicketSelected,
		TicketNumber: ticketNumber,
	})
	return ticket, nil
}

// Deselect clears the selection.
func (s *DashboardService) Deselect() {
	s.tickets.Deselect()
}

// Selected returns the ticket under review.
func (s *DashboardService) Selected() (domain.Ticket, error) {
	ticket, ok := s.tickets.Selected()
	if !ok {
		return domain.Ticket{}, store.ErrNoSelection
	}
	return ticket, nil
}

// PostReply appends an agent reply to the selected ticket.
func (s *DashboardService) PostReply(ctx context.Context, text string) (domain.Message, error) {
	msg, err := s.tickets.AppendReply(text)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeSelectionRequired) {
			s.selectionPrecondition(ctx, "reply")
		}
		return domain.Message{}, err
	}

	selected, _ := s.tickets.Selected()
	events.Publish(ctx, s.dispatcher, events.Event{
		Type:         events.EventReplyPosted,
		TicketNumber: selected.TicketNumber,
		Payload:      events.ReplyPostedPayload{Preview: preview(msg.Text)},
	})
	return msg, nil
}

// Activities fetches the backend's reassignment history for the selected ticket.
func (s *DashboardService) Activities(ctx context.Context) ([]domain.ReassignmentActivity, error) {
	selected, ok := s.tickets.Selected()
	if !ok {
		s.selectionPrecondition(ctx, "activities")
		return nil, store.ErrNoSelection
	}
	activities, err := s.activities.ListActivities(ctx, selected.TicketNumber)
	if err != nil {
		return nil, apperrors.NewUpstreamError("failed to load reassignment history", err)
	}
	return activities, nil
}

// Journal returns locally recorded submissions for the selected ticket.
func (s *DashboardService) Journal(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	selected, ok := s.tickets.Selected()
	if !ok {
		s.selectionPrecondition(ctx, "journal")
		return nil, store.ErrNoSelection
	}
	if s.journal == nil {
		return []domain.JournalEntry{}, nil
	}
	entries, err := s.journal.ListByTicket(ctx, selected.TicketNumber, limit)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return entries, nil
}

func (s *DashboardService) recomputeLocked() {
	visible := s.filter.Apply(s.tickets.Snapshot())
	numbers := make([]string, 0, len(visible))
	for _, t := range visible {
		numbers = append(numbers, t.TicketNumber)
	}
	s.visible = numbers
}

func (s *DashboardService) selectionPrecondition(ctx context.Context, operation string) {
	s.logger.Warn("operation requires a selected ticket", zap.String("operation", operation))
	events.Publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventSelectionPrecondition,
		Payload: events.SelectionPreconditionPayload{Operation: operation},
	})
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= replyPreviewLength {
		return text
	}
	return string(runes[:replyPreviewLength]) + "…"
}

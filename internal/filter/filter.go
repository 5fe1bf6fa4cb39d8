// Package filter derives the visible ticket subset from a status tab and a
// search term. Everything here is pure: inputs are never modified.
package filter

import (
	"strings"

	"github.com/spec-kit/triage-dashboard/internal/domain"
	apperrors "github.com/spec-kit/triage-dashboard/pkg/util/errorutil"
)

// Tab selects the base set of the listing.
type Tab string

const (
	TabAll      Tab = "All"
	TabOpen     Tab = "Open"
	TabResolved Tab = "Resolved"
)

// State is the listing's current filter input.
type State struct {
	Tab  Tab
	Term string
}

// DefaultState shows every ticket.
func DefaultState() State {
	return State{Tab: TabAll}
}

// ParseTab validates a tab name. Matching is case-insensitive; an empty
// value selects All.
func ParseTab(value string) (Tab, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "all":
		return TabAll, nil
	case "open":
		return TabOpen, nil
	case "resolved":
		return TabResolved, nil
	default:
		return "", apperrors.NewValidationError("unknown tab", map[string]any{"tab": value})
	}
}

// MatchesTab reports whether the ticket belongs to the tab. Open means
// anything not yet resolved, so In Progress tickets show under Open.
func MatchesTab(ticket domain.Ticket, tab Tab) bool {
	switch tab {
	case TabResolved:
		return ticket.Status == domain.TicketStatusResolved
	case TabOpen:
		return ticket.Status != domain.TicketStatusResolved
	default:
		return true
	}
}

// MatchesSearch reports whether term is a case-insensitive substring of the
// ticket number, subject, requester name or requester email.
func MatchesSearch(ticket domain.Ticket, term string) bool {
	query := strings.ToLower(strings.TrimSpace(term))
	if query == "" {
		return true
	}
	for _, field := range []string{
		ticket.TicketNumber,
		ticket.Subject,
		ticket.RequesterName,
		ticket.RequesterEmail,
	} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Visible returns the tickets matching both the tab and the term, in their
// original relative order.
func Visible(tickets []domain.Ticket, tab Tab, term string) []domain.Ticket {
	result := make([]domain.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if MatchesTab(ticket, tab) && MatchesSearch(ticket, term) {
			result = append(result, ticket)
		}
	}
	return result
}

// Apply is Visible driven by a State.
func (s State) Apply(tickets []domain.Ticket) []domain.Ticket {
	return Visible(tickets, s.Tab, s.Term)
}

package domain

import "time"

// MessageAuthor indicates who wrote a conversation entry.
type MessageAuthor string

const (
	AuthorCustomer MessageAuthor = "Customer"
	AuthorAgent    MessageAuthor = "Agent"
	AuthorAI       MessageAuthor = "AI"
)

// Message is one entry of a ticket conversation. Conversations are
// append-only; insertion order is the audit order.
type Message struct {
	By   MessageAuthor
	Text string
	At   time.Time
}

// TimelineItem records a notable event on a ticket.
type TimelineItem struct {
	Title string
	At    time.Time
	Meta  string
}

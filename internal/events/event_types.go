package events

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketUpdated EventType = "ticket_updated"
)

// TopicTickets is the single topic in use today. The broadcaster API is
// keyed by topic so per-role or per-resident scoping can be added
// without changing subscribers.
const TopicTickets = "tickets"

// Event carries the full ticket record for one lifecycle change.
// Subscribers treat it as cache invalidation, not a log: anyone who
// connects late reconciles against a fresh listing instead of replay.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Topic     string        `json:"topic"`
	Origin    string        `json:"origin"`
	Timestamp time.Time     `json:"timestamp"`
	Ticket    domain.Ticket `json:"ticket"`
}

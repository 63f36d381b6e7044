package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "Open"
	TicketStatusResolved TicketStatus = "Resolved"
)

// TicketCategory enumerates incident categories assigned at creation.
type TicketCategory string

const (
	CategoryGeneral    TicketCategory = "General"
	CategoryPlumbing   TicketCategory = "Plumbing"
	CategoryElectrical TicketCategory = "Electrical"
	CategoryLift       TicketCategory = "Lift Maintenance"
)

// TicketPriority enumerates urgency levels assigned at creation.
type TicketPriority string

const (
	PriorityLow      TicketPriority = "Low"
	PriorityMedium   TicketPriority = "Medium"
	PriorityHigh     TicketPriority = "High"
	PriorityCritical TicketPriority = "Critical (Elderly)"
)

// AlertLevel flags tickets whose final priority warrants escalation.
type AlertLevel string

const (
	AlertNormal    AlertLevel = "Normal"
	AlertEscalated AlertLevel = "Escalated"
)

// LocationNotTagged is the sentinel stored when a report carries no coordinates.
const LocationNotTagged = "Not tagged"

// Ticket is the aggregate for resident incident reports.
// Category, Priority, AssignedTo and AlertLevel are computed once at
// creation and never change afterwards. Rating and Feedback are set at
// most once, after the ticket is resolved.
type Ticket struct {
	ID           string         `json:"id"`
	ResidentName string         `json:"residentName"`
	ResidentAge  int            `json:"residentAge"`
	Description  string         `json:"description"`
	Category     TicketCategory `json:"category"`
	Priority     TicketPriority `json:"priority"`
	AssignedTo   string         `json:"assignedTo"`
	Status       TicketStatus   `json:"status"`
	AlertLevel   AlertLevel     `json:"alertLevel"`
	Image        string         `json:"image"`
	Location     string         `json:"location"`
	Rating       int            `json:"rating"`
	Feedback     string         `json:"feedback"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Rated reports whether feedback has already been recorded.
func (t *Ticket) Rated() bool {
	return t.Rating != 0
}

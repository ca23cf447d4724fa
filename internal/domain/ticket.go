package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusOnHold     TicketStatus = "ON_HOLD"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusCancelled  TicketStatus = "CANCELLED"
)

// Valid reports whether the status is one of the enumerated values.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusOnHold,
		TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Valid reports whether the priority is one of the enumerated values.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the aggregate for service requests.
//
// Status must only change through statemachine Apply/Reopen paired with a
// history append; the repository enforces the expected previous status on
// write.
type Ticket struct {
	ID             string
	Number         string
	Subject        string
	Description    string
	Status         TicketStatus
	Priority       TicketPriority
	Tags           []string
	EstimatedHours *float64
	ActualHours    float64
	DueDate        *time.Time
	ResolvedAt     *time.Time
	ClosedAt       *time.Time
	CreatorID      string
	AssigneeID     *string
	DepartmentID   string
	CategoryID     string
	ProjectID      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

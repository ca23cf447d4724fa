package domain

import "time"

// WorkLogEntry records hours an agent spent on a ticket. Entries are
// append-only; the ticket's ActualHours aggregate is maintained with an
// atomic increment on insert.
type WorkLogEntry struct {
	ID          string
	TicketID    string
	AgentID     string
	Hours       float64
	Description string
	WorkDate    time.Time
	CreatedAt   time.Time
}

package domain

import "time"

// HistoryEntry is an immutable audit record of one status change.
// PreviousStatus is nil only for the entry written at ticket creation.
// Entries are never edited or removed.
type HistoryEntry struct {
	ID             string
	TicketID       string
	PreviousStatus *TicketStatus
	NewStatus      TicketStatus
	Note           string
	ActorID        *string
	CreatedAt      time.Time
}

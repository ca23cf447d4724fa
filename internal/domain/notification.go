package domain

import "time"

// NotificationKind categorizes why a notification was emitted.
type NotificationKind string

const (
	NotificationTicketCreated  NotificationKind = "TICKET_CREATED"
	NotificationTicketAssigned NotificationKind = "TICKET_ASSIGNED"
	NotificationStatusChanged  NotificationKind = "STATUS_CHANGED"
	NotificationCommentAdded   NotificationKind = "COMMENT_ADDED"
)

// Notification is a per-recipient record produced by fan-out. Its
// lifecycle is independent from the ticket: it may be read or deleted
// without affecting the ticket.
type Notification struct {
	ID          string
	RecipientID string
	Title       string
	Body        string
	Kind        NotificationKind
	TicketID    *string
	Read        bool
	CreatedAt   time.Time
}

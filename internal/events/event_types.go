package events

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// EventType enumerates supported lifecycle event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketAssigned EventType = "ticket_assigned"
	EventStatusChanged  EventType = "status_changed"
	EventCommentAdded   EventType = "comment_added"
)

// Event represents a lifecycle event emitted by services after their
// transaction commits. Delivery is best-effort: handler failures never
// reach the emitting operation.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Number       string                `json:"number"`
	DepartmentID string                `json:"department_id"`
	CreatorID    string                `json:"creator_id"`
	Priority     domain.TicketPriority `json:"priority"`
	Subject      string                `json:"subject"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID string `json:"assignee_id"`
	CreatorID  string `json:"creator_id"`
	Number     string `json:"number"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Note      string              `json:"note,omitempty"`
	CreatorID string              `json:"creator_id"`
	Number    string              `json:"number"`
}

// CommentAddedPayload payload. Internal comments are published but fan-out
// drops them.
type CommentAddedPayload struct {
	CommentID  string  `json:"comment_id"`
	AuthorID   string  `json:"author_id"`
	Internal   bool    `json:"internal"`
	CreatorID  string  `json:"creator_id"`
	AssigneeID *string `json:"assignee_id,omitempty"`
	Number     string  `json:"number"`
	Preview    string  `json:"preview"`
}

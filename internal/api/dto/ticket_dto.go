package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	DepartmentID   string                `json:"department_id"`
	CategoryID     string                `json:"category_id"`
	ProjectID      *string               `json:"project_id,omitempty"`
	Subject        string                `json:"subject"`
	Description    string                `json:"description"`
	Priority       domain.TicketPriority `json:"priority"`
	Tags           []string              `json:"tags"`
	EstimatedHours *float64              `json:"estimated_hours,omitempty"`
	DueDate        *time.Time            `json:"due_date,omitempty"`
}

// TransitionRequest payload.
type TransitionRequest struct {
	Status domain.TicketStatus `json:"status"`
	Note   string              `json:"note"`
}

// ReopenRequest payload.
type ReopenRequest struct {
	Note string `json:"note"`
}

// AssignRequest payload.
type AssignRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// RerouteRequest payload.
type RerouteRequest struct {
	DepartmentID string `json:"department_id"`
	CategoryID   string `json:"category_id"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body     string `json:"body"`
	Internal bool   `json:"internal"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	Number       string                `json:"number"`
	Subject      string                `json:"subject"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	Tags         []string              `json:"tags"`
	DepartmentID string                `json:"department_id"`
	CategoryID   string                `json:"category_id"`
	ProjectID    *string               `json:"project_id,omitempty"`
	CreatorID    string                `json:"creator_id"`
	AssigneeID   *string               `json:"assignee_id,omitempty"`
	ActualHours  float64               `json:"actual_hours"`
	DueDate      *time.Time            `json:"due_date,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info including comments.
type TicketDetailResponse struct {
	TicketSummary
	Description    string            `json:"description"`
	EstimatedHours *float64          `json:"estimated_hours,omitempty"`
	ResolvedAt     *time.Time        `json:"resolved_at,omitempty"`
	ClosedAt       *time.Time        `json:"closed_at,omitempty"`
	Comments       []CommentResponse `json:"comments"`
}

// CommentResponse represents a ticket comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntryResponse represents one audit-trail row.
type HistoryEntryResponse struct {
	ID             string               `json:"id"`
	PreviousStatus *domain.TicketStatus `json:"previous_status,omitempty"`
	NewStatus      domain.TicketStatus  `json:"new_status"`
	Note           string               `json:"note"`
	ActorID        *string              `json:"actor_id,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// RegisterRequest payload for client self-signup.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateActorRequest payload for admin account provisioning.
type CreateActorRequest struct {
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	Role         domain.Role `json:"role"`
	DepartmentID *string     `json:"department_id,omitempty"`
}

// SetActiveRequest payload.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// AuthResponse carries the issued token.
type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Actor     ActorResponse `json:"actor"`
}

// ActorResponse represents an account, without credentials.
type ActorResponse struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Role         domain.Role `json:"role"`
	DepartmentID *string     `json:"department_id,omitempty"`
	Active       bool        `json:"active"`
	CreatedAt    time.Time   `json:"created_at"`
}

// WorkLogRequest payload.
type WorkLogRequest struct {
	Hours       float64    `json:"hours"`
	Description string     `json:"description"`
	WorkDate    *time.Time `json:"work_date,omitempty"`
}

// WorkLogResponse represents a recorded work entry.
type WorkLogResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	AgentID     string    `json:"agent_id"`
	Hours       float64   `json:"hours"`
	Description string    `json:"description"`
	WorkDate    time.Time `json:"work_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotificationResponse represents one inbox row.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Title     string                  `json:"title"`
	Body      string                  `json:"body"`
	Kind      domain.NotificationKind `json:"kind"`
	TicketID  *string                 `json:"ticket_id,omitempty"`
	Read      bool                    `json:"read"`
	CreatedAt time.Time               `json:"created_at"`
}

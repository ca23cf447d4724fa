// Package repository defines persistence access for the ticket lifecycle
// core. Services receive a Store handle explicitly; there is no global
// database client.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// Sentinel errors shared by the Postgres and in-memory implementations.
var (
	// ErrNotFound signals the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleStatus signals a conditional status update found a different
	// previous status than expected (optimistic concurrency).
	ErrStaleStatus = errors.New("ticket status changed concurrently")
	// ErrDuplicateTicketNumber signals a ticket-number collision on insert.
	ErrDuplicateTicketNumber = errors.New("duplicate ticket number")
)

// DB is the query surface shared by *pgxpool.Pool and pgx.Tx, letting the
// same repository code run inside and outside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TicketFilter captures list parameters. Scope constraints are applied on
// top of caller-supplied filters before the query runs.
type TicketFilter struct {
	CreatorID    *string
	DepartmentID *string
	AssigneeID   *string
	CategoryID   *string
	ProjectID    *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// ActorFilter captures actor list parameters.
type ActorFilter struct {
	Role         *domain.Role
	DepartmentID *string
	Active       *bool
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// UpdateStatus persists status, lifecycle timestamps and assignee, but
	// only if the stored status still equals expected. ErrStaleStatus
	// otherwise.
	UpdateStatus(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error
	// SetAssignee changes only the assignee, without a status transition.
	SetAssignee(ctx context.Context, ticketID string, assigneeID *string) error
	// UpdateRouting moves the ticket to a new department and category.
	UpdateRouting(ctx context.Context, ticketID, departmentID, categoryID string) error
	// AddActualHours increments the hours aggregate atomically in the store.
	AddActualHours(ctx context.Context, ticketID string, hours float64) error
	// MaxSequenceForBucket returns the highest NNNNNN already issued for a
	// YYYY-MM bucket, 0 when none exists.
	MaxSequenceForBucket(ctx context.Context, bucket string) (int, error)
	// Delete removes the ticket and cascades to its dependent records.
	Delete(ctx context.Context, ticketID string) error
}

// HistoryRepository stores the append-only status audit trail.
type HistoryRepository interface {
	Create(ctx context.Context, entry *domain.HistoryEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.HistoryEntry, error)
}

// WorkLogRepository stores work-log entries.
type WorkLogRepository interface {
	Create(ctx context.Context, entry *domain.WorkLogEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.WorkLogEntry, error)
	SumHoursByTicket(ctx context.Context, ticketID string) (float64, error)
}

// NotificationRepository stores fan-out output.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	Delete(ctx context.Context, id, recipientID string) error
}

// ActorRepository stores authenticated identities.
type ActorRepository interface {
	Create(ctx context.Context, actor *domain.Actor) error
	Update(ctx context.Context, actor *domain.Actor) error
	GetByID(ctx context.Context, id string) (*domain.Actor, error)
	GetByEmail(ctx context.Context, email string) (*domain.Actor, error)
	List(ctx context.Context, filter ActorFilter) ([]domain.Actor, error)
}

// DepartmentRepository stores departments.
type DepartmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
}

// CategoryRepository stores ticket categories.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]domain.Category, error)
}

// ProjectRepository stores projects tickets may link to.
type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
}

// CommentRepository stores ticket comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

// Store bundles the repositories behind one handle. WithinTx yields a
// Store whose repositories share a single transaction, making the
// transition + history append one atomic unit.
type Store interface {
	Tickets() TicketRepository
	History() HistoryRepository
	WorkLogs() WorkLogRepository
	Notifications() NotificationRepository
	Actors() ActorRepository
	Departments() DepartmentRepository
	Categories() CategoryRepository
	Projects() ProjectRepository
	Comments() CommentRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}

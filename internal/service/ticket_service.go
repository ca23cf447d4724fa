package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-core/internal/authz"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// TicketService coordinates the ticket lifecycle: creation, scoped reads,
// status transitions, reopen, comments and deletion. Every status change
// goes through the state machine and commits together with its history
// entry.
type TicketService struct {
	store      repository.Store
	numbers    *TicketNumberGenerator
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Numbers    *TicketNumberGenerator
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	DepartmentID   string
	CategoryID     string
	ProjectID      *string
	Subject        string
	Description    string
	Priority       domain.TicketPriority
	Tags           []string
	EstimatedHours *float64
	DueDate        *time.Time
}

// TicketListFilter describes caller-supplied listing filters. The actor's
// scope is applied on top before the query runs.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	CategoryID  *string
	ProjectID   *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		store:      deps.Store,
		numbers:    deps.Numbers,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
	}
}

// CreateTicket creates a ticket on behalf of the actor. The ticket row and
// its creation history entry (nil -> OPEN) commit in one transaction. A
// ticket-number collision is retried once with a regenerated number.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if !authz.Can(actor, domain.CapTicketsCreate) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if strings.TrimSpace(input.Subject) == "" {
		return nil, apperrors.NewValidationError("subject required", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}
	if input.EstimatedHours != nil && *input.EstimatedHours < 0 {
		return nil, apperrors.NewValidationError("estimated hours must not be negative", nil)
	}

	dept, err := s.store.Departments().GetByID(ctx, input.DepartmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": input.DepartmentID})
		}
		return nil, apperrors.MapError(err)
	}
	if !dept.IsActive {
		return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": dept.ID})
	}

	category, err := s.store.Categories().GetByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}
	if category.DepartmentID != dept.ID {
		return nil, apperrors.NewValidationError("category does not belong to department", map[string]any{
			"category_id":   category.ID,
			"department_id": dept.ID,
		})
	}

	if input.ProjectID != nil {
		if _, err := s.store.Projects().GetByID(ctx, *input.ProjectID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewNotFound("project", map[string]any{"project_id": *input.ProjectID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	ticket := &domain.Ticket{
		Subject:        strings.TrimSpace(input.Subject),
		Description:    strings.TrimSpace(input.Description),
		Status:         domain.TicketStatusOpen,
		Priority:       input.Priority,
		Tags:           input.Tags,
		EstimatedHours: input.EstimatedHours,
		DueDate:        input.DueDate,
		CreatorID:      actor.ID,
		DepartmentID:   dept.ID,
		CategoryID:     category.ID,
		ProjectID:      input.ProjectID,
	}

	if err := s.createNumbered(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  &actor.ID,
		Payload: events.TicketCreatedPayload{
			Number:       ticket.Number,
			DepartmentID: ticket.DepartmentID,
			CreatorID:    ticket.CreatorID,
			Priority:     ticket.Priority,
			Subject:      ticket.Subject,
		},
	})
	return ticket, nil
}

func (s *TicketService) createNumbered(ctx context.Context, ticket *domain.Ticket) error {
	now := time.Now()
	number, err := s.numbers.Next(ctx, now)
	if err != nil {
		return apperrors.MapError(err)
	}
	ticket.Number = number

	insert := func(tx repository.Store) error {
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		return tx.History().Create(ctx, &domain.HistoryEntry{
			TicketID:  ticket.ID,
			NewStatus: domain.TicketStatusOpen,
			Note:      "ticket created",
			ActorID:   &ticket.CreatorID,
		})
	}

	err = s.store.WithinTx(ctx, insert)
	if errors.Is(err, repository.ErrDuplicateTicketNumber) {
		// one bounded retry with a store-derived number
		number, nerr := s.numbers.NextFromStore(ctx, now)
		if nerr != nil {
			return apperrors.MapError(nerr)
		}
		ticket.Number = number
		err = s.store.WithinTx(ctx, insert)
		if errors.Is(err, repository.ErrDuplicateTicketNumber) {
			return apperrors.NewConflict("ticket number collision", map[string]any{"number": number})
		}
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ListTickets returns tickets the actor may see, newest-updated first.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.Actor, filter TicketListFilter) ([]domain.Ticket, error) {
	scope := authz.ScopeFor(actor)
	if scope.Denied() {
		return nil, apperrors.NewForbidden("access denied")
	}
	repoFilter := repository.TicketFilter{
		CategoryID:  filter.CategoryID,
		ProjectID:   filter.ProjectID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	applyScope(&repoFilter, scope)
	tickets, err := s.store.Tickets().List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func applyScope(filter *repository.TicketFilter, scope authz.TicketScope) {
	if scope.All {
		return
	}
	filter.DepartmentID = scope.DepartmentID
	filter.AssigneeID = scope.AssigneeID
	filter.CreatorID = scope.CreatorID
}

// GetTicket fetches a ticket plus its comments, enforcing scope. Internal
// comments are redacted for clients.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.Actor, ticketID string) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.store.Comments().ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if !actor.Role.IsStaff() {
		visible := make([]domain.Comment, 0, len(comments))
		for _, comment := range comments {
			if comment.Internal {
				continue
			}
			visible = append(visible, comment)
		}
		comments = visible
	}
	return ticket, comments, nil
}

// GetTicketByNumber resolves a ticket by its human-facing number,
// enforcing the same scope rules as GetTicket.
func (s *TicketService) GetTicketByNumber(ctx context.Context, actor *domain.Actor, number string) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets().GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"number": number})
		}
		return nil, apperrors.MapError(err)
	}
	if !authz.CanAccessTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// ListDepartments returns the routing catalog for the ticket form.
func (s *TicketService) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	departments, err := s.store.Departments().List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return departments, nil
}

// ListCategories returns the categories of one department.
func (s *TicketService) ListCategories(ctx context.Context, departmentID string) ([]domain.Category, error) {
	if _, err := s.store.Departments().GetByID(ctx, departmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": departmentID})
		}
		return nil, apperrors.MapError(err)
	}
	categories, err := s.store.Categories().ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

// Transition moves a ticket to a new status. The conditional update and
// the history append commit atomically; a concurrent status change
// surfaces as CONFLICT. A transition to the current status appends a
// history row without touching the ticket.
func (s *TicketService) Transition(ctx context.Context, actor *domain.Actor, ticketID string, newStatus domain.TicketStatus, note string) (*domain.Ticket, error) {
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": newStatus})
	}
	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	previous, err := domain.ApplyTransition(ticket, newStatus, now)
	if err != nil {
		return nil, apperrors.NewInvalidTransition("status not reachable", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}

	if note == "" {
		note = fmt.Sprintf("status changed from %s to %s", previous, newStatus)
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if previous != newStatus {
			if err := tx.Tickets().UpdateStatus(ctx, ticket, previous); err != nil {
				return err
			}
		}
		return tx.History().Create(ctx, &domain.HistoryEntry{
			TicketID:       ticket.ID,
			PreviousStatus: &previous,
			NewStatus:      newStatus,
			Note:           note,
			ActorID:        &actor.ID,
		})
	})
	if err != nil {
		return nil, mapConcurrencyErr(err)
	}

	s.metrics.RecordTransition(string(newStatus))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventStatusChanged,
		TicketID: ticket.ID,
		ActorID:  &actor.ID,
		Payload: events.StatusChangedPayload{
			OldStatus: previous,
			NewStatus: newStatus,
			Note:      note,
			CreatorID: ticket.CreatorID,
			Number:    ticket.Number,
		},
	})
	return ticket, nil
}

// Reopen moves a CLOSED ticket back to OPEN and clears the resolved and
// closed timestamps. Only roles holding the reopen capability may invoke
// it.
func (s *TicketService) Reopen(ctx context.Context, actor *domain.Actor, ticketID string, note string) (*domain.Ticket, error) {
	if !authz.Can(actor, domain.CapTicketsReopen) {
		return nil, apperrors.NewForbidden("access denied")
	}
	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	previous, err := domain.Reopen(ticket)
	if err != nil {
		return nil, apperrors.NewInvalidTransition("only closed tickets can be reopened", map[string]any{
			"status": ticket.Status,
		})
	}
	if note == "" {
		note = "ticket reopened"
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Tickets().UpdateStatus(ctx, ticket, domain.TicketStatusClosed); err != nil {
			return err
		}
		return tx.History().Create(ctx, &domain.HistoryEntry{
			TicketID:       ticket.ID,
			PreviousStatus: &previous,
			NewStatus:      domain.TicketStatusOpen,
			Note:           note,
			ActorID:        &actor.ID,
		})
	})
	if err != nil {
		return nil, mapConcurrencyErr(err)
	}

	s.metrics.RecordTransition(string(domain.TicketStatusOpen))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventStatusChanged,
		TicketID: ticket.ID,
		ActorID:  &actor.ID,
		Payload: events.StatusChangedPayload{
			OldStatus: previous,
			NewStatus: domain.TicketStatusOpen,
			Note:      note,
			CreatorID: ticket.CreatorID,
			Number:    ticket.Number,
		},
	})
	return ticket, nil
}

// GetHistory returns the ticket's audit trail in chronological order.
func (s *TicketService) GetHistory(ctx context.Context, actor *domain.Actor, ticketID string) ([]domain.HistoryEntry, error) {
	if _, err := s.loadAccessible(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.store.History().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// AddComment appends a comment. Clients cannot post internal notes.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.Actor, ticketID, body string, internal bool) (*domain.Comment, error) {
	if !authz.Can(actor, domain.CapTicketsComment) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}
	if internal && !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("clients cannot post internal comments")
	}
	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Body:     strings.TrimSpace(body),
		Internal: internal,
	}
	if err := s.store.Comments().Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		ActorID:  &actor.ID,
		Payload: events.CommentAddedPayload{
			CommentID:  comment.ID,
			AuthorID:   comment.AuthorID,
			Internal:   comment.Internal,
			CreatorID:  ticket.CreatorID,
			AssigneeID: ticket.AssigneeID,
			Number:     ticket.Number,
			Preview:    stringPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// Reroute moves a ticket to a different department with a matching
// category. The actor needs the edit-department capability and access to
// the ticket under its current routing.
func (s *TicketService) Reroute(ctx context.Context, actor *domain.Actor, ticketID, departmentID, categoryID string) (*domain.Ticket, error) {
	if !authz.Can(actor, domain.CapTicketsEditDepartment) {
		return nil, apperrors.NewForbidden("access denied")
	}
	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	dept, err := s.store.Departments().GetByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": departmentID})
		}
		return nil, apperrors.MapError(err)
	}
	if !dept.IsActive {
		return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": dept.ID})
	}
	category, err := s.store.Categories().GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": categoryID})
		}
		return nil, apperrors.MapError(err)
	}
	if category.DepartmentID != dept.ID {
		return nil, apperrors.NewValidationError("category does not belong to department", map[string]any{
			"category_id":   category.ID,
			"department_id": dept.ID,
		})
	}

	if err := s.store.Tickets().UpdateRouting(ctx, ticket.ID, dept.ID, category.ID); err != nil {
		return nil, mapConcurrencyErr(err)
	}
	ticket.DepartmentID = dept.ID
	ticket.CategoryID = category.ID
	return ticket, nil
}

// DeleteTicket removes a ticket and its dependent records. Admin only;
// this is irreversible.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.Actor, ticketID string) error {
	if !authz.Can(actor, domain.CapTicketsDelete) {
		return apperrors.NewForbidden("access denied")
	}
	if err := s.store.Tickets().Delete(ctx, ticketID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// loadAccessible loads a ticket and enforces the actor's scope. Missing
// tickets surface as NOT_FOUND; existing but non-owned tickets surface as
// FORBIDDEN with no further disclosure.
func (s *TicketService) loadAccessible(ctx context.Context, actor *domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !authz.CanAccessTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

func mapConcurrencyErr(err error) error {
	if errors.Is(err, repository.ErrStaleStatus) {
		return apperrors.NewConflict("ticket status changed concurrently", nil)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("ticket", nil)
	}
	return apperrors.MapError(err)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

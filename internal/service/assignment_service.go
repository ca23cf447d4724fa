package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-core/internal/authz"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// AssignmentService resolves ticket assignment. Assigning an OPEN ticket
// also moves it to IN_PROGRESS in the same transaction as the assignment,
// producing exactly one history entry.
type AssignmentService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
}

// NewAssignmentService constructs the service.
func NewAssignmentService(store repository.Store, dispatcher events.Dispatcher, metrics *observability.Metrics) *AssignmentService {
	return &AssignmentService{store: store, dispatcher: dispatcher, metrics: metrics}
}

// Assign sets the ticket's assignee. The assignee must be an active agent
// or department head. Assigning a ticket in any status after OPEN only
// swaps the assignee and records no history.
func (s *AssignmentService) Assign(ctx context.Context, actor *domain.Actor, ticketID, assigneeID string) (*domain.Ticket, error) {
	if !authz.Can(actor, domain.CapTicketsAssign) {
		return nil, apperrors.NewForbidden("access denied")
	}

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

	assignee, err := s.store.Actors().GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("assignee", map[string]any{"assignee_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if assignee.Role != domain.RoleAgent && assignee.Role != domain.RoleDepartmentHead {
		return nil, apperrors.NewValidationError("assignee must be an agent or department head", map[string]any{
			"role": assignee.Role,
		})
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("assignee is deactivated", map[string]any{"assignee_id": assignee.ID})
	}

	ticket.AssigneeID = &assignee.ID

	if ticket.Status == domain.TicketStatusOpen {
		previous, terr := domain.ApplyTransition(ticket, domain.TicketStatusInProgress, time.Now())
		if terr != nil {
			return nil, apperrors.MapError(terr)
		}
		err = s.store.WithinTx(ctx, func(tx repository.Store) error {
			if err := tx.Tickets().UpdateStatus(ctx, ticket, previous); err != nil {
				return err
			}
			return tx.History().Create(ctx, &domain.HistoryEntry{
				TicketID:       ticket.ID,
				PreviousStatus: &previous,
				NewStatus:      domain.TicketStatusInProgress,
				Note:           "ticket assigned to " + assignee.Name,
				ActorID:        &actor.ID,
			})
		})
		if err != nil {
			return nil, mapConcurrencyErr(err)
		}
		s.metrics.RecordTransition(string(domain.TicketStatusInProgress))
	} else {
		if err := s.store.Tickets().SetAssignee(ctx, ticket.ID, &assignee.ID); err != nil {
			return nil, mapConcurrencyErr(err)
		}
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  &actor.ID,
		Payload: events.TicketAssignedPayload{
			AssigneeID: assignee.ID,
			CreatorID:  ticket.CreatorID,
			Number:     ticket.Number,
		},
	})
	return ticket, nil
}

func (s *AssignmentService) publish(ctx context.Context, event events.Event) {
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

package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-core/internal/authz"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

const (
	maxWorkHoursPerEntry = 24
	maxWorkDateAge       = 30 * 24 * time.Hour
)

// WorkLogService records and reads time spent on tickets. Each entry
// increments the ticket's actual-hours aggregate in the same transaction,
// so the aggregate always equals the sum of the entries.
type WorkLogService struct {
	store repository.Store
}

// NewWorkLogService constructs the service.
func NewWorkLogService(store repository.Store) *WorkLogService {
	return &WorkLogService{store: store}
}

// WorkLogInput describes a work entry to record.
type WorkLogInput struct {
	Hours       float64
	Description string
	WorkDate    time.Time
}

// LogWork records hours against a ticket. Agents may only log against
// their own assignments; department heads and admins may log against any
// ticket in their scope.
func (s *WorkLogService) LogWork(ctx context.Context, actor *domain.Actor, ticketID string, input WorkLogInput) (*domain.WorkLogEntry, error) {
	if !authz.Can(actor, domain.CapWorkLogRecord) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if input.Hours <= 0 || input.Hours > maxWorkHoursPerEntry {
		return nil, apperrors.NewValidationError("hours must be greater than 0 and at most 24", map[string]any{
			"hours": input.Hours,
		})
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}
	now := time.Now()
	if input.WorkDate.IsZero() {
		input.WorkDate = now
	}
	if input.WorkDate.After(now) {
		return nil, apperrors.NewValidationError("work date cannot be in the future", nil)
	}
	if input.WorkDate.Before(now.Add(-maxWorkDateAge)) {
		return nil, apperrors.NewValidationError("work date is too far in the past", nil)
	}

	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !authz.CanAccessTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}

	entry := &domain.WorkLogEntry{
		TicketID:    ticket.ID,
		AgentID:     actor.ID,
		Hours:       input.Hours,
		Description: strings.TrimSpace(input.Description),
		WorkDate:    input.WorkDate,
	}
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.WorkLogs().Create(ctx, entry); err != nil {
			return err
		}
		return tx.Tickets().AddActualHours(ctx, ticket.ID, input.Hours)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entry, nil
}

// ListWork returns a ticket's work entries in chronological order.
func (s *WorkLogService) ListWork(ctx context.Context, actor *domain.Actor, ticketID string) ([]domain.WorkLogEntry, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if !authz.CanAccessTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	entries, err := s.store.WorkLogs().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

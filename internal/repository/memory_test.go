package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

func seedTicket(t *testing.T, store *MemoryStore, number string) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		Number:       number,
		Subject:      "subject",
		Status:       domain.TicketStatusOpen,
		Priority:     domain.TicketPriorityMedium,
		CreatorID:    "creator",
		DepartmentID: "dept",
		CategoryID:   "cat",
	}
	require.NoError(t, store.Tickets().Create(context.Background(), ticket))
	return ticket
}

func TestMemoryConditionalUpdateStatus(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	ticket := seedTicket(t, store, "2024-01-000001")

	t.Run("update succeeds when expectation holds", func(t *testing.T) {
		ticket.Status = domain.TicketStatusInProgress
		require.NoError(t, store.Tickets().UpdateStatus(ctx, ticket, domain.TicketStatusOpen))

		stored, err := store.Tickets().GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusInProgress, stored.Status)
	})

	t.Run("stale expectation is rejected", func(t *testing.T) {
		ticket.Status = domain.TicketStatusResolved
		err := store.Tickets().UpdateStatus(ctx, ticket, domain.TicketStatusOpen)
		require.ErrorIs(t, err, ErrStaleStatus)

		stored, err := store.Tickets().GetByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusInProgress, stored.Status, "losing write must not apply")
	})
}

func TestMemoryDuplicateTicketNumber(t *testing.T) {
	store := NewMemoryStore()
	seedTicket(t, store, "2024-01-000001")

	dup := &domain.Ticket{
		Number:       "2024-01-000001",
		Subject:      "clash",
		Status:       domain.TicketStatusOpen,
		Priority:     domain.TicketPriorityMedium,
		CreatorID:    "creator",
		DepartmentID: "dept",
		CategoryID:   "cat",
	}
	err := store.Tickets().Create(context.Background(), dup)
	require.ErrorIs(t, err, ErrDuplicateTicketNumber)
}

func TestMemoryAddActualHours(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	ticket := seedTicket(t, store, "2024-01-000002")

	require.NoError(t, store.Tickets().AddActualHours(ctx, ticket.ID, 2))
	require.NoError(t, store.Tickets().AddActualHours(ctx, ticket.ID, 0.5))

	stored, err := store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, stored.ActualHours, 1e-9)
}

func TestMemoryGetReturnsClones(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	ticket := seedTicket(t, store, "2024-01-000003")

	got, err := store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	got.Subject = "mutated"

	again, err := store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "subject", again.Subject)
}

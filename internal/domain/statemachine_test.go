package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    TicketStatus
		to      TicketStatus
		allowed bool
	}{
		{"open to in_progress", TicketStatusOpen, TicketStatusInProgress, true},
		{"open to on_hold", TicketStatusOpen, TicketStatusOnHold, true},
		{"open to resolved", TicketStatusOpen, TicketStatusResolved, true},
		{"open to closed", TicketStatusOpen, TicketStatusClosed, true},
		{"open to cancelled", TicketStatusOpen, TicketStatusCancelled, true},
		{"in_progress to resolved", TicketStatusInProgress, TicketStatusResolved, true},
		{"in_progress to open", TicketStatusInProgress, TicketStatusOpen, false},
		{"on_hold to in_progress", TicketStatusOnHold, TicketStatusInProgress, true},
		{"resolved to in_progress", TicketStatusResolved, TicketStatusInProgress, true},
		{"resolved to closed", TicketStatusResolved, TicketStatusClosed, true},
		{"resolved to on_hold", TicketStatusResolved, TicketStatusOnHold, false},
		{"closed is terminal", TicketStatusClosed, TicketStatusInProgress, false},
		{"closed to open via table", TicketStatusClosed, TicketStatusOpen, false},
		{"cancelled is terminal", TicketStatusCancelled, TicketStatusOpen, false},
		{"same status is a no-op", TicketStatusOnHold, TicketStatusOnHold, true},
		{"same terminal status is a no-op", TicketStatusClosed, TicketStatusClosed, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to))
		})
	}
}

func TestApplyTransitionStampsTimestamps(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("resolved stamps ResolvedAt", func(t *testing.T) {
		ticket := &Ticket{Status: TicketStatusInProgress}
		prev, err := ApplyTransition(ticket, TicketStatusResolved, now)
		require.NoError(t, err)
		assert.Equal(t, TicketStatusInProgress, prev)
		require.NotNil(t, ticket.ResolvedAt)
		assert.Equal(t, now, *ticket.ResolvedAt)
		assert.Nil(t, ticket.ClosedAt)
	})

	t.Run("closed stamps ClosedAt and keeps ResolvedAt", func(t *testing.T) {
		resolved := now.Add(-time.Hour)
		ticket := &Ticket{Status: TicketStatusResolved, ResolvedAt: &resolved}
		prev, err := ApplyTransition(ticket, TicketStatusClosed, now)
		require.NoError(t, err)
		assert.Equal(t, TicketStatusResolved, prev)
		require.NotNil(t, ticket.ClosedAt)
		assert.Equal(t, now, *ticket.ClosedAt)
		require.NotNil(t, ticket.ResolvedAt)
		assert.Equal(t, resolved, *ticket.ResolvedAt)
	})

	t.Run("same status leaves ticket untouched", func(t *testing.T) {
		ticket := &Ticket{Status: TicketStatusOnHold}
		prev, err := ApplyTransition(ticket, TicketStatusOnHold, now)
		require.NoError(t, err)
		assert.Equal(t, TicketStatusOnHold, prev)
		assert.Equal(t, TicketStatusOnHold, ticket.Status)
		assert.Nil(t, ticket.ResolvedAt)
		assert.Nil(t, ticket.ClosedAt)
	})

	t.Run("invalid transition is rejected", func(t *testing.T) {
		ticket := &Ticket{Status: TicketStatusCancelled}
		_, err := ApplyTransition(ticket, TicketStatusInProgress, now)
		require.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, TicketStatusCancelled, ticket.Status)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		ticket := &Ticket{Status: TicketStatusOpen}
		_, err := ApplyTransition(ticket, TicketStatus("ARCHIVED"), now)
		require.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestReopen(t *testing.T) {
	t.Run("clears lifecycle timestamps", func(t *testing.T) {
		resolved := time.Now().Add(-2 * time.Hour)
		closed := time.Now().Add(-time.Hour)
		ticket := &Ticket{Status: TicketStatusClosed, ResolvedAt: &resolved, ClosedAt: &closed}

		prev, err := Reopen(ticket)
		require.NoError(t, err)
		assert.Equal(t, TicketStatusClosed, prev)
		assert.Equal(t, TicketStatusOpen, ticket.Status)
		assert.Nil(t, ticket.ResolvedAt)
		assert.Nil(t, ticket.ClosedAt)
	})

	t.Run("only closed tickets reopen", func(t *testing.T) {
		for _, status := range []TicketStatus{
			TicketStatusOpen, TicketStatusInProgress, TicketStatusOnHold,
			TicketStatusResolved, TicketStatusCancelled,
		} {
			ticket := &Ticket{Status: status}
			_, err := Reopen(ticket)
			require.ErrorIs(t, err, ErrInvalidTransition, "status %s", status)
			assert.Equal(t, status, ticket.Status)
		}
	})
}

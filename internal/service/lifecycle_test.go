package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// TestTicketLifecycle walks one ticket through its whole life: creation by
// a client, assignment by the department head, work logging and resolution
// by the agent, closure by an admin, and a reopen by the head. Each step
// checks the history chain, the derived timestamps, and the fan-out it is
// expected to produce.
func TestTicketLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ticket := env.createTicket(t, env.client)
	require.Equal(t, domain.TicketStatusOpen, ticket.Status)

	history, err := env.tickets.GetHistory(ctx, env.admin, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Nil(t, history[0].PreviousStatus)
	require.Equal(t, domain.TicketStatusOpen, history[0].NewStatus)

	ticket, err = env.assignments.Assign(ctx, env.head, ticket.ID, env.agent.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, ticket.Status)
	require.NotNil(t, ticket.AssigneeID)
	require.Equal(t, env.agent.ID, *ticket.AssigneeID)

	history, err = env.tickets.GetHistory(ctx, env.admin, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.NotEmpty(t, env.inbox(t, env.agent), "assignee should be notified")
	require.NotEmpty(t, env.inbox(t, env.client), "creator should be notified")

	_, err = env.workLogs.LogWork(ctx, env.agent, ticket.ID, WorkLogInput{
		Hours:       2.5,
		Description: "replaced fuser unit",
	})
	require.NoError(t, err)
	ticket, _, err = env.tickets.GetTicket(ctx, env.agent, ticket.ID)
	require.NoError(t, err)
	require.InDelta(t, 2.5, ticket.ActualHours, 1e-9)

	ticket, err = env.tickets.Transition(ctx, env.agent, ticket.ID, domain.TicketStatusResolved, "fixed")
	require.NoError(t, err)
	require.NotNil(t, ticket.ResolvedAt)
	require.Nil(t, ticket.ClosedAt)

	ticket, err = env.tickets.Transition(ctx, env.admin, ticket.ID, domain.TicketStatusClosed, "")
	require.NoError(t, err)
	require.NotNil(t, ticket.ClosedAt)
	require.Len(t, env.mailer.sent, 1)
	require.Equal(t, env.client.Email+"|"+ticket.Number, env.mailer.sent[0])

	history, err = env.tickets.GetHistory(ctx, env.admin, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i := 1; i < len(history); i++ {
		require.NotNil(t, history[i].PreviousStatus)
		require.Equal(t, history[i-1].NewStatus, *history[i].PreviousStatus,
			"history must form an unbroken chain")
	}

	ticket, err = env.tickets.Reopen(ctx, env.head, ticket.ID, "client reports smoke again")
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusOpen, ticket.Status)
	require.Nil(t, ticket.ResolvedAt)
	require.Nil(t, ticket.ClosedAt)

	history, err = env.tickets.GetHistory(ctx, env.admin, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 5)
	last := history[len(history)-1]
	require.NotNil(t, last.PreviousStatus)
	require.Equal(t, domain.TicketStatusClosed, *last.PreviousStatus)
	require.Equal(t, domain.TicketStatusOpen, last.NewStatus)
}

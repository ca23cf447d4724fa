package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

func kinds(rows []domain.Notification) []domain.NotificationKind {
	out := make([]domain.NotificationKind, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Kind)
	}
	return out
}

func TestFanOutTicketCreated(t *testing.T) {
	env := newTestEnv(t)

	env.createTicket(t, env.client)

	assert.Contains(t, kinds(env.inbox(t, env.head)), domain.NotificationTicketCreated)
	assert.Contains(t, kinds(env.inbox(t, env.admin)), domain.NotificationTicketCreated)
	assert.Empty(t, env.inbox(t, env.agent), "agents are not notified about new tickets")
	assert.Empty(t, env.inbox(t, env.client), "the creator is not notified about their own ticket")
}

func TestFanOutTicketAssigned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ticket := env.createTicket(t, env.client)
	_, err := env.assignments.Assign(ctx, env.head, ticket.ID, env.agent.ID)
	require.NoError(t, err)

	assert.Contains(t, kinds(env.inbox(t, env.agent)), domain.NotificationTicketAssigned)
	assert.Contains(t, kinds(env.inbox(t, env.client)), domain.NotificationTicketAssigned)
}

func TestFanOutStatusChanged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ticket := env.createTicket(t, env.client)
	_, err := env.tickets.Transition(ctx, env.admin, ticket.ID, domain.TicketStatusResolved, "fixed")
	require.NoError(t, err)

	assert.Contains(t, kinds(env.inbox(t, env.client)), domain.NotificationStatusChanged)
	assert.Empty(t, env.mailer.sent, "resolving does not send the closed report")

	_, err = env.tickets.Transition(ctx, env.admin, ticket.ID, domain.TicketStatusClosed, "done")
	require.NoError(t, err)

	require.Len(t, env.mailer.sent, 1)
	assert.Contains(t, env.mailer.sent[0], env.client.Email)
	assert.Contains(t, env.mailer.sent[0], ticket.Number)
}

func TestFanOutMailerFailureIsSwallowed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.mailer.err = errors.New("smtp relay down")

	ticket := env.createTicket(t, env.client)
	closed, err := env.tickets.Transition(ctx, env.admin, ticket.ID, domain.TicketStatusClosed, "")
	require.NoError(t, err, "a broken mailer must not fail the transition")
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)

	// the inbox row is still written
	assert.Contains(t, kinds(env.inbox(t, env.client)), domain.NotificationStatusChanged)
}

func TestFanOutCommentAdded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ticket := env.createTicket(t, env.client)
	_, err := env.assignments.Assign(ctx, env.head, ticket.ID, env.agent.ID)
	require.NoError(t, err)

	t.Run("public comment notifies creator and assignee minus author", func(t *testing.T) {
		_, err := env.tickets.AddComment(ctx, env.agent, ticket.ID, "looking at it now", false)
		require.NoError(t, err)

		assert.Contains(t, kinds(env.inbox(t, env.client)), domain.NotificationCommentAdded)
		assert.NotContains(t, kinds(env.inbox(t, env.agent)), domain.NotificationCommentAdded,
			"the author is never notified about their own comment")
	})

	t.Run("internal comment produces no fan-out", func(t *testing.T) {
		before := len(env.inbox(t, env.client))
		_, err := env.tickets.AddComment(ctx, env.head, ticket.ID, "escalate quietly", true)
		require.NoError(t, err)
		assert.Len(t, env.inbox(t, env.client), before)
	})

	t.Run("creator commenting notifies only the assignee", func(t *testing.T) {
		before := len(env.inbox(t, env.agent))
		_, err := env.tickets.AddComment(ctx, env.client, ticket.ID, "any update?", false)
		require.NoError(t, err)
		assert.Len(t, env.inbox(t, env.agent), before+1)
	})
}

func TestNotificationInbox(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createTicket(t, env.client)
	rows, err := env.notifications.ListNotifications(ctx, env.head, true, 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	t.Run("mark read removes from unread view", func(t *testing.T) {
		require.NoError(t, env.notifications.MarkRead(ctx, env.head, rows[0].ID))
		unread, err := env.notifications.ListNotifications(ctx, env.head, true, 10, 0)
		require.NoError(t, err)
		assert.Len(t, unread, len(rows)-1)
	})

	t.Run("cannot mark another actor's notification", func(t *testing.T) {
		adminRows, err := env.notifications.ListNotifications(ctx, env.admin, false, 10, 0)
		require.NoError(t, err)
		require.NotEmpty(t, adminRows)
		err = env.notifications.MarkRead(ctx, env.head, adminRows[0].ID)
		requireDomainCode(t, err, "NOT_FOUND")
	})
}

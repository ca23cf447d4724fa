package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

var ticketNumberRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{6}$`)

func TestCreateTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("creates open ticket with creation history", func(t *testing.T) {
		ticket := env.createTicket(t, env.client)
		assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
		assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
		assert.Equal(t, env.client.ID, ticket.CreatorID)
		assert.Regexp(t, ticketNumberRe, ticket.Number)

		history, err := env.tickets.GetHistory(ctx, env.client, ticket.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Nil(t, history[0].PreviousStatus)
		assert.Equal(t, domain.TicketStatusOpen, history[0].NewStatus)
	})

	t.Run("numbers are sequential within the month", func(t *testing.T) {
		first := env.createTicket(t, env.client)
		second := env.createTicket(t, env.client)
		assert.NotEqual(t, first.Number, second.Number)
		assert.Equal(t, first.Number[:8], second.Number[:8])
	})

	t.Run("category must belong to department", func(t *testing.T) {
		_, err := env.tickets.CreateTicket(ctx, env.client, TicketCreateInput{
			DepartmentID: testDeptID,
			CategoryID:   testCat2ID,
			Subject:      "mismatched",
		})
		requireDomainCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("unknown department", func(t *testing.T) {
		_, err := env.tickets.CreateTicket(ctx, env.client, TicketCreateInput{
			DepartmentID: "nope",
			CategoryID:   testCatID,
			Subject:      "lost",
		})
		requireDomainCode(t, err, "NOT_FOUND")
	})

	t.Run("invalid priority", func(t *testing.T) {
		_, err := env.tickets.CreateTicket(ctx, env.client, TicketCreateInput{
			DepartmentID: testDeptID,
			CategoryID:   testCatID,
			Subject:      "bad priority",
			Priority:     domain.TicketPriority("EXTREME"),
		})
		requireDomainCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("inactive department is rejected", func(t *testing.T) {
		env.store.AddDepartment(domain.Department{ID: "dept-closed", Name: "Archive", IsActive: false})
		env.store.AddCategory(domain.Category{ID: "cat-old", DepartmentID: "dept-closed", Name: "Old"})
		_, err := env.tickets.CreateTicket(ctx, env.client, TicketCreateInput{
			DepartmentID: "dept-closed",
			CategoryID:   "cat-old",
			Subject:      "into the void",
		})
		requireDomainCode(t, err, "CONFLICT")
	})
}

// staleSequenceRepo reports a stale max sequence on its first call, forcing
// one duplicate-number collision.
type staleSequenceRepo struct {
	repository.TicketRepository
	calls int
}

func (r *staleSequenceRepo) MaxSequenceForBucket(ctx context.Context, bucket string) (int, error) {
	r.calls++
	if r.calls == 1 {
		return 0, nil
	}
	return r.TicketRepository.MaxSequenceForBucket(ctx, bucket)
}

func TestCreateTicketRetriesOnDuplicateNumber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	existing := env.createTicket(t, env.client)

	stale := &staleSequenceRepo{TicketRepository: env.store.Tickets()}
	tickets := NewTicketService(TicketDependencies{
		Store:      env.store,
		Numbers:    NewTicketNumberGenerator(nil, stale, nil),
		Dispatcher: env.dispatcher,
	})

	ticket, err := tickets.CreateTicket(ctx, env.client, TicketCreateInput{
		DepartmentID: testDeptID,
		CategoryID:   testCatID,
		Subject:      "second attempt sticks",
	})
	require.NoError(t, err)
	assert.NotEqual(t, existing.Number, ticket.Number)
	assert.GreaterOrEqual(t, stale.calls, 2)
}

func TestTransition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("valid transition appends history", func(t *testing.T) {
		ticket := env.createTicket(t, env.client)
		updated, err := env.tickets.Transition(ctx, env.admin, ticket.ID, domain.TicketStatusInProgress, "picking this up")
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

		history, err := env.tickets.GetHistory(ctx, env.admin, ticket.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		require.NotNil(t, history[1].PreviousStatus)
		assert.Equal(t, domain.TicketStatusOpen, *history[1].PreviousStatus)
		assert.Equal(t, domain.TicketStatusInProgress, history[1].NewStatus)
		assert.Equal(t, "picking this up", history[1].Note)
	})

	t.Run("same status is a logged no-op", func(t *testing.T) {
		ticket := env.createTicket(t, env.client)
		updated, err := env.tickets.Transition(ctx, env.admin, ticket.ID, domain.TicketStatusOpen, "still open")
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusOpen, updated.Status)

		history, err := env.tickets.GetHistory(ctx, env.admin, ticket.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		require.NotNil(t, history[1].PreviousStatus)
		assert.Equal(t, domain.TicketStatusOpen, *history[1].PreviousStatus)
		assert.Equal(t, domain.TicketStatusOpen, history[1].NewStatus)
	})

	t.Run("invalid transition", func(t *testing.T) {
		ticket := env.createTicket(t, env.client)
		_, err := env.tickets.Transition(ctx, env.admin, ticket.ID, domain.TicketStatusClosed, "")
		require.NoError(t, err)
		_, err = env.tickets.Transition(ctx, env.admin, ticket.ID, domain.TicketStatusInProgress, "")
		requireDomainCode(t, err, "INVALID_TRANSITION")
	})

	t.Run("resolved then closed stamps timestamps", func(t *testing.T) {
		ticket := env.createTicket(t, env.client)
		resolved, err := env.tickets.Transition(ctx, env.admin, ticket.ID, domain.TicketStatusResolved, "")
		require.NoError(t, err)
		require.NotNil(t, resolved.ResolvedAt)

		closed, err := env.tickets.Transition(ctx, env.admin, ticket.ID, domain.TicketStatusClosed, "")
		require.NoError(t, err)
		require.NotNil(t, closed.ClosedAt)
		require.NotNil(t, closed.ResolvedAt)
	})

	t.Run("client may transition only own tickets", func(t *testing.T) {
		ticket := env.createTicket(t, env.client)
		_, err := env.tickets.Transition(ctx, env.other, ticket.ID, domain.TicketStatusCancelled, "")
		requireDomainCode(t, err, "FORBIDDEN")
	})

	t.Run("missing ticket", func(t *testing.T) {
		_, err := env.tickets.Transition(ctx, env.admin, "no-such-id", domain.TicketStatusClosed, "")
		requireDomainCode(t, err, "NOT_FOUND")
	})
}

// staleStatusStore forces every conditional status update to report a
// concurrent modification.
type staleStatusStore struct {
	repository.Store
}

func (s *staleStatusStore) Tickets() repository.TicketRepository {
	return &staleStatusTickets{s.Store.Tickets()}
}

func (s *staleStatusStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

type staleStatusTickets struct {
	repository.TicketRepository
}

func (r *staleStatusTickets) UpdateStatus(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error {
	return repository.ErrStaleStatus
}

func TestTransitionConcurrentConflict(t *testing.T) {
	env := newTestEnv(t)
	ticket := env.createTicket(t, env.client)

	racy := NewTicketService(TicketDependencies{
		Store:      &staleStatusStore{env.store},
		Numbers:    NewTicketNumberGenerator(nil, env.store.Tickets(), nil),
		Dispatcher: env.dispatcher,
	})

	_, err := racy.Transition(context.Background(), env.admin, ticket.ID, domain.TicketStatusInProgress, "")
	requireDomainCode(t, err, "CONFLICT")

	// the losing writer must not have appended history
	history, herr := env.tickets.GetHistory(context.Background(), env.admin, ticket.ID)
	require.NoError(t, herr)
	assert.Len(t, history, 1)
}

func TestReopen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	closeTicket := func(t *testing.T) *domain.Ticket {
		ticket := env.createTicket(t, env.client)
		_, err := env.tickets.Transition(ctx, env.admin, ticket.ID, domain.TicketStatusResolved, "")
		require.NoError(t, err)
		closed, err := env.tickets.Transition(ctx, env.admin, ticket.ID, domain.TicketStatusClosed, "")
		require.NoError(t, err)
		return closed
	}

	t.Run("head reopens closed ticket and timestamps clear", func(t *testing.T) {
		ticket := closeTicket(t)
		reopened, err := env.tickets.Reopen(ctx, env.head, ticket.ID, "customer called back")
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusOpen, reopened.Status)
		assert.Nil(t, reopened.ResolvedAt)
		assert.Nil(t, reopened.ClosedAt)

		history, err := env.tickets.GetHistory(ctx, env.head, ticket.ID)
		require.NoError(t, err)
		last := history[len(history)-1]
		require.NotNil(t, last.PreviousStatus)
		assert.Equal(t, domain.TicketStatusClosed, *last.PreviousStatus)
		assert.Equal(t, domain.TicketStatusOpen, last.NewStatus)
	})

	t.Run("client cannot reopen", func(t *testing.T) {
		ticket := closeTicket(t)
		_, err := env.tickets.Reopen(ctx, env.client, ticket.ID, "")
		requireDomainCode(t, err, "FORBIDDEN")
	})

	t.Run("agent cannot reopen", func(t *testing.T) {
		ticket := closeTicket(t)
		_, err := env.tickets.Reopen(ctx, env.agent, ticket.ID, "")
		requireDomainCode(t, err, "FORBIDDEN")
	})

	t.Run("only closed tickets reopen", func(t *testing.T) {
		ticket := env.createTicket(t, env.client)
		_, err := env.tickets.Reopen(ctx, env.admin, ticket.ID, "")
		requireDomainCode(t, err, "INVALID_TRANSITION")
	})
}

func TestListTicketsScope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mine := env.createTicket(t, env.client)
	theirs := env.createTicket(t, env.other)
	_, err := env.assignments.Assign(ctx, env.head, mine.ID, env.agent.ID)
	require.NoError(t, err)

	t.Run("client sees only own tickets", func(t *testing.T) {
		tickets, err := env.tickets.ListTickets(ctx, env.client, TicketListFilter{})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, mine.ID, tickets[0].ID)
	})

	t.Run("agent sees only assignments", func(t *testing.T) {
		tickets, err := env.tickets.ListTickets(ctx, env.agent, TicketListFilter{})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, mine.ID, tickets[0].ID)
	})

	t.Run("head sees the whole department", func(t *testing.T) {
		tickets, err := env.tickets.ListTickets(ctx, env.head, TicketListFilter{})
		require.NoError(t, err)
		assert.Len(t, tickets, 2)
	})

	t.Run("admin sees everything", func(t *testing.T) {
		tickets, err := env.tickets.ListTickets(ctx, env.admin, TicketListFilter{})
		require.NoError(t, err)
		assert.Len(t, tickets, 2)
	})

	t.Run("status filter applies on top of scope", func(t *testing.T) {
		tickets, err := env.tickets.ListTickets(ctx, env.admin, TicketListFilter{
			Statuses: []domain.TicketStatus{domain.TicketStatusOpen},
		})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, theirs.ID, tickets[0].ID)
	})

	t.Run("deactivated actor is denied", func(t *testing.T) {
		ghost := *env.client
		ghost.Active = false
		_, err := env.tickets.ListTickets(ctx, &ghost, TicketListFilter{})
		requireDomainCode(t, err, "FORBIDDEN")
	})
}

func TestGetTicketAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, env.client)

	t.Run("non-owned ticket is forbidden, not hidden as missing", func(t *testing.T) {
		_, _, err := env.tickets.GetTicket(ctx, env.other, ticket.ID)
		requireDomainCode(t, err, "FORBIDDEN")
	})

	t.Run("internal comments are redacted for clients", func(t *testing.T) {
		_, err := env.tickets.AddComment(ctx, env.head, ticket.ID, "internal triage note", true)
		require.NoError(t, err)
		_, err = env.tickets.AddComment(ctx, env.head, ticket.ID, "we are on it", false)
		require.NoError(t, err)

		_, comments, err := env.tickets.GetTicket(ctx, env.client, ticket.ID)
		require.NoError(t, err)
		require.Len(t, comments, 1)
		assert.Equal(t, "we are on it", comments[0].Body)

		_, comments, err = env.tickets.GetTicket(ctx, env.head, ticket.ID)
		require.NoError(t, err)
		assert.Len(t, comments, 2)
	})

	t.Run("client cannot post internal comments", func(t *testing.T) {
		_, err := env.tickets.AddComment(ctx, env.client, ticket.ID, "sneaky", true)
		requireDomainCode(t, err, "FORBIDDEN")
	})
}

func TestReroute(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := env.createTicket(t, env.client)

	t.Run("head moves ticket to another department", func(t *testing.T) {
		moved, err := env.tickets.Reroute(ctx, env.head, ticket.ID, testDept2ID, testCat2ID)
		require.NoError(t, err)
		assert.Equal(t, testDept2ID, moved.DepartmentID)
		assert.Equal(t, testCat2ID, moved.CategoryID)

		// after the move the head no longer sees the ticket
		_, _, err = env.tickets.GetTicket(ctx, env.head, ticket.ID)
		requireDomainCode(t, err, "FORBIDDEN")
	})

	t.Run("category must match target department", func(t *testing.T) {
		other := env.createTicket(t, env.client)
		_, err := env.tickets.Reroute(ctx, env.admin, other.ID, testDept2ID, testCatID)
		requireDomainCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("agents cannot reroute", func(t *testing.T) {
		other := env.createTicket(t, env.client)
		_, err := env.tickets.Reroute(ctx, env.agent, other.ID, testDept2ID, testCat2ID)
		requireDomainCode(t, err, "FORBIDDEN")
	})
}

func TestDeleteTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("admin delete cascades", func(t *testing.T) {
		ticket := env.createTicket(t, env.client)
		_, err := env.tickets.AddComment(ctx, env.client, ticket.ID, "hello", false)
		require.NoError(t, err)

		require.NoError(t, env.tickets.DeleteTicket(ctx, env.admin, ticket.ID))

		_, err = env.store.Tickets().GetByID(ctx, ticket.ID)
		require.ErrorIs(t, err, repository.ErrNotFound)
		history, err := env.store.History().ListByTicket(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
		comments, err := env.store.Comments().ListByTicket(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Empty(t, comments)
	})

	t.Run("head cannot delete", func(t *testing.T) {
		ticket := env.createTicket(t, env.client)
		err := env.tickets.DeleteTicket(ctx, env.head, ticket.ID)
		requireDomainCode(t, err, "FORBIDDEN")
	})
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

const (
	testDeptID  = "dept-support"
	testDept2ID = "dept-billing"
	testCatID   = "cat-hardware"
	testCat2ID  = "cat-invoices"
)

type testEnv struct {
	store         *repository.MemoryStore
	dispatcher    events.Dispatcher
	tickets       *TicketService
	assignments   *AssignmentService
	workLogs      *WorkLogService
	notifications *NotificationService
	mailer        *recordingMailer

	admin  *domain.Actor
	head   *domain.Actor
	agent  *domain.Actor
	agent2 *domain.Actor
	client *domain.Actor
	other  *domain.Actor
}

type recordingMailer struct {
	sent []string
	err  error
}

func (m *recordingMailer) SendTicketClosedReport(_ context.Context, recipientEmail, ticketNumber string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, recipientEmail+"|"+ticketNumber)
	return nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	store.AddDepartment(domain.Department{ID: testDeptID, Name: "Support", IsActive: true})
	store.AddDepartment(domain.Department{ID: testDept2ID, Name: "Billing", IsActive: true})
	store.AddCategory(domain.Category{ID: testCatID, DepartmentID: testDeptID, Name: "Hardware"})
	store.AddCategory(domain.Category{ID: testCat2ID, DepartmentID: testDept2ID, Name: "Invoices"})

	dispatcher := events.NewInMemoryDispatcher()
	logger := zap.NewNop()
	numbers := NewTicketNumberGenerator(nil, store.Tickets(), logger)
	mailer := &recordingMailer{}

	env := &testEnv{
		store:      store,
		dispatcher: dispatcher,
		tickets: NewTicketService(TicketDependencies{
			Store:      store,
			Numbers:    numbers,
			Dispatcher: dispatcher,
		}),
		assignments:   NewAssignmentService(store, dispatcher, nil),
		workLogs:      NewWorkLogService(store),
		notifications: NewNotificationService(store, dispatcher, mailer, logger),
		mailer:        mailer,
	}
	env.notifications.RegisterHandlers()

	env.admin = seedActor(t, store, "Ada Admin", "ada@example.com", domain.RoleAdmin, nil)
	dept := testDeptID
	env.head = seedActor(t, store, "Hana Head", "hana@example.com", domain.RoleDepartmentHead, &dept)
	env.agent = seedActor(t, store, "Ari Agent", "ari@example.com", domain.RoleAgent, &dept)
	env.agent2 = seedActor(t, store, "Avi Agent", "avi@example.com", domain.RoleAgent, &dept)
	env.client = seedActor(t, store, "Cleo Client", "cleo@example.com", domain.RoleClient, nil)
	env.other = seedActor(t, store, "Otto Other", "otto@example.com", domain.RoleClient, nil)
	return env
}

func seedActor(t *testing.T, store *repository.MemoryStore, name, email string, role domain.Role, deptID *string) *domain.Actor {
	t.Helper()
	actor := &domain.Actor{
		Name:         name,
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		DepartmentID: deptID,
		Active:       true,
	}
	require.NoError(t, store.Actors().Create(context.Background(), actor))
	return actor
}

func (env *testEnv) createTicket(t *testing.T, creator *domain.Actor) *domain.Ticket {
	t.Helper()
	ticket, err := env.tickets.CreateTicket(context.Background(), creator, TicketCreateInput{
		DepartmentID: testDeptID,
		CategoryID:   testCatID,
		Subject:      "printer on fire",
		Description:  "smoke coming out of the tray",
	})
	require.NoError(t, err)
	return ticket
}

func (env *testEnv) inbox(t *testing.T, recipient *domain.Actor) []domain.Notification {
	t.Helper()
	rows, err := env.store.Notifications().ListByRecipient(context.Background(), recipient.ID, false, 100, 0)
	require.NoError(t, err)
	return rows
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var derr *apperrors.DomainError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, code, derr.Code)
}

package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// MemoryStore is an in-memory Store with the same conditional-update and
// atomic-increment semantics as the Postgres store. It backs tests and the
// no-DSN development fallback.
type MemoryStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	tickets       map[string]*domain.Ticket
	historyRows   map[string][]domain.HistoryEntry
	workLogs      map[string][]domain.WorkLogEntry
	notifications map[string]*domain.Notification
	actors        map[string]*domain.Actor
	departments   map[string]*domain.Department
	categories    map[string]*domain.Category
	projects      map[string]*domain.Project
	comments      map[string][]domain.Comment
	seq           int64
}

// NewMemoryStore builds an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets:       make(map[string]*domain.Ticket),
		historyRows:   make(map[string][]domain.HistoryEntry),
		workLogs:      make(map[string][]domain.WorkLogEntry),
		notifications: make(map[string]*domain.Notification),
		actors:        make(map[string]*domain.Actor),
		departments:   make(map[string]*domain.Department),
		categories:    make(map[string]*domain.Category),
		projects:      make(map[string]*domain.Project),
		comments:      make(map[string][]domain.Comment),
	}
}

func (s *MemoryStore) Tickets() TicketRepository             { return &memTickets{s} }
func (s *MemoryStore) History() HistoryRepository            { return &memHistory{s} }
func (s *MemoryStore) WorkLogs() WorkLogRepository           { return &memWorkLogs{s} }
func (s *MemoryStore) Notifications() NotificationRepository { return &memNotifications{s} }
func (s *MemoryStore) Actors() ActorRepository               { return &memActors{s} }
func (s *MemoryStore) Departments() DepartmentRepository     { return &memDepartments{s} }
func (s *MemoryStore) Categories() CategoryRepository        { return &memCategories{s} }
func (s *MemoryStore) Projects() ProjectRepository           { return &memProjects{s} }
func (s *MemoryStore) Comments() CommentRepository           { return &memComments{s} }

// WithinTx serializes transactions; operations inside fn act on the same
// store. Rollback on error is not simulated, which matches how the tests
// use it: a failing step is the last step of its transaction.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

func (s *MemoryStore) nextID() string {
	return uuid.NewString()
}

func (s *MemoryStore) now() time.Time {
	s.seq++
	// strictly increasing timestamps keep list ordering deterministic
	return time.Now().Add(time.Duration(s.seq) * time.Microsecond)
}

type memTickets struct{ s *MemoryStore }

func (m *memTickets) Create(ctx context.Context, ticket *domain.Ticket) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.tickets {
		if existing.Number == ticket.Number {
			return ErrDuplicateTicketNumber
		}
	}
	ticket.ID = m.s.nextID()
	ticket.CreatedAt = m.s.now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	m.s.tickets[ticket.ID] = &clone
	return nil
}

func (m *memTickets) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	ticket, ok := m.s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *ticket
	return &clone, nil
}

func (m *memTickets) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, ticket := range m.s.tickets {
		if ticket.Number == number {
			clone := *ticket
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memTickets) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var result []domain.Ticket
	for _, ticket := range m.s.tickets {
		if !ticketMatches(ticket, filter) {
			continue
		}
		result = append(result, *ticket)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func ticketMatches(t *domain.Ticket, f TicketFilter) bool {
	if f.CreatorID != nil && t.CreatorID != *f.CreatorID {
		return false
	}
	if f.DepartmentID != nil && t.DepartmentID != *f.DepartmentID {
		return false
	}
	if f.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *f.AssigneeID) {
		return false
	}
	if f.CategoryID != nil && t.CategoryID != *f.CategoryID {
		return false
	}
	if f.ProjectID != nil && (t.ProjectID == nil || *t.ProjectID != *f.ProjectID) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !containsPriority(f.Priorities, t.Priority) {
		return false
	}
	if f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && t.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*f.SearchTerm))
		if term != "" &&
			!strings.Contains(strings.ToLower(t.Subject), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) {
			return false
		}
	}
	return true
}

func containsStatus(list []domain.TicketStatus, v domain.TicketStatus) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, v domain.TicketPriority) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func (m *memTickets) UpdateStatus(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.tickets[ticket.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Status != expected {
		return ErrStaleStatus
	}
	stored.Status = ticket.Status
	stored.ResolvedAt = ticket.ResolvedAt
	stored.ClosedAt = ticket.ClosedAt
	stored.AssigneeID = ticket.AssigneeID
	stored.UpdatedAt = m.s.now()
	return nil
}

func (m *memTickets) SetAssignee(ctx context.Context, ticketID string, assigneeID *string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.tickets[ticketID]
	if !ok {
		return ErrNotFound
	}
	stored.AssigneeID = assigneeID
	stored.UpdatedAt = m.s.now()
	return nil
}

func (m *memTickets) UpdateRouting(ctx context.Context, ticketID, departmentID, categoryID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.tickets[ticketID]
	if !ok {
		return ErrNotFound
	}
	stored.DepartmentID = departmentID
	stored.CategoryID = categoryID
	stored.UpdatedAt = m.s.now()
	return nil
}

func (m *memTickets) AddActualHours(ctx context.Context, ticketID string, hours float64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.tickets[ticketID]
	if !ok {
		return ErrNotFound
	}
	stored.ActualHours += hours
	stored.UpdatedAt = m.s.now()
	return nil
}

func (m *memTickets) MaxSequenceForBucket(ctx context.Context, bucket string) (int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	max := 0
	prefix := bucket + "-"
	for _, ticket := range m.s.tickets {
		if !strings.HasPrefix(ticket.Number, prefix) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(ticket.Number, prefix))
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max, nil
}

func (m *memTickets) Delete(ctx context.Context, ticketID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.tickets[ticketID]; !ok {
		return ErrNotFound
	}
	delete(m.s.tickets, ticketID)
	delete(m.s.historyRows, ticketID)
	delete(m.s.workLogs, ticketID)
	delete(m.s.comments, ticketID)
	for id, n := range m.s.notifications {
		if n.TicketID != nil && *n.TicketID == ticketID {
			delete(m.s.notifications, id)
		}
	}
	return nil
}

type memHistory struct{ s *MemoryStore }

func (m *memHistory) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	entry.ID = m.s.nextID()
	entry.CreatedAt = m.s.now()
	m.s.historyRows[entry.TicketID] = append(m.s.historyRows[entry.TicketID], *entry)
	return nil
}

func (m *memHistory) ListByTicket(ctx context.Context, ticketID string) ([]domain.HistoryEntry, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	rows := m.s.historyRows[ticketID]
	result := make([]domain.HistoryEntry, len(rows))
	copy(result, rows)
	return result, nil
}

type memWorkLogs struct{ s *MemoryStore }

func (m *memWorkLogs) Create(ctx context.Context, entry *domain.WorkLogEntry) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	entry.ID = m.s.nextID()
	entry.CreatedAt = m.s.now()
	m.s.workLogs[entry.TicketID] = append(m.s.workLogs[entry.TicketID], *entry)
	return nil
}

func (m *memWorkLogs) ListByTicket(ctx context.Context, ticketID string) ([]domain.WorkLogEntry, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	rows := m.s.workLogs[ticketID]
	result := make([]domain.WorkLogEntry, len(rows))
	copy(result, rows)
	sort.Slice(result, func(i, j int) bool {
		if result[i].WorkDate.Equal(result[j].WorkDate) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].WorkDate.Before(result[j].WorkDate)
	})
	return result, nil
}

func (m *memWorkLogs) SumHoursByTicket(ctx context.Context, ticketID string) (float64, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var sum float64
	for _, entry := range m.s.workLogs[ticketID] {
		sum += entry.Hours
	}
	return sum, nil
}

type memNotifications struct{ s *MemoryStore }

func (m *memNotifications) Create(ctx context.Context, n *domain.Notification) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n.ID = m.s.nextID()
	n.CreatedAt = m.s.now()
	clone := *n
	m.s.notifications[n.ID] = &clone
	return nil
}

func (m *memNotifications) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var result []domain.Notification
	for _, n := range m.s.notifications {
		if n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		result = append(result, *n)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (m *memNotifications) MarkRead(ctx context.Context, id, recipientID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n, ok := m.s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return ErrNotFound
	}
	n.Read = true
	return nil
}

func (m *memNotifications) Delete(ctx context.Context, id, recipientID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	n, ok := m.s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return ErrNotFound
	}
	delete(m.s.notifications, id)
	return nil
}

type memActors struct{ s *MemoryStore }

func (m *memActors) Create(ctx context.Context, actor *domain.Actor) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.actors {
		if existing.Email == actor.Email {
			return fmt.Errorf("email already registered: %s", actor.Email)
		}
	}
	actor.ID = m.s.nextID()
	actor.CreatedAt = m.s.now()
	actor.UpdatedAt = actor.CreatedAt
	clone := *actor
	m.s.actors[actor.ID] = &clone
	return nil
}

func (m *memActors) Update(ctx context.Context, actor *domain.Actor) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.actors[actor.ID]; !ok {
		return ErrNotFound
	}
	actor.UpdatedAt = m.s.now()
	clone := *actor
	m.s.actors[actor.ID] = &clone
	return nil
}

func (m *memActors) GetByID(ctx context.Context, id string) (*domain.Actor, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	actor, ok := m.s.actors[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *actor
	return &clone, nil
}

func (m *memActors) GetByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, actor := range m.s.actors {
		if actor.Email == email {
			clone := *actor
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memActors) List(ctx context.Context, filter ActorFilter) ([]domain.Actor, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var result []domain.Actor
	for _, actor := range m.s.actors {
		if filter.Role != nil && actor.Role != *filter.Role {
			continue
		}
		if filter.DepartmentID != nil && (actor.DepartmentID == nil || *actor.DepartmentID != *filter.DepartmentID) {
			continue
		}
		if filter.Active != nil && actor.Active != *filter.Active {
			continue
		}
		result = append(result, *actor)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type memDepartments struct{ s *MemoryStore }

// AddDepartment seeds a department; exported through the concrete type for
// bootstrap and tests.
func (s *MemoryStore) AddDepartment(dept domain.Department) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dept.ID == "" {
		dept.ID = s.nextID()
	}
	clone := dept
	s.departments[dept.ID] = &clone
}

// AddCategory seeds a category.
func (s *MemoryStore) AddCategory(cat domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cat.ID == "" {
		cat.ID = s.nextID()
	}
	clone := cat
	s.categories[cat.ID] = &clone
}

// AddProject seeds a project.
func (s *MemoryStore) AddProject(project domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if project.ID == "" {
		project.ID = s.nextID()
	}
	clone := project
	s.projects[project.ID] = &clone
}

func (m *memDepartments) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	dept, ok := m.s.departments[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *dept
	return &clone, nil
}

func (m *memDepartments) List(ctx context.Context) ([]domain.Department, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var result []domain.Department
	for _, dept := range m.s.departments {
		result = append(result, *dept)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type memCategories struct{ s *MemoryStore }

func (m *memCategories) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	cat, ok := m.s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *cat
	return &clone, nil
}

func (m *memCategories) ListByDepartment(ctx context.Context, departmentID string) ([]domain.Category, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var result []domain.Category
	for _, cat := range m.s.categories {
		if cat.DepartmentID == departmentID {
			result = append(result, *cat)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type memProjects struct{ s *MemoryStore }

func (m *memProjects) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	project, ok := m.s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *project
	return &clone, nil
}

type memComments struct{ s *MemoryStore }

func (m *memComments) Create(ctx context.Context, comment *domain.Comment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	comment.ID = m.s.nextID()
	comment.CreatedAt = m.s.now()
	m.s.comments[comment.TicketID] = append(m.s.comments[comment.TicketID], *comment)
	return nil
}

func (m *memComments) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	rows := m.s.comments[ticketID]
	result := make([]domain.Comment, len(rows))
	copy(result, rows)
	return result, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresStore bundles repositories over a shared DB handle. Outside a
// transaction the handle is the pool; inside WithinTx it is the pgx.Tx.
type postgresStore struct {
	pool *pgxpool.Pool
	db   DB

	tickets       TicketRepository
	history       HistoryRepository
	workLogs      WorkLogRepository
	notifications NotificationRepository
	actors        ActorRepository
	departments   DepartmentRepository
	categories    CategoryRepository
	projects      ProjectRepository
	comments      CommentRepository
}

// NewPostgresStore builds a Store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return newPostgresStore(pool, pool)
}

func newPostgresStore(pool *pgxpool.Pool, db DB) *postgresStore {
	return &postgresStore{
		pool:          pool,
		db:            db,
		tickets:       NewTicketRepository(db),
		history:       NewHistoryRepository(db),
		workLogs:      NewWorkLogRepository(db),
		notifications: NewNotificationRepository(db),
		actors:        NewActorRepository(db),
		departments:   NewDepartmentRepository(db),
		categories:    NewCategoryRepository(db),
		projects:      NewProjectRepository(db),
		comments:      NewCommentRepository(db),
	}
}

func (s *postgresStore) Tickets() TicketRepository              { return s.tickets }
func (s *postgresStore) History() HistoryRepository             { return s.history }
func (s *postgresStore) WorkLogs() WorkLogRepository            { return s.workLogs }
func (s *postgresStore) Notifications() NotificationRepository  { return s.notifications }
func (s *postgresStore) Actors() ActorRepository                { return s.actors }
func (s *postgresStore) Departments() DepartmentRepository      { return s.departments }
func (s *postgresStore) Categories() CategoryRepository         { return s.categories }
func (s *postgresStore) Projects() ProjectRepository            { return s.projects }
func (s *postgresStore) Comments() CommentRepository            { return s.comments }

// WithinTx runs fn with a Store bound to a single transaction. A nested
// call reuses the transaction already in flight.
func (s *postgresStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if _, alreadyTx := s.db.(pgx.Tx); alreadyTx {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := newPostgresStore(s.pool, tx)
	if err := fn(txStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

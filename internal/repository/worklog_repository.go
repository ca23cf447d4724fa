package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

type workLogRepository struct {
	db DB
}

// NewWorkLogRepository builds the work-log repository.
func NewWorkLogRepository(db DB) WorkLogRepository {
	return &workLogRepository{db: db}
}

func (r *workLogRepository) Create(ctx context.Context, entry *domain.WorkLogEntry) error {
	const query = `
        INSERT INTO work_logs (ticket_id, agent_id, hours, description, work_date)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.TicketID,
		entry.AgentID,
		entry.Hours,
		entry.Description,
		entry.WorkDate,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *workLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.WorkLogEntry, error) {
	const query = `
        SELECT id, ticket_id, agent_id, hours, description, work_date, created_at
        FROM work_logs WHERE ticket_id=$1 ORDER BY work_date ASC, created_at ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkLogEntry
	for rows.Next() {
		var entry domain.WorkLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.AgentID,
			&entry.Hours,
			&entry.Description,
			&entry.WorkDate,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *workLogRepository) SumHoursByTicket(ctx context.Context, ticketID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(hours), 0) FROM work_logs WHERE ticket_id=$1`
	var sum float64
	if err := r.db.QueryRow(ctx, query, ticketID).Scan(&sum); err != nil {
		return 0, err
	}
	return sum, nil
}

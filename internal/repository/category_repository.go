package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

type categoryRepository struct {
	db DB
}

// NewCategoryRepository returns a Postgres-backed implementation.
func NewCategoryRepository(db DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `
        SELECT id, department_id, name, created_at, updated_at
        FROM categories WHERE id=$1`
	var cat domain.Category
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&cat.ID,
		&cat.DepartmentID,
		&cat.Name,
		&cat.CreatedAt,
		&cat.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cat, nil
}

func (r *categoryRepository) ListByDepartment(ctx context.Context, departmentID string) ([]domain.Category, error) {
	const query = `
        SELECT id, department_id, name, created_at, updated_at
        FROM categories WHERE department_id=$1 ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var cat domain.Category
		if err := rows.Scan(
			&cat.ID,
			&cat.DepartmentID,
			&cat.Name,
			&cat.CreatedAt,
			&cat.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, cat)
	}
	return result, rows.Err()
}

package domain

import "time"

// Department represents a high-level organizational unit. Tickets belong
// to exactly one department, which determines their default authorization
// scope.
type Department struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Category classifies tickets within a department. A ticket's category
// must belong to the ticket's department.
type Category struct {
	ID           string
	DepartmentID string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Project is an optional grouping a ticket may link to.
type Project struct {
	ID        string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

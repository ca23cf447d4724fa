package domain

import "time"

// Role enumerates the authorization roles an actor may hold.
type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleDepartmentHead Role = "DEPARTMENT_HEAD"
	RoleAgent          Role = "AGENT"
	RoleClient         Role = "CLIENT"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDepartmentHead, RoleAgent, RoleClient:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to internal personnel.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleDepartmentHead || r == RoleAgent
}

// RequiresDepartment reports whether the role must carry a department.
func (r Role) RequiresDepartment() bool {
	return r == RoleDepartmentHead || r == RoleAgent
}

// Capability names a single permitted action.
type Capability string

const (
	CapTicketsCreate         Capability = "tickets.create"
	CapTicketsViewAll        Capability = "tickets.view_all"
	CapTicketsAssign         Capability = "tickets.assign"
	CapTicketsEditDepartment Capability = "tickets.edit_department"
	CapTicketsComment        Capability = "tickets.comment"
	CapTicketsReopen         Capability = "tickets.reopen"
	CapTicketsDelete         Capability = "tickets.delete"
	CapWorkLogRecord         Capability = "worklog.record"
	CapUsersManage           Capability = "users.manage"
)

// Actor is an authenticated identity with exactly one role.
type Actor struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	DepartmentID *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package authz

import "github.com/spec-kit/helpdesk-core/internal/domain"

// TicketScope is the record-level predicate restricting which tickets an
// actor may list and act on. Exactly one constraint field is set unless
// All is true.
type TicketScope struct {
	// All grants unconstrained access (ADMIN).
	All bool
	// DepartmentID restricts to tickets of the department (DEPARTMENT_HEAD).
	DepartmentID *string
	// AssigneeID restricts to tickets assigned to the actor (AGENT).
	AssigneeID *string
	// CreatorID restricts to tickets created by the actor (CLIENT).
	CreatorID *string
	// none denies everything (deactivated or unknown actors).
	none bool
}

// ScopeFor resolves the ticket scope for an actor.
func ScopeFor(actor *domain.Actor) TicketScope {
	if actor == nil || !actor.Active {
		return TicketScope{none: true}
	}
	switch actor.Role {
	case domain.RoleAdmin:
		return TicketScope{All: true}
	case domain.RoleDepartmentHead:
		if actor.DepartmentID == nil {
			return TicketScope{none: true}
		}
		return TicketScope{DepartmentID: actor.DepartmentID}
	case domain.RoleAgent:
		id := actor.ID
		return TicketScope{AssigneeID: &id}
	case domain.RoleClient:
		id := actor.ID
		return TicketScope{CreatorID: &id}
	}
	return TicketScope{none: true}
}

// Matches evaluates the scope against a concrete ticket.
func (s TicketScope) Matches(t *domain.Ticket) bool {
	if t == nil || s.none {
		return false
	}
	if s.All {
		return true
	}
	if s.DepartmentID != nil {
		return t.DepartmentID == *s.DepartmentID
	}
	if s.AssigneeID != nil {
		return t.AssigneeID != nil && *t.AssigneeID == *s.AssigneeID
	}
	if s.CreatorID != nil {
		return t.CreatorID == *s.CreatorID
	}
	return false
}

// Denied reports whether the scope rejects every ticket.
func (s TicketScope) Denied() bool {
	return s.none
}

// CanAccessTicket is the single-record form of ScopeFor: the two are
// consistent by construction.
func CanAccessTicket(actor *domain.Actor, t *domain.Ticket) bool {
	return ScopeFor(actor).Matches(t)
}

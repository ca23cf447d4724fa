// Package authz centralizes every authorization decision: the role to
// capability table and the ticket scope predicate. Handlers and services
// consult this package instead of branching on roles.
package authz

import "github.com/spec-kit/helpdesk-core/internal/domain"

// CapabilitySet is the set of actions a role grants.
type CapabilitySet map[domain.Capability]struct{}

// Has reports membership.
func (s CapabilitySet) Has(cap domain.Capability) bool {
	_, ok := s[cap]
	return ok
}

// roleCapabilities is the single source of truth for role permissions.
var roleCapabilities = map[domain.Role]CapabilitySet{
	domain.RoleAdmin: makeSet(
		domain.CapTicketsCreate,
		domain.CapTicketsViewAll,
		domain.CapTicketsAssign,
		domain.CapTicketsEditDepartment,
		domain.CapTicketsComment,
		domain.CapTicketsReopen,
		domain.CapTicketsDelete,
		domain.CapWorkLogRecord,
		domain.CapUsersManage,
	),
	domain.RoleDepartmentHead: makeSet(
		domain.CapTicketsCreate,
		domain.CapTicketsAssign,
		domain.CapTicketsEditDepartment,
		domain.CapTicketsComment,
		domain.CapTicketsReopen,
		domain.CapWorkLogRecord,
	),
	domain.RoleAgent: makeSet(
		domain.CapTicketsCreate,
		domain.CapTicketsComment,
		domain.CapWorkLogRecord,
	),
	domain.RoleClient: makeSet(
		domain.CapTicketsCreate,
		domain.CapTicketsComment,
	),
}

// CapabilitiesOf returns the capability set granted by a role. Unknown
// roles get an empty set.
func CapabilitiesOf(role domain.Role) CapabilitySet {
	return roleCapabilities[role]
}

// Can reports whether the actor holds the capability. Deactivated actors
// hold no capabilities.
func Can(actor *domain.Actor, cap domain.Capability) bool {
	if actor == nil || !actor.Active {
		return false
	}
	return CapabilitiesOf(actor.Role).Has(cap)
}

func makeSet(caps ...domain.Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

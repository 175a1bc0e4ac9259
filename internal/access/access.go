// Package access holds the pure authorization predicates for tickets.
// Every predicate is an exhaustive match over the caller's role; the
// orchestrator calls these before any read or mutation and turns a
// false result into a typed access-denied failure.
package access

import "github.com/supportdesk/ticket-router/internal/domain"

// CanView reports whether the caller may read the ticket.
// ADMIN sees everything. AGENT sees tickets assigned to them plus
// public tickets. USER sees tickets they created plus public tickets.
func CanView(caller domain.User, ticket domain.Ticket) bool {
	switch caller.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleAgent:
		return ticket.IsAssignedTo(caller.ID) || ticket.IsPublic
	case domain.RoleUser:
		return ticket.CreatedByID == caller.ID || ticket.IsPublic
	default:
		return false
	}
}

// CanMutateStatusOrPriority reports whether the caller may change the
// ticket's status or priority. Only ADMIN and the assigned agent
// qualify; the ticket's own creator may not.
func CanMutateStatusOrPriority(caller domain.User, ticket domain.Ticket) bool {
	switch caller.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleAgent:
		return ticket.IsAssignedTo(caller.ID)
	default:
		return false
	}
}

// CanReassign reports whether the caller may change the assignee.
func CanReassign(caller domain.User) bool {
	return caller.Role == domain.RoleAdmin
}

// CanDelete reports whether the caller may delete the ticket.
func CanDelete(caller domain.User) bool {
	return caller.Role == domain.RoleAdmin
}

// CanReply reports whether the caller may append a reply. Any caller
// who can view the ticket may reply; reply creation is not gated
// further.
func CanReply(caller domain.User, ticket domain.Ticket) bool {
	return CanView(caller, ticket)
}

// Package query builds the role-scoped, filter-constrained ticket
// listing constraint set.
package query

import (
	"github.com/supportdesk/ticket-router/internal/domain"
	"github.com/supportdesk/ticket-router/internal/repository"
)

// Filters carries the optional listing filters a caller may supply.
// Whether each one applies depends on the caller's role; see Scope.
type Filters struct {
	Status        *domain.TicketStatus
	Priority      *domain.TicketPriority
	ProblemTypeID *string
	IsPublic      *bool
}

// Scope returns the data-source filter for the caller's role.
//
// ADMIN lists all tickets with every supplied filter AND-ed. AGENT
// lists tickets assigned to them; status and priority apply, while
// problemTypeId and isPublic are accepted but intentionally not
// applied. USER lists tickets they created; status, priority and
// problemTypeId apply, while isPublic is accepted but not applied.
// The per-role asymmetry is a documented contract, not an oversight.
func Scope(caller domain.User, f Filters) repository.TicketFilter {
	switch caller.Role {
	case domain.RoleAdmin:
		return repository.TicketFilter{
			Status:        f.Status,
			Priority:      f.Priority,
			ProblemTypeID: f.ProblemTypeID,
			IsPublic:      f.IsPublic,
		}
	case domain.RoleAgent:
		assignee := caller.ID
		return repository.TicketFilter{
			AssignedToID: &assignee,
			Status:       f.Status,
			Priority:     f.Priority,
		}
	default:
		creator := caller.ID
		return repository.TicketFilter{
			CreatedByID:   &creator,
			Status:        f.Status,
			Priority:      f.Priority,
			ProblemTypeID: f.ProblemTypeID,
		}
	}
}

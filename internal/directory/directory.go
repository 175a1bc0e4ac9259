// Package directory provides read-only lookups over agents: who is
// qualified for a problem type, and how many active tickets an agent
// carries. It has no side effects.
package directory

import (
	"context"

	"github.com/supportdesk/ticket-router/internal/domain"
	"github.com/supportdesk/ticket-router/internal/repository"
)

// Directory answers qualification and load questions from the store.
type Directory struct {
	users   repository.UserRepository
	tickets repository.TicketRepository
}

// New constructs a Directory over the given repositories.
func New(users repository.UserRepository, tickets repository.TicketRepository) *Directory {
	return &Directory{users: users, tickets: tickets}
}

// QualifiedAgents returns all users with role AGENT whose
// qualification set contains the problem type. May be empty.
func (d *Directory) QualifiedAgents(ctx context.Context, problemTypeID string) ([]domain.User, error) {
	return d.users.ListAgentsByProblemType(ctx, problemTypeID)
}

// ActiveLoad returns the count of tickets assigned to the agent whose
// status is not CLOSED.
func (d *Directory) ActiveLoad(ctx context.Context, agentID string) (int, error) {
	return d.tickets.CountActiveByAssignee(ctx, agentID)
}

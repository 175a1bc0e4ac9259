// Package dispatch selects an assignee for newly created tickets: the
// qualified agent with the smallest active load wins, ties broken by
// lexicographically smallest agent id. The load read and the
// assignment write run inside a critical section keyed by problem
// type, so concurrent creations for one problem type cannot both pick
// the same minimally loaded agent.
package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/supportdesk/ticket-router/internal/domain"
	"github.com/supportdesk/ticket-router/internal/observability"
)

// Directory answers qualification and load lookups.
type Directory interface {
	QualifiedAgents(ctx context.Context, problemTypeID string) ([]domain.User, error)
	ActiveLoad(ctx context.Context, agentID string) (int, error)
}

// TicketWriter persists the assignment.
type TicketWriter interface {
	Update(ctx context.Context, ticket *domain.Ticket) error
}

// Engine assigns newly created tickets to agents.
type Engine struct {
	directory Directory
	tickets   TicketWriter
	locks     Locker
	logger    *zap.Logger
}

// NewEngine constructs the engine.
func NewEngine(directory Directory, tickets TicketWriter, locks Locker, logger *zap.Logger) *Engine {
	return &Engine{directory: directory, tickets: tickets, locks: locks, logger: logger}
}

// Dispatch selects an assignee for the ticket and persists the
// assignment exactly once. Zero qualified agents is a valid outcome:
// the ticket stays unassigned with status OPEN, pending manual
// assignment.
func (e *Engine) Dispatch(ctx context.Context, ticket *domain.Ticket) error {
	release, err := e.locks.Acquire(ctx, ticket.ProblemTypeID)
	if err != nil {
		return err
	}
	defer release()

	agents, err := e.directory.QualifiedAgents(ctx, ticket.ProblemTypeID)
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		observability.DispatchOutcomesTotal.WithLabelValues("unassigned").Inc()
		e.logger.Info("no qualified agent; ticket left unassigned",
			zap.String("ticket_id", ticket.ID),
			zap.String("problem_type_id", ticket.ProblemTypeID))
		return nil
	}

	selected, err := e.pickAgent(ctx, agents)
	if err != nil {
		return err
	}

	ticket.AssignedToID = &selected.ID
	if err := e.tickets.Update(ctx, ticket); err != nil {
		return err
	}

	observability.DispatchOutcomesTotal.WithLabelValues("assigned").Inc()
	e.logger.Info("ticket dispatched",
		zap.String("ticket_id", ticket.ID),
		zap.String("agent_id", selected.ID))
	return nil
}

// pickAgent returns the agent with the smallest active load. Ties go
// to the lexicographically smallest agent id, a deterministic rule
// callers can rely on.
func (e *Engine) pickAgent(ctx context.Context, agents []domain.User) (*domain.User, error) {
	var selected *domain.User
	var selectedLoad int
	for i := range agents {
		load, err := e.directory.ActiveLoad(ctx, agents[i].ID)
		if err != nil {
			return nil, err
		}
		if selected == nil || load < selectedLoad ||
			(load == selectedLoad && agents[i].ID < selected.ID) {
			selected = &agents[i]
			selectedLoad = load
		}
	}
	return selected, nil
}

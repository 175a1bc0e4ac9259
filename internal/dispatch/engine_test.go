package dispatch

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/supportdesk/ticket-router/internal/domain"
)

type stubDirectory struct {
	agents []domain.User
	loads  map[string]int
}

func (d *stubDirectory) QualifiedAgents(ctx context.Context, problemTypeID string) ([]domain.User, error) {
	return d.agents, nil
}

func (d *stubDirectory) ActiveLoad(ctx context.Context, agentID string) (int, error) {
	return d.loads[agentID], nil
}

type stubWriter struct {
	updated []domain.Ticket
}

func (w *stubWriter) Update(ctx context.Context, ticket *domain.Ticket) error {
	w.updated = append(w.updated, *ticket)
	return nil
}

func newTestEngine(dir *stubDirectory, writer *stubWriter) *Engine {
	return NewEngine(dir, writer, NewLocalLocker(), zap.NewNop())
}

func openTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:            "ticket-1",
		Status:        domain.TicketStatusOpen,
		ProblemTypeID: "pt-1",
	}
}

func TestDispatchPicksLeastLoadedAgent(t *testing.T) {
	dir := &stubDirectory{
		agents: []domain.User{
			{ID: "agent-a", Role: domain.RoleAgent},
			{ID: "agent-b", Role: domain.RoleAgent},
		},
		loads: map[string]int{"agent-a": 2, "agent-b": 0},
	}
	writer := &stubWriter{}
	ticket := openTicket()

	if err := newTestEngine(dir, writer).Dispatch(context.Background(), ticket); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if ticket.AssignedToID == nil || *ticket.AssignedToID != "agent-b" {
		t.Fatalf("assigned to %v, want agent-b", ticket.AssignedToID)
	}
	if len(writer.updated) != 1 {
		t.Fatalf("persisted %d updates, want 1", len(writer.updated))
	}
}

func TestDispatchBreaksTiesBySmallestAgentID(t *testing.T) {
	dir := &stubDirectory{
		agents: []domain.User{
			{ID: "agent-c", Role: domain.RoleAgent},
			{ID: "agent-a", Role: domain.RoleAgent},
			{ID: "agent-b", Role: domain.RoleAgent},
		},
		loads: map[string]int{"agent-a": 1, "agent-b": 1, "agent-c": 1},
	}
	writer := &stubWriter{}
	ticket := openTicket()

	if err := newTestEngine(dir, writer).Dispatch(context.Background(), ticket); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if ticket.AssignedToID == nil || *ticket.AssignedToID != "agent-a" {
		t.Fatalf("assigned to %v, want agent-a", ticket.AssignedToID)
	}
}

func TestDispatchWithoutQualifiedAgentsLeavesTicketUnassigned(t *testing.T) {
	dir := &stubDirectory{loads: map[string]int{}}
	writer := &stubWriter{}
	ticket := openTicket()

	if err := newTestEngine(dir, writer).Dispatch(context.Background(), ticket); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if ticket.AssignedToID != nil {
		t.Fatalf("ticket assigned to %q, want unassigned", *ticket.AssignedToID)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %s, want OPEN", ticket.Status)
	}
	if len(writer.updated) != 0 {
		t.Fatal("no update must be persisted when nobody qualifies")
	}
}

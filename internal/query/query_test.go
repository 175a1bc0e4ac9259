package query

import (
	"testing"

	"github.com/supportdesk/ticket-router/internal/domain"
)

func allFilters() Filters {
	status := domain.TicketStatusOpen
	priority := domain.TicketPriorityHigh
	problemType := "pt-1"
	public := true
	return Filters{
		Status:        &status,
		Priority:      &priority,
		ProblemTypeID: &problemType,
		IsPublic:      &public,
	}
}

func TestScopeAdminAppliesEveryFilter(t *testing.T) {
	admin := domain.User{ID: "admin-1", Role: domain.RoleAdmin}
	got := Scope(admin, allFilters())

	if got.CreatedByID != nil || got.AssignedToID != nil {
		t.Fatal("admin scope must not constrain creator or assignee")
	}
	if got.Status == nil || *got.Status != domain.TicketStatusOpen {
		t.Error("status filter dropped")
	}
	if got.Priority == nil || *got.Priority != domain.TicketPriorityHigh {
		t.Error("priority filter dropped")
	}
	if got.ProblemTypeID == nil || *got.ProblemTypeID != "pt-1" {
		t.Error("problem type filter dropped")
	}
	if got.IsPublic == nil || !*got.IsPublic {
		t.Error("is_public filter dropped")
	}
}

func TestScopeAgentConstrainsToAssignments(t *testing.T) {
	agent := domain.User{ID: "agent-1", Role: domain.RoleAgent}
	got := Scope(agent, allFilters())

	if got.AssignedToID == nil || *got.AssignedToID != agent.ID {
		t.Fatal("agent scope must constrain to the agent's assignments")
	}
	if got.CreatedByID != nil {
		t.Error("agent scope must not constrain by creator")
	}
	if got.Status == nil || got.Priority == nil {
		t.Error("status and priority filters must survive for agents")
	}
	// problem type and visibility filters are accepted but ignored for
	// agents; the scope contract says so.
	if got.ProblemTypeID != nil {
		t.Error("problem type filter must be ignored for agents")
	}
	if got.IsPublic != nil {
		t.Error("is_public filter must be ignored for agents")
	}
}

func TestScopeUserConstrainsToOwnTickets(t *testing.T) {
	user := domain.User{ID: "user-1", Role: domain.RoleUser}
	got := Scope(user, allFilters())

	if got.CreatedByID == nil || *got.CreatedByID != user.ID {
		t.Fatal("user scope must constrain to tickets the user created")
	}
	if got.AssignedToID != nil {
		t.Error("user scope must not constrain by assignee")
	}
	if got.Status == nil || got.Priority == nil || got.ProblemTypeID == nil {
		t.Error("status, priority and problem type filters must survive for users")
	}
	if got.IsPublic != nil {
		t.Error("is_public filter must be ignored for users")
	}
}

func TestScopeEmptyFiltersStayEmpty(t *testing.T) {
	user := domain.User{ID: "user-1", Role: domain.RoleUser}
	got := Scope(user, Filters{})

	if got.Status != nil || got.Priority != nil || got.ProblemTypeID != nil || got.IsPublic != nil {
		t.Error("unset filters must stay unset")
	}
}

package service

import (
	"context"
	"testing"

	"github.com/supportdesk/ticket-router/internal/config"
	"github.com/supportdesk/ticket-router/internal/domain"
)

func newUserFixture() (*UserService, *memUserRepo) {
	users := newMemUserRepo()
	problemTypes := &memProblemTypeRepo{types: map[string]domain.ProblemType{
		"pt-1": {ID: "pt-1", Name: "TECHNICAL"},
	}}
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            4,
	}}
	return NewUserService(cfg, UserDependencies{
		UserRepo:        users,
		ProblemTypeRepo: problemTypes,
	}), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	user, token, _, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Errorf("role = %s, want USER", user.Role)
	}
	if token == "" {
		t.Error("register must issue a token")
	}

	_, _, _, err = svc.Register(ctx, "Alice Again", "alice@example.com", "other-pass")
	assertCode(t, err, "CONFLICT")

	logged, _, _, err := svc.Login(ctx, "alice@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("logged in as %s, want %s", logged.ID, user.ID)
	}

	_, _, _, err = svc.Login(ctx, "alice@example.com", "wrong")
	assertCode(t, err, "UNAUTHORIZED")

	_, _, _, err = svc.Login(ctx, "nobody@example.com", "whatever")
	assertCode(t, err, "UNAUTHORIZED")
}

func TestCreateAgentValidatesQualifications(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	_, err := svc.CreateAgent(ctx, CreateAgentInput{
		Name:             "Bob",
		Email:            "bob@example.com",
		Password:         "agent-pass",
		QualificationIDs: []string{"pt-unknown"},
	})
	assertCode(t, err, "NOT_FOUND")

	agent, err := svc.CreateAgent(ctx, CreateAgentInput{
		Name:             "Bob",
		Email:            "bob@example.com",
		Password:         "agent-pass",
		QualificationIDs: []string{"pt-1"},
	})
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	if agent.Role != domain.RoleAgent {
		t.Errorf("role = %s, want AGENT", agent.Role)
	}
	if !agent.IsQualifiedFor("pt-1") {
		t.Error("agent must carry its qualification")
	}
}

func TestGetAgentRejectsOtherRoles(t *testing.T) {
	svc, users := newUserFixture()
	ctx := context.Background()

	users.users["user-9"] = domain.User{ID: "user-9", Role: domain.RoleUser}

	_, err := svc.GetAgent(ctx, "user-9")
	assertCode(t, err, "INVALID_ROLE")

	_, err = svc.GetAgent(ctx, "missing")
	assertCode(t, err, "NOT_FOUND")
}

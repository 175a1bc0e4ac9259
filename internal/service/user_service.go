package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/supportdesk/ticket-router/internal/auth"
	"github.com/supportdesk/ticket-router/internal/config"
	"github.com/supportdesk/ticket-router/internal/domain"
	"github.com/supportdesk/ticket-router/internal/repository"
	apperrors "github.com/supportdesk/ticket-router/pkg/util"
)

// UserService coordinates registration, login and agent management.
type UserService struct {
	users        repository.UserRepository
	problemTypes repository.ProblemTypeRepository
	tokenMgr     *auth.TokenManager
	bcryptCost   int
}

// UserDependencies encapsulates repo requirements for the user service.
type UserDependencies struct {
	UserRepo        repository.UserRepository
	ProblemTypeRepo repository.ProblemTypeRepository
}

// CreateAgentInput describes agent creation payload.
type CreateAgentInput struct {
	Name             string
	Email            string
	Password         string
	QualificationIDs []string
}

// NewUserService builds the service.
func NewUserService(cfg config.Config, deps UserDependencies) *UserService {
	return &UserService{
		users:        deps.UserRepo,
		problemTypes: deps.ProblemTypeRepo,
		tokenMgr:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:   cfg.Auth.BcryptCost,
	}
}

// Register creates a new end-user account with role USER.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*domain.User, string, time.Time, error) {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if exists {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// Login authenticates a user of any role.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// CreateAgent creates an AGENT account with the given qualification
// set. Every qualification id must resolve to a known problem type.
func (s *UserService) CreateAgent(ctx context.Context, input CreateAgentInput) (*domain.User, error) {
	exists, err := s.users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if exists {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
	}

	for _, problemTypeID := range input.QualificationIDs {
		if _, err := s.problemTypes.GetByID(ctx, problemTypeID); err != nil {
			return nil, apperrors.NotFoundFromStore(err, "problem type", map[string]any{"problem_type_id": problemTypeID})
		}
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	agent := &domain.User{
		Name:             input.Name,
		Email:            input.Email,
		PasswordHash:     hash,
		Role:             domain.RoleAgent,
		QualificationIDs: input.QualificationIDs,
	}
	if err := s.users.Create(ctx, agent); err != nil {
		return nil, apperrors.MapError(err)
	}
	return agent, nil
}

// ListAgents returns all users with role AGENT.
func (s *UserService) ListAgents(ctx context.Context) ([]domain.User, error) {
	agents, err := s.users.ListByRole(ctx, domain.RoleAgent)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return agents, nil
}

// GetAgent returns the agent with the given id; a user of any other
// role yields an invalid-role failure.
func (s *UserService) GetAgent(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundFromStore(err, "agent", map[string]any{"agent_id": id})
	}
	if user.Role != domain.RoleAgent {
		return nil, apperrors.NewInvalidRole("user is not an agent", map[string]any{"user_id": id})
	}
	return user, nil
}

// GetByID returns a user by id.
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundFromStore(err, "user", map[string]any{"user_id": id})
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *UserService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

package dto

import (
	"time"

	"github.com/supportdesk/ticket-router/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=150"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries an issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the outward user shape.
type UserResponse struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// AgentResponse extends UserResponse with the qualification set.
type AgentResponse struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Email            string      `json:"email"`
	Role             domain.Role `json:"role"`
	QualificationIDs []string    `json:"qualification_ids"`
}

// CreateAgentRequest payload.
type CreateAgentRequest struct {
	Name             string   `json:"name" validate:"required,max=100"`
	Email            string   `json:"email" validate:"required,email,max=150"`
	Password         string   `json:"password" validate:"required,min=8"`
	QualificationIDs []string `json:"qualification_ids" validate:"required,min=1"`
}

// UserView maps a domain user.
func UserView(user *domain.User) UserResponse {
	return UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

// AgentView maps a domain agent including qualifications.
func AgentView(agent *domain.User) AgentResponse {
	quals := agent.QualificationIDs
	if quals == nil {
		quals = []string{}
	}
	return AgentResponse{
		ID:               agent.ID,
		Name:             agent.Name,
		Email:            agent.Email,
		Role:             agent.Role,
		QualificationIDs: quals,
	}
}

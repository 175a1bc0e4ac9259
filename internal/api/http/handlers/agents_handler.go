package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticket-router/internal/api/dto"
	"github.com/supportdesk/ticket-router/internal/service"
	apperrors "github.com/supportdesk/ticket-router/pkg/util"
)

// AgentsHandler manages the agent roster endpoints.
type AgentsHandler struct {
	users *service.UserService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(users *service.UserService) *AgentsHandler {
	return &AgentsHandler{users: users}
}

// CreateAgent POST /api/agents.
func (h *AgentsHandler) CreateAgent(c *fiber.Ctx) error {
	var req dto.CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	agent, err := h.users.CreateAgent(c.UserContext(), service.CreateAgentInput{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		QualificationIDs: req.QualificationIDs,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.AgentView(agent)})
}

// ListAgents GET /api/agents.
func (h *AgentsHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.users.ListAgents(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.AgentResponse, 0, len(agents))
	for i := range agents {
		items = append(items, dto.AgentView(&agents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetAgent GET /api/agents/:id.
func (h *AgentsHandler) GetAgent(c *fiber.Ctx) error {
	agent, err := h.users.GetAgent(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AgentView(agent)})
}

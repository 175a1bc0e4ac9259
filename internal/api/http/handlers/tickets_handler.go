package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticket-router/internal/api/dto"
	"github.com/supportdesk/ticket-router/internal/auth"
	"github.com/supportdesk/ticket-router/internal/domain"
	"github.com/supportdesk/ticket-router/internal/query"
	"github.com/supportdesk/ticket-router/internal/service"
	apperrors "github.com/supportdesk/ticket-router/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	detail, err := h.tickets.Create(c.UserContext(), *caller, service.TicketCreateInput{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		ProblemTypeID: req.ProblemTypeID,
		IsPublic:      req.IsPublic,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TicketView(detail)})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filters, err := parseTicketFilters(c)
	if err != nil {
		return err
	}
	details, err := h.tickets.List(c.UserContext(), *caller, filters)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(details))
	for i := range details {
		items = append(items, dto.TicketView(&details[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	detail, err := h.tickets.Get(c.UserContext(), *caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketView(detail)})
}

// UpdateTicket PUT /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	if req.Status == nil && req.Priority == nil {
		return apperrors.NewValidationError("at least one of status, priority required", nil)
	}

	detail, err := h.tickets.Update(c.UserContext(), *caller, c.Params("id"), service.TicketUpdateInput{
		Status:   req.Status,
		Priority: req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketView(detail)})
}

// AssignTicket PUT /api/tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	detail, err := h.tickets.Assign(c.UserContext(), *caller, c.Params("id"), req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketView(detail)})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.tickets.Delete(c.UserContext(), *caller, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddReply POST /api/tickets/:id/replies.
func (h *TicketsHandler) AddReply(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	reply, err := h.tickets.AddReply(c.UserContext(), *caller, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ReplyView(reply)})
}

// ListReplies GET /api/tickets/:id/replies.
func (h *TicketsHandler) ListReplies(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	replies, err := h.tickets.ListReplies(c.UserContext(), *caller, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ReplyResponse, 0, len(replies))
	for i := range replies {
		items = append(items, dto.ReplyView(&replies[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// parseTicketFilters reads the optional listing filters from the query
// string. Unknown or malformed values are rejected up front so the
// per-role scoping only ever sees valid filters.
func parseTicketFilters(c *fiber.Ctx) (query.Filters, error) {
	var filters query.Filters
	if raw := c.Query("status"); raw != "" {
		status := domain.TicketStatus(raw)
		if !status.Valid() {
			return filters, apperrors.NewValidationError("invalid status filter", map[string]any{"status": raw})
		}
		filters.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority := domain.TicketPriority(raw)
		if !priority.Valid() {
			return filters, apperrors.NewValidationError("invalid priority filter", map[string]any{"priority": raw})
		}
		filters.Priority = &priority
	}
	if raw := c.Query("problemTypeId"); raw != "" {
		filters.ProblemTypeID = &raw
	}
	if raw := c.Query("isPublic"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, apperrors.NewValidationError("invalid isPublic filter", map[string]any{"isPublic": raw})
		}
		filters.IsPublic = &parsed
	}
	return filters, nil
}

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/supportdesk/ticket-router/internal/api/dto"
	"github.com/supportdesk/ticket-router/internal/service"
)

// ProblemTypesHandler exposes the problem type catalog.
type ProblemTypesHandler struct {
	catalog *service.CatalogService
}

// NewProblemTypesHandler constructs handler.
func NewProblemTypesHandler(catalog *service.CatalogService) *ProblemTypesHandler {
	return &ProblemTypesHandler{catalog: catalog}
}

// ListProblemTypes GET /api/problem-types.
func (h *ProblemTypesHandler) ListProblemTypes(c *fiber.Ctx) error {
	types, err := h.catalog.ListProblemTypes(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.ProblemTypeResponse, 0, len(types))
	for i := range types {
		items = append(items, dto.ProblemTypeView(&types[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetProblemType GET /api/problem-types/:id.
func (h *ProblemTypesHandler) GetProblemType(c *fiber.Ctx) error {
	pt, err := h.catalog.GetProblemType(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ProblemTypeView(pt)})
}

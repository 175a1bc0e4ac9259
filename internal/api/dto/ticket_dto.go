package dto

import (
	"time"

	"github.com/supportdesk/ticket-router/internal/domain"
	"github.com/supportdesk/ticket-router/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title         string                `json:"title" validate:"required,max=200"`
	Description   string                `json:"description" validate:"required"`
	Priority      domain.TicketPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	ProblemTypeID string                `json:"problem_type_id" validate:"required"`
	IsPublic      *bool                 `json:"is_public"`
}

// UpdateTicketRequest payload. Absent fields leave values unchanged.
type UpdateTicketRequest struct {
	Status   *domain.TicketStatus   `json:"status" validate:"omitempty,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
	Priority *domain.TicketPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AgentID string `json:"agent_id" validate:"required"`
}

// ReplyRequest payload.
type ReplyRequest struct {
	Content string `json:"content" validate:"required"`
}

// ProblemTypeResponse is the outward problem type shape.
type ProblemTypeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ReplyResponse represents one thread entry.
type ReplyResponse struct {
	ID        string       `json:"id"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	Author    UserResponse `json:"author"`
}

// TicketResponse is the materialized ticket view: creator, assignee
// (if any), problem type and the full ordered reply thread.
type TicketResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Status      domain.TicketStatus   `json:"status"`
	Priority    domain.TicketPriority `json:"priority"`
	IsPublic    bool                  `json:"is_public"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	CreatedBy   UserResponse          `json:"created_by"`
	AssignedTo  *UserResponse         `json:"assigned_to"`
	ProblemType ProblemTypeResponse   `json:"problem_type"`
	Replies     []ReplyResponse       `json:"replies"`
}

// ProblemTypeView maps a domain problem type.
func ProblemTypeView(pt *domain.ProblemType) ProblemTypeResponse {
	return ProblemTypeResponse{
		ID:          pt.ID,
		Name:        pt.Name,
		Description: pt.Description,
	}
}

// ReplyView maps a materialized reply.
func ReplyView(detail *service.ReplyDetail) ReplyResponse {
	return ReplyResponse{
		ID:        detail.Reply.ID,
		Content:   detail.Reply.Content,
		CreatedAt: detail.Reply.CreatedAt,
		Author:    UserView(&detail.Author),
	}
}

// TicketView maps a materialized ticket detail.
func TicketView(detail *service.TicketDetail) TicketResponse {
	var assignee *UserResponse
	if detail.AssignedTo != nil {
		view := UserView(detail.AssignedTo)
		assignee = &view
	}
	replies := make([]ReplyResponse, 0, len(detail.Replies))
	for i := range detail.Replies {
		replies = append(replies, ReplyView(&detail.Replies[i]))
	}
	return TicketResponse{
		ID:          detail.Ticket.ID,
		Title:       detail.Ticket.Title,
		Description: detail.Ticket.Description,
		Status:      detail.Ticket.Status,
		Priority:    detail.Ticket.Priority,
		IsPublic:    detail.Ticket.IsPublic,
		CreatedAt:   detail.Ticket.CreatedAt,
		UpdatedAt:   detail.Ticket.UpdatedAt,
		CreatedBy:   UserView(&detail.CreatedBy),
		AssignedTo:  assignee,
		ProblemType: ProblemTypeView(&detail.ProblemType),
		Replies:     replies,
	}
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/supportdesk/ticket-router/internal/access"
	"github.com/supportdesk/ticket-router/internal/dispatch"
	"github.com/supportdesk/ticket-router/internal/domain"
	"github.com/supportdesk/ticket-router/internal/events"
	"github.com/supportdesk/ticket-router/internal/observability"
	"github.com/supportdesk/ticket-router/internal/query"
	"github.com/supportdesk/ticket-router/internal/repository"
	apperrors "github.com/supportdesk/ticket-router/pkg/util"
)

// TicketService orchestrates ticket workflows: creation with
// auto-dispatch, access-checked reads, role-scoped listing, and
// authorized mutation.
type TicketService struct {
	tickets      repository.TicketRepository
	replies      repository.ReplyRepository
	users        repository.UserRepository
	problemTypes repository.ProblemTypeRepository
	engine       *dispatch.Engine
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo      repository.TicketRepository
	ReplyRepo       repository.ReplyRepository
	UserRepo        repository.UserRepository
	ProblemTypeRepo repository.ProblemTypeRepository
	Engine          *dispatch.Engine
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title         string
	Description   string
	Priority      domain.TicketPriority
	ProblemTypeID string
	// IsPublic defaults to true when nil.
	IsPublic *bool
}

// TicketUpdateInput describes a status/priority mutation. Nil fields
// leave the existing value unchanged.
type TicketUpdateInput struct {
	Status   *domain.TicketStatus
	Priority *domain.TicketPriority
}

// ReplyDetail pairs a reply with its materialized author.
type ReplyDetail struct {
	Reply  domain.Reply
	Author domain.User
}

// TicketDetail is the materialized view returned to callers: the
// ticket plus its creator, assignee (if any), problem type, and the
// full ordered reply thread.
type TicketDetail struct {
	Ticket      domain.Ticket
	CreatedBy   domain.User
	AssignedTo  *domain.User
	ProblemType domain.ProblemType
	Replies     []ReplyDetail
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:      deps.TicketRepo,
		replies:      deps.ReplyRepo,
		users:        deps.UserRepo,
		problemTypes: deps.ProblemTypeRepo,
		engine:       deps.Engine,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
	}
}

// Create persists a new OPEN ticket for the caller and runs dispatch
// exactly once. Zero qualified agents leaves the ticket unassigned,
// which is a valid outcome rather than an error.
func (s *TicketService) Create(ctx context.Context, caller domain.User, input TicketCreateInput) (*TicketDetail, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" || input.ProblemTypeID == "" {
		return nil, apperrors.NewValidationError("title, description and problemTypeId are required", nil)
	}

	problemType, err := s.problemTypes.GetByID(ctx, input.ProblemTypeID)
	if err != nil {
		return nil, apperrors.NotFoundFromStore(err, "problem type", map[string]any{"problem_type_id": input.ProblemTypeID})
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	isPublic := true
	if input.IsPublic != nil {
		isPublic = *input.IsPublic
	}

	ticket := &domain.Ticket{
		Title:         title,
		Description:   description,
		Status:        domain.TicketStatusOpen,
		Priority:      priority,
		CreatedByID:   caller.ID,
		ProblemTypeID: problemType.ID,
		IsPublic:      isPublic,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.engine.Dispatch(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	observability.TicketsCreatedTotal.WithLabelValues(problemType.Name).Inc()
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorFor(caller),
		Payload: events.TicketCreatedPayload{
			ProblemTypeID: ticket.ProblemTypeID,
			Priority:      ticket.Priority,
			Title:         ticket.Title,
			AssignedToID:  ticket.AssignedToID,
		},
	})
	if ticket.AssignedToID != nil {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			Actor:    actorFor(caller),
			Payload:  events.TicketAssignedPayload{AssignedToID: ticket.AssignedToID},
		})
	}

	return s.materialize(ctx, ticket)
}

// Get returns the materialized ticket when the caller may view it.
func (s *TicketService) Get(ctx context.Context, caller domain.User, ticketID string) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundFromStore(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if !access.CanView(caller, *ticket) {
		observability.AccessDeniedTotal.WithLabelValues("view").Inc()
		return nil, apperrors.NewAccessDenied("access denied")
	}
	return s.materialize(ctx, ticket)
}

// List returns the caller's role-scoped ticket listing with the
// applicable filters applied, each entry fully materialized.
func (s *TicketService) List(ctx context.Context, caller domain.User, filters query.Filters) ([]TicketDetail, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, query.Scope(caller, filters))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]TicketDetail, 0, len(tickets))
	for i := range tickets {
		detail, err := s.materialize(ctx, &tickets[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *detail)
	}
	return result, nil
}

// Update mutates status and/or priority. Nil fields are left
// unchanged. Only ADMIN or the assigned agent may mutate.
func (s *TicketService) Update(ctx context.Context, caller domain.User, ticketID string, input TicketUpdateInput) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundFromStore(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if !access.CanMutateStatusOrPriority(caller, *ticket) {
		observability.AccessDeniedTotal.WithLabelValues("update").Inc()
		return nil, apperrors.NewAccessDenied("access denied")
	}

	if input.Status != nil && !input.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *input.Status})
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
	}

	oldStatus := ticket.Status
	oldPriority := ticket.Priority
	if input.Status != nil {
		ticket.Status = *input.Status
	}
	if input.Priority != nil {
		ticket.Priority = *input.Priority
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if input.Status != nil && oldStatus != ticket.Status {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Actor:    actorFor(caller),
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
			},
		})
	}
	if input.Priority != nil && oldPriority != ticket.Priority {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketPriorityChanged,
			TicketID: ticket.ID,
			Actor:    actorFor(caller),
			Payload: events.TicketPriorityChangedPayload{
				OldPriority: oldPriority,
				NewPriority: ticket.Priority,
			},
		})
	}

	return s.materialize(ctx, ticket)
}

// Assign sets the ticket's assignee to the given agent. ADMIN only;
// the target must resolve to a user with role AGENT.
func (s *TicketService) Assign(ctx context.Context, caller domain.User, ticketID, agentID string) (*TicketDetail, error) {
	if !access.CanReassign(caller) {
		observability.AccessDeniedTotal.WithLabelValues("assign").Inc()
		return nil, apperrors.NewAccessDenied("access denied")
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundFromStore(err, "ticket", map[string]any{"ticket_id": ticketID})
	}

	agent, err := s.users.GetByID(ctx, agentID)
	if err != nil {
		return nil, apperrors.NotFoundFromStore(err, "agent", map[string]any{"agent_id": agentID})
	}
	if agent.Role != domain.RoleAgent {
		return nil, apperrors.NewInvalidRole("user is not an agent", map[string]any{"user_id": agentID})
	}

	ticket.AssignedToID = &agent.ID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actorFor(caller),
		Payload:  events.TicketAssignedPayload{AssignedToID: ticket.AssignedToID},
	})
	return s.materialize(ctx, ticket)
}

// Delete removes the ticket. ADMIN only. The ticket's existence is
// confirmed before removal; deleting an absent ticket fails.
func (s *TicketService) Delete(ctx context.Context, caller domain.User, ticketID string) error {
	if !access.CanDelete(caller) {
		observability.AccessDeniedTotal.WithLabelValues("delete").Inc()
		return apperrors.NewAccessDenied("access denied")
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return apperrors.NotFoundFromStore(err, "ticket", map[string]any{"ticket_id": ticketID})
	}

	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		Actor:    actorFor(caller),
		Payload:  events.TicketDeletedPayload{Title: ticket.Title},
	})
	return nil
}

// AddReply appends a reply to the ticket thread. Any caller who can
// view the ticket may reply.
func (s *TicketService) AddReply(ctx context.Context, caller domain.User, ticketID, content string) (*ReplyDetail, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content is required", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundFromStore(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if !access.CanReply(caller, *ticket) {
		observability.AccessDeniedTotal.WithLabelValues("reply").Inc()
		return nil, apperrors.NewAccessDenied("access denied")
	}

	reply := &domain.Reply{
		TicketID: ticket.ID,
		AuthorID: caller.ID,
		Content:  content,
	}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, apperrors.MapError(err)
	}

	observability.RepliesCreatedTotal.Inc()
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketReplyAdded,
		TicketID: ticket.ID,
		Actor:    actorFor(caller),
		Payload: events.TicketReplyAddedPayload{
			ReplyID:     reply.ID,
			AuthorID:    reply.AuthorID,
			BodyPreview: stringPreview(reply.Content, 120),
		},
	})
	return &ReplyDetail{Reply: *reply, Author: caller}, nil
}

// ListReplies returns the ticket's thread in ascending creation order
// when the caller may view the ticket.
func (s *TicketService) ListReplies(ctx context.Context, caller domain.User, ticketID string) ([]ReplyDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NotFoundFromStore(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if !access.CanView(caller, *ticket) {
		observability.AccessDeniedTotal.WithLabelValues("view").Inc()
		return nil, apperrors.NewAccessDenied("access denied")
	}
	return s.replyDetails(ctx, ticket.ID, map[string]*domain.User{})
}

// materialize resolves the ticket's related entities via explicit
// store calls: creator, assignee, problem type, and the reply thread.
func (s *TicketService) materialize(ctx context.Context, ticket *domain.Ticket) (*TicketDetail, error) {
	cache := map[string]*domain.User{}

	creator, err := s.userCached(ctx, cache, ticket.CreatedByID)
	if err != nil {
		return nil, apperrors.NotFoundFromStore(err, "user", map[string]any{"user_id": ticket.CreatedByID})
	}

	var assignee *domain.User
	if ticket.AssignedToID != nil {
		assignee, err = s.userCached(ctx, cache, *ticket.AssignedToID)
		if err != nil {
			return nil, apperrors.NotFoundFromStore(err, "agent", map[string]any{"agent_id": *ticket.AssignedToID})
		}
	}

	problemType, err := s.problemTypes.GetByID(ctx, ticket.ProblemTypeID)
	if err != nil {
		return nil, apperrors.NotFoundFromStore(err, "problem type", map[string]any{"problem_type_id": ticket.ProblemTypeID})
	}

	replies, err := s.replyDetails(ctx, ticket.ID, cache)
	if err != nil {
		return nil, err
	}

	return &TicketDetail{
		Ticket:      *ticket,
		CreatedBy:   *creator,
		AssignedTo:  assignee,
		ProblemType: *problemType,
		Replies:     replies,
	}, nil
}

func (s *TicketService) replyDetails(ctx context.Context, ticketID string, cache map[string]*domain.User) ([]ReplyDetail, error) {
	replies, err := s.replies.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]ReplyDetail, 0, len(replies))
	for _, reply := range replies {
		author, err := s.userCached(ctx, cache, reply.AuthorID)
		if err != nil {
			return nil, apperrors.NotFoundFromStore(err, "user", map[string]any{"user_id": reply.AuthorID})
		}
		result = append(result, ReplyDetail{Reply: reply, Author: *author})
	}
	return result, nil
}

func (s *TicketService) userCached(ctx context.Context, cache map[string]*domain.User, id string) (*domain.User, error) {
	if user, ok := cache[id]; ok {
		return user, nil
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = user
	return user, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFor(caller domain.User) events.Actor {
	return events.Actor{UserID: caller.ID, Role: caller.Role}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

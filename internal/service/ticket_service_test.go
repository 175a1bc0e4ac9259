package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/supportdesk/ticket-router/internal/directory"
	"github.com/supportdesk/ticket-router/internal/dispatch"
	"github.com/supportdesk/ticket-router/internal/domain"
	"github.com/supportdesk/ticket-router/internal/query"
	"github.com/supportdesk/ticket-router/internal/repository"
	apperrors "github.com/supportdesk/ticket-router/pkg/util"
)

type memUserRepo struct {
	users map[string]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]domain.User{}}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, user := range r.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		if user.Role == role {
			result = append(result, user)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *memUserRepo) ListAgentsByProblemType(_ context.Context, problemTypeID string) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		if user.Role == domain.RoleAgent && user.IsQualifiedFor(problemTypeID) {
			result = append(result, user)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type memTicketRepo struct {
	tickets map[string]domain.Ticket
	seq     int
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: map[string]domain.Ticket{}}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *memTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CreatedByID != nil && ticket.CreatedByID != *filter.CreatedByID {
			continue
		}
		if filter.AssignedToID != nil && !ticket.IsAssignedTo(*filter.AssignedToID) {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && ticket.Priority != *filter.Priority {
			continue
		}
		if filter.ProblemTypeID != nil && ticket.ProblemTypeID != *filter.ProblemTypeID {
			continue
		}
		if filter.IsPublic != nil && ticket.IsPublic != *filter.IsPublic {
			continue
		}
		result = append(result, ticket)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *memTicketRepo) CountActiveByAssignee(_ context.Context, agentID string) (int, error) {
	count := 0
	for _, ticket := range r.tickets {
		if ticket.IsAssignedTo(agentID) && ticket.IsActive() {
			count++
		}
	}
	return count, nil
}

type memReplyRepo struct {
	replies []domain.Reply
	seq     int
}

func (r *memReplyRepo) Create(_ context.Context, reply *domain.Reply) error {
	r.seq++
	reply.ID = fmt.Sprintf("reply-%d", r.seq)
	r.replies = append(r.replies, *reply)
	return nil
}

func (r *memReplyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Reply, error) {
	var result []domain.Reply
	for _, reply := range r.replies {
		if reply.TicketID == ticketID {
			result = append(result, reply)
		}
	}
	return result, nil
}

type memProblemTypeRepo struct {
	types map[string]domain.ProblemType
}

func (r *memProblemTypeRepo) GetByID(_ context.Context, id string) (*domain.ProblemType, error) {
	pt, ok := r.types[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &pt, nil
}

func (r *memProblemTypeRepo) List(_ context.Context) ([]domain.ProblemType, error) {
	var result []domain.ProblemType
	for _, pt := range r.types {
		result = append(result, pt)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type fixture struct {
	service *TicketService
	users   *memUserRepo
	tickets *memTicketRepo

	admin  domain.User
	agentA domain.User
	agentB domain.User
	owner  domain.User
	other  domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := newMemUserRepo()
	tickets := newMemTicketRepo()
	replies := &memReplyRepo{}
	problemTypes := &memProblemTypeRepo{types: map[string]domain.ProblemType{
		"pt-1": {ID: "pt-1", Name: "TECHNICAL"},
		"pt-2": {ID: "pt-2", Name: "BILLING"},
	}}

	f := &fixture{
		users:   users,
		tickets: tickets,
		admin:   domain.User{ID: "admin-1", Role: domain.RoleAdmin},
		agentA:  domain.User{ID: "agent-a", Role: domain.RoleAgent, QualificationIDs: []string{"pt-1"}},
		agentB:  domain.User{ID: "agent-b", Role: domain.RoleAgent, QualificationIDs: []string{"pt-1"}},
		owner:   domain.User{ID: "user-1", Role: domain.RoleUser},
		other:   domain.User{ID: "user-2", Role: domain.RoleUser},
	}
	for _, u := range []domain.User{f.admin, f.agentA, f.agentB, f.owner, f.other} {
		users.users[u.ID] = u
	}

	engine := dispatch.NewEngine(directory.New(users, tickets), tickets, dispatch.NewLocalLocker(), zap.NewNop())
	f.service = NewTicketService(TicketDependencies{
		TicketRepo:      tickets,
		ReplyRepo:       replies,
		UserRepo:        users,
		ProblemTypeRepo: problemTypes,
		Engine:          engine,
		Logger:          zap.NewNop(),
	})
	return f
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("want %s error, got nil", code)
	}
	var domErr *apperrors.DomainError
	if !errors.As(err, &domErr) {
		t.Fatalf("want DomainError, got %T: %v", err, err)
	}
	if domErr.Code != code {
		t.Fatalf("error code = %s, want %s", domErr.Code, code)
	}
}

func boolPtr(b bool) *bool { return &b }

func TestCreateDispatchesToLeastLoadedAgent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// agent-a already carries two active tickets, agent-b none.
	for i := 0; i < 2; i++ {
		id := f.agentA.ID
		f.tickets.Create(ctx, &domain.Ticket{
			Status:        domain.TicketStatusOpen,
			CreatedByID:   f.other.ID,
			AssignedToID:  &id,
			ProblemTypeID: "pt-1",
		})
	}

	detail, err := f.service.Create(ctx, f.owner, TicketCreateInput{
		Title:         "printer on fire",
		Description:   "smoke everywhere",
		ProblemTypeID: "pt-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if detail.AssignedTo == nil || detail.AssignedTo.ID != f.agentB.ID {
		t.Fatalf("assigned to %v, want %s", detail.AssignedTo, f.agentB.ID)
	}
	if detail.Ticket.Status != domain.TicketStatusOpen {
		t.Errorf("status = %s, want OPEN", detail.Ticket.Status)
	}
	if detail.Ticket.Priority != domain.TicketPriorityMedium {
		t.Errorf("priority = %s, want default MEDIUM", detail.Ticket.Priority)
	}
	if !detail.Ticket.IsPublic {
		t.Error("visibility must default to public")
	}
}

func TestCreateTieBreaksBySmallestAgentID(t *testing.T) {
	f := newFixture(t)

	detail, err := f.service.Create(context.Background(), f.owner, TicketCreateInput{
		Title:         "cannot log in",
		Description:   "password rejected",
		ProblemTypeID: "pt-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if detail.AssignedTo == nil || detail.AssignedTo.ID != f.agentA.ID {
		t.Fatalf("assigned to %v, want %s on equal load", detail.AssignedTo, f.agentA.ID)
	}
}

func TestCreateWithoutQualifiedAgentStaysUnassigned(t *testing.T) {
	f := newFixture(t)

	// nobody is qualified for pt-2
	detail, err := f.service.Create(context.Background(), f.owner, TicketCreateInput{
		Title:         "wrong invoice",
		Description:   "charged twice",
		ProblemTypeID: "pt-2",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if detail.AssignedTo != nil {
		t.Fatalf("assigned to %s, want unassigned", detail.AssignedTo.ID)
	}
	if detail.Ticket.Status != domain.TicketStatusOpen {
		t.Errorf("status = %s, want OPEN", detail.Ticket.Status)
	}
}

func TestCreateUnknownProblemTypeFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), f.owner, TicketCreateInput{
		Title:         "help",
		Description:   "help",
		ProblemTypeID: "pt-missing",
	})
	assertCode(t, err, "NOT_FOUND")
}

func TestGetPrivateTicketDeniedForUnrelatedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	detail, err := f.service.Create(ctx, f.owner, TicketCreateInput{
		Title:         "salary question",
		Description:   "confidential",
		ProblemTypeID: "pt-1",
		IsPublic:      boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := f.service.Get(ctx, f.other, detail.Ticket.ID); err == nil {
		t.Fatal("unrelated user must not view a private ticket")
	} else {
		assertCode(t, err, "ACCESS_DENIED")
	}

	// the creator and an admin still see it
	if _, err := f.service.Get(ctx, f.owner, detail.Ticket.ID); err != nil {
		t.Fatalf("creator Get: %v", err)
	}
	if _, err := f.service.Get(ctx, f.admin, detail.Ticket.ID); err != nil {
		t.Fatalf("admin Get: %v", err)
	}
}

func TestUpdateDeniedLeavesTicketUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	detail, err := f.service.Create(ctx, f.owner, TicketCreateInput{
		Title:         "slow dashboard",
		Description:   "takes minutes",
		ProblemTypeID: "pt-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	resolved := domain.TicketStatusResolved
	_, err = f.service.Update(ctx, f.owner, detail.Ticket.ID, TicketUpdateInput{Status: &resolved})
	assertCode(t, err, "ACCESS_DENIED")

	stored, err := f.tickets.GetByID(ctx, detail.Ticket.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %s after denied update, want OPEN", stored.Status)
	}
}

func TestUpdateByAssignedAgent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	detail, err := f.service.Create(ctx, f.owner, TicketCreateInput{
		Title:         "vpn drops",
		Description:   "every hour",
		ProblemTypeID: "pt-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	assignee := detail.AssignedTo
	if assignee == nil {
		t.Fatal("ticket must be dispatched")
	}

	inProgress := domain.TicketStatusInProgress
	high := domain.TicketPriorityHigh
	updated, err := f.service.Update(ctx, *assignee, detail.Ticket.ID, TicketUpdateInput{
		Status:   &inProgress,
		Priority: &high,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Ticket.Status != inProgress || updated.Ticket.Priority != high {
		t.Fatalf("got %s/%s, want IN_PROGRESS/HIGH", updated.Ticket.Status, updated.Ticket.Priority)
	}

	// the non-assigned agent stays locked out
	otherAgent := f.agentB
	if otherAgent.ID == assignee.ID {
		otherAgent = f.agentA
	}
	_, err = f.service.Update(ctx, otherAgent, detail.Ticket.ID, TicketUpdateInput{Status: &inProgress})
	assertCode(t, err, "ACCESS_DENIED")
}

func TestAssignRejectsNonAgentTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	detail, err := f.service.Create(ctx, f.owner, TicketCreateInput{
		Title:         "misrouted",
		Description:   "needs a human",
		ProblemTypeID: "pt-2",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = f.service.Assign(ctx, f.admin, detail.Ticket.ID, f.other.ID)
	assertCode(t, err, "INVALID_ROLE")

	_, err = f.service.Assign(ctx, f.admin, detail.Ticket.ID, "nobody")
	assertCode(t, err, "NOT_FOUND")

	_, err = f.service.Assign(ctx, f.agentA, detail.Ticket.ID, f.agentB.ID)
	assertCode(t, err, "ACCESS_DENIED")

	assigned, err := f.service.Assign(ctx, f.admin, detail.Ticket.ID, f.agentB.ID)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if assigned.AssignedTo == nil || assigned.AssignedTo.ID != f.agentB.ID {
		t.Fatalf("assigned to %v, want %s", assigned.AssignedTo, f.agentB.ID)
	}
}

func TestDeleteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	detail, err := f.service.Create(ctx, f.owner, TicketCreateInput{
		Title:         "duplicate",
		Description:   "same as ticket-0",
		ProblemTypeID: "pt-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	assertCode(t, f.service.Delete(ctx, f.owner, detail.Ticket.ID), "ACCESS_DENIED")
	assertCode(t, f.service.Delete(ctx, f.admin, "ticket-missing"), "NOT_FOUND")

	if err := f.service.Delete(ctx, f.admin, detail.Ticket.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.tickets.GetByID(ctx, detail.Ticket.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatal("ticket must be gone after delete")
	}
}

func TestRepliesFollowVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	detail, err := f.service.Create(ctx, f.owner, TicketCreateInput{
		Title:         "private matter",
		Description:   "details inside",
		ProblemTypeID: "pt-1",
		IsPublic:      boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ticketID := detail.Ticket.ID

	_, err = f.service.AddReply(ctx, f.other, ticketID, "let me see")
	assertCode(t, err, "ACCESS_DENIED")

	_, err = f.service.AddReply(ctx, f.owner, ticketID, "   ")
	assertCode(t, err, "VALIDATION_FAILED")

	first, err := f.service.AddReply(ctx, f.owner, ticketID, "any update?")
	if err != nil {
		t.Fatalf("AddReply: %v", err)
	}
	if first.Author.ID != f.owner.ID {
		t.Errorf("author = %s, want %s", first.Author.ID, f.owner.ID)
	}
	if _, err := f.service.AddReply(ctx, *detail.AssignedTo, ticketID, "on it"); err != nil {
		t.Fatalf("agent AddReply: %v", err)
	}

	thread, err := f.service.ListReplies(ctx, f.owner, ticketID)
	if err != nil {
		t.Fatalf("ListReplies: %v", err)
	}
	if len(thread) != 2 {
		t.Fatalf("thread length = %d, want 2", len(thread))
	}
	if thread[0].Reply.Content != "any update?" || thread[1].Reply.Content != "on it" {
		t.Error("replies must come back in creation order")
	}

	_, err = f.service.ListReplies(ctx, f.other, ticketID)
	assertCode(t, err, "ACCESS_DENIED")
}

func TestListIsRoleScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.service.Create(ctx, f.owner, TicketCreateInput{
		Title:         "mine",
		Description:   "created by owner",
		ProblemTypeID: "pt-1",
		IsPublic:      boolPtr(false),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.service.Create(ctx, f.other, TicketCreateInput{
		Title:         "someone else's",
		Description:   "created by other",
		ProblemTypeID: "pt-2",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ownerList, err := f.service.List(ctx, f.owner, query.Filters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ownerList) != 1 || ownerList[0].Ticket.ID != mine.Ticket.ID {
		t.Fatalf("owner listing = %d entries, want only their own ticket", len(ownerList))
	}

	agentList, err := f.service.List(ctx, f.agentA, query.Filters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, entry := range agentList {
		if !entry.Ticket.IsAssignedTo(f.agentA.ID) {
			t.Fatalf("agent listing leaked ticket %s", entry.Ticket.ID)
		}
	}

	adminList, err := f.service.List(ctx, f.admin, query.Filters{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(adminList) != 2 {
		t.Fatalf("admin listing = %d entries, want 2", len(adminList))
	}
}

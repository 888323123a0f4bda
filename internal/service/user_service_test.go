package service

import (
	"context"
	"testing"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/authz"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/google/uuid"
)

type userFixture struct {
	svc       *UserService
	users     *fakeUserRepo
	subs      *fakeSubRepo
	revoker   *fakeRevoker
	cache     *fakeUserCache
	publisher *recordingPublisher
	plan      *domain.Plan
	owner     authz.Actor
	manager   authz.Actor
	company   uuid.UUID
}

func intPtr(n int) *int { return &n }

// newUserFixture seeds a company whose owner holds an active plan with
// room for three members, one of them a manager
func newUserFixture() *userFixture {
	company := uuid.New()
	f := &userFixture{
		users:     newFakeUserRepo(),
		revoker:   newFakeRevoker(),
		cache:     newFakeUserCache(),
		publisher: &recordingPublisher{},
		plan:      &domain.Plan{ID: uuid.New(), Name: "Imobiliária", MaxUsers: intPtr(3), MaxManagers: intPtr(1)},
		owner:     ownerActor(company),
		company:   company,
	}
	f.manager = authz.Actor{UserID: uuid.New(), Role: domain.RoleManager, CompanyID: &company}

	ownerID := f.owner.UserID
	f.users.users[ownerID] = &domain.User{ID: ownerID, Email: "dono@imob.com", Role: domain.RoleOwner, CompanyID: &company, IsActive: true}
	f.users.users[f.manager.UserID] = &domain.User{ID: f.manager.UserID, Email: "gerente@imob.com", Role: domain.RoleManager, CompanyID: &company, IsActive: true}

	companies := newFakeCompanyRepo(&domain.Company{ID: company, Name: "Imobiliária Central", OwnerID: &ownerID})
	f.subs = newFakeSubRepo()
	end := testNow.AddDate(0, 1, 0)
	f.subs.current[ownerID] = &domain.CurrentSubscription{
		Subscription: domain.Subscription{ID: uuid.New(), UserID: ownerID, PlanID: f.plan.ID, Status: domain.SubscriptionActive, EndDate: &end},
		Plan:         *f.plan,
	}

	f.svc = NewUserService(f.users, companies, f.subs, nil, &fakeMailer{}, f.publisher, f.cache, f.revoker, "https://app.imob.com/")
	f.svc.now = fixedClock
	return f
}

func (f *userFixture) addMember(role domain.Role, active bool) *domain.User {
	u := &domain.User{ID: uuid.New(), Email: uuid.NewString() + "@imob.com", Name: "Membro", Role: role, CompanyID: &f.company, IsActive: active}
	f.users.users[u.ID] = u
	return u
}

func newMember(email string, role domain.Role) CreateUserRequest {
	return CreateUserRequest{Name: "Novo Membro", Email: email, Role: role, Phone: "(11) 98765-4321"}
}

func TestUserCreateInvitesMember(t *testing.T) {
	f := newUserFixture()

	dto, err := f.svc.Create(context.Background(), f.owner, newMember(" Corretor@Imob.com ", domain.RoleBroker))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.Email != "corretor@imob.com" || !dto.IsActive || dto.CreatedBy == nil || *dto.CreatedBy != f.owner.UserID {
		t.Errorf("dto = %+v", dto)
	}
	if dto.Phone == nil || *dto.Phone != "11987654321" {
		t.Errorf("phone = %v", dto.Phone)
	}
	if len(f.publisher.events) != 1 {
		t.Errorf("published %d events, want 1", len(f.publisher.events))
	}
}

func TestUserCreateSeatLimits(t *testing.T) {
	tests := []struct {
		name string
		seed []domain.Role
		role domain.Role
		want domain.ErrorCode
	}{
		{"room for a broker", []domain.Role{domain.RoleBroker}, domain.RoleBroker, ""},
		{"member limit reached", []domain.Role{domain.RoleBroker, domain.RoleBroker}, domain.RoleBroker, domain.CodePlanLimitExceeded},
		{"manager limit reached", nil, domain.RoleManager, domain.CodePlanLimitExceeded},
		{"inactive members free their seat", nil, domain.RoleBroker, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture()
			for _, role := range tt.seed {
				f.addMember(role, true)
			}
			f.addMember(domain.RoleBroker, false)

			_, err := f.svc.Create(context.Background(), f.owner, newMember("novo@imob.com", tt.role))
			if codeOf(err) != tt.want {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestUserCreateRoleRules(t *testing.T) {
	tests := []struct {
		name  string
		actor func(*userFixture) authz.Actor
		role  domain.Role
		want  domain.ErrorCode
	}{
		{"owner adds insurance analyst", func(f *userFixture) authz.Actor { return f.owner }, domain.RoleInsuranceAnalyst, ""},
		{"manager adds insurance analyst", func(f *userFixture) authz.Actor { return f.manager }, domain.RoleInsuranceAnalyst, domain.CodeForbidden},
		{"manager adds broker", func(f *userFixture) authz.Actor { return f.manager }, domain.RoleBroker, ""},
		{"second owner", func(f *userFixture) authz.Actor { return f.owner }, domain.RoleOwner, domain.CodeBadRequest},
		{"broker adds broker", func(f *userFixture) authz.Actor { return brokerActor(f.company) }, domain.RoleBroker, domain.CodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture()
			_, err := f.svc.Create(context.Background(), tt.actor(f), newMember("novo@imob.com", tt.role))
			if codeOf(err) != tt.want {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestUserCreateRejectsTakenEmailAndBadPhone(t *testing.T) {
	f := newUserFixture()

	_, err := f.svc.Create(context.Background(), f.owner, newMember("GERENTE@imob.com", domain.RoleBroker))
	if codeOf(err) != domain.CodeEmailAlreadyExists {
		t.Errorf("taken email error = %v, want EMAIL_ALREADY_EXISTS", err)
	}

	req := newMember("novo@imob.com", domain.RoleBroker)
	req.Phone = "1234"
	_, err = f.svc.Create(context.Background(), f.owner, req)
	if codeOf(err) != domain.CodeInvalidPhone {
		t.Errorf("bad phone error = %v, want INVALID_PHONE", err)
	}
}

func TestUserDeactivateProtectsSelfAndOwner(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	_, err := f.svc.Deactivate(ctx, f.manager, f.manager.UserID)
	if codeOf(err) != domain.CodeForbidden {
		t.Errorf("self deactivate error = %v, want FORBIDDEN", err)
	}
	_, err = f.svc.Deactivate(ctx, f.manager, f.owner.UserID)
	if codeOf(err) != domain.CodeForbidden {
		t.Errorf("owner deactivate error = %v, want FORBIDDEN", err)
	}
	if err := f.svc.Delete(ctx, f.manager, f.owner.UserID); codeOf(err) != domain.CodeForbidden {
		t.Errorf("owner delete error = %v, want FORBIDDEN", err)
	}
	if len(f.revoker.users) != 0 {
		t.Errorf("revoked %v, want nothing", f.revoker.users)
	}
}

func TestUserDeactivateRevokesSessions(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	broker := f.addMember(domain.RoleBroker, true)

	dto, err := f.svc.Deactivate(ctx, f.owner, broker.ID)
	if err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if dto.IsActive {
		t.Error("member still active")
	}
	if len(f.revoker.users) != 1 || f.revoker.users[0] != broker.ID.String() {
		t.Errorf("revoked = %v", f.revoker.users)
	}
	if len(f.cache.invalidated) != 1 || f.cache.invalidated[0] != broker.ID {
		t.Errorf("invalidated = %v", f.cache.invalidated)
	}

	_, err = f.svc.Deactivate(ctx, f.owner, broker.ID)
	if codeOf(err) != domain.CodeBadRequest {
		t.Errorf("second deactivate error = %v, want BAD_REQUEST", err)
	}
}

func TestUserActivateChecksSeats(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	f.addMember(domain.RoleBroker, true)
	f.addMember(domain.RoleBroker, true)
	idle := f.addMember(domain.RoleBroker, false)

	_, err := f.svc.Activate(ctx, f.owner, idle.ID)
	if codeOf(err) != domain.CodePlanLimitExceeded {
		t.Fatalf("activate error = %v, want PLAN_LIMIT_EXCEEDED", err)
	}
	if idle.IsActive {
		t.Error("member activated past the plan limit")
	}

	f.subs.current[f.owner.UserID].Plan.MaxUsers = nil
	dto, err := f.svc.Activate(ctx, f.owner, idle.ID)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !dto.IsActive {
		t.Error("member not activated")
	}
}

func TestUserCreateNeedsActiveSubscription(t *testing.T) {
	f := newUserFixture()
	past := testNow.Add(-24 * time.Hour)
	f.subs.current[f.owner.UserID].EndDate = &past

	_, err := f.svc.Create(context.Background(), f.owner, newMember("novo@imob.com", domain.RoleBroker))
	if codeOf(err) != domain.CodeForbidden {
		t.Errorf("error = %v, want FORBIDDEN", err)
	}
}

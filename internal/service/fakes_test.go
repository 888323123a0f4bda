package service

import (
	"context"
	"sync"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/cache"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/email"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/hash"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/pagarme"
	"github.com/google/uuid"
)

// cheap params keep the tests fast
var testHasher = hash.NewHasher(hash.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// fakeUserRepo embeds the interface; methods a test does not need panic
type fakeUserRepo struct {
	repository.UserRepository
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uuid.UUID]*domain.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) CountActiveMembers(_ context.Context, companyID uuid.UUID, role *domain.Role) (int, error) {
	n := 0
	for _, u := range r.users {
		if u.ScopeCompanyID() != companyID || !u.IsActive || u.Role == domain.RoleOwner {
			continue
		}
		if role == nil || u.Role == *role {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) RegisterOwner(ctx context.Context, user *domain.User, _ *domain.Company, _ *domain.Subscription) error {
	return r.Create(ctx, user)
}

type fakeCompanyRepo struct {
	repository.CompanyRepository
	companies map[uuid.UUID]*domain.Company
	updates   int
}

func newFakeCompanyRepo(companies ...*domain.Company) *fakeCompanyRepo {
	r := &fakeCompanyRepo{companies: map[uuid.UUID]*domain.Company{}}
	for _, c := range companies {
		r.companies[c.ID] = c
	}
	return r
}

func (r *fakeCompanyRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (r *fakeCompanyRepo) Update(_ context.Context, c *domain.Company) error {
	r.companies[c.ID] = c
	r.updates++
	return nil
}

type fakePlanRepo struct {
	repository.PlanRepository
	plans map[uuid.UUID]*domain.Plan
}

func newFakePlanRepo(plans ...*domain.Plan) *fakePlanRepo {
	r := &fakePlanRepo{plans: map[uuid.UUID]*domain.Plan{}}
	for _, p := range plans {
		r.plans[p.ID] = p
	}
	return r
}

func (r *fakePlanRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Plan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

type fakeSubRepo struct {
	repository.SubscriptionRepository
	created []*domain.Subscription
	current map[uuid.UUID]*domain.CurrentSubscription
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{current: map[uuid.UUID]*domain.CurrentSubscription{}}
}

func (r *fakeSubRepo) Create(_ context.Context, sub *domain.Subscription) error {
	r.created = append(r.created, sub)
	r.current[sub.UserID] = &domain.CurrentSubscription{Subscription: *sub}
	return nil
}

func (r *fakeSubRepo) GetCurrentByUserID(_ context.Context, userID uuid.UUID) (*domain.CurrentSubscription, error) {
	sub, ok := r.current[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return sub, nil
}

// fakePendingRepo writes approvals through to users and subs when set
type fakePendingRepo struct {
	repository.PendingPaymentRepository
	mu       sync.Mutex
	payments map[uuid.UUID]*domain.PendingPayment
	approved []domain.ApprovedPayment
	users    *fakeUserRepo
	subs     *fakeSubRepo
}

func newFakePendingRepo(payments ...*domain.PendingPayment) *fakePendingRepo {
	r := &fakePendingRepo{payments: map[uuid.UUID]*domain.PendingPayment{}}
	for _, p := range payments {
		r.payments[p.ID] = p
	}
	return r
}

func (r *fakePendingRepo) Create(_ context.Context, p *domain.PendingPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[p.ID] = p
	return nil
}

func (r *fakePendingRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.PendingPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePendingRepo) GetLatestPendingByEmail(_ context.Context, email string) (*domain.PendingPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.PendingPayment
	for _, p := range r.payments {
		if p.Email == email && p.Status == domain.PaymentPending && (latest == nil || p.CreatedAt.After(latest.CreatedAt)) {
			latest = p
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return latest, nil
}

func (r *fakePendingRepo) Update(_ context.Context, id uuid.UUID, u domain.PendingPaymentUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if u.Status != nil && p.Status == domain.PaymentPaid {
		return repository.ErrAlreadyProcessed
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.PagarmeOrderID != nil {
		p.PagarmeOrderID = u.PagarmeOrderID
	}
	if u.PagarmeChargeID != nil {
		p.PagarmeChargeID = u.PagarmeChargeID
	}
	if u.ProcessedWebhookID != nil {
		p.ProcessedWebhookID = u.ProcessedWebhookID
	}
	return nil
}

func (r *fakePendingRepo) Approve(_ context.Context, a domain.ApprovedPayment) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.payments[a.PendingPaymentID]
	if p.Status == domain.PaymentPaid {
		return uuid.Nil, repository.ErrAlreadyProcessed
	}
	var userID uuid.UUID
	switch {
	case a.ExistingUserID != nil:
		userID = *a.ExistingUserID
	case r.users != nil:
		if err := r.users.Create(context.Background(), a.NewUser); err != nil {
			return uuid.Nil, err
		}
		userID = a.NewUser.ID
	default:
		userID = a.NewUser.ID
	}
	if r.subs != nil {
		a.Subscription.UserID = userID
		r.subs.created = append(r.subs.created, a.Subscription)
		r.subs.current[userID] = &domain.CurrentSubscription{Subscription: *a.Subscription}
	}
	p.Status = domain.PaymentPaid
	p.ProcessedWebhookID = &a.WebhookID
	r.approved = append(r.approved, a)
	return userID, nil
}

func (r *fakePendingRepo) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.payments {
		if p.Status == domain.PaymentPending && p.IsExpiredAt(now) {
			p.Status = domain.PaymentExpired
			n++
		}
	}
	return n, nil
}

type fakeGateway struct {
	order      *pagarme.Order
	info       *pagarme.OrderInfo
	err        error
	calls      int
	lastInput  pagarme.OrderInput
	orderLooks int
	// onCreate runs before CreateOrder returns
	onCreate   func()
}

func (g *fakeGateway) CreateOrder(_ context.Context, in pagarme.OrderInput) (*pagarme.Order, error) {
	g.calls++
	g.lastInput = in
	if g.onCreate != nil {
		g.onCreate()
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.order, nil
}

func (g *fakeGateway) GetOrder(_ context.Context, _ string) (*pagarme.OrderInfo, error) {
	g.orderLooks++
	if g.err != nil {
		return nil, g.err
	}
	return g.info, nil
}

type fakeUserCache struct {
	states      map[uuid.UUID]*cache.UserState
	invalidated []uuid.UUID
}

func newFakeUserCache() *fakeUserCache {
	return &fakeUserCache{states: map[uuid.UUID]*cache.UserState{}}
}

func (c *fakeUserCache) GetUserState(_ context.Context, userID uuid.UUID) (*cache.UserState, bool) {
	st, ok := c.states[userID]
	return st, ok
}

func (c *fakeUserCache) SetUserState(_ context.Context, user *domain.User, sub *domain.CurrentSubscription) {
	c.states[user.ID] = &cache.UserState{User: user, Subscription: sub}
}

func (c *fakeUserCache) InvalidateUser(_ context.Context, userIDs ...uuid.UUID) {
	for _, id := range userIDs {
		delete(c.states, id)
	}
	c.invalidated = append(c.invalidated, userIDs...)
}

type sentCode struct {
	to   string
	code string
}

type fakeMailer struct {
	email.LogSender
	err   error
	codes []sentCode
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, to, _, code string) error {
	if m.err != nil {
		return m.err
	}
	m.codes = append(m.codes, sentCode{to: to, code: code})
	return nil
}

type fakeRevoker struct {
	tokens map[string]time.Duration
	users  []string
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{tokens: map[string]time.Duration{}}
}

func (r *fakeRevoker) RevokeToken(_ context.Context, jti string, ttl time.Duration) error {
	r.tokens[jti] = ttl
	return nil
}

func (r *fakeRevoker) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := r.tokens[jti]
	return ok, nil
}

func (r *fakeRevoker) RevokeUser(_ context.Context, userID string) error {
	r.users = append(r.users, userID)
	return nil
}

func (r *fakeRevoker) IsUserRevoked(context.Context, string, time.Time) (bool, error) {
	return false, nil
}

type publishedEvent struct {
	routingKey string
	body       any
}

type recordingPublisher struct {
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, body any) error {
	p.events = append(p.events, publishedEvent{routingKey: routingKey, body: body})
	return nil
}

type fakeTenantRepo struct {
	repository.TenantRepository
	tenants map[uuid.UUID]*domain.Tenant
	deleted []uuid.UUID
}

func newFakeTenantRepo(tenants ...*domain.Tenant) *fakeTenantRepo {
	r := &fakeTenantRepo{tenants: map[uuid.UUID]*domain.Tenant{}}
	for _, t := range tenants {
		r.tenants[t.ID] = t
	}
	return r
}

func (r *fakeTenantRepo) Create(_ context.Context, t *domain.Tenant) error {
	r.tenants[t.ID] = t
	return nil
}

func (r *fakeTenantRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (r *fakeTenantRepo) GetByCPF(_ context.Context, companyID uuid.UUID, cpf string) (*domain.Tenant, error) {
	for _, t := range r.tenants {
		if t.CompanyID == companyID && t.CPF == cpf {
			return t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTenantRepo) GetByEmail(_ context.Context, companyID uuid.UUID, email string) (*domain.Tenant, error) {
	for _, t := range r.tenants {
		if t.CompanyID == companyID && t.Email != nil && *t.Email == email {
			return t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTenantRepo) Update(_ context.Context, t *domain.Tenant) error {
	r.tenants[t.ID] = t
	return nil
}

func (r *fakeTenantRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.tenants, id)
	r.deleted = append(r.deleted, id)
	return nil
}

type fakeOwnerRepo struct {
	repository.PropertyOwnerRepository
	owners  map[uuid.UUID]*domain.PropertyOwner
	deleted []uuid.UUID
}

func newFakeOwnerRepo(owners ...*domain.PropertyOwner) *fakeOwnerRepo {
	r := &fakeOwnerRepo{owners: map[uuid.UUID]*domain.PropertyOwner{}}
	for _, o := range owners {
		r.owners[o.ID] = o
	}
	return r
}

func (r *fakeOwnerRepo) Create(_ context.Context, o *domain.PropertyOwner) error {
	r.owners[o.ID] = o
	return nil
}

func (r *fakeOwnerRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.PropertyOwner, error) {
	o, ok := r.owners[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return o, nil
}

func (r *fakeOwnerRepo) GetByDocument(_ context.Context, companyID uuid.UUID, document string) (*domain.PropertyOwner, error) {
	for _, o := range r.owners {
		if o.CompanyID == companyID && o.Document == document {
			return o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOwnerRepo) GetByEmail(_ context.Context, companyID uuid.UUID, email string) (*domain.PropertyOwner, error) {
	for _, o := range r.owners {
		if o.CompanyID == companyID && o.Email != nil && *o.Email == email {
			return o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOwnerRepo) Update(_ context.Context, o *domain.PropertyOwner) error {
	r.owners[o.ID] = o
	return nil
}

func (r *fakeOwnerRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.owners, id)
	r.deleted = append(r.deleted, id)
	return nil
}

// fakePropertyRepo numbers properties per company the way the database
// sequence does
type fakePropertyRepo struct {
	repository.PropertyRepository
	properties map[uuid.UUID]*domain.Property
	byOwner    map[uuid.UUID]int
	seq        map[uuid.UUID]int
}

func newFakePropertyRepo(properties ...*domain.Property) *fakePropertyRepo {
	r := &fakePropertyRepo{
		properties: map[uuid.UUID]*domain.Property{},
		byOwner:    map[uuid.UUID]int{},
		seq:        map[uuid.UUID]int{},
	}
	for _, p := range properties {
		r.properties[p.ID] = p
	}
	return r
}

func (r *fakePropertyRepo) Create(_ context.Context, p *domain.Property) error {
	r.seq[p.CompanyID]++
	code := domain.PropertyCode(r.seq[p.CompanyID])
	p.Code = &code
	r.properties[p.ID] = p
	return nil
}

func (r *fakePropertyRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Property, error) {
	p, ok := r.properties[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (r *fakePropertyRepo) Update(_ context.Context, p *domain.Property) error {
	r.properties[p.ID] = p
	return nil
}

func (r *fakePropertyRepo) CountByOwner(_ context.Context, ownerID uuid.UUID) (int, error) {
	return r.byOwner[ownerID], nil
}

type fakeContractRepo struct {
	repository.ContractRepository
	contracts      map[uuid.UUID]*domain.Contract
	activeByTenant map[uuid.UUID]int
	allByTenant    map[uuid.UUID]int
	byOwner        map[uuid.UUID]int
	terminated     []uuid.UUID
}

func newFakeContractRepo() *fakeContractRepo {
	return &fakeContractRepo{
		contracts:      map[uuid.UUID]*domain.Contract{},
		activeByTenant: map[uuid.UUID]int{},
		allByTenant:    map[uuid.UUID]int{},
		byOwner:        map[uuid.UUID]int{},
	}
}

func (r *fakeContractRepo) Create(_ context.Context, c *domain.Contract) error {
	r.contracts[c.ID] = c
	return nil
}

func (r *fakeContractRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Contract, error) {
	c, ok := r.contracts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (r *fakeContractRepo) GetActiveByProperty(_ context.Context, propertyID uuid.UUID) (*domain.Contract, error) {
	for _, c := range r.contracts {
		if c.PropertyID == propertyID && c.Status == domain.ContractActive {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeContractRepo) Terminate(_ context.Context, c *domain.Contract) error {
	r.contracts[c.ID] = c
	r.terminated = append(r.terminated, c.ID)
	return nil
}

func (r *fakeContractRepo) CountByTenant(_ context.Context, tenantID uuid.UUID, activeOnly bool) (int, error) {
	if activeOnly {
		return r.activeByTenant[tenantID], nil
	}
	return r.allByTenant[tenantID], nil
}

func (r *fakeContractRepo) CountByOwner(_ context.Context, ownerID uuid.UUID) (int, error) {
	return r.byOwner[ownerID], nil
}

func codeOf(err error) domain.ErrorCode {
	if appErr, ok := domain.AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/authz"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/google/uuid"
)

type fakeFieldRepo struct {
	repository.CustomFieldRepository
	fields    map[uuid.UUID]*domain.CustomField
	responses map[uuid.UUID][]*domain.CustomFieldResponse
	reordered []uuid.UUID
	lists     int
}

func newFakeFieldRepo(fields ...*domain.CustomField) *fakeFieldRepo {
	r := &fakeFieldRepo{fields: map[uuid.UUID]*domain.CustomField{}, responses: map[uuid.UUID][]*domain.CustomFieldResponse{}}
	for _, f := range fields {
		r.fields[f.ID] = f
	}
	return r
}

func (r *fakeFieldRepo) Create(_ context.Context, f *domain.CustomField) error {
	r.fields[f.ID] = f
	return nil
}

func (r *fakeFieldRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.CustomField, error) {
	f, ok := r.fields[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return f, nil
}

func (r *fakeFieldRepo) Update(_ context.Context, f *domain.CustomField) error {
	r.fields[f.ID] = f
	return nil
}

func (r *fakeFieldRepo) MaxOrder(_ context.Context, companyID uuid.UUID) (int, error) {
	max := 0
	for _, f := range r.fields {
		if f.CompanyID == companyID && f.Order > max {
			max = f.Order
		}
	}
	return max, nil
}

func (r *fakeFieldRepo) ListByCompany(_ context.Context, companyID uuid.UUID, activeOnly bool) ([]*domain.CustomField, error) {
	r.lists++
	var out []*domain.CustomField
	for _, f := range r.fields {
		if f.CompanyID == companyID && (!activeOnly || f.IsActive) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFieldRepo) Reorder(_ context.Context, _ uuid.UUID, ids []uuid.UUID) error {
	r.reordered = ids
	return nil
}

func (r *fakeFieldRepo) ListResponses(_ context.Context, userID uuid.UUID) ([]*domain.CustomFieldResponse, error) {
	return r.responses[userID], nil
}

func (r *fakeFieldRepo) SaveResponses(_ context.Context, userID uuid.UUID, responses []*domain.CustomFieldResponse) error {
	r.responses[userID] = responses
	return nil
}

type fakeFieldCache struct {
	fields      map[uuid.UUID][]domain.CustomField
	invalidated int
}

func newFakeFieldCache() *fakeFieldCache {
	return &fakeFieldCache{fields: map[uuid.UUID][]domain.CustomField{}}
}

func (c *fakeFieldCache) GetCustomFields(_ context.Context, companyID uuid.UUID) ([]domain.CustomField, bool) {
	f, ok := c.fields[companyID]
	return f, ok
}

func (c *fakeFieldCache) SetCustomFields(_ context.Context, companyID uuid.UUID, fields []domain.CustomField) {
	c.fields[companyID] = fields
}

func (c *fakeFieldCache) InvalidateCustomFields(_ context.Context, companyID uuid.UUID) {
	delete(c.fields, companyID)
	c.invalidated++
}

type fieldFixture struct {
	svc     *CustomFieldService
	repo    *fakeFieldRepo
	cache   *fakeFieldCache
	subs    *fakeSubRepo
	owner   authz.Actor
	company uuid.UUID
}

func newFieldFixture(features ...string) *fieldFixture {
	company := uuid.New()
	f := &fieldFixture{
		repo:    newFakeFieldRepo(),
		cache:   newFakeFieldCache(),
		subs:    newFakeSubRepo(),
		owner:   ownerActor(company),
		company: company,
	}
	sub := subscriptionFor(f.owner.UserID, domain.SubscriptionActive, testNow.Add(24*time.Hour))
	sub.Plan.Features = features
	f.subs.current[f.owner.UserID] = sub
	f.svc = NewCustomFieldService(f.repo, f.subs, newFakeUserRepo(), f.cache)
	f.svc.now = fixedClock
	return f
}

func TestCustomFieldCreateRequiresPlanFeature(t *testing.T) {
	f := newFieldFixture()
	_, err := f.svc.Create(context.Background(), f.owner, CreateCustomFieldRequest{Label: "CRECI", Type: domain.FieldText})
	if codeOf(err) != domain.CodePlanLimitExceeded {
		t.Fatalf("error = %v, want PLAN_LIMIT_EXCEEDED", err)
	}
}

func TestCustomFieldCreateOnlyOwner(t *testing.T) {
	f := newFieldFixture(domain.FeatureCustomFields)
	manager := authz.Actor{UserID: uuid.New(), Role: domain.RoleManager, CompanyID: &f.company, CreatedBy: &f.owner.UserID}
	_, err := f.svc.Create(context.Background(), manager, CreateCustomFieldRequest{Label: "CRECI", Type: domain.FieldText})
	if codeOf(err) != domain.CodeForbidden {
		t.Fatalf("error = %v, want FORBIDDEN", err)
	}
}

func TestCustomFieldCreateDefinitions(t *testing.T) {
	f := newFieldFixture(domain.FeatureCustomFields)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     CreateCustomFieldRequest
		wantErr bool
	}{
		{"text", CreateCustomFieldRequest{Label: " CRECI ", Type: domain.FieldText}, false},
		{"bad type", CreateCustomFieldRequest{Label: "Campo", Type: "color"}, true},
		{"short label", CreateCustomFieldRequest{Label: " A ", Type: domain.FieldText}, true},
		{"select one option", CreateCustomFieldRequest{Label: "Região", Type: domain.FieldSelect, Options: []string{"Norte", " "}}, true},
		{"select duplicates", CreateCustomFieldRequest{Label: "Região", Type: domain.FieldSelect, Options: []string{"Norte", "norte"}}, true},
		{"select", CreateCustomFieldRequest{Label: "Região", Type: domain.FieldSelect, Options: []string{" Norte ", "Sul"}}, false},
		{"file without config", CreateCustomFieldRequest{Label: "RG", Type: domain.FieldFile}, true},
		{"file too big", CreateCustomFieldRequest{Label: "RG", Type: domain.FieldFile, FileConfig: &domain.FileConfig{MaxFileSize: 11, MaxFiles: 1, AllowedTypes: []string{"pdf"}}}, true},
		{"file", CreateCustomFieldRequest{Label: "RG", Type: domain.FieldFile, FileConfig: &domain.FileConfig{MaxFileSize: 5, MaxFiles: 2, AllowedTypes: []string{"pdf"}}}, false},
	}
	for _, tt := range tests {
		_, err := f.svc.Create(ctx, f.owner, tt.req)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if err != nil && codeOf(err) != domain.CodeBadRequest {
			t.Errorf("%s: code = %s, want BAD_REQUEST", tt.name, codeOf(err))
		}
	}

	if len(f.repo.fields) != 3 {
		t.Fatalf("fields created = %d, want 3", len(f.repo.fields))
	}
	orders := map[int]bool{}
	for _, field := range f.repo.fields {
		orders[field.Order] = true
		if field.Type == domain.FieldSelect && (len(field.Options) != 2 || field.Options[0] != "Norte") {
			t.Errorf("select options = %v", field.Options)
		}
	}
	if !orders[1] || !orders[2] || !orders[3] {
		t.Fatalf("orders = %v, want 1..3", orders)
	}
	if f.cache.invalidated != 3 {
		t.Fatalf("cache invalidations = %d, want 3", f.cache.invalidated)
	}
}

func TestCustomFieldSaveMyFieldsChecksRequired(t *testing.T) {
	f := newFieldFixture(domain.FeatureCustomFields)
	required := &domain.CustomField{ID: uuid.New(), CompanyID: f.company, Label: "CRECI", Type: domain.FieldText, IsRequired: true, IsActive: true, Order: 1}
	optional := &domain.CustomField{ID: uuid.New(), CompanyID: f.company, Label: "Apelido", Type: domain.FieldText, IsActive: true, Order: 2}
	f.repo.fields[required.ID] = required
	f.repo.fields[optional.ID] = optional

	broker := authz.Actor{UserID: uuid.New(), Role: domain.RoleBroker, CompanyID: &f.company, CreatedBy: &f.owner.UserID}
	ctx := context.Background()

	blank := "  "
	_, err := f.svc.SaveMyFields(ctx, broker, SaveFieldsRequest{Fields: []FieldValue{{FieldID: required.ID, Value: &blank}}})
	if codeOf(err) != domain.CodeBadRequest {
		t.Fatalf("error = %v, want BAD_REQUEST", err)
	}

	creci := "12345-F"
	resp, err := f.svc.SaveMyFields(ctx, broker, SaveFieldsRequest{Fields: []FieldValue{
		{FieldID: required.ID, Value: &creci},
		{FieldID: uuid.New(), Value: &creci},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message == "" {
		t.Fatal("empty message")
	}
	saved := f.repo.responses[broker.UserID]
	if len(saved) != 1 || saved[0].FieldID != required.ID {
		t.Fatalf("saved = %+v, unknown fields must be dropped", saved)
	}

	pending, err := f.svc.HasPendingFields(ctx, &domain.User{ID: broker.UserID, CompanyID: &f.company, CreatedBy: &f.owner.UserID}, f.subs.current[f.owner.UserID])
	if err != nil || pending {
		t.Fatalf("HasPendingFields = %v, %v", pending, err)
	}
}

func TestCustomFieldActiveFieldsUsesCache(t *testing.T) {
	f := newFieldFixture(domain.FeatureCustomFields)
	f.repo.fields[uuid.New()] = &domain.CustomField{ID: uuid.New(), CompanyID: f.company, Label: "CRECI", IsActive: true}

	for range 3 {
		if _, err := f.svc.ActiveFields(context.Background(), f.company); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if f.repo.lists != 1 {
		t.Fatalf("repository listed %d times, want 1", f.repo.lists)
	}
}

func TestCustomFieldReorderIgnoresForeignIDs(t *testing.T) {
	f := newFieldFixture(domain.FeatureCustomFields)
	a := &domain.CustomField{ID: uuid.New(), CompanyID: f.company, Label: "A", IsActive: true}
	b := &domain.CustomField{ID: uuid.New(), CompanyID: f.company, Label: "B", IsActive: true}
	foreign := &domain.CustomField{ID: uuid.New(), CompanyID: uuid.New(), Label: "X", IsActive: true}
	for _, fd := range []*domain.CustomField{a, b, foreign} {
		f.repo.fields[fd.ID] = fd
	}

	if err := f.svc.Reorder(context.Background(), f.owner, []uuid.UUID{b.ID, foreign.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.repo.reordered) != 2 || f.repo.reordered[0] != b.ID || f.repo.reordered[1] != a.ID {
		t.Fatalf("reordered = %v", f.repo.reordered)
	}

	if err := f.svc.Reorder(context.Background(), f.owner, []uuid.UUID{foreign.ID}); codeOf(err) != domain.CodeBadRequest {
		t.Fatalf("error = %v, want BAD_REQUEST", err)
	}
}

func TestCustomFieldListWithoutFeature(t *testing.T) {
	f := newFieldFixture()
	list, err := f.svc.List(context.Background(), f.owner, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.HasFeature || len(list.Fields) != 0 {
		t.Fatalf("list = %+v", list)
	}
}

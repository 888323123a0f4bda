package service

import (
	"context"
	"testing"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/authz"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/google/uuid"
)

type propertyFixture struct {
	svc        *PropertyService
	properties *fakePropertyRepo
	users      *fakeUserRepo
	propOwner  *domain.PropertyOwner
	owner      authz.Actor
	broker     authz.Actor
	company    uuid.UUID
}

func newPropertyFixture() *propertyFixture {
	company := uuid.New()
	f := &propertyFixture{
		properties: newFakePropertyRepo(),
		owner:      ownerActor(company),
		broker:     brokerActor(company),
		company:    company,
	}
	f.users = newFakeUserRepo(&domain.User{ID: f.broker.UserID, Name: "Ana Corretora", Email: "ana@imob.com", Role: domain.RoleBroker, CompanyID: &company, IsActive: true})
	f.propOwner = &domain.PropertyOwner{ID: uuid.New(), CompanyID: company, Name: "Maria Souza", DocumentType: domain.DocumentKindCPF, Document: "39053344705", CreatedBy: f.broker.UserID}
	f.svc = NewPropertyService(f.properties, nil, newFakeOwnerRepo(f.propOwner), f.users, newFakeContractRepo())
	return f
}

func price(v int64) *int64 { return &v }

func (f *propertyFixture) request(listing domain.ListingType) CreatePropertyRequest {
	return CreatePropertyRequest{
		OwnerID:         f.propOwner.ID,
		Title:           "Casa com quintal",
		Type:            domain.PropertyHouse,
		ListingType:     listing,
		PropertyDetails: PropertyDetails{RentalPrice: price(250000), SalePrice: price(90000000)},
	}
}

func TestPropertyCreatePriceRules(t *testing.T) {
	tests := []struct {
		name    string
		listing domain.ListingType
		mutate  func(*PropertyDetails)
		want    domain.ErrorCode
	}{
		{"rent with rental price", domain.ListingRent, func(d *PropertyDetails) { d.SalePrice = nil }, ""},
		{"rent without rental price", domain.ListingRent, func(d *PropertyDetails) { d.RentalPrice = nil }, domain.CodeBadRequest},
		{"rent with zero rental price", domain.ListingRent, func(d *PropertyDetails) { d.RentalPrice = price(0) }, domain.CodeBadRequest},
		{"sale without sale price", domain.ListingSale, func(d *PropertyDetails) { d.SalePrice = nil }, domain.CodeBadRequest},
		{"sale ignores rental price", domain.ListingSale, func(d *PropertyDetails) { d.RentalPrice = nil }, ""},
		{"both needs sale price", domain.ListingBoth, func(d *PropertyDetails) { d.SalePrice = nil }, domain.CodeBadRequest},
		{"both needs rental price", domain.ListingBoth, func(d *PropertyDetails) { d.RentalPrice = nil }, domain.CodeBadRequest},
		{"negative condo fee", domain.ListingRent, func(d *PropertyDetails) { d.CondoFee = price(-1) }, domain.CodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPropertyFixture()
			req := f.request(tt.listing)
			tt.mutate(&req.PropertyDetails)

			_, err := f.svc.Create(context.Background(), f.owner, req)
			if codeOf(err) != tt.want {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestPropertyCreateAssignsSequentialCodes(t *testing.T) {
	f := newPropertyFixture()
	ctx := context.Background()

	for _, want := range []string{"IMV-00001", "IMV-00002"} {
		dto, err := f.svc.Create(ctx, f.owner, f.request(domain.ListingRent))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if dto.Code == nil || *dto.Code != want {
			t.Errorf("code = %v, want %s", dto.Code, want)
		}
		if dto.Status != domain.PropertyAvailable {
			t.Errorf("status = %s, want available", dto.Status)
		}
	}
}

func TestPropertyCreateByBrokerAssignsThemselves(t *testing.T) {
	f := newPropertyFixture()
	req := f.request(domain.ListingRent)
	other := uuid.New()
	req.BrokerID = &other

	dto, err := f.svc.Create(context.Background(), f.broker, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dto.BrokerID == nil || *dto.BrokerID != f.broker.UserID {
		t.Errorf("broker = %v, want the acting broker", dto.BrokerID)
	}
}

func TestPropertyCreateRejectsOwnerOfAnotherBroker(t *testing.T) {
	f := newPropertyFixture()
	f.propOwner.CreatedBy = uuid.New()

	_, err := f.svc.Create(context.Background(), f.broker, f.request(domain.ListingRent))
	if codeOf(err) != domain.CodeForbidden {
		t.Errorf("error = %v, want FORBIDDEN", err)
	}
	if len(f.properties.properties) != 0 {
		t.Errorf("%d properties stored", len(f.properties.properties))
	}
}

func TestPropertyCreateChecksRequestedBroker(t *testing.T) {
	other := uuid.New()

	tests := []struct {
		name string
		user func(company uuid.UUID) *domain.User
		want domain.ErrorCode
	}{
		{"broker of another company", func(uuid.UUID) *domain.User {
			return &domain.User{ID: uuid.New(), Email: "x@outra.com", Role: domain.RoleBroker, CompanyID: &other, IsActive: true}
		}, domain.CodeNotFound},
		{"manager", func(c uuid.UUID) *domain.User {
			return &domain.User{ID: uuid.New(), Email: "g@imob.com", Role: domain.RoleManager, CompanyID: &c, IsActive: true}
		}, domain.CodeBadRequest},
		{"inactive broker", func(c uuid.UUID) *domain.User {
			return &domain.User{ID: uuid.New(), Email: "i@imob.com", Role: domain.RoleBroker, CompanyID: &c}
		}, domain.CodeBadRequest},
		{"active broker", func(c uuid.UUID) *domain.User {
			return &domain.User{ID: uuid.New(), Email: "b@imob.com", Role: domain.RoleBroker, CompanyID: &c, IsActive: true}
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPropertyFixture()
			u := tt.user(f.company)
			f.users.users[u.ID] = u
			req := f.request(domain.ListingRent)
			req.BrokerID = &u.ID

			dto, err := f.svc.Create(context.Background(), f.owner, req)
			if codeOf(err) != tt.want {
				t.Fatalf("error = %v, want %q", err, tt.want)
			}
			if err == nil && (dto.BrokerID == nil || *dto.BrokerID != u.ID) {
				t.Errorf("broker = %v, want %s", dto.BrokerID, u.ID)
			}
		})
	}
}

func TestPropertyUpdateBrokerLimits(t *testing.T) {
	f := newPropertyFixture()
	ctx := context.Background()
	dto, err := f.svc.Create(ctx, f.broker, f.request(domain.ListingRent))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sold := domain.PropertySold
	_, err = f.svc.Update(ctx, f.broker, dto.ID, UpdatePropertyRequest{Status: &sold})
	if codeOf(err) != domain.CodeForbidden {
		t.Errorf("broker marks sold error = %v, want FORBIDDEN", err)
	}

	other := uuid.New()
	_, err = f.svc.Update(ctx, f.broker, dto.ID, UpdatePropertyRequest{BrokerID: &other})
	if codeOf(err) != domain.CodeForbidden {
		t.Errorf("broker reassigns error = %v, want FORBIDDEN", err)
	}

	_, err = f.svc.Update(ctx, brokerActor(f.company), dto.ID, UpdatePropertyRequest{Title: strPtr("Outro título")})
	if codeOf(err) != domain.CodeForbidden {
		t.Errorf("other broker update error = %v, want FORBIDDEN", err)
	}

	got, err := f.svc.Update(ctx, f.owner, dto.ID, UpdatePropertyRequest{Status: &sold})
	if err != nil {
		t.Fatalf("owner Update: %v", err)
	}
	if got.Status != domain.PropertySold {
		t.Errorf("status = %s, want sold", got.Status)
	}
}

func TestPropertyUpdateRechecksPrices(t *testing.T) {
	f := newPropertyFixture()
	ctx := context.Background()
	req := f.request(domain.ListingRent)
	req.SalePrice = nil
	dto, err := f.svc.Create(ctx, f.owner, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	sale := domain.ListingSale
	_, err = f.svc.Update(ctx, f.owner, dto.ID, UpdatePropertyRequest{ListingType: &sale})
	if codeOf(err) != domain.CodeBadRequest {
		t.Errorf("switch to sale without price error = %v, want BAD_REQUEST", err)
	}

	got, err := f.svc.Update(ctx, f.owner, dto.ID, UpdatePropertyRequest{ListingType: &sale, PropertyDetails: PropertyDetails{SalePrice: price(50000000)}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.ListingType != domain.ListingSale || got.SalePrice == nil || *got.SalePrice != 50000000 {
		t.Errorf("dto = %+v", got)
	}
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/authz"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/google/uuid"
)

// scopeLog records the company and broker scope each aggregate ran with.
// The dashboard queries run concurrently.
type scopeLog struct {
	mu        sync.Mutex
	companies map[string]uuid.UUID
	scopes    map[string]*uuid.UUID
	expiring  domain.ContractFilter
}

func (l *scopeLog) record(name string, companyID uuid.UUID, scope *uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.companies[name] = companyID
	l.scopes[name] = scope
}

type statsPropertyRepo struct {
	repository.PropertyRepository
	log *scopeLog
}

func (r *statsPropertyRepo) Stats(_ context.Context, companyID uuid.UUID, brokerID *uuid.UUID) (*domain.PropertyStats, error) {
	r.log.record("properties", companyID, brokerID)
	return &domain.PropertyStats{Total: 4, Available: 3, Rented: 1}, nil
}

type statsContractRepo struct {
	repository.ContractRepository
	log      *scopeLog
	expiring []*domain.Contract
}

func (r *statsContractRepo) Stats(_ context.Context, companyID uuid.UUID, brokerID *uuid.UUID) (*domain.ContractStats, error) {
	r.log.record("contracts", companyID, brokerID)
	return &domain.ContractStats{Total: 2, Active: 1, Terminated: 1, TotalRentalAmount: 250000}, nil
}

func (r *statsContractRepo) List(_ context.Context, filter domain.ContractFilter) ([]*domain.Contract, int, error) {
	r.log.record("expiring", filter.CompanyID, filter.BrokerID)
	r.log.mu.Lock()
	r.log.expiring = filter
	r.log.mu.Unlock()
	return r.expiring, len(r.expiring), nil
}

type statsOwnerRepo struct {
	repository.PropertyOwnerRepository
	log *scopeLog
}

func (r *statsOwnerRepo) List(_ context.Context, filter domain.ListFilter) ([]*domain.PropertyOwner, int, error) {
	r.log.record("owners", filter.CompanyID, filter.CreatedBy)
	return nil, 7, nil
}

type statsTenantRepo struct {
	repository.TenantRepository
	log *scopeLog
}

func (r *statsTenantRepo) List(_ context.Context, filter domain.ListFilter) ([]*domain.Tenant, int, error) {
	r.log.record("tenants", filter.CompanyID, filter.CreatedBy)
	return nil, 5, nil
}

func newDashboard(expiring ...*domain.Contract) (*DashboardService, *scopeLog) {
	l := &scopeLog{companies: map[string]uuid.UUID{}, scopes: map[string]*uuid.UUID{}}
	svc := NewDashboardService(
		&statsPropertyRepo{log: l},
		&statsContractRepo{log: l, expiring: expiring},
		&statsOwnerRepo{log: l},
		&statsTenantRepo{log: l},
	)
	svc.now = fixedClock
	return svc, l
}

func TestDashboardStatsScope(t *testing.T) {
	company := uuid.New()
	broker := brokerActor(company)
	analyst := authz.Actor{UserID: uuid.New(), Role: domain.RoleInsuranceAnalyst, CompanyID: &company}

	tests := []struct {
		name      string
		actor     authz.Actor
		wantScope *uuid.UUID
	}{
		{"owner sees the company", ownerActor(company), nil},
		{"analyst sees the company", analyst, nil},
		{"broker sees own records", broker, &broker.UserID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, l := newDashboard()
			stats, err := svc.GetStats(context.Background(), tt.actor)
			if err != nil {
				t.Fatalf("GetStats: %v", err)
			}
			if stats.Properties.Total != 4 || stats.Contracts.Active != 1 || stats.PropertyOwners.Total != 7 || stats.Tenants.Total != 5 {
				t.Errorf("stats = %+v", stats)
			}
			for _, name := range []string{"properties", "contracts", "owners", "tenants", "expiring"} {
				if got := l.companies[name]; got != company {
					t.Errorf("%s company = %s, want %s", name, got, company)
				}
				got := l.scopes[name]
				switch {
				case tt.wantScope == nil && got != nil:
					t.Errorf("%s scope = %s, want none", name, *got)
				case tt.wantScope != nil && (got == nil || *got != *tt.wantScope):
					t.Errorf("%s scope = %v, want %s", name, got, *tt.wantScope)
				}
			}
		})
	}
}

func TestDashboardExpiringContracts(t *testing.T) {
	company := uuid.New()
	ending := &domain.Contract{ID: uuid.New(), CompanyID: company, PropertyID: uuid.New(), TenantID: uuid.New(), EndDate: testNow.AddDate(0, 0, 12), RentalAmount: 180000}
	svc, l := newDashboard(ending)

	stats, err := svc.GetStats(context.Background(), ownerActor(company))
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if len(stats.ExpiringContracts) != 1 || stats.ExpiringContracts[0].ID != ending.ID || stats.ExpiringContracts[0].RentalAmount != 180000 {
		t.Errorf("expiring = %+v", stats.ExpiringContracts)
	}

	f := l.expiring
	if f.Status == nil || *f.Status != domain.ContractActive {
		t.Errorf("status filter = %v, want active", f.Status)
	}
	if f.EndsBefore == nil || !f.EndsBefore.Equal(testNow.Add(30*24*time.Hour)) {
		t.Errorf("ends before = %v", f.EndsBefore)
	}
	if f.Limit != expiringLimit {
		t.Errorf("limit = %d, want %d", f.Limit, expiringLimit)
	}
}

func TestDashboardEmptyExpiringList(t *testing.T) {
	svc, _ := newDashboard()
	stats, err := svc.GetStats(context.Background(), ownerActor(uuid.New()))
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.ExpiringContracts == nil {
		t.Error("expiring contracts is nil, want an empty list")
	}
}

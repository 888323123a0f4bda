package service

import (
	"context"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/authz"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	expiringWindow = 30 * 24 * time.Hour
	expiringLimit  = 10
)

type DashboardService struct {
	propertyRepo repository.PropertyRepository
	contractRepo repository.ContractRepository
	ownerRepo    repository.PropertyOwnerRepository
	tenantRepo   repository.TenantRepository
	now          func() time.Time
}

func NewDashboardService(
	propertyRepo repository.PropertyRepository,
	contractRepo repository.ContractRepository,
	ownerRepo repository.PropertyOwnerRepository,
	tenantRepo repository.TenantRepository,
) *DashboardService {
	return &DashboardService{
		propertyRepo: propertyRepo,
		contractRepo: contractRepo,
		ownerRepo:    ownerRepo,
		tenantRepo:   tenantRepo,
		now:          time.Now,
	}
}

type Total struct {
	Total int `json:"total"`
}

type ExpiringContract struct {
	ID           uuid.UUID `json:"id"`
	PropertyID   uuid.UUID `json:"propertyId"`
	TenantID     uuid.UUID `json:"tenantId"`
	EndDate      time.Time `json:"endDate"`
	RentalAmount int64     `json:"rentalAmount"`
}

type DashboardStats struct {
	Properties        domain.PropertyStats `json:"properties"`
	Contracts         domain.ContractStats `json:"contracts"`
	PropertyOwners    Total                `json:"propertyOwners"`
	Tenants           Total                `json:"tenants"`
	ExpiringContracts []ExpiringContract   `json:"expiringContracts"`
}

// GetStats aggregates the home screen counters. Brokers only see records
// they own.
func (s *DashboardService) GetStats(ctx context.Context, actor authz.Actor) (*DashboardStats, error) {
	companyID, err := authz.Authorize(actor, authz.ActionViewDashboard)
	if err != nil {
		return nil, err
	}
	scope := authz.BrokerScope(actor)
	until := s.now().Add(expiringWindow)
	active := domain.ContractActive
	out := &DashboardStats{ExpiringContracts: []ExpiringContract{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := s.propertyRepo.Stats(gctx, companyID, scope)
		if err == nil {
			out.Properties = *st
		}
		return err
	})
	g.Go(func() error {
		st, err := s.contractRepo.Stats(gctx, companyID, scope)
		if err == nil {
			out.Contracts = *st
		}
		return err
	})
	g.Go(func() error {
		_, total, err := s.ownerRepo.List(gctx, domain.ListFilter{CompanyID: companyID, CreatedBy: scope, Limit: 1})
		out.PropertyOwners.Total = total
		return err
	})
	g.Go(func() error {
		_, total, err := s.tenantRepo.List(gctx, domain.ListFilter{CompanyID: companyID, CreatedBy: scope, Limit: 1})
		out.Tenants.Total = total
		return err
	})
	g.Go(func() error {
		contracts, _, err := s.contractRepo.List(gctx, domain.ContractFilter{
			ListFilter: domain.ListFilter{CompanyID: companyID, Limit: expiringLimit},
			BrokerID:   scope,
			Status:     &active,
			EndsBefore: &until,
		})
		for _, c := range contracts {
			out.ExpiringContracts = append(out.ExpiringContracts, ExpiringContract{
				ID:           c.ID,
				PropertyID:   c.PropertyID,
				TenantID:     c.TenantID,
				EndDate:      c.EndDate,
				RentalAmount: c.RentalAmount,
			})
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internalError(err, "Erro ao carregar o painel. Tente novamente.", log.Fields{"company_id": companyID})
	}
	return out, nil
}

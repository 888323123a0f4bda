package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/authz"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/normalize"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const contractNotFound = "Contrato não encontrado."

type ContractService struct {
	contractRepo repository.ContractRepository
	propertyRepo repository.PropertyRepository
	tenantRepo   repository.TenantRepository
	ownerRepo    repository.PropertyOwnerRepository
	userRepo     repository.UserRepository
	now          func() time.Time
}

func NewContractService(
	contractRepo repository.ContractRepository,
	propertyRepo repository.PropertyRepository,
	tenantRepo repository.TenantRepository,
	ownerRepo repository.PropertyOwnerRepository,
	userRepo repository.UserRepository,
) *ContractService {
	return &ContractService{
		contractRepo: contractRepo,
		propertyRepo: propertyRepo,
		tenantRepo:   tenantRepo,
		ownerRepo:    ownerRepo,
		userRepo:     userRepo,
		now:          time.Now,
	}
}

type CreateContractRequest struct {
	PropertyID    uuid.UUID  `json:"propertyId" validate:"required"`
	TenantID      uuid.UUID  `json:"tenantId" validate:"required"`
	BrokerID      *uuid.UUID `json:"brokerId"`
	StartDate     time.Time  `json:"startDate" validate:"required"`
	EndDate       time.Time  `json:"endDate" validate:"required"`
	RentalAmount  int64      `json:"rentalAmount"`
	PaymentDay    int        `json:"paymentDay"`
	DepositAmount *int64     `json:"depositAmount"`
	Notes         *string    `json:"notes"`
}

type UpdateContractRequest struct {
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
	RentalAmount  *int64     `json:"rentalAmount"`
	PaymentDay    *int       `json:"paymentDay"`
	DepositAmount *int64     `json:"depositAmount"`
	Notes         *string    `json:"notes"`
}

type TerminateContractRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

type ContractListParams struct {
	ListParams
	Status     *domain.ContractStatus
	PropertyID *uuid.UUID
	TenantID   *uuid.UUID
}

type PropertyRef struct {
	ID    uuid.UUID `json:"id"`
	Code  *string   `json:"code"`
	Title string    `json:"title"`
}

type TenantRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	CPF  string    `json:"cpf"`
}

type ContractDTO struct {
	ID                uuid.UUID             `json:"id"`
	CompanyID         uuid.UUID             `json:"companyId"`
	PropertyID        uuid.UUID             `json:"propertyId"`
	OwnerID           uuid.UUID             `json:"ownerId"`
	TenantID          uuid.UUID             `json:"tenantId"`
	BrokerID          *uuid.UUID            `json:"brokerId"`
	StartDate         time.Time             `json:"startDate"`
	EndDate           time.Time             `json:"endDate"`
	RentalAmount      int64                 `json:"rentalAmount"`
	PaymentDay        int                   `json:"paymentDay"`
	DepositAmount     *int64                `json:"depositAmount"`
	Status            domain.ContractStatus `json:"status"`
	TerminatedAt      *time.Time            `json:"terminatedAt"`
	TerminationReason *string               `json:"terminationReason"`
	Notes             *string               `json:"notes"`
	Property          *PropertyRef          `json:"property,omitempty"`
	Tenant            *TenantRef            `json:"tenant,omitempty"`
	Owner             *PropertyOwnerRef     `json:"owner,omitempty"`
	Broker            *UserRef              `json:"broker,omitempty"`
	CreatedBy         uuid.UUID             `json:"createdBy"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

func toContractDTO(c *domain.Contract) *ContractDTO {
	return &ContractDTO{
		ID:                c.ID,
		CompanyID:         c.CompanyID,
		PropertyID:        c.PropertyID,
		OwnerID:           c.OwnerID,
		TenantID:          c.TenantID,
		BrokerID:          c.BrokerID,
		StartDate:         c.StartDate,
		EndDate:           c.EndDate,
		RentalAmount:      c.RentalAmount,
		PaymentDay:        c.PaymentDay,
		DepositAmount:     c.DepositAmount,
		Status:            c.Status,
		TerminatedAt:      c.TerminatedAt,
		TerminationReason: c.TerminationReason,
		Notes:             c.Notes,
		CreatedBy:         c.CreatedBy,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// Installment is one rent due date of a contract
type Installment struct {
	Number  int       `json:"number"`
	DueDate time.Time `json:"dueDate"`
	Amount  int64     `json:"amount"`
}

func checkContractTerms(start, end time.Time, paymentDay int, rental int64, deposit *int64) error {
	if !start.Before(end) {
		return domain.BadRequest("A data de início deve ser anterior à data de término.")
	}
	if !normalize.IsValidPaymentDay(paymentDay) {
		return domain.BadRequest("O dia de pagamento deve estar entre 1 e 31.")
	}
	if rental <= 0 {
		return domain.BadRequest("O valor do aluguel deve ser maior que zero.")
	}
	if !normalize.IsNonNegative(deposit) {
		return domain.BadRequest("O valor do depósito não pode ser negativo.")
	}
	return nil
}

func (s *ContractService) Create(ctx context.Context, actor authz.Actor, req CreateContractRequest) (*ContractDTO, error) {
	companyID, err := authz.Authorize(actor, authz.ActionCreateContract)
	if err != nil {
		return nil, err
	}
	if err := checkContractTerms(req.StartDate, req.EndDate, req.PaymentDay, req.RentalAmount, req.DepositAmount); err != nil {
		return nil, err
	}

	property, err := loadScoped(ctx, actor, s.propertyRepo.GetByID, req.PropertyID, propertyNotFound)
	if err != nil {
		return nil, err
	}
	if property.Status != domain.PropertyAvailable {
		return nil, domain.BadRequest(fmt.Sprintf("O imóvel não está disponível para locação. Status atual: %s.", property.Status))
	}
	if err := authz.RequireOwnership(actor, property.BrokerID, "Você só pode criar contratos para imóveis dos quais é responsável."); err != nil {
		return nil, err
	}

	fields := log.Fields{"property_id": property.ID, "company_id": companyID}
	if _, err := s.contractRepo.GetActiveByProperty(ctx, property.ID); err == nil {
		return nil, domain.BadRequest("Já existe um contrato ativo para este imóvel.")
	} else if !isNotFound(err) {
		return nil, internalError(err, "Erro ao criar contrato. Tente novamente.", fields)
	}

	tenant, err := loadScoped(ctx, actor, s.tenantRepo.GetByID, req.TenantID, tenantNotFound)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnership(actor, &tenant.CreatedBy, "Você só pode criar contratos com locatários que você cadastrou."); err != nil {
		return nil, err
	}

	brokerID := req.BrokerID
	switch {
	case actor.IsBroker():
		brokerID = &actor.UserID
	case brokerID == nil:
		brokerID = property.BrokerID
	default:
		if err := checkBroker(ctx, s.userRepo, companyID, *brokerID); err != nil {
			return nil, err
		}
	}

	contract := &domain.Contract{
		ID:            uuid.New(),
		CompanyID:     companyID,
		PropertyID:    property.ID,
		OwnerID:       property.OwnerID,
		TenantID:      tenant.ID,
		BrokerID:      brokerID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		RentalAmount:  req.RentalAmount,
		PaymentDay:    req.PaymentDay,
		DepositAmount: req.DepositAmount,
		Status:        domain.ContractActive,
		Notes:         normalize.Text(req.Notes),
		CreatedBy:     actor.UserID,
	}
	if err := s.contractRepo.Create(ctx, contract); err != nil {
		if isDuplicate(err) {
			return nil, domain.BadRequest("Já existe um contrato ativo para este imóvel.")
		}
		return nil, internalError(err, "Erro ao criar contrato. Tente novamente.", fields)
	}

	log.WithFields(log.Fields{"contract_id": contract.ID, "property_id": property.ID, "tenant_id": tenant.ID}).Info("contract: created")
	return toContractDTO(contract), nil
}

func (s *ContractService) load(ctx context.Context, actor authz.Actor, id uuid.UUID, action authz.Action, ownershipMsg string) (*domain.Contract, error) {
	if _, err := authz.Authorize(actor, action); err != nil {
		return nil, err
	}
	contract, err := loadScoped(ctx, actor, s.contractRepo.GetByID, id, contractNotFound)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnership(actor, contract.BrokerID, ownershipMsg); err != nil {
		return nil, err
	}
	return contract, nil
}

// Get returns the contract with its property, tenant, owner and broker
func (s *ContractService) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*ContractDTO, error) {
	contract, err := s.load(ctx, actor, id, authz.ActionViewContracts, "Você só pode visualizar contratos dos quais é responsável.")
	if err != nil {
		return nil, err
	}

	dto := toContractDTO(contract)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.propertyRepo.GetByID(gctx, contract.PropertyID)
		if err == nil {
			dto.Property = &PropertyRef{ID: p.ID, Code: p.Code, Title: p.Title}
		} else if !isNotFound(err) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		t, err := s.tenantRepo.GetByID(gctx, contract.TenantID)
		if err == nil {
			dto.Tenant = &TenantRef{ID: t.ID, Name: t.Name, CPF: t.CPF}
		} else if !isNotFound(err) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		o, err := s.ownerRepo.GetByID(gctx, contract.OwnerID)
		if err == nil {
			dto.Owner = &PropertyOwnerRef{ID: o.ID, Name: o.Name, Document: o.Document, Email: o.Email, Phone: o.Phone}
		} else if !isNotFound(err) {
			return err
		}
		return nil
	})
	if contract.BrokerID != nil {
		g.Go(func() error {
			u, err := s.userRepo.GetByID(gctx, *contract.BrokerID)
			if err == nil && u.ScopeCompanyID() == contract.CompanyID {
				dto.Broker = &UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
			} else if !isNotFound(err) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, internalError(err, "Erro ao buscar contrato. Tente novamente.", log.Fields{"contract_id": id})
	}
	return dto, nil
}

func (s *ContractService) List(ctx context.Context, actor authz.Actor, params ContractListParams) (*Page[*ContractDTO], error) {
	companyID, err := authz.Authorize(actor, authz.ActionViewContracts)
	if err != nil {
		return nil, err
	}
	params.ListParams = params.ListParams.Normalize()

	contracts, total, err := s.contractRepo.List(ctx, domain.ContractFilter{
		ListFilter: domain.ListFilter{
			CompanyID: companyID,
			Search:    strings.TrimSpace(params.Search),
			Limit:     params.Limit,
			Offset:    params.Offset(),
		},
		BrokerID:   authz.BrokerScope(actor),
		Status:     params.Status,
		PropertyID: params.PropertyID,
		TenantID:   params.TenantID,
	})
	if err != nil {
		return nil, internalError(err, "Erro ao listar contratos. Tente novamente.", log.Fields{"company_id": companyID})
	}

	items := make([]*ContractDTO, len(contracts))
	for i, c := range contracts {
		items[i] = toContractDTO(c)
	}
	return newPage(items, total, params.ListParams), nil
}

// Update edits the terms of an active contract
func (s *ContractService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, req UpdateContractRequest) (*ContractDTO, error) {
	contract, err := s.load(ctx, actor, id, authz.ActionUpdateContract, "Você só pode editar contratos dos quais é responsável.")
	if err != nil {
		return nil, err
	}
	if contract.Status != domain.ContractActive {
		return nil, domain.BadRequest("Apenas contratos ativos podem ser editados.")
	}
	if isEmptyUpdate(req) {
		return toContractDTO(contract), nil
	}

	if req.StartDate != nil {
		contract.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		contract.EndDate = *req.EndDate
	}
	if req.RentalAmount != nil {
		contract.RentalAmount = *req.RentalAmount
	}
	if req.PaymentDay != nil {
		contract.PaymentDay = *req.PaymentDay
	}
	if req.DepositAmount != nil {
		contract.DepositAmount = req.DepositAmount
	}
	if req.Notes != nil {
		contract.Notes = normalize.Text(req.Notes)
	}
	if err := checkContractTerms(contract.StartDate, contract.EndDate, contract.PaymentDay, contract.RentalAmount, contract.DepositAmount); err != nil {
		return nil, err
	}

	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, internalError(err, "Erro ao atualizar contrato. Tente novamente.", log.Fields{"contract_id": id})
	}

	log.WithFields(log.Fields{"contract_id": id, "updated_by": actor.UserID}).Info("contract: updated")
	return toContractDTO(contract), nil
}

// Terminate ends an active contract early and frees its property
func (s *ContractService) Terminate(ctx context.Context, actor authz.Actor, id uuid.UUID, req TerminateContractRequest) (*ContractDTO, error) {
	contract, err := s.load(ctx, actor, id, authz.ActionUpdateContract, "Você só pode encerrar contratos dos quais é responsável.")
	if err != nil {
		return nil, err
	}
	if contract.Status != domain.ContractActive {
		return nil, domain.BadRequest("Apenas contratos ativos podem ser encerrados.")
	}

	now := s.now()
	contract.Status = domain.ContractTerminated
	contract.TerminatedAt = &now
	contract.TerminationReason = normalize.Text(req.Reason)

	if err := s.contractRepo.Terminate(ctx, contract); err != nil {
		return nil, internalError(err, "Erro ao encerrar contrato. Tente novamente.", log.Fields{"contract_id": id})
	}

	log.WithFields(log.Fields{"contract_id": id, "property_id": contract.PropertyID, "terminated_by": actor.UserID}).Info("contract: terminated")
	return toContractDTO(contract), nil
}

// PaymentSchedule lists the rent due dates between start and end, the
// payment day clamped to short months
func (s *ContractService) PaymentSchedule(ctx context.Context, actor authz.Actor, id uuid.UUID) ([]Installment, error) {
	contract, err := s.load(ctx, actor, id, authz.ActionViewContracts, "Você só pode visualizar contratos dos quais é responsável.")
	if err != nil {
		return nil, err
	}

	dates := normalize.PaymentSchedule(contract.StartDate, contract.EndDate, contract.PaymentDay)
	schedule := make([]Installment, len(dates))
	for i, d := range dates {
		schedule[i] = Installment{Number: i + 1, DueDate: d, Amount: contract.RentalAmount}
	}
	return schedule, nil
}

// ExpireEnded expires every active contract whose end date has passed
func (s *ContractService) ExpireEnded(ctx context.Context) (int64, error) {
	n, err := s.contractRepo.ExpireEnded(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire contracts: %w", err)
	}
	if n > 0 {
		log.WithField("count", n).Info("contract: expired ended contracts")
	}
	return n, nil
}

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
)

const (
	tenantNotFound  = "Locatário não encontrado."
	tenantLabel     = "um locatário"
	tenantCPFTaken  = "Já existe um locatário cadastrado com este CPF na sua empresa."
	tenantDuplicate = "Já existe um locatário cadastrado com este CPF ou e-mail na sua empresa."
	negativeIncome  = "Renda mensal não pode ser negativa."
	invalidMarital  = "Estado civil inválido."
)

// TenantService manages the renters of a company
type TenantService struct {
	tenantRepo   repository.TenantRepository
	contractRepo repository.ContractRepository
}

func NewTenantService(tenantRepo repository.TenantRepository, contractRepo repository.ContractRepository) *TenantService {
	return &TenantService{tenantRepo: tenantRepo, contractRepo: contractRepo}
}

// TenantDetails are the optional fields shared by create and update. On
// update a blank string clears the field.
type TenantDetails struct {
	Email            *string               `json:"email"`
	Phone            *string               `json:"phone"`
	Address          *string               `json:"address"`
	City             *string               `json:"city"`
	State            *string               `json:"state"`
	ZipCode          *string               `json:"zipCode"`
	BirthDate        *string               `json:"birthDate"`
	MonthlyIncome    *int64                `json:"monthlyIncome"`
	Employer         *string               `json:"employer"`
	EmergencyContact *string               `json:"emergencyContact"`
	EmergencyPhone   *string               `json:"emergencyPhone"`
	RG               *string               `json:"rg"`
	Nationality      *string               `json:"nationality"`
	MaritalStatus    *domain.MaritalStatus `json:"maritalStatus"`
	Profession       *string               `json:"profession"`
	PhotoURL         *string               `json:"photoUrl"`
	Notes            *string               `json:"notes"`
}

type CreateTenantRequest struct {
	Name string `json:"name" validate:"required,min=2,max=200"`
	CPF  string `json:"cpf" validate:"required"`
	TenantDetails
}

type UpdateTenantRequest struct {
	Name *string `json:"name" validate:"omitempty,min=2,max=200"`
	CPF  *string `json:"cpf"`
	TenantDetails
}

type TenantDTO struct {
	ID               uuid.UUID             `json:"id"`
	CompanyID        uuid.UUID             `json:"companyId"`
	Name             string                `json:"name"`
	CPF              string                `json:"cpf"`
	Email            *string               `json:"email"`
	Phone            *string               `json:"phone"`
	Address          *string               `json:"address"`
	City             *string               `json:"city"`
	State            *string               `json:"state"`
	ZipCode          *string               `json:"zipCode"`
	BirthDate        *string               `json:"birthDate"`
	MonthlyIncome    *int64                `json:"monthlyIncome"`
	Employer         *string               `json:"employer"`
	EmergencyContact *string               `json:"emergencyContact"`
	EmergencyPhone   *string               `json:"emergencyPhone"`
	RG               *string               `json:"rg"`
	Nationality      *string               `json:"nationality"`
	MaritalStatus    *domain.MaritalStatus `json:"maritalStatus"`
	Profession       *string               `json:"profession"`
	PhotoURL         *string               `json:"photoUrl"`
	Notes            *string               `json:"notes"`
	CreatedBy        uuid.UUID             `json:"createdBy"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

func toTenantDTO(t *domain.Tenant) *TenantDTO {
	return &TenantDTO{
		ID:               t.ID,
		CompanyID:        t.CompanyID,
		Name:             t.Name,
		CPF:              t.CPF,
		Email:            t.Email,
		Phone:            t.Phone,
		Address:          t.Address,
		City:             t.City,
		State:            t.State,
		ZipCode:          t.ZipCode,
		BirthDate:        t.BirthDate,
		MonthlyIncome:    t.MonthlyIncome,
		Employer:         t.Employer,
		EmergencyContact: t.EmergencyContact,
		EmergencyPhone:   t.EmergencyPhone,
		RG:               t.RG,
		Nationality:      t.Nationality,
		MaritalStatus:    t.MaritalStatus,
		Profession:       t.Profession,
		PhotoURL:         t.PhotoURL,
		Notes:            t.Notes,
		CreatedBy:        t.CreatedBy,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func (s *TenantService) cpfLookup(ctx context.Context, companyID uuid.UUID, cpf string) (uuid.UUID, error) {
	t, err := s.tenantRepo.GetByCPF(ctx, companyID, cpf)
	if err != nil {
		return uuid.Nil, err
	}
	return t.ID, nil
}

func (s *TenantService) emailLookup(ctx context.Context, companyID uuid.UUID, email string) (uuid.UUID, error) {
	t, err := s.tenantRepo.GetByEmail(ctx, companyID, email)
	if err != nil {
		return uuid.Nil, err
	}
	return t.ID, nil
}

// applyDetails copies every provided field onto t, normalized. Email is
// handled by the caller because it needs the uniqueness check.
func applyTenantDetails(t *domain.Tenant, d TenantDetails) error {
	if d.MonthlyIncome != nil && *d.MonthlyIncome < 0 {
		return domain.BadRequest(negativeIncome)
	}
	if d.MaritalStatus != nil && *d.MaritalStatus != "" && !d.MaritalStatus.Valid() {
		return domain.BadRequest(invalidMarital)
	}

	if d.Phone != nil {
		t.Phone = digitsOrNil(d.Phone)
	}
	if d.Address != nil {
		t.Address = normalize.Text(d.Address)
	}
	if d.City != nil {
		t.City = normalize.Text(d.City)
	}
	if d.State != nil {
		t.State = stateOrNil(d.State)
	}
	if d.ZipCode != nil {
		t.ZipCode = digitsOrNil(d.ZipCode)
	}
	if d.BirthDate != nil {
		t.BirthDate = normalize.Text(d.BirthDate)
	}
	if d.MonthlyIncome != nil {
		t.MonthlyIncome = d.MonthlyIncome
	}
	if d.Employer != nil {
		t.Employer = normalize.Text(d.Employer)
	}
	if d.EmergencyContact != nil {
		t.EmergencyContact = normalize.Text(d.EmergencyContact)
	}
	if d.EmergencyPhone != nil {
		t.EmergencyPhone = digitsOrNil(d.EmergencyPhone)
	}
	if d.RG != nil {
		t.RG = normalize.Text(d.RG)
	}
	if d.Nationality != nil {
		t.Nationality = normalize.Text(d.Nationality)
	}
	if d.MaritalStatus != nil {
		if *d.MaritalStatus == "" {
			t.MaritalStatus = nil
		} else {
			ms := *d.MaritalStatus
			t.MaritalStatus = &ms
		}
	}
	if d.Profession != nil {
		t.Profession = normalize.Text(d.Profession)
	}
	if d.PhotoURL != nil {
		t.PhotoURL = normalize.Text(d.PhotoURL)
	}
	if d.Notes != nil {
		t.Notes = normalize.Text(d.Notes)
	}
	return nil
}

func (s *TenantService) Create(ctx context.Context, actor authz.Actor, req CreateTenantRequest) (*TenantDTO, error) {
	companyID, err := authz.Authorize(actor, authz.ActionManageTenants)
	if err != nil {
		return nil, err
	}

	cpf, err := ensureDocumentAvailable(ctx, s.cpfLookup, companyID, req.CPF, domain.DocumentKindCPF, nil, tenantCPFTaken)
	if err != nil {
		return nil, err
	}

	tenant := &domain.Tenant{
		ID:        uuid.New(),
		CompanyID: companyID,
		Name:      strings.TrimSpace(req.Name),
		CPF:       cpf,
		CreatedBy: actor.UserID,
	}

	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		email, err := ensureEmailAvailable(ctx, s.emailLookup, companyID, *req.Email, nil, tenantLabel)
		if err != nil {
			return nil, err
		}
		tenant.Email = &email
	}
	details := req.TenantDetails
	details.Email = nil
	if err := applyTenantDetails(tenant, details); err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, tenantWriteError(err, "Erro ao criar locatário. Tente novamente.", companyID)
	}

	log.WithFields(log.Fields{"tenant_id": tenant.ID, "company_id": companyID, "created_by": actor.UserID}).Info("tenant: created")
	return toTenantDTO(tenant), nil
}

// tenantWriteError maps a unique violation lost to a concurrent write to a
// conflict. Both the CPF and the email are unique per company and the
// driver error does not say which one was hit.
func tenantWriteError(err error, msg string, companyID uuid.UUID) error {
	if isDuplicate(err) {
		return domain.Conflict(tenantDuplicate)
	}
	return internalError(err, msg, log.Fields{"company_id": companyID})
}

func (s *TenantService) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*TenantDTO, error) {
	if _, err := authz.Authorize(actor, authz.ActionViewTenants); err != nil {
		return nil, err
	}
	tenant, err := loadScoped(ctx, actor, s.tenantRepo.GetByID, id, tenantNotFound)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnership(actor, &tenant.CreatedBy, "Você só pode visualizar locatários que você cadastrou."); err != nil {
		return nil, err
	}
	return toTenantDTO(tenant), nil
}

func (s *TenantService) List(ctx context.Context, actor authz.Actor, params ListParams) (*Page[*TenantDTO], error) {
	companyID, err := authz.Authorize(actor, authz.ActionViewTenants)
	if err != nil {
		return nil, err
	}
	params = params.Normalize()

	tenants, total, err := s.tenantRepo.List(ctx, domain.ListFilter{
		CompanyID: companyID,
		CreatedBy: authz.BrokerScope(actor),
		Search:    strings.TrimSpace(params.Search),
		Limit:     params.Limit,
		Offset:    params.Offset(),
	})
	if err != nil {
		return nil, internalError(err, "Erro ao listar locatários. Tente novamente.", log.Fields{"company_id": companyID})
	}

	items := make([]*TenantDTO, len(tenants))
	for i, t := range tenants {
		items[i] = toTenantDTO(t)
	}
	return newPage(items, total, params), nil
}

// Update re-checks uniqueness only for values that actually change
func (s *TenantService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, req UpdateTenantRequest) (*TenantDTO, error) {
	companyID, err := authz.Authorize(actor, authz.ActionManageTenants)
	if err != nil {
		return nil, err
	}
	tenant, err := loadScoped(ctx, actor, s.tenantRepo.GetByID, id, tenantNotFound)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnership(actor, &tenant.CreatedBy, "Você só pode editar locatários que você cadastrou."); err != nil {
		return nil, err
	}

	if isEmptyUpdate(req) {
		return toTenantDTO(tenant), nil
	}

	if req.Name != nil {
		tenant.Name = strings.TrimSpace(*req.Name)
	}
	if req.CPF != nil && normalize.Digits(*req.CPF) != tenant.CPF {
		cpf, err := ensureDocumentAvailable(ctx, s.cpfLookup, companyID, *req.CPF, domain.DocumentKindCPF, &tenant.ID, tenantCPFTaken)
		if err != nil {
			return nil, err
		}
		tenant.CPF = cpf
	}
	if req.Email != nil {
		if err := s.updateEmail(ctx, companyID, tenant, *req.Email); err != nil {
			return nil, err
		}
	}

	details := req.TenantDetails
	details.Email = nil
	if err := applyTenantDetails(tenant, details); err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, tenantWriteError(err, "Erro ao atualizar locatário. Tente novamente.", companyID)
	}

	log.WithFields(log.Fields{"tenant_id": tenant.ID, "updated_by": actor.UserID}).Info("tenant: updated")
	return toTenantDTO(tenant), nil
}

func (s *TenantService) updateEmail(ctx context.Context, companyID uuid.UUID, tenant *domain.Tenant, raw string) error {
	if strings.TrimSpace(raw) == "" {
		tenant.Email = nil
		return nil
	}
	if tenant.Email != nil && normalize.Email(raw) == *tenant.Email {
		return nil
	}
	email, err := ensureEmailAvailable(ctx, s.emailLookup, companyID, raw, &tenant.ID, tenantLabel)
	if err != nil {
		return err
	}
	tenant.Email = &email
	return nil
}

// Delete refuses while any contract still references the tenant
func (s *TenantService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if _, err := authz.Authorize(actor, authz.ActionManageTenants); err != nil {
		return err
	}
	tenant, err := loadScoped(ctx, actor, s.tenantRepo.GetByID, id, tenantNotFound)
	if err != nil {
		return err
	}
	if err := authz.RequireOwnership(actor, &tenant.CreatedBy, "Você só pode excluir locatários que você cadastrou."); err != nil {
		return err
	}

	fields := log.Fields{"tenant_id": id}
	active, err := s.contractRepo.CountByTenant(ctx, id, true)
	if err != nil {
		return internalError(err, "Erro ao excluir locatário. Tente novamente.", fields)
	}
	if active > 0 {
		return domain.BadRequest(fmt.Sprintf("Não é possível excluir este locatário. Existem %d contrato(s) ativo(s) vinculado(s).", active))
	}
	all, err := s.contractRepo.CountByTenant(ctx, id, false)
	if err != nil {
		return internalError(err, "Erro ao excluir locatário. Tente novamente.", fields)
	}
	if all > 0 {
		return domain.BadRequest(fmt.Sprintf("Não é possível excluir este locatário. Existem %d contrato(s) vinculado(s).", all))
	}

	if err := s.tenantRepo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return domain.NotFound(tenantNotFound)
		}
		return internalError(err, "Erro ao excluir locatário. Tente novamente.", fields)
	}

	log.WithFields(log.Fields{"tenant_id": id, "deleted_by": actor.UserID}).Info("tenant: deleted")
	return nil
}

package service

import (
	"context"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/authz"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/normalize"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const companyNotFound = "Empresa não encontrada"

type CompanyService struct {
	companyRepo repository.CompanyRepository
}

func NewCompanyService(companyRepo repository.CompanyRepository) *CompanyService {
	return &CompanyService{companyRepo: companyRepo}
}

type UpdateCompanyRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=2,max=100"`
	CNPJ    *string `json:"cnpj"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address" validate:"omitempty,max=255"`
	City    *string `json:"city" validate:"omitempty,max=100"`
	State   *string `json:"state" validate:"omitempty,len=2"`
	ZipCode *string `json:"zipCode"`
	LogoURL *string `json:"logoUrl" validate:"omitempty,url"`
}

type CompanyDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CNPJ      *string   `json:"cnpj"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	City      *string   `json:"city"`
	State     *string   `json:"state"`
	ZipCode   *string   `json:"zipCode"`
	LogoURL   *string   `json:"logoUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toCompanyDTO(c *domain.Company) *CompanyDTO {
	return &CompanyDTO{
		ID:        c.ID,
		Name:      c.Name,
		CNPJ:      c.CNPJ,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		City:      c.City,
		State:     c.State,
		ZipCode:   c.ZipCode,
		LogoURL:   c.LogoURL,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (s *CompanyService) load(ctx context.Context, companyID uuid.UUID) (*domain.Company, error) {
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NotFound(companyNotFound)
		}
		return nil, internalError(err, "Erro ao buscar empresa. Tente novamente.", log.Fields{"company_id": companyID})
	}
	return company, nil
}

func (s *CompanyService) Get(ctx context.Context, actor authz.Actor) (*CompanyDTO, error) {
	companyID, err := authz.Authorize(actor, authz.ActionViewCompany)
	if err != nil {
		return nil, err
	}
	company, err := s.load(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return toCompanyDTO(company), nil
}

func (s *CompanyService) Update(ctx context.Context, actor authz.Actor, req UpdateCompanyRequest) (*CompanyDTO, error) {
	companyID, err := authz.Authorize(actor, authz.ActionUpdateCompany)
	if err != nil {
		return nil, err
	}
	company, err := s.load(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if isEmptyUpdate(req) {
		return toCompanyDTO(company), nil
	}

	if req.CNPJ != nil {
		cnpj := digitsOrNil(req.CNPJ)
		if cnpj != nil && !normalize.IsValidCNPJ(*cnpj) {
			return nil, domain.NewError(domain.CodeInvalidCNPJ, "")
		}
		company.CNPJ = cnpj
	}
	if req.Phone != nil {
		if p := normalize.Text(req.Phone); p != nil && !normalize.IsValidPhone(*p) {
			return nil, domain.NewError(domain.CodeInvalidPhone, invalidPhoneMsg)
		}
		company.Phone = digitsOrNil(req.Phone)
	}
	if req.ZipCode != nil {
		if z := normalize.Text(req.ZipCode); z != nil && !normalize.IsValidZipCode(*z) {
			return nil, domain.BadRequest("CEP inválido. Use o formato 00000-000.")
		}
		company.ZipCode = digitsOrNil(req.ZipCode)
	}
	if req.Email != nil {
		if e := normalize.Text(req.Email); e != nil {
			addr := normalize.Email(*e)
			company.Email = &addr
		} else {
			company.Email = nil
		}
	}
	if req.Name != nil {
		company.Name = normalize.SanitizeName(*req.Name)
	}
	if req.Address != nil {
		company.Address = normalize.Text(req.Address)
	}
	if req.City != nil {
		company.City = normalize.Text(req.City)
	}
	if req.State != nil {
		company.State = stateOrNil(req.State)
	}
	if req.LogoURL != nil {
		company.LogoURL = normalize.Text(req.LogoURL)
	}

	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, internalError(err, "Erro ao atualizar empresa. Tente novamente.", log.Fields{"company_id": companyID})
	}

	log.WithFields(log.Fields{"company_id": companyID, "updated_by": actor.UserID}).Info("company: updated")
	return toCompanyDTO(company), nil
}

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
	ownerNotFound      = "Proprietário não encontrado."
	ownerLabel         = "um proprietário"
	ownerDocumentTaken = "Já existe um proprietário cadastrado com este documento na sua empresa."
)

type PropertyOwnerService struct {
	ownerRepo    repository.PropertyOwnerRepository
	propertyRepo repository.PropertyRepository
	contractRepo repository.ContractRepository
}

func NewPropertyOwnerService(
	ownerRepo repository.PropertyOwnerRepository,
	propertyRepo repository.PropertyRepository,
	contractRepo repository.ContractRepository,
) *PropertyOwnerService {
	return &PropertyOwnerService{ownerRepo: ownerRepo, propertyRepo: propertyRepo, contractRepo: contractRepo}
}

type OwnerDetails struct {
	RG                *string               `json:"rg"`
	Nationality       *string               `json:"nationality"`
	MaritalStatus     *domain.MaritalStatus `json:"maritalStatus"`
	Profession        *string               `json:"profession"`
	Email             *string               `json:"email"`
	Phone             *string               `json:"phone"`
	PhoneSecondary    *string               `json:"phoneSecondary"`
	Address           *string               `json:"address"`
	AddressNumber     *string               `json:"addressNumber"`
	AddressComplement *string               `json:"addressComplement"`
	Neighborhood      *string               `json:"neighborhood"`
	City              *string               `json:"city"`
	State             *string               `json:"state"`
	ZipCode           *string               `json:"zipCode"`
	BirthDate         *string               `json:"birthDate"`
	PhotoURL          *string               `json:"photoUrl"`
	Notes             *string               `json:"notes"`
}

type CreatePropertyOwnerRequest struct {
	Name         string              `json:"name" validate:"required,min=2,max=200"`
	DocumentType domain.DocumentKind `json:"documentType" validate:"required,oneof=cpf cnpj"`
	Document     string              `json:"document" validate:"required"`
	OwnerDetails
}

type UpdatePropertyOwnerRequest struct {
	Name         *string              `json:"name" validate:"omitempty,min=2,max=200"`
	DocumentType *domain.DocumentKind `json:"documentType" validate:"omitempty,oneof=cpf cnpj"`
	Document     *string              `json:"document"`
	OwnerDetails
}

type PropertyOwnerDTO struct {
	ID                uuid.UUID             `json:"id"`
	CompanyID         uuid.UUID             `json:"companyId"`
	Name              string                `json:"name"`
	DocumentType      domain.DocumentKind   `json:"documentType"`
	Document          string                `json:"document"`
	RG                *string               `json:"rg"`
	Nationality       *string               `json:"nationality"`
	MaritalStatus     *domain.MaritalStatus `json:"maritalStatus"`
	Profession        *string               `json:"profession"`
	Email             *string               `json:"email"`
	Phone             *string               `json:"phone"`
	PhoneSecondary    *string               `json:"phoneSecondary"`
	Address           *string               `json:"address"`
	AddressNumber     *string               `json:"addressNumber"`
	AddressComplement *string               `json:"addressComplement"`
	Neighborhood      *string               `json:"neighborhood"`
	City              *string               `json:"city"`
	State             *string               `json:"state"`
	ZipCode           *string               `json:"zipCode"`
	BirthDate         *string               `json:"birthDate"`
	PhotoURL          *string               `json:"photoUrl"`
	Notes             *string               `json:"notes"`
	CreatedBy         uuid.UUID             `json:"createdBy"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

func toPropertyOwnerDTO(o *domain.PropertyOwner) *PropertyOwnerDTO {
	return &PropertyOwnerDTO{
		ID:                o.ID,
		CompanyID:         o.CompanyID,
		Name:              o.Name,
		DocumentType:      o.DocumentType,
		Document:          o.Document,
		RG:                o.RG,
		Nationality:       o.Nationality,
		MaritalStatus:     o.MaritalStatus,
		Profession:        o.Profession,
		Email:             o.Email,
		Phone:             o.Phone,
		PhoneSecondary:    o.PhoneSecondary,
		Address:           o.Address,
		AddressNumber:     o.AddressNumber,
		AddressComplement: o.AddressComplement,
		Neighborhood:      o.Neighborhood,
		City:              o.City,
		State:             o.State,
		ZipCode:           o.ZipCode,
		BirthDate:         o.BirthDate,
		PhotoURL:          o.PhotoURL,
		Notes:             o.Notes,
		CreatedBy:         o.CreatedBy,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func (s *PropertyOwnerService) documentLookup(ctx context.Context, companyID uuid.UUID, document string) (uuid.UUID, error) {
	o, err := s.ownerRepo.GetByDocument(ctx, companyID, document)
	if err != nil {
		return uuid.Nil, err
	}
	return o.ID, nil
}

func (s *PropertyOwnerService) emailLookup(ctx context.Context, companyID uuid.UUID, email string) (uuid.UUID, error) {
	o, err := s.ownerRepo.GetByEmail(ctx, companyID, email)
	if err != nil {
		return uuid.Nil, err
	}
	return o.ID, nil
}

func applyOwnerDetails(o *domain.PropertyOwner, d OwnerDetails) error {
	if d.MaritalStatus != nil && *d.MaritalStatus != "" && !d.MaritalStatus.Valid() {
		return domain.BadRequest(invalidMarital)
	}
	if d.ZipCode != nil && strings.TrimSpace(*d.ZipCode) != "" && !normalize.IsValidZipCode(*d.ZipCode) {
		return domain.BadRequest("CEP inválido. Deve conter 8 dígitos.")
	}

	if d.RG != nil {
		o.RG = normalize.Text(d.RG)
	}
	if d.Nationality != nil {
		o.Nationality = normalize.Text(d.Nationality)
	}
	if d.MaritalStatus != nil {
		if *d.MaritalStatus == "" {
			o.MaritalStatus = nil
		} else {
			ms := *d.MaritalStatus
			o.MaritalStatus = &ms
		}
	}
	if d.Profession != nil {
		o.Profession = normalize.Text(d.Profession)
	}
	if d.Phone != nil {
		o.Phone = digitsOrNil(d.Phone)
	}
	if d.PhoneSecondary != nil {
		o.PhoneSecondary = digitsOrNil(d.PhoneSecondary)
	}
	if d.Address != nil {
		o.Address = normalize.Text(d.Address)
	}
	if d.AddressNumber != nil {
		o.AddressNumber = normalize.Text(d.AddressNumber)
	}
	if d.AddressComplement != nil {
		o.AddressComplement = normalize.Text(d.AddressComplement)
	}
	if d.Neighborhood != nil {
		o.Neighborhood = normalize.Text(d.Neighborhood)
	}
	if d.City != nil {
		o.City = normalize.Text(d.City)
	}
	if d.State != nil {
		o.State = stateOrNil(d.State)
	}
	if d.ZipCode != nil {
		o.ZipCode = digitsOrNil(d.ZipCode)
	}
	if d.BirthDate != nil {
		o.BirthDate = normalize.Text(d.BirthDate)
	}
	if d.PhotoURL != nil {
		o.PhotoURL = normalize.Text(d.PhotoURL)
	}
	if d.Notes != nil {
		o.Notes = normalize.Text(d.Notes)
	}
	return nil
}

func (s *PropertyOwnerService) Create(ctx context.Context, actor authz.Actor, req CreatePropertyOwnerRequest) (*PropertyOwnerDTO, error) {
	companyID, err := authz.Authorize(actor, authz.ActionManagePropertyOwners)
	if err != nil {
		return nil, err
	}

	document, err := ensureDocumentAvailable(ctx, s.documentLookup, companyID, req.Document, req.DocumentType, nil, ownerDocumentTaken)
	if err != nil {
		return nil, err
	}

	owner := &domain.PropertyOwner{
		ID:           uuid.New(),
		CompanyID:    companyID,
		Name:         strings.TrimSpace(req.Name),
		DocumentType: req.DocumentType,
		Document:     document,
		CreatedBy:    actor.UserID,
	}

	if req.Email != nil && strings.TrimSpace(*req.Email) != "" {
		email, err := ensureEmailAvailable(ctx, s.emailLookup, companyID, *req.Email, nil, ownerLabel)
		if err != nil {
			return nil, err
		}
		owner.Email = &email
	}
	details := req.OwnerDetails
	details.Email = nil
	if err := applyOwnerDetails(owner, details); err != nil {
		return nil, err
	}

	if err := s.ownerRepo.Create(ctx, owner); err != nil {
		if isDuplicate(err) {
			return nil, domain.Conflict(ownerDocumentTaken)
		}
		return nil, internalError(err, "Erro ao criar proprietário. Tente novamente.", log.Fields{"company_id": companyID})
	}

	log.WithFields(log.Fields{"owner_id": owner.ID, "company_id": companyID, "created_by": actor.UserID}).Info("property owner: created")
	return toPropertyOwnerDTO(owner), nil
}

func (s *PropertyOwnerService) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*PropertyOwnerDTO, error) {
	if _, err := authz.Authorize(actor, authz.ActionViewPropertyOwners); err != nil {
		return nil, err
	}
	owner, err := loadScoped(ctx, actor, s.ownerRepo.GetByID, id, ownerNotFound)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnership(actor, &owner.CreatedBy, "Você só pode visualizar proprietários que você cadastrou."); err != nil {
		return nil, err
	}
	return toPropertyOwnerDTO(owner), nil
}

func (s *PropertyOwnerService) List(ctx context.Context, actor authz.Actor, params ListParams) (*Page[*PropertyOwnerDTO], error) {
	companyID, err := authz.Authorize(actor, authz.ActionViewPropertyOwners)
	if err != nil {
		return nil, err
	}
	params = params.Normalize()

	owners, total, err := s.ownerRepo.List(ctx, domain.ListFilter{
		CompanyID: companyID,
		CreatedBy: authz.BrokerScope(actor),
		Search:    strings.TrimSpace(params.Search),
		Limit:     params.Limit,
		Offset:    params.Offset(),
	})
	if err != nil {
		return nil, internalError(err, "Erro ao listar proprietários. Tente novamente.", log.Fields{"company_id": companyID})
	}

	items := make([]*PropertyOwnerDTO, len(owners))
	for i, o := range owners {
		items[i] = toPropertyOwnerDTO(o)
	}
	return newPage(items, total, params), nil
}

func (s *PropertyOwnerService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, req UpdatePropertyOwnerRequest) (*PropertyOwnerDTO, error) {
	companyID, err := authz.Authorize(actor, authz.ActionManagePropertyOwners)
	if err != nil {
		return nil, err
	}
	owner, err := loadScoped(ctx, actor, s.ownerRepo.GetByID, id, ownerNotFound)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnership(actor, &owner.CreatedBy, "Você só pode editar proprietários que você cadastrou."); err != nil {
		return nil, err
	}

	if isEmptyUpdate(req) {
		return toPropertyOwnerDTO(owner), nil
	}

	if req.Name != nil {
		owner.Name = strings.TrimSpace(*req.Name)
	}

	kind := owner.DocumentType
	if req.DocumentType != nil {
		kind = *req.DocumentType
	}
	document := owner.Document
	if req.Document != nil {
		document = normalize.Digits(*req.Document)
	}
	if kind != owner.DocumentType || document != owner.Document {
		checked, err := ensureDocumentAvailable(ctx, s.documentLookup, companyID, document, kind, &owner.ID, ownerDocumentTaken)
		if err != nil {
			return nil, err
		}
		owner.DocumentType = kind
		owner.Document = checked
	}

	if req.Email != nil {
		if err := s.updateEmail(ctx, companyID, owner, *req.Email); err != nil {
			return nil, err
		}
	}

	details := req.OwnerDetails
	details.Email = nil
	if err := applyOwnerDetails(owner, details); err != nil {
		return nil, err
	}

	if err := s.ownerRepo.Update(ctx, owner); err != nil {
		if isDuplicate(err) {
			return nil, domain.Conflict(ownerDocumentTaken)
		}
		return nil, internalError(err, "Erro ao atualizar proprietário. Tente novamente.", log.Fields{"owner_id": id})
	}

	log.WithFields(log.Fields{"owner_id": owner.ID, "updated_by": actor.UserID}).Info("property owner: updated")
	return toPropertyOwnerDTO(owner), nil
}

func (s *PropertyOwnerService) updateEmail(ctx context.Context, companyID uuid.UUID, owner *domain.PropertyOwner, raw string) error {
	if strings.TrimSpace(raw) == "" {
		owner.Email = nil
		return nil
	}
	if owner.Email != nil && normalize.Email(raw) == *owner.Email {
		return nil
	}
	email, err := ensureEmailAvailable(ctx, s.emailLookup, companyID, raw, &owner.ID, ownerLabel)
	if err != nil {
		return err
	}
	owner.Email = &email
	return nil
}

// Delete refuses while properties or contracts reference the owner
func (s *PropertyOwnerService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if _, err := authz.Authorize(actor, authz.ActionManagePropertyOwners); err != nil {
		return err
	}
	owner, err := loadScoped(ctx, actor, s.ownerRepo.GetByID, id, ownerNotFound)
	if err != nil {
		return err
	}
	if err := authz.RequireOwnership(actor, &owner.CreatedBy, "Você só pode excluir proprietários que você cadastrou."); err != nil {
		return err
	}

	fields := log.Fields{"owner_id": id}
	properties, err := s.propertyRepo.CountByOwner(ctx, id)
	if err != nil {
		return internalError(err, "Erro ao excluir proprietário. Tente novamente.", fields)
	}
	if properties > 0 {
		return domain.BadRequest(fmt.Sprintf("Não é possível excluir este proprietário. Existem %d imóvel(is) vinculado(s).", properties))
	}
	contracts, err := s.contractRepo.CountByOwner(ctx, id)
	if err != nil {
		return internalError(err, "Erro ao excluir proprietário. Tente novamente.", fields)
	}
	if contracts > 0 {
		return domain.BadRequest(fmt.Sprintf("Não é possível excluir este proprietário. Existem %d contrato(s) vinculado(s).", contracts))
	}

	if err := s.ownerRepo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return domain.NotFound(ownerNotFound)
		}
		return internalError(err, "Erro ao excluir proprietário. Tente novamente.", fields)
	}

	log.WithFields(log.Fields{"owner_id": id, "deleted_by": actor.UserID}).Info("property owner: deleted")
	return nil
}

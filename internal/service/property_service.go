package service

import (
	"context"
	"fmt"
	"slices"
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

const (
	propertyNotFound      = "Imóvel não encontrado."
	photoNotFound         = "Foto não encontrada."
	maxPhotosPerProperty  = 20
	maxPhotoSize          = 10 * 1024 * 1024
	enrichmentConcurrency = 8
)

var (
	propertyTypes  = []domain.PropertyType{domain.PropertyHouse, domain.PropertyApartment, domain.PropertyLand, domain.PropertyCommercial, domain.PropertyRural}
	listingTypes   = []domain.ListingType{domain.ListingRent, domain.ListingSale, domain.ListingBoth}
	propertyStatus = []domain.PropertyStatus{domain.PropertyAvailable, domain.PropertyRented, domain.PropertySold, domain.PropertyMaintenance, domain.PropertyUnavailable}
	photoMimeTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
)

type PropertyService struct {
	propertyRepo repository.PropertyRepository
	photoRepo    repository.PropertyPhotoRepository
	ownerRepo    repository.PropertyOwnerRepository
	userRepo     repository.UserRepository
	contractRepo repository.ContractRepository
}

func NewPropertyService(
	propertyRepo repository.PropertyRepository,
	photoRepo repository.PropertyPhotoRepository,
	ownerRepo repository.PropertyOwnerRepository,
	userRepo repository.UserRepository,
	contractRepo repository.ContractRepository,
) *PropertyService {
	return &PropertyService{
		propertyRepo: propertyRepo,
		photoRepo:    photoRepo,
		ownerRepo:    ownerRepo,
		userRepo:     userRepo,
		contractRepo: contractRepo,
	}
}

// PropertyDetails holds the optional attributes shared by create and update
type PropertyDetails struct {
	Description          *string                  `json:"description"`
	Address              *string                  `json:"address"`
	AddressNumber        *string                  `json:"addressNumber"`
	AddressComplement    *string                  `json:"addressComplement"`
	Neighborhood         *string                  `json:"neighborhood"`
	City                 *string                  `json:"city"`
	State                *string                  `json:"state"`
	ZipCode              *string                  `json:"zipCode"`
	Bedrooms             *int                     `json:"bedrooms" validate:"omitempty,min=0"`
	Bathrooms            *int                     `json:"bathrooms" validate:"omitempty,min=0"`
	Suites               *int                     `json:"suites" validate:"omitempty,min=0"`
	ParkingSpaces        *int                     `json:"parkingSpaces" validate:"omitempty,min=0"`
	Area                 *int                     `json:"area" validate:"omitempty,min=0"`
	TotalArea            *int                     `json:"totalArea" validate:"omitempty,min=0"`
	BuiltArea            *int                     `json:"builtArea" validate:"omitempty,min=0"`
	Floor                *int                     `json:"floor"`
	TotalFloors          *int                     `json:"totalFloors" validate:"omitempty,min=0"`
	YearBuilt            *int                     `json:"yearBuilt"`
	RentalPrice          *int64                   `json:"rentalPrice"`
	SalePrice            *int64                   `json:"salePrice"`
	IPTUPrice            *int64                   `json:"iptuPrice"`
	CondoFee             *int64                   `json:"condoFee"`
	CommissionPercentage *int                     `json:"commissionPercentage" validate:"omitempty,min=0,max=10000"`
	CommissionValue      *int64                   `json:"commissionValue"`
	IsMarketplace        *bool                    `json:"isMarketplace"`
	Notes                *string                  `json:"notes"`
	Features             *domain.PropertyFeatures `json:"features"`
}

type CreatePropertyRequest struct {
	OwnerID     uuid.UUID           `json:"ownerId" validate:"required"`
	BrokerID    *uuid.UUID          `json:"brokerId"`
	Title       string              `json:"title" validate:"required,min=3,max=200"`
	Type        domain.PropertyType `json:"type" validate:"required"`
	ListingType domain.ListingType  `json:"listingType" validate:"required"`
	PropertyDetails
}

type UpdatePropertyRequest struct {
	OwnerID     *uuid.UUID             `json:"ownerId"`
	BrokerID    *uuid.UUID             `json:"brokerId"`
	Title       *string                `json:"title" validate:"omitempty,min=3,max=200"`
	Type        *domain.PropertyType   `json:"type"`
	ListingType *domain.ListingType    `json:"listingType"`
	Status      *domain.PropertyStatus `json:"status"`
	PropertyDetails
}

// PropertyListParams narrows a property listing
type PropertyListParams struct {
	ListParams
	Type        *domain.PropertyType
	ListingType *domain.ListingType
	Status      *domain.PropertyStatus
	City        string
	BrokerID    *uuid.UUID
}

type AddPhotoRequest struct {
	URL       string `json:"url" validate:"required,url"`
	MimeType  string `json:"mimeType" validate:"required"`
	Size      int64  `json:"size" validate:"required,min=1"`
	IsPrimary bool   `json:"isPrimary"`
}

type PropertyOwnerRef struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Document string    `json:"document"`
	Email    *string   `json:"email"`
	Phone    *string   `json:"phone"`
}

type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type PropertyPhotoDTO struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	IsPrimary bool      `json:"isPrimary"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

type PropertyDTO struct {
	ID                   uuid.UUID               `json:"id"`
	Code                 *string                 `json:"code"`
	CompanyID            uuid.UUID               `json:"companyId"`
	OwnerID              uuid.UUID               `json:"ownerId"`
	BrokerID             *uuid.UUID              `json:"brokerId"`
	Title                string                  `json:"title"`
	Description          *string                 `json:"description"`
	Type                 domain.PropertyType     `json:"type"`
	ListingType          domain.ListingType      `json:"listingType"`
	Status               domain.PropertyStatus   `json:"status"`
	Address              *string                 `json:"address"`
	AddressNumber        *string                 `json:"addressNumber"`
	AddressComplement    *string                 `json:"addressComplement"`
	Neighborhood         *string                 `json:"neighborhood"`
	City                 *string                 `json:"city"`
	State                *string                 `json:"state"`
	ZipCode              *string                 `json:"zipCode"`
	Bedrooms             int                     `json:"bedrooms"`
	Bathrooms            int                     `json:"bathrooms"`
	Suites               int                     `json:"suites"`
	ParkingSpaces        int                     `json:"parkingSpaces"`
	Area                 *int                    `json:"area"`
	TotalArea            *int                    `json:"totalArea"`
	BuiltArea            *int                    `json:"builtArea"`
	Floor                *int                    `json:"floor"`
	TotalFloors          *int                    `json:"totalFloors"`
	YearBuilt            *int                    `json:"yearBuilt"`
	RentalPrice          *int64                  `json:"rentalPrice"`
	SalePrice            *int64                  `json:"salePrice"`
	IPTUPrice            *int64                  `json:"iptuPrice"`
	CondoFee             *int64                  `json:"condoFee"`
	CommissionPercentage *int                    `json:"commissionPercentage"`
	CommissionValue      *int64                  `json:"commissionValue"`
	IsMarketplace        bool                    `json:"isMarketplace"`
	Notes                *string                 `json:"notes"`
	Features             domain.PropertyFeatures `json:"features"`
	Owner                *PropertyOwnerRef       `json:"owner,omitempty"`
	Broker               *UserRef                `json:"broker,omitempty"`
	Photos               []PropertyPhotoDTO      `json:"photos,omitempty"`
	CreatedBy            uuid.UUID               `json:"createdBy"`
	CreatedAt            time.Time               `json:"createdAt"`
	UpdatedAt            time.Time               `json:"updatedAt"`
}

func toPropertyDTO(p *domain.Property) *PropertyDTO {
	features := p.Features
	if features == nil {
		features = domain.PropertyFeatures{}
	}
	return &PropertyDTO{
		ID:                   p.ID,
		Code:                 p.Code,
		CompanyID:            p.CompanyID,
		OwnerID:              p.OwnerID,
		BrokerID:             p.BrokerID,
		Title:                p.Title,
		Description:          p.Description,
		Type:                 p.Type,
		ListingType:          p.ListingType,
		Status:               p.Status,
		Address:              p.Address,
		AddressNumber:        p.AddressNumber,
		AddressComplement:    p.AddressComplement,
		Neighborhood:         p.Neighborhood,
		City:                 p.City,
		State:                p.State,
		ZipCode:              p.ZipCode,
		Bedrooms:             p.Bedrooms,
		Bathrooms:            p.Bathrooms,
		Suites:               p.Suites,
		ParkingSpaces:        p.ParkingSpaces,
		Area:                 p.Area,
		TotalArea:            p.TotalArea,
		BuiltArea:            p.BuiltArea,
		Floor:                p.Floor,
		TotalFloors:          p.TotalFloors,
		YearBuilt:            p.YearBuilt,
		RentalPrice:          p.RentalPrice,
		SalePrice:            p.SalePrice,
		IPTUPrice:            p.IPTUPrice,
		CondoFee:             p.CondoFee,
		CommissionPercentage: p.CommissionPercentage,
		CommissionValue:      p.CommissionValue,
		IsMarketplace:        p.IsMarketplace,
		Notes:                p.Notes,
		Features:             features,
		CreatedBy:            p.CreatedBy,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func toPhotoDTO(ph *domain.PropertyPhoto) PropertyPhotoDTO {
	return PropertyPhotoDTO{ID: ph.ID, URL: ph.URL, IsPrimary: ph.IsPrimary, Order: ph.Order, CreatedAt: ph.CreatedAt}
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func checkPrices(listing domain.ListingType, rental, sale *int64) error {
	if listing.ForRent() && !normalize.IsPositive(rental) {
		return domain.BadRequest("Valor de locação é obrigatório para imóveis de locação.")
	}
	if listing.ForSale() && !normalize.IsPositive(sale) {
		return domain.BadRequest("Valor de venda é obrigatório para imóveis à venda.")
	}
	return nil
}

func applyPropertyDetails(p *domain.Property, d PropertyDetails) error {
	for _, v := range []*int64{d.RentalPrice, d.SalePrice, d.IPTUPrice, d.CondoFee, d.CommissionValue} {
		if !normalize.IsNonNegative(v) {
			return domain.BadRequest("Valores monetários não podem ser negativos.")
		}
	}
	if d.ZipCode != nil && strings.TrimSpace(*d.ZipCode) != "" && !normalize.IsValidZipCode(*d.ZipCode) {
		return domain.BadRequest("CEP inválido. Deve conter 8 dígitos.")
	}

	if d.Description != nil {
		p.Description = normalize.Text(d.Description)
	}
	if d.Address != nil {
		p.Address = normalize.Text(d.Address)
	}
	if d.AddressNumber != nil {
		p.AddressNumber = normalize.Text(d.AddressNumber)
	}
	if d.AddressComplement != nil {
		p.AddressComplement = normalize.Text(d.AddressComplement)
	}
	if d.Neighborhood != nil {
		p.Neighborhood = normalize.Text(d.Neighborhood)
	}
	if d.City != nil {
		p.City = normalize.Text(d.City)
	}
	if d.State != nil {
		p.State = stateOrNil(d.State)
	}
	if d.ZipCode != nil {
		p.ZipCode = digitsOrNil(d.ZipCode)
	}
	if d.Bedrooms != nil {
		p.Bedrooms = *d.Bedrooms
	}
	if d.Bathrooms != nil {
		p.Bathrooms = *d.Bathrooms
	}
	if d.Suites != nil {
		p.Suites = *d.Suites
	}
	if d.ParkingSpaces != nil {
		p.ParkingSpaces = *d.ParkingSpaces
	}
	if d.Area != nil {
		p.Area = d.Area
	}
	if d.TotalArea != nil {
		p.TotalArea = d.TotalArea
	}
	if d.BuiltArea != nil {
		p.BuiltArea = d.BuiltArea
	}
	if d.Floor != nil {
		p.Floor = d.Floor
	}
	if d.TotalFloors != nil {
		p.TotalFloors = d.TotalFloors
	}
	if d.YearBuilt != nil {
		p.YearBuilt = d.YearBuilt
	}
	if d.RentalPrice != nil {
		p.RentalPrice = d.RentalPrice
	}
	if d.SalePrice != nil {
		p.SalePrice = d.SalePrice
	}
	if d.IPTUPrice != nil {
		p.IPTUPrice = d.IPTUPrice
	}
	if d.CondoFee != nil {
		p.CondoFee = d.CondoFee
	}
	if d.CommissionPercentage != nil {
		p.CommissionPercentage = d.CommissionPercentage
	}
	if d.CommissionValue != nil {
		p.CommissionValue = d.CommissionValue
	}
	if d.IsMarketplace != nil {
		p.IsMarketplace = *d.IsMarketplace
	}
	if d.Notes != nil {
		p.Notes = normalize.Text(d.Notes)
	}
	if d.Features != nil {
		p.Features = *d.Features
	}
	return nil
}

// loadOwner resolves an owner the actor may attach properties to
func (s *PropertyService) loadOwner(ctx context.Context, actor authz.Actor, ownerID uuid.UUID) (*domain.PropertyOwner, error) {
	owner, err := loadScoped(ctx, actor, s.ownerRepo.GetByID, ownerID, ownerNotFound)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnership(actor, &owner.CreatedBy, "Você só pode cadastrar imóveis de proprietários que você cadastrou."); err != nil {
		return nil, err
	}
	return owner, nil
}

func (s *PropertyService) Create(ctx context.Context, actor authz.Actor, req CreatePropertyRequest) (*PropertyDTO, error) {
	companyID, err := authz.Authorize(actor, authz.ActionCreateProperty)
	if err != nil {
		return nil, err
	}

	if !req.Type.Valid() {
		return nil, domain.BadRequest(fmt.Sprintf("Tipo de imóvel inválido. Use: %s.", joinValues(propertyTypes)))
	}
	if !req.ListingType.Valid() {
		return nil, domain.BadRequest(fmt.Sprintf("Tipo de anúncio inválido. Use: %s.", joinValues(listingTypes)))
	}
	if err := checkPrices(req.ListingType, req.RentalPrice, req.SalePrice); err != nil {
		return nil, err
	}

	if _, err := s.loadOwner(ctx, actor, req.OwnerID); err != nil {
		return nil, err
	}

	brokerID := req.BrokerID
	if actor.IsBroker() {
		brokerID = &actor.UserID
	} else if brokerID != nil {
		if err := checkBroker(ctx, s.userRepo, companyID, *brokerID); err != nil {
			return nil, err
		}
	}

	property := &domain.Property{
		ID:          uuid.New(),
		CompanyID:   companyID,
		OwnerID:     req.OwnerID,
		BrokerID:    brokerID,
		Title:       strings.TrimSpace(req.Title),
		Type:        req.Type,
		ListingType: req.ListingType,
		Status:      domain.PropertyAvailable,
		Features:    domain.PropertyFeatures{},
		CreatedBy:   actor.UserID,
	}
	if err := applyPropertyDetails(property, req.PropertyDetails); err != nil {
		return nil, err
	}

	if err := s.propertyRepo.Create(ctx, property); err != nil {
		return nil, internalError(err, "Erro ao criar imóvel. Tente novamente.", log.Fields{"company_id": companyID})
	}

	log.WithFields(log.Fields{"property_id": property.ID, "code": property.Code, "company_id": companyID}).Info("property: created")
	return toPropertyDTO(property), nil
}

// Get returns the property with its owner, broker and photos, fetched in
// parallel
func (s *PropertyService) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*PropertyDTO, error) {
	if _, err := authz.Authorize(actor, authz.ActionViewProperties); err != nil {
		return nil, err
	}
	property, err := loadScoped(ctx, actor, s.propertyRepo.GetByID, id, propertyNotFound)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnership(actor, property.BrokerID, "Você só pode visualizar imóveis dos quais é responsável."); err != nil {
		return nil, err
	}

	dto := toPropertyDTO(property)
	var (
		owner  *domain.PropertyOwner
		broker *domain.User
		photos []*domain.PropertyPhoto
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o, err := s.ownerRepo.GetByID(gctx, property.OwnerID)
		if err != nil && !isNotFound(err) {
			return err
		}
		owner = o
		return nil
	})
	if property.BrokerID != nil {
		g.Go(func() error {
			u, err := s.userRepo.GetByID(gctx, *property.BrokerID)
			if err != nil && !isNotFound(err) {
				return err
			}
			broker = u
			return nil
		})
	}
	g.Go(func() error {
		var err error
		photos, err = s.photoRepo.ListByProperty(gctx, property.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internalError(err, "Erro ao buscar imóvel. Tente novamente.", log.Fields{"property_id": id})
	}

	if owner != nil {
		dto.Owner = &PropertyOwnerRef{ID: owner.ID, Name: owner.Name, Document: owner.Document, Email: owner.Email, Phone: owner.Phone}
	}
	if broker != nil {
		dto.Broker = &UserRef{ID: broker.ID, Name: broker.Name, Email: broker.Email}
	}
	dto.Photos = make([]PropertyPhotoDTO, len(photos))
	for i, ph := range photos {
		dto.Photos[i] = toPhotoDTO(ph)
	}
	return dto, nil
}

// List pages through the company's properties. Brokers only see the ones
// they are responsible for.
func (s *PropertyService) List(ctx context.Context, actor authz.Actor, params PropertyListParams) (*Page[*PropertyDTO], error) {
	companyID, err := authz.Authorize(actor, authz.ActionViewProperties)
	if err != nil {
		return nil, err
	}
	params.ListParams = params.ListParams.Normalize()

	brokerID := params.BrokerID
	if actor.IsBroker() {
		brokerID = authz.BrokerScope(actor)
	}

	properties, total, err := s.propertyRepo.List(ctx, domain.PropertyFilter{
		ListFilter: domain.ListFilter{
			CompanyID: companyID,
			Search:    strings.TrimSpace(params.Search),
			Limit:     params.Limit,
			Offset:    params.Offset(),
		},
		BrokerID:    brokerID,
		Type:        params.Type,
		ListingType: params.ListingType,
		Status:      params.Status,
		City:        strings.TrimSpace(params.City),
	})
	if err != nil {
		return nil, internalError(err, "Erro ao listar imóveis. Tente novamente.", log.Fields{"company_id": companyID})
	}

	items := make([]*PropertyDTO, len(properties))
	for i, p := range properties {
		items[i] = toPropertyDTO(p)
	}
	if err := s.attachOwners(ctx, items); err != nil {
		return nil, internalError(err, "Erro ao listar imóveis. Tente novamente.", log.Fields{"company_id": companyID})
	}
	return newPage(items, total, params.ListParams), nil
}

// attachOwners loads each distinct owner of the page once
func (s *PropertyService) attachOwners(ctx context.Context, items []*PropertyDTO) error {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if !slices.Contains(ids, it.OwnerID) {
			ids = append(ids, it.OwnerID)
		}
	}

	owners := make([]*domain.PropertyOwner, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichmentConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			o, err := s.ownerRepo.GetByID(gctx, id)
			if err != nil && !isNotFound(err) {
				return err
			}
			owners[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	byID := make(map[uuid.UUID]*PropertyOwnerRef, len(owners))
	for _, o := range owners {
		if o != nil {
			byID[o.ID] = &PropertyOwnerRef{ID: o.ID, Name: o.Name, Document: o.Document, Email: o.Email, Phone: o.Phone}
		}
	}
	for _, it := range items {
		it.Owner = byID[it.OwnerID]
	}
	return nil
}

func (s *PropertyService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, req UpdatePropertyRequest) (*PropertyDTO, error) {
	companyID, err := authz.Authorize(actor, authz.ActionUpdateProperty)
	if err != nil {
		return nil, err
	}
	property, err := loadScoped(ctx, actor, s.propertyRepo.GetByID, id, propertyNotFound)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnership(actor, property.BrokerID, "Você só pode editar imóveis dos quais é responsável."); err != nil {
		return nil, err
	}

	if isEmptyUpdate(req) {
		return toPropertyDTO(property), nil
	}

	if req.Title != nil {
		property.Title = strings.TrimSpace(*req.Title)
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return nil, domain.BadRequest(fmt.Sprintf("Tipo de imóvel inválido. Use: %s.", joinValues(propertyTypes)))
		}
		property.Type = *req.Type
	}
	if req.ListingType != nil {
		if !req.ListingType.Valid() {
			return nil, domain.BadRequest(fmt.Sprintf("Tipo de anúncio inválido. Use: %s.", joinValues(listingTypes)))
		}
		property.ListingType = *req.ListingType
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, domain.BadRequest(fmt.Sprintf("Status inválido. Use: %s.", joinValues(propertyStatus)))
		}
		if actor.IsBroker() && *req.Status == domain.PropertySold {
			return nil, domain.Forbidden("Apenas proprietários e gerentes podem marcar imóveis como vendidos.")
		}
		property.Status = *req.Status
	}
	if req.OwnerID != nil && *req.OwnerID != property.OwnerID {
		if _, err := s.loadOwner(ctx, actor, *req.OwnerID); err != nil {
			return nil, err
		}
		property.OwnerID = *req.OwnerID
	}
	if req.BrokerID != nil {
		if actor.IsBroker() {
			return nil, domain.Forbidden("Você não pode alterar o corretor responsável.")
		}
		if err := checkBroker(ctx, s.userRepo, companyID, *req.BrokerID); err != nil {
			return nil, err
		}
		property.BrokerID = req.BrokerID
	}

	if err := applyPropertyDetails(property, req.PropertyDetails); err != nil {
		return nil, err
	}
	if err := checkPrices(property.ListingType, property.RentalPrice, property.SalePrice); err != nil {
		return nil, err
	}

	if err := s.propertyRepo.Update(ctx, property); err != nil {
		return nil, internalError(err, "Erro ao atualizar imóvel. Tente novamente.", log.Fields{"property_id": id})
	}

	log.WithFields(log.Fields{"property_id": id, "updated_by": actor.UserID}).Info("property: updated")
	return toPropertyDTO(property), nil
}

// Delete soft-deletes a property without active contracts
func (s *PropertyService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if _, err := authz.Authorize(actor, authz.ActionDeleteProperty); err != nil {
		return err
	}
	property, err := loadScoped(ctx, actor, s.propertyRepo.GetByID, id, propertyNotFound)
	if err != nil {
		return err
	}
	if err := authz.RequireOwnership(actor, property.BrokerID, "Você só pode excluir imóveis dos quais é responsável."); err != nil {
		return err
	}

	active, err := s.contractRepo.CountByProperty(ctx, id, true)
	if err != nil {
		return internalError(err, "Erro ao excluir imóvel. Tente novamente.", log.Fields{"property_id": id})
	}
	if active > 0 {
		return domain.BadRequest(fmt.Sprintf("Não é possível excluir este imóvel. Existem %d contrato(s) ativo(s) vinculado(s).", active))
	}

	if err := s.propertyRepo.SoftDelete(ctx, id, actor.UserID); err != nil {
		if isNotFound(err) {
			return domain.NotFound(propertyNotFound)
		}
		return internalError(err, "Erro ao excluir imóvel. Tente novamente.", log.Fields{"property_id": id})
	}

	log.WithFields(log.Fields{"property_id": id, "deleted_by": actor.UserID}).Info("property: deleted")
	return nil
}

// photoTarget loads the property a photo operation acts on
func (s *PropertyService) photoTarget(ctx context.Context, actor authz.Actor, propertyID uuid.UUID) (*domain.Property, error) {
	if _, err := authz.Authorize(actor, authz.ActionUpdateProperty); err != nil {
		return nil, err
	}
	property, err := loadScoped(ctx, actor, s.propertyRepo.GetByID, propertyID, propertyNotFound)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireOwnership(actor, property.BrokerID, "Você só pode gerenciar fotos de imóveis dos quais é responsável."); err != nil {
		return nil, err
	}
	return property, nil
}

// AddPhoto appends a photo. The first photo of a property is always primary.
func (s *PropertyService) AddPhoto(ctx context.Context, actor authz.Actor, propertyID uuid.UUID, req AddPhotoRequest) (*PropertyPhotoDTO, error) {
	if !slices.Contains(photoMimeTypes, req.MimeType) {
		return nil, domain.BadRequest(fmt.Sprintf("Tipo de arquivo nao permitido. Use: %s.", strings.Join(photoMimeTypes, ", ")))
	}
	if req.Size > maxPhotoSize {
		return nil, domain.BadRequest("Arquivo muito grande. Tamanho maximo: 10MB.")
	}

	property, err := s.photoTarget(ctx, actor, propertyID)
	if err != nil {
		return nil, err
	}

	fields := log.Fields{"property_id": propertyID}
	existing, err := s.photoRepo.ListByProperty(ctx, property.ID)
	if err != nil {
		return nil, internalError(err, "Erro ao adicionar foto. Tente novamente.", fields)
	}
	if len(existing) >= maxPhotosPerProperty {
		return nil, domain.BadRequest(fmt.Sprintf("Limite de %d fotos por imovel atingido.", maxPhotosPerProperty))
	}

	primary := req.IsPrimary || len(existing) == 0
	photo := &domain.PropertyPhoto{
		ID:         uuid.New(),
		PropertyID: property.ID,
		URL:        strings.TrimSpace(req.URL),
		IsPrimary:  len(existing) == 0,
		Order:      len(existing),
	}
	if err := s.photoRepo.Create(ctx, photo); err != nil {
		return nil, internalError(err, "Erro ao adicionar foto. Tente novamente.", fields)
	}
	if primary && !photo.IsPrimary {
		if err := s.photoRepo.SetPrimary(ctx, property.ID, photo.ID); err != nil {
			return nil, internalError(err, "Erro ao adicionar foto. Tente novamente.", fields)
		}
		photo.IsPrimary = true
	}

	log.WithFields(log.Fields{"photo_id": photo.ID, "property_id": property.ID, "uploaded_by": actor.UserID}).Info("property: photo added")
	dto := toPhotoDTO(photo)
	return &dto, nil
}

// RemovePhoto deletes a photo and promotes the next one when the primary
// photo goes away
func (s *PropertyService) RemovePhoto(ctx context.Context, actor authz.Actor, propertyID, photoID uuid.UUID) error {
	property, err := s.photoTarget(ctx, actor, propertyID)
	if err != nil {
		return err
	}
	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil || photo.PropertyID != property.ID {
		if err == nil || isNotFound(err) {
			return domain.NotFound(photoNotFound)
		}
		return internalError(err, "Erro ao remover foto. Tente novamente.", log.Fields{"photo_id": photoID})
	}

	fields := log.Fields{"photo_id": photoID, "property_id": propertyID}
	if err := s.photoRepo.Delete(ctx, photoID); err != nil {
		return internalError(err, "Erro ao remover foto. Tente novamente.", fields)
	}

	if photo.IsPrimary {
		rest, err := s.photoRepo.ListByProperty(ctx, property.ID)
		if err != nil {
			log.WithError(err).WithFields(fields).Warn("property: could not promote next photo")
			return nil
		}
		if len(rest) > 0 {
			if err := s.photoRepo.SetPrimary(ctx, property.ID, rest[0].ID); err != nil {
				log.WithError(err).WithFields(fields).Warn("property: could not promote next photo")
			}
		}
	}

	log.WithFields(fields).Info("property: photo removed")
	return nil
}

func (s *PropertyService) SetPrimaryPhoto(ctx context.Context, actor authz.Actor, propertyID, photoID uuid.UUID) error {
	property, err := s.photoTarget(ctx, actor, propertyID)
	if err != nil {
		return err
	}
	photo, err := s.photoRepo.GetByID(ctx, photoID)
	if err != nil || photo.PropertyID != property.ID {
		if err == nil || isNotFound(err) {
			return domain.NotFound(photoNotFound)
		}
		return internalError(err, "Erro ao definir foto principal. Tente novamente.", log.Fields{"photo_id": photoID})
	}
	if photo.IsPrimary {
		return nil
	}
	if err := s.photoRepo.SetPrimary(ctx, property.ID, photoID); err != nil {
		return internalError(err, "Erro ao definir foto principal. Tente novamente.", log.Fields{"photo_id": photoID})
	}
	return nil
}

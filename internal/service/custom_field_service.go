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
	fieldNotFound      = "Campo não encontrado."
	noFieldsFeatureMsg = "Seu plano não tem acesso a campos customizados"
)

type CustomFieldService struct {
	fieldRepo repository.CustomFieldRepository
	subRepo   repository.SubscriptionRepository
	userRepo  repository.UserRepository
	cache     FieldCache
	now       func() time.Time
}

func NewCustomFieldService(
	fieldRepo repository.CustomFieldRepository,
	subRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	cache FieldCache,
) *CustomFieldService {
	return &CustomFieldService{
		fieldRepo: fieldRepo,
		subRepo:   subRepo,
		userRepo:  userRepo,
		cache:     cache,
		now:       time.Now,
	}
}

type CreateCustomFieldRequest struct {
	Label         string                  `json:"label" validate:"required,max=100"`
	Type          domain.FieldType        `json:"type" validate:"required"`
	Placeholder   *string                 `json:"placeholder" validate:"omitempty,max=200"`
	HelpText      *string                 `json:"helpText" validate:"omitempty,max=500"`
	IsRequired    bool                    `json:"isRequired"`
	Options       []string                `json:"options"`
	AllowMultiple *bool                   `json:"allowMultiple"`
	Validation    *domain.FieldValidation `json:"validation"`
	FileConfig    *domain.FileConfig      `json:"fileConfig"`
}

type UpdateCustomFieldRequest struct {
	Label         *string                 `json:"label" validate:"omitempty,max=100"`
	Type          *domain.FieldType       `json:"type"`
	Placeholder   *string                 `json:"placeholder" validate:"omitempty,max=200"`
	HelpText      *string                 `json:"helpText" validate:"omitempty,max=500"`
	IsRequired    *bool                   `json:"isRequired"`
	Options       []string                `json:"options"`
	AllowMultiple *bool                   `json:"allowMultiple"`
	Validation    *domain.FieldValidation `json:"validation"`
	FileConfig    *domain.FileConfig      `json:"fileConfig"`
	IsActive      *bool                   `json:"isActive"`
}

type FieldValue struct {
	FieldID uuid.UUID `json:"fieldId" validate:"required"`
	Value   *string   `json:"value"`
}

type SaveFieldsRequest struct {
	Fields []FieldValue `json:"fields" validate:"dive"`
}

type CustomFieldDTO struct {
	ID            uuid.UUID               `json:"id"`
	Label         string                  `json:"label"`
	Type          domain.FieldType        `json:"type"`
	Placeholder   *string                 `json:"placeholder"`
	HelpText      *string                 `json:"helpText"`
	IsRequired    bool                    `json:"isRequired"`
	Options       []string                `json:"options"`
	AllowMultiple *bool                   `json:"allowMultiple"`
	Validation    *domain.FieldValidation `json:"validation"`
	FileConfig    *domain.FileConfig      `json:"fileConfig"`
	Order         int                     `json:"order"`
	IsActive      bool                    `json:"isActive"`
	CreatedAt     time.Time               `json:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt"`
}

type FieldWithValue struct {
	CustomFieldDTO
	Value *string `json:"value"`
}

type CustomFieldList struct {
	Fields     []*CustomFieldDTO `json:"fields"`
	HasFeature bool              `json:"hasFeature"`
}

type UserInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatarUrl"`
}

type UserFields struct {
	Fields []FieldWithValue `json:"fields"`
	User   UserInfo         `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func toCustomFieldDTO(f *domain.CustomField) *CustomFieldDTO {
	var options []string
	if f.Type == domain.FieldSelect {
		options = []string(f.Options)
	}
	return &CustomFieldDTO{
		ID:            f.ID,
		Label:         f.Label,
		Type:          f.Type,
		Placeholder:   f.Placeholder,
		HelpText:      f.HelpText,
		IsRequired:    f.IsRequired,
		Options:       options,
		AllowMultiple: f.AllowMultiple,
		Validation:    f.Validation,
		FileConfig:    f.FileConfig,
		Order:         f.Order,
		IsActive:      f.IsActive,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// checkDefinition validates the type specific settings of a field and
// returns the cleaned select options
func checkDefinition(label string, fieldType domain.FieldType, options []string, fileCfg *domain.FileConfig) ([]string, error) {
	if !fieldType.Valid() {
		return nil, domain.BadRequest(fmt.Sprintf("Tipo de campo inválido. Tipos válidos: %s", joinValues(domain.AllFieldTypes)))
	}

	var cleaned []string
	switch fieldType {
	case domain.FieldSelect:
		var ok bool
		cleaned, ok = normalize.SelectOptions(options)
		if cleaned == nil {
			return nil, domain.BadRequest("Não é permitido ter opções duplicadas.")
		}
		if !ok {
			return nil, domain.BadRequest("Campos do tipo seleção devem ter pelo menos 2 opções.")
		}
	case domain.FieldFile:
		if fileCfg == nil {
			return nil, domain.BadRequest("Selecione pelo menos um tipo de arquivo permitido.")
		}
		if !normalize.IsValidFileSizeMB(fileCfg.MaxFileSize) {
			return nil, domain.BadRequest("O tamanho máximo do arquivo deve ser entre 1 e 10 MB.")
		}
		if !normalize.IsValidMaxFiles(fileCfg.MaxFiles) {
			return nil, domain.BadRequest("A quantidade máxima de arquivos deve ser entre 1 e 5.")
		}
		if len(fileCfg.AllowedTypes) == 0 {
			return nil, domain.BadRequest("Selecione pelo menos um tipo de arquivo permitido.")
		}
	}

	if len([]rune(strings.TrimSpace(label))) < 2 {
		return nil, domain.BadRequest("O nome do campo deve ter pelo menos 2 caracteres.")
	}
	return cleaned, nil
}

// featureEnabled reports whether the plan governing the user includes
// custom fields
func (s *CustomFieldService) featureEnabled(ctx context.Context, userID uuid.UUID, createdBy *uuid.UUID) (bool, *domain.CurrentSubscription, error) {
	sub, err := currentSubscription(ctx, s.subRepo, userID, createdBy)
	if err != nil {
		return false, nil, err
	}
	if sub == nil {
		return false, nil, nil
	}
	return sub.Plan.HasFeature(domain.FeatureCustomFields), sub, nil
}

// authorizeManage runs the owner-only guard plus the subscription and plan
// checks shared by every write on field definitions
func (s *CustomFieldService) authorizeManage(ctx context.Context, actor authz.Actor) (uuid.UUID, error) {
	companyID, err := authz.Authorize(actor, authz.ActionManageCustomFields)
	if err != nil {
		return uuid.Nil, err
	}
	enabled, sub, err := s.featureEnabled(ctx, actor.UserID, actor.CreatedBy)
	if err != nil {
		return uuid.Nil, internalError(err, "Erro ao verificar assinatura. Tente novamente.", log.Fields{"user_id": actor.UserID})
	}
	if sub == nil || sub.ComputedStatus(s.now()) != domain.SubscriptionActive {
		return uuid.Nil, domain.Forbidden("Sua assinatura não está ativa. Renove para gerenciar campos personalizados.")
	}
	if !enabled {
		return uuid.Nil, domain.NewError(domain.CodePlanLimitExceeded, noFieldsFeatureMsg)
	}
	return companyID, nil
}

// ActiveFields returns the active fields of a company, through the cache
func (s *CustomFieldService) ActiveFields(ctx context.Context, companyID uuid.UUID) ([]*domain.CustomField, error) {
	if cached, ok := s.cache.GetCustomFields(ctx, companyID); ok {
		fields := make([]*domain.CustomField, len(cached))
		for i := range cached {
			fields[i] = &cached[i]
		}
		return fields, nil
	}

	fields, err := s.fieldRepo.ListByCompany(ctx, companyID, true)
	if err != nil {
		return nil, err
	}
	values := make([]domain.CustomField, len(fields))
	for i, f := range fields {
		values[i] = *f
	}
	s.cache.SetCustomFields(ctx, companyID, values)
	return fields, nil
}

func (s *CustomFieldService) Create(ctx context.Context, actor authz.Actor, req CreateCustomFieldRequest) (*CustomFieldDTO, error) {
	companyID, err := s.authorizeManage(ctx, actor)
	if err != nil {
		return nil, err
	}
	options, err := checkDefinition(req.Label, req.Type, req.Options, req.FileConfig)
	if err != nil {
		return nil, err
	}

	fields := log.Fields{"company_id": companyID}
	maxOrder, err := s.fieldRepo.MaxOrder(ctx, companyID)
	if err != nil {
		return nil, internalError(err, "Erro ao criar campo. Tente novamente.", fields)
	}

	field := &domain.CustomField{
		ID:          uuid.New(),
		CompanyID:   companyID,
		Label:       strings.TrimSpace(req.Label),
		Type:        req.Type,
		Placeholder: normalize.Text(req.Placeholder),
		HelpText:    normalize.Text(req.HelpText),
		IsRequired:  req.IsRequired,
		Validation:  req.Validation,
		Order:       maxOrder + 1,
		IsActive:    true,
	}
	switch req.Type {
	case domain.FieldSelect:
		field.Options = options
		field.AllowMultiple = req.AllowMultiple
	case domain.FieldFile:
		field.FileConfig = req.FileConfig
	}

	if err := s.fieldRepo.Create(ctx, field); err != nil {
		return nil, internalError(err, "Erro ao criar campo. Tente novamente.", fields)
	}
	s.cache.InvalidateCustomFields(ctx, companyID)

	log.WithFields(log.Fields{"field_id": field.ID, "company_id": companyID, "type": field.Type}).Info("custom field: created")
	return toCustomFieldDTO(field), nil
}

// List returns the company's field definitions for owners and managers.
// Without the plan feature the list is empty and HasFeature is false.
func (s *CustomFieldService) List(ctx context.Context, actor authz.Actor, includeInactive bool) (*CustomFieldList, error) {
	companyID, err := authz.Authorize(actor, authz.ActionViewCustomFields)
	if err != nil {
		return nil, err
	}
	enabled, _, err := s.featureEnabled(ctx, actor.UserID, actor.CreatedBy)
	if err != nil {
		return nil, internalError(err, "Erro ao listar campos. Tente novamente.", log.Fields{"company_id": companyID})
	}
	if !enabled {
		return &CustomFieldList{Fields: []*CustomFieldDTO{}, HasFeature: false}, nil
	}

	defs, err := s.fieldRepo.ListByCompany(ctx, companyID, !includeInactive)
	if err != nil {
		return nil, internalError(err, "Erro ao listar campos. Tente novamente.", log.Fields{"company_id": companyID})
	}
	out := &CustomFieldList{Fields: make([]*CustomFieldDTO, len(defs)), HasFeature: true}
	for i, f := range defs {
		out.Fields[i] = toCustomFieldDTO(f)
	}
	return out, nil
}

func (s *CustomFieldService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, req UpdateCustomFieldRequest) (*CustomFieldDTO, error) {
	companyID, err := s.authorizeManage(ctx, actor)
	if err != nil {
		return nil, err
	}
	field, err := loadScoped(ctx, actor, s.fieldRepo.GetByID, id, fieldNotFound)
	if err != nil {
		return nil, err
	}
	if isEmptyUpdate(req) {
		return toCustomFieldDTO(field), nil
	}

	label := field.Label
	if req.Label != nil {
		label = *req.Label
	}
	fieldType := field.Type
	if req.Type != nil {
		fieldType = *req.Type
	}
	options := []string(field.Options)
	if req.Options != nil {
		options = req.Options
	}
	fileCfg := field.FileConfig
	if req.FileConfig != nil {
		fileCfg = req.FileConfig
	}
	cleaned, err := checkDefinition(label, fieldType, options, fileCfg)
	if err != nil {
		return nil, err
	}

	field.Label = strings.TrimSpace(label)
	field.Type = fieldType
	field.Options, field.AllowMultiple, field.FileConfig = nil, nil, nil
	switch fieldType {
	case domain.FieldSelect:
		field.Options = cleaned
		field.AllowMultiple = req.AllowMultiple
	case domain.FieldFile:
		field.FileConfig = fileCfg
	}
	if req.Placeholder != nil {
		field.Placeholder = normalize.Text(req.Placeholder)
	}
	if req.HelpText != nil {
		field.HelpText = normalize.Text(req.HelpText)
	}
	if req.IsRequired != nil {
		field.IsRequired = *req.IsRequired
	}
	if req.Validation != nil {
		field.Validation = req.Validation
	}
	if req.IsActive != nil {
		field.IsActive = *req.IsActive
	}

	if err := s.fieldRepo.Update(ctx, field); err != nil {
		return nil, internalError(err, "Erro ao atualizar campo. Tente novamente.", log.Fields{"field_id": id})
	}
	s.cache.InvalidateCustomFields(ctx, companyID)

	log.WithFields(log.Fields{"field_id": id, "company_id": companyID}).Info("custom field: updated")
	return toCustomFieldDTO(field), nil
}

func (s *CustomFieldService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	companyID, err := s.authorizeManage(ctx, actor)
	if err != nil {
		return err
	}
	if _, err := loadScoped(ctx, actor, s.fieldRepo.GetByID, id, fieldNotFound); err != nil {
		return err
	}

	if err := s.fieldRepo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return domain.NotFound(fieldNotFound)
		}
		return internalError(err, "Erro ao excluir campo. Tente novamente.", log.Fields{"field_id": id})
	}
	s.cache.InvalidateCustomFields(ctx, companyID)

	log.WithFields(log.Fields{"field_id": id, "company_id": companyID}).Info("custom field: deleted")
	return nil
}

// Reorder sets the display order to the given sequence. Ids that are not
// fields of the company are ignored.
func (s *CustomFieldService) Reorder(ctx context.Context, actor authz.Actor, fieldIDs []uuid.UUID) error {
	companyID, err := s.authorizeManage(ctx, actor)
	if err != nil {
		return err
	}
	if len(fieldIDs) == 0 {
		return domain.BadRequest("Nenhum campo fornecido para reordenação.")
	}

	fields := log.Fields{"company_id": companyID}
	defs, err := s.fieldRepo.ListByCompany(ctx, companyID, false)
	if err != nil {
		return internalError(err, "Erro ao reordenar campos. Tente novamente.", fields)
	}
	known := make(map[uuid.UUID]bool, len(defs))
	for _, f := range defs {
		known[f.ID] = true
	}
	valid := make([]uuid.UUID, 0, len(fieldIDs))
	for _, id := range fieldIDs {
		if known[id] {
			valid = append(valid, id)
			delete(known, id)
		}
	}
	if len(valid) == 0 {
		return domain.BadRequest("Nenhum campo válido fornecido para reordenação.")
	}

	if err := s.fieldRepo.Reorder(ctx, companyID, valid); err != nil {
		return internalError(err, "Erro ao reordenar campos. Tente novamente.", fields)
	}
	s.cache.InvalidateCustomFields(ctx, companyID)
	return nil
}

func mergeValues(defs []*domain.CustomField, responses []*domain.CustomFieldResponse) []FieldWithValue {
	values := make(map[uuid.UUID]*string, len(responses))
	for _, r := range responses {
		values[r.FieldID] = r.Value
	}
	out := make([]FieldWithValue, len(defs))
	for i, f := range defs {
		out[i] = FieldWithValue{CustomFieldDTO: *toCustomFieldDTO(f), Value: values[f.ID]}
	}
	return out
}

// GetMyFields returns the active fields of the caller's company with the
// caller's answers. It is empty without a company or without the feature.
func (s *CustomFieldService) GetMyFields(ctx context.Context, actor authz.Actor) ([]FieldWithValue, error) {
	if actor.CompanyID == nil {
		return []FieldWithValue{}, nil
	}
	fields := log.Fields{"user_id": actor.UserID}
	enabled, _, err := s.featureEnabled(ctx, actor.UserID, actor.CreatedBy)
	if err != nil {
		return nil, internalError(err, "Erro ao buscar campos. Tente novamente.", fields)
	}
	if !enabled {
		return []FieldWithValue{}, nil
	}

	defs, err := s.ActiveFields(ctx, *actor.CompanyID)
	if err != nil {
		return nil, internalError(err, "Erro ao buscar campos. Tente novamente.", fields)
	}
	responses, err := s.fieldRepo.ListResponses(ctx, actor.UserID)
	if err != nil {
		return nil, internalError(err, "Erro ao buscar campos. Tente novamente.", fields)
	}
	return mergeValues(defs, responses), nil
}

// missingRequired returns the label of the first required field without a
// non-blank value, or "" when all are answered
func missingRequired(defs []*domain.CustomField, values map[uuid.UUID]*string) string {
	for _, f := range defs {
		if !f.IsRequired {
			continue
		}
		v := values[f.ID]
		if v == nil || strings.TrimSpace(*v) == "" {
			return f.Label
		}
	}
	return ""
}

// ValidateRequired checks values against the required active fields of a
// company and keeps only the values of known fields
func (s *CustomFieldService) ValidateRequired(ctx context.Context, companyID uuid.UUID, input []FieldValue) ([]FieldValue, error) {
	defs, err := s.ActiveFields(ctx, companyID)
	if err != nil {
		return nil, internalError(err, "Erro ao validar campos. Tente novamente.", log.Fields{"company_id": companyID})
	}

	active := make(map[uuid.UUID]bool, len(defs))
	for _, f := range defs {
		active[f.ID] = true
	}
	values := make(map[uuid.UUID]*string, len(input))
	kept := make([]FieldValue, 0, len(input))
	for _, fv := range input {
		if !active[fv.FieldID] {
			continue
		}
		values[fv.FieldID] = fv.Value
		kept = append(kept, fv)
	}

	if label := missingRequired(defs, values); label != "" {
		return nil, domain.BadRequest(fmt.Sprintf("O campo %q é obrigatório.", label))
	}
	return kept, nil
}

// SaveValues stores the answers of userID. Callers validate first.
func (s *CustomFieldService) SaveValues(ctx context.Context, userID uuid.UUID, values []FieldValue) error {
	if len(values) == 0 {
		return nil
	}
	now := s.now()
	responses := make([]*domain.CustomFieldResponse, len(values))
	for i, fv := range values {
		responses[i] = &domain.CustomFieldResponse{
			ID:        uuid.New(),
			UserID:    userID,
			FieldID:   fv.FieldID,
			Value:     fv.Value,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return s.fieldRepo.SaveResponses(ctx, userID, responses)
}

func (s *CustomFieldService) SaveMyFields(ctx context.Context, actor authz.Actor, req SaveFieldsRequest) (*MessageResponse, error) {
	companyID, err := authz.Authorize(actor, authz.ActionFillCustomFields)
	if err != nil {
		return nil, err
	}
	fields := log.Fields{"user_id": actor.UserID}
	enabled, _, err := s.featureEnabled(ctx, actor.UserID, actor.CreatedBy)
	if err != nil {
		return nil, internalError(err, "Erro ao salvar informações. Tente novamente.", fields)
	}
	if !enabled {
		return nil, domain.NewError(domain.CodePlanLimitExceeded, noFieldsFeatureMsg)
	}

	values, err := s.ValidateRequired(ctx, companyID, req.Fields)
	if err != nil {
		return nil, err
	}
	if err := s.SaveValues(ctx, actor.UserID, values); err != nil {
		return nil, internalError(err, "Erro ao salvar informações. Tente novamente.", fields)
	}

	log.WithFields(log.Fields{"user_id": actor.UserID, "count": len(values)}).Info("custom field: responses saved")
	return &MessageResponse{Message: "Informações salvas com sucesso"}, nil
}

// GetUserFields shows another member's answers, e.g. on the team page
func (s *CustomFieldService) GetUserFields(ctx context.Context, actor authz.Actor, targetID uuid.UUID) (*UserFields, error) {
	target, err := loadScoped(ctx, actor, s.userRepo.GetByID, targetID, "Usuário não encontrado.")
	if err != nil {
		return nil, err
	}
	out := &UserFields{
		Fields: []FieldWithValue{},
		User:   UserInfo{ID: target.ID, Name: target.Name, Email: target.Email, AvatarURL: target.AvatarURL},
	}

	fields := log.Fields{"target_id": targetID}
	enabled, _, err := s.featureEnabled(ctx, actor.UserID, actor.CreatedBy)
	if err != nil {
		return nil, internalError(err, "Erro ao buscar campos. Tente novamente.", fields)
	}
	if !enabled {
		return out, nil
	}

	defs, err := s.fieldRepo.ListByCompany(ctx, *actor.CompanyID, false)
	if err != nil {
		return nil, internalError(err, "Erro ao buscar campos. Tente novamente.", fields)
	}
	responses, err := s.fieldRepo.ListResponses(ctx, target.ID)
	if err != nil {
		return nil, internalError(err, "Erro ao buscar campos. Tente novamente.", fields)
	}
	out.Fields = mergeValues(defs, responses)
	return out, nil
}

// HasPendingFields reports whether an invited member still has required
// custom fields to fill in. Owners never do.
func (s *CustomFieldService) HasPendingFields(ctx context.Context, user *domain.User, sub *domain.CurrentSubscription) (bool, error) {
	if user.CreatedBy == nil || !user.HasCompany() {
		return false, nil
	}
	if sub == nil || !sub.Plan.HasFeature(domain.FeatureCustomFields) {
		return false, nil
	}

	defs, err := s.ActiveFields(ctx, *user.CompanyID)
	if err != nil {
		return false, err
	}
	if len(defs) == 0 {
		return false, nil
	}
	responses, err := s.fieldRepo.ListResponses(ctx, user.ID)
	if err != nil {
		return false, err
	}
	if len(responses) == 0 {
		return true, nil
	}

	values := make(map[uuid.UUID]*string, len(responses))
	for _, r := range responses {
		values[r.FieldID] = r.Value
	}
	return missingRequired(defs, values) != "", nil
}

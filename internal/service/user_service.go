package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/authz"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/email"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/events"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/normalize"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	userNotFound     = "Usuário não encontrado"
	invalidPhoneMsg  = "Formato de celular inválido. Use o formato: (11) 99999-9999"
	inactiveSubMsg   = "Assinatura inativa. Renove sua assinatura para adicionar usuários."
	ownerProtected   = "Não é possível editar o dono da conta"
	maxUsersMsg      = "Seu plano permite no máximo %d usuário(s). Faça upgrade para adicionar mais."
	maxManagersMsg   = "Seu plano permite no máximo %d gerente(s). Faça upgrade para adicionar mais."
	userWriteFailure = "Erro ao salvar usuário. Tente novamente."
)

// UserService manages the members of a company (everyone but the owner)
type UserService struct {
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	subRepo     repository.SubscriptionRepository
	fields      *CustomFieldService
	mailer      email.Sender
	publisher   events.Publisher
	userCache   UserCache
	revoker     TokenRevoker
	frontendURL string
	now         func() time.Time
}

func NewUserService(
	userRepo repository.UserRepository,
	companyRepo repository.CompanyRepository,
	subRepo repository.SubscriptionRepository,
	fields *CustomFieldService,
	mailer email.Sender,
	publisher events.Publisher,
	userCache UserCache,
	revoker TokenRevoker,
	frontendURL string,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		subRepo:     subRepo,
		fields:      fields,
		mailer:      mailer,
		publisher:   publisher,
		userCache:   userCache,
		revoker:     revoker,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

type CreateUserRequest struct {
	Name         string       `json:"name" validate:"required,min=2,max=100"`
	Email        string       `json:"email" validate:"required,email"`
	Role         domain.Role  `json:"role" validate:"required"`
	Phone        string       `json:"phone"`
	CustomFields []FieldValue `json:"customFields" validate:"dive"`
}

type UpdateUserRequest struct {
	Name  *string      `json:"name" validate:"omitempty,min=2,max=100"`
	Email *string      `json:"email" validate:"omitempty,email"`
	Role  *domain.Role `json:"role"`
	Phone *string      `json:"phone"`
}

type UserListParams struct {
	ListParams
	Role     *domain.Role
	IsActive *bool
}

type UserDTO struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Role            domain.Role `json:"role"`
	RoleLabel       string      `json:"roleLabel"`
	Phone           *string     `json:"phone"`
	AvatarURL       *string     `json:"avatarUrl"`
	IsActive        bool        `json:"isActive"`
	IsEmailVerified bool        `json:"isEmailVerified"`
	CreatedBy       *uuid.UUID  `json:"createdBy"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

func toUserDTO(u *domain.User) *UserDTO {
	return &UserDTO{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		RoleLabel:       u.Role.Label(),
		Phone:           u.Phone,
		AvatarURL:       u.AvatarURL,
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		CreatedBy:       u.CreatedBy,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func checkPhone(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", domain.BadRequest("Celular é obrigatório.")
	}
	if !normalize.IsValidPhone(raw) {
		return "", domain.NewError(domain.CodeInvalidPhone, invalidPhoneMsg)
	}
	return normalize.Phone(raw), nil
}

// checkRole rejects roles that cannot be handed out by the actor
func checkRole(actor authz.Actor, role domain.Role) error {
	if !role.Valid() || role == domain.RoleOwner {
		return domain.BadRequest("Função inválida. Use: manager, broker, insurance_analyst.")
	}
	if role == domain.RoleInsuranceAnalyst {
		if _, err := authz.Authorize(actor, authz.ActionCreateInsuranceAnalyst); err != nil {
			return err
		}
	}
	return nil
}

// activeCompanyPlan loads the company and the plan of its owner's active
// subscription
func (s *UserService) activeCompanyPlan(ctx context.Context, actor authz.Actor, companyID uuid.UUID) (*domain.Company, *domain.Plan, error) {
	fields := log.Fields{"company_id": companyID}
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, domain.NotFound("Empresa não encontrada")
		}
		return nil, nil, internalError(err, userWriteFailure, fields)
	}

	subject, createdBy := actor.UserID, actor.CreatedBy
	if company.OwnerID != nil {
		subject, createdBy = *company.OwnerID, nil
	}
	sub, err := currentSubscription(ctx, s.subRepo, subject, createdBy)
	if err != nil {
		return nil, nil, internalError(err, userWriteFailure, fields)
	}
	if sub == nil || sub.ComputedStatus(s.now()) != domain.SubscriptionActive {
		return nil, nil, domain.Forbidden(inactiveSubMsg)
	}
	return company, &sub.Plan, nil
}

// checkSeats enforces the plan's member and manager limits for one more
// active member of the given role
func (s *UserService) checkSeats(ctx context.Context, companyID uuid.UUID, plan *domain.Plan, role domain.Role, countMember bool) error {
	fields := log.Fields{"company_id": companyID}
	if plan.MaxUsers != nil && countMember {
		n, err := s.userRepo.CountActiveMembers(ctx, companyID, nil)
		if err != nil {
			return internalError(err, userWriteFailure, fields)
		}
		if n >= *plan.MaxUsers {
			return domain.NewError(domain.CodePlanLimitExceeded, fmt.Sprintf(maxUsersMsg, *plan.MaxUsers))
		}
	}
	if plan.MaxManagers != nil && role == domain.RoleManager {
		manager := domain.RoleManager
		n, err := s.userRepo.CountActiveMembers(ctx, companyID, &manager)
		if err != nil {
			return internalError(err, userWriteFailure, fields)
		}
		if n >= *plan.MaxManagers {
			return domain.NewError(domain.CodePlanLimitExceeded, fmt.Sprintf(maxManagersMsg, *plan.MaxManagers))
		}
	}
	return nil
}

func (s *UserService) emailTaken(ctx context.Context, addr string) (bool, error) {
	_, err := s.userRepo.GetByEmail(ctx, addr)
	if isNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// Create adds a member to the actor's company. The member has no password
// and receives an invitation to set one.
func (s *UserService) Create(ctx context.Context, actor authz.Actor, req CreateUserRequest) (*UserDTO, error) {
	companyID, err := authz.Authorize(actor, authz.ActionCreateUser)
	if err != nil {
		return nil, err
	}
	if err := checkRole(actor, req.Role); err != nil {
		return nil, err
	}
	phone, err := checkPhone(req.Phone)
	if err != nil {
		return nil, err
	}

	company, plan, err := s.activeCompanyPlan(ctx, actor, companyID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSeats(ctx, companyID, plan, req.Role, true); err != nil {
		return nil, err
	}

	addr := normalize.Email(req.Email)
	fields := log.Fields{"company_id": companyID, "email": addr}
	taken, err := s.emailTaken(ctx, addr)
	if err != nil {
		return nil, internalError(err, userWriteFailure, fields)
	}
	if taken {
		return nil, domain.NewError(domain.CodeEmailAlreadyExists, "")
	}

	var values []FieldValue
	if plan.HasFeature(domain.FeatureCustomFields) {
		if values, err = s.fields.ValidateRequired(ctx, companyID, req.CustomFields); err != nil {
			return nil, err
		}
	}

	now := s.now()
	creator := actor.UserID
	user := &domain.User{
		ID:              uuid.New(),
		Email:           addr,
		Name:            normalize.SanitizeName(req.Name),
		Phone:           &phone,
		Role:            req.Role,
		CompanyID:       &companyID,
		CreatedBy:       &creator,
		IsActive:        true,
		IsEmailVerified: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, domain.NewError(domain.CodeEmailAlreadyExists, "")
		}
		return nil, internalError(err, userWriteFailure, fields)
	}
	if err := s.fields.SaveValues(ctx, user.ID, values); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("user: saving custom field values failed")
	}

	s.invite(ctx, actor, company, user)

	log.WithFields(log.Fields{"user_id": user.ID, "company_id": companyID, "role": user.Role, "created_by": actor.UserID}).Info("user: created")
	return toUserDTO(user), nil
}

// invite emails the setup link and publishes user.invited. Both are best
// effort: the member exists either way and can use password reset.
func (s *UserService) invite(ctx context.Context, actor authz.Actor, company *domain.Company, user *domain.User) {
	inv := email.Invitation{
		To:          user.Email,
		Name:        user.Name,
		InviterName: actor.Name,
		CompanyName: company.Name,
		Role:        user.Role.Label(),
		SetupURL:    s.frontendURL + "/reset-password?email=" + url.QueryEscape(user.Email),
	}
	if err := s.mailer.SendUserInvitation(ctx, inv); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("user: invitation email failed")
	}

	evt := events.UserInvited{UserID: user.ID, CompanyID: company.ID, InvitedBy: actor.UserID, Timestamp: s.now()}
	if err := s.publisher.Publish(ctx, events.RoutingUserInvited, evt); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("user: publishing user.invited failed")
	}
}

func (s *UserService) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*UserDTO, error) {
	if _, err := authz.Authorize(actor, authz.ActionViewUsers); err != nil {
		return nil, err
	}
	user, err := loadScoped(ctx, actor, s.userRepo.GetByID, id, userNotFound)
	if err != nil {
		return nil, err
	}
	return toUserDTO(user), nil
}

// List returns the company members other than the owner and the caller
func (s *UserService) List(ctx context.Context, actor authz.Actor, params UserListParams) (*Page[*UserDTO], error) {
	companyID, err := authz.Authorize(actor, authz.ActionViewUsers)
	if err != nil {
		return nil, err
	}
	p := params.Normalize()
	self := actor.UserID

	users, total, err := s.userRepo.List(ctx, domain.UserFilter{
		CompanyID:   companyID,
		Role:        params.Role,
		IsActive:    params.IsActive,
		MembersOnly: true,
		ExcludeID:   &self,
		Search:      strings.TrimSpace(p.Search),
		Limit:       p.Limit,
		Offset:      p.Offset(),
	})
	if err != nil {
		return nil, internalError(err, "Erro ao listar usuários. Tente novamente.", log.Fields{"company_id": companyID})
	}
	items := make([]*UserDTO, len(users))
	for i, u := range users {
		items[i] = toUserDTO(u)
	}
	return newPage(items, total, p), nil
}

// loadMember loads a member the actor may act on: same company, not the
// actor and not the owner
func (s *UserService) loadMember(ctx context.Context, actor authz.Actor, id uuid.UUID, selfMsg, ownerMsg string) (*domain.User, error) {
	user, err := loadScoped(ctx, actor, s.userRepo.GetByID, id, userNotFound)
	if err != nil {
		return nil, err
	}
	if user.ID == actor.UserID {
		return nil, domain.Forbidden(selfMsg)
	}
	if user.Role == domain.RoleOwner {
		return nil, domain.Forbidden(ownerMsg)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, req UpdateUserRequest) (*UserDTO, error) {
	companyID, err := authz.Authorize(actor, authz.ActionUpdateUser)
	if err != nil {
		return nil, err
	}
	user, err := s.loadMember(ctx, actor, id, "Você não pode editar sua própria conta por aqui", ownerProtected)
	if err != nil {
		return nil, err
	}
	if isEmptyUpdate(req) {
		return toUserDTO(user), nil
	}

	fields := log.Fields{"user_id": id}
	if req.Role != nil && *req.Role != user.Role {
		if err := checkRole(actor, *req.Role); err != nil {
			return nil, err
		}
		if *req.Role == domain.RoleManager && user.IsActive {
			_, plan, err := s.activeCompanyPlan(ctx, actor, companyID)
			if err != nil {
				return nil, err
			}
			if err := s.checkSeats(ctx, companyID, plan, domain.RoleManager, false); err != nil {
				return nil, err
			}
		}
		user.Role = *req.Role
	}
	if req.Phone != nil {
		phone, err := checkPhone(*req.Phone)
		if err != nil {
			return nil, err
		}
		user.Phone = &phone
	}
	if req.Email != nil {
		addr := normalize.Email(*req.Email)
		if addr != user.Email {
			taken, err := s.emailTaken(ctx, addr)
			if err != nil {
				return nil, internalError(err, userWriteFailure, fields)
			}
			if taken {
				return nil, domain.NewError(domain.CodeEmailAlreadyExists, "")
			}
			user.Email = addr
		}
	}
	if req.Name != nil {
		user.Name = normalize.SanitizeName(*req.Name)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, domain.NewError(domain.CodeEmailAlreadyExists, "")
		}
		return nil, internalError(err, userWriteFailure, fields)
	}
	s.userCache.InvalidateUser(ctx, user.ID)

	log.WithFields(log.Fields{"user_id": id, "updated_by": actor.UserID}).Info("user: updated")
	return toUserDTO(user), nil
}

// Deactivate blocks a member and revokes every token issued to them
func (s *UserService) Deactivate(ctx context.Context, actor authz.Actor, id uuid.UUID) (*UserDTO, error) {
	if _, err := authz.Authorize(actor, authz.ActionDeactivateUser); err != nil {
		return nil, err
	}
	user, err := s.loadMember(ctx, actor, id, "Você não pode desativar sua própria conta", "Não é possível desativar o dono da conta")
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.BadRequest("Este usuário já está desativado")
	}

	user.IsActive = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, internalError(err, userWriteFailure, log.Fields{"user_id": id})
	}
	s.userCache.InvalidateUser(ctx, user.ID)
	if err := s.revoker.RevokeUser(ctx, user.ID.String()); err != nil {
		log.WithError(err).WithField("user_id", id).Error("user: revoking tokens of deactivated user failed")
	}

	log.WithFields(log.Fields{"user_id": id, "deactivated_by": actor.UserID}).Info("user: deactivated")
	return toUserDTO(user), nil
}

func (s *UserService) Activate(ctx context.Context, actor authz.Actor, id uuid.UUID) (*UserDTO, error) {
	companyID, err := authz.Authorize(actor, authz.ActionDeactivateUser)
	if err != nil {
		return nil, err
	}
	user, err := s.loadMember(ctx, actor, id, "Você não pode ativar sua própria conta", ownerProtected)
	if err != nil {
		return nil, err
	}
	if user.IsActive {
		return nil, domain.BadRequest("Este usuário já está ativo")
	}

	_, plan, err := s.activeCompanyPlan(ctx, actor, companyID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSeats(ctx, companyID, plan, user.Role, true); err != nil {
		return nil, err
	}

	user.IsActive = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, internalError(err, userWriteFailure, log.Fields{"user_id": id})
	}
	s.userCache.InvalidateUser(ctx, user.ID)

	log.WithFields(log.Fields{"user_id": id, "activated_by": actor.UserID}).Info("user: activated")
	return toUserDTO(user), nil
}

func (s *UserService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if _, err := authz.Authorize(actor, authz.ActionDeleteUser); err != nil {
		return err
	}
	if _, err := s.loadMember(ctx, actor, id, "Você não pode deletar a si mesmo", "Não é possível deletar o dono da conta"); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return domain.NotFound(userNotFound)
		}
		return internalError(err, "Erro ao excluir usuário. Tente novamente.", log.Fields{"user_id": id})
	}
	s.userCache.InvalidateUser(ctx, id)
	if err := s.revoker.RevokeUser(ctx, id.String()); err != nil {
		log.WithError(err).WithField("user_id", id).Error("user: revoking tokens of deleted user failed")
	}

	log.WithFields(log.Fields{"user_id": id, "deleted_by": actor.UserID}).Info("user: deleted")
	return nil
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/config"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/email"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/hash"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/jwt"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/normalize"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/otpcode"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type AuthService struct {
	userRepo  repository.UserRepository
	planRepo  repository.PlanRepository
	subRepo   repository.SubscriptionRepository
	tokens    *jwt.TokenService
	revoker   TokenRevoker
	hasher    *hash.Hasher
	otp       *otpcode.Generator
	mailer    email.Sender
	userCache UserCache
	fields    *CustomFieldService
	cfg       config.VerificationConfig
	now       func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	planRepo repository.PlanRepository,
	subRepo repository.SubscriptionRepository,
	tokens *jwt.TokenService,
	revoker TokenRevoker,
	hasher *hash.Hasher,
	mailer email.Sender,
	userCache UserCache,
	fields *CustomFieldService,
	cfg config.VerificationConfig,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		planRepo:  planRepo,
		subRepo:   subRepo,
		tokens:    tokens,
		revoker:   revoker,
		hasher:    hasher,
		otp:       otpcode.New(cfg.TOTPStep),
		mailer:    mailer,
		userCache: userCache,
		fields:    fields,
		cfg:       cfg,
		now:       time.Now,
	}
}

type RegisterRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	CompanyName string `json:"companyName" validate:"required,min=2,max=100"`
	PlanID      string `json:"planId" validate:"required,uuid"`
}

type RegisterResponse struct {
	UserID  uuid.UUID `json:"userId"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
	Message string    `json:"message"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PlanInfo struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    int64     `json:"price"`
	Features []string  `json:"features"`
}

type SubscriptionInfo struct {
	ID            uuid.UUID                 `json:"id"`
	Status        domain.SubscriptionStatus `json:"status"`
	StartDate     time.Time                 `json:"startDate"`
	EndDate       *time.Time                `json:"endDate"`
	Plan          PlanInfo                  `json:"plan"`
	DaysRemaining *int                      `json:"daysRemaining"`
}

type LoginUser struct {
	ID                     uuid.UUID   `json:"id"`
	Email                  string      `json:"email"`
	Name                   string      `json:"name"`
	Role                   domain.Role `json:"role"`
	HasPendingCustomFields bool        `json:"hasPendingCustomFields"`
}

type LoginResponse struct {
	Tokens        *domain.TokenPair     `json:"tokens"`
	CheckoutToken *domain.CheckoutToken `json:"checkoutToken,omitempty"`
	User          LoginUser             `json:"user"`
	Subscription  SubscriptionInfo      `json:"subscription"`
}

type MeSubscription struct {
	Status        domain.SubscriptionStatus `json:"status"`
	DaysRemaining *int                      `json:"daysRemaining"`
	StartDate     time.Time                 `json:"startDate"`
	EndDate       *time.Time                `json:"endDate"`
	Plan          PlanSummary               `json:"plan"`
}

type MeResponse struct {
	ID                     uuid.UUID       `json:"id"`
	Name                   string          `json:"name"`
	Email                  string          `json:"email"`
	Role                   domain.Role     `json:"role"`
	Phone                  *string         `json:"phone"`
	AvatarURL              *string         `json:"avatarUrl"`
	IsActive               bool            `json:"isActive"`
	IsEmailVerified        bool            `json:"isEmailVerified"`
	HasPendingCustomFields bool            `json:"hasPendingCustomFields"`
	Subscription           *MeSubscription `json:"subscription"`
}

func (s *AuthService) findByEmail(ctx context.Context, raw string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalize.Email(raw))
	if isNotFound(err) {
		return nil, nil
	}
	return user, err
}

// Register creates an unverified owner with their company and a pending
// subscription, then emails the verification code
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if problems := normalize.CheckPasswordStrength(req.Password); len(problems) > 0 {
		return nil, weakPasswordError(problems)
	}

	emailAddr := normalize.Email(req.Email)
	fields := log.Fields{"email": emailAddr}

	existing, err := s.findByEmail(ctx, emailAddr)
	if err != nil {
		return nil, internalError(err, "Erro ao processar cadastro. Tente novamente.", fields)
	}
	if existing != nil {
		if !existing.IsEmailVerified {
			return nil, domain.NewError(domain.CodeEmailNotVerified, "Conta já existe mas não foi verificada. Por favor, verifique seu email.").
				WithMetadata("email", existing.Email)
		}
		return nil, domain.NewError(domain.CodeEmailAlreadyExists, "")
	}

	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return nil, domain.NewError(domain.CodePlanNotFound, "")
	}
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(domain.CodePlanNotFound, "")
		}
		return nil, internalError(err, "Erro ao processar cadastro. Tente novamente.", fields)
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, internalError(err, "Erro ao processar cadastro. Tente novamente.", fields)
	}
	secret, err := s.otp.NewSecret(emailAddr)
	if err != nil {
		return nil, internalError(err, "Erro ao processar cadastro. Tente novamente.", fields)
	}
	now := s.now()
	code, err := s.otp.Code(secret, now)
	if err != nil {
		return nil, internalError(err, "Erro ao processar cadastro. Tente novamente.", fields)
	}
	expiresAt := now.Add(s.cfg.TOTPStep)

	user := &domain.User{
		ID:                    uuid.New(),
		Email:                 emailAddr,
		Password:              &hashed,
		Name:                  normalize.SanitizeName(req.Name),
		Role:                  domain.RoleOwner,
		IsActive:              true,
		VerificationSecret:    &secret,
		VerificationExpiresAt: &expiresAt,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	company := &domain.Company{
		ID:        uuid.New(),
		Name:      normalize.SanitizeName(req.CompanyName),
		Email:     &emailAddr,
		OwnerID:   &user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	user.CompanyID = &company.ID
	sub := &domain.Subscription{
		ID:        uuid.New(),
		UserID:    user.ID,
		PlanID:    plan.ID,
		Status:    domain.SubscriptionPending,
		StartDate: now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.RegisterOwner(ctx, user, company, sub); err != nil {
		if isDuplicate(err) {
			return nil, domain.NewError(domain.CodeEmailAlreadyExists, "")
		}
		return nil, internalError(err, "Erro ao processar cadastro. Tente novamente.", fields)
	}

	if err := s.mailer.SendVerificationCode(ctx, user.Email, user.Name, code); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Error("auth: verification email failed, rolling back registration")
		if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
			log.WithError(delErr).WithField("user_id", user.ID).Error("auth: rollback of registration failed")
		}
		return nil, domain.NewError(domain.CodeEmailSendFailed, "Não foi possível enviar o código de verificação por email. Tente novamente mais tarde.")
	}

	log.WithFields(log.Fields{"user_id": user.ID, "company_id": company.ID, "plan_id": plan.ID}).Info("auth: owner registered")
	return &RegisterResponse{
		UserID:  user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Message: "Código de verificação enviado para seu email",
	}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	invalid := domain.NewError(domain.CodeInvalidCredentials, "")

	user, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return nil, internalError(err, "Erro ao realizar login. Tente novamente.", log.Fields{"email": normalize.Email(req.Email)})
	}
	if user == nil || user.Password == nil {
		return nil, invalid
	}
	ok, err := s.hasher.Verify(req.Password, *user.Password)
	if err != nil || !ok {
		return nil, invalid
	}

	if !user.IsEmailVerified {
		return nil, domain.NewError(domain.CodeEmailNotVerified, "Sua conta ainda não foi verificada. Por favor, verifique seu email.").
			WithMetadata("email", user.Email)
	}
	if !user.IsActive {
		return nil, domain.NewError(domain.CodeAccountDeactivated, "")
	}

	fields := log.Fields{"user_id": user.ID}
	sub, err := currentSubscription(ctx, s.subRepo, user.ID, user.CreatedBy)
	if err != nil {
		return nil, internalError(err, "Erro ao realizar login. Tente novamente.", fields)
	}
	if sub == nil {
		return nil, domain.NewError(domain.CodeSubscriptionRequired, "Você ainda não possui uma assinatura. Complete o cadastro para continuar.")
	}

	tokens, err := s.tokens.GenerateTokenPair(user)
	if err != nil {
		return nil, internalError(err, "Erro ao realizar login. Tente novamente.", fields)
	}

	resp := &LoginResponse{Tokens: tokens}
	if sub.Status == domain.SubscriptionPending {
		checkout, err := s.tokens.GenerateCheckoutToken(user, &sub.Subscription)
		if err != nil {
			return nil, internalError(err, "Erro ao realizar login. Tente novamente.", fields)
		}
		resp.CheckoutToken = checkout
	}

	pending, err := s.fields.HasPendingFields(ctx, user, sub)
	if err != nil {
		// login still succeeds; the flag is advisory
		log.WithError(err).WithFields(fields).Warn("auth: pending custom fields check failed")
	}

	now := s.now()
	resp.User = LoginUser{
		ID:                     user.ID,
		Email:                  user.Email,
		Name:                   user.Name,
		Role:                   user.Role,
		HasPendingCustomFields: pending,
	}
	resp.Subscription = SubscriptionInfo{
		ID:        sub.ID,
		Status:    sub.ComputedStatus(now),
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
		Plan: PlanInfo{
			ID:       sub.Plan.ID,
			Name:     sub.Plan.Name,
			Price:    sub.Plan.Price,
			Features: []string(sub.Plan.Features),
		},
		DaysRemaining: sub.DaysRemaining(now),
	}
	s.userCache.SetUserState(ctx, user, sub)

	log.WithFields(log.Fields{"user_id": user.ID, "role": user.Role}).Info("auth: login")
	return resp, nil
}

// RefreshTokens rotates a refresh token: the presented one is blacklisted
// for the rest of its lifetime and a new pair is issued
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.ValidateToken(refreshToken, domain.TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.NewError(domain.CodeTokenExpired, "")
		}
		return nil, domain.NewError(domain.CodeInvalidToken, "")
	}

	revoked, err := s.revoker.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, internalError(err, "Erro ao renovar sessão. Tente novamente.", log.Fields{"user_id": claims.UserID})
	}
	if !revoked && claims.IssuedAt != nil {
		revoked, err = s.revoker.IsUserRevoked(ctx, claims.UserID.String(), claims.IssuedAt.Time)
		if err != nil {
			return nil, internalError(err, "Erro ao renovar sessão. Tente novamente.", log.Fields{"user_id": claims.UserID})
		}
	}
	if revoked {
		return nil, domain.NewError(domain.CodeInvalidToken, "")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(domain.CodeUserNotFound, "")
		}
		return nil, internalError(err, "Erro ao renovar sessão. Tente novamente.", log.Fields{"user_id": claims.UserID})
	}
	if !user.IsActive {
		return nil, domain.NewError(domain.CodeAccountDeactivated, "")
	}

	if err := s.revoker.RevokeToken(ctx, claims.ID, jwt.RemainingTTL(claims, s.now())); err != nil {
		return nil, internalError(err, "Erro ao renovar sessão. Tente novamente.", log.Fields{"user_id": user.ID})
	}
	pair, err := s.tokens.GenerateTokenPair(user)
	if err != nil {
		return nil, internalError(err, "Erro ao renovar sessão. Tente novamente.", log.Fields{"user_id": user.ID})
	}
	return pair, nil
}

// Logout blacklists both tokens. Tokens that no longer parse are skipped.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	now := s.now()
	for _, tok := range []struct {
		raw  string
		kind string
	}{
		{accessToken, domain.TokenTypeAccess},
		{refreshToken, domain.TokenTypeRefresh},
	} {
		if tok.raw == "" {
			continue
		}
		claims, err := s.tokens.ValidateToken(tok.raw, tok.kind)
		if err != nil {
			continue
		}
		if err := s.revoker.RevokeToken(ctx, claims.ID, jwt.RemainingTTL(claims, now)); err != nil {
			return internalError(err, "Erro ao encerrar sessão. Tente novamente.", log.Fields{"user_id": claims.UserID})
		}
	}
	return nil
}

func (s *AuthService) GetMe(ctx context.Context, userID uuid.UUID) (*MeResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(domain.CodeUserNotFound, "")
		}
		return nil, internalError(err, "Erro ao buscar usuário. Tente novamente.", log.Fields{"user_id": userID})
	}

	sub, err := currentSubscription(ctx, s.subRepo, user.ID, user.CreatedBy)
	if err != nil {
		return nil, internalError(err, "Erro ao buscar usuário. Tente novamente.", log.Fields{"user_id": userID})
	}
	pending, err := s.fields.HasPendingFields(ctx, user, sub)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("auth: pending custom fields check failed")
	}

	me := &MeResponse{
		ID:                     user.ID,
		Name:                   user.Name,
		Email:                  user.Email,
		Role:                   user.Role,
		Phone:                  user.Phone,
		AvatarURL:              user.AvatarURL,
		IsActive:               user.IsActive,
		IsEmailVerified:        user.IsEmailVerified,
		HasPendingCustomFields: pending,
	}
	if sub != nil {
		now := s.now()
		me.Subscription = &MeSubscription{
			Status:        sub.ComputedStatus(now),
			DaysRemaining: sub.DaysRemaining(now),
			StartDate:     sub.StartDate,
			EndDate:       sub.EndDate,
			Plan:          PlanSummary{ID: sub.Plan.ID, Name: sub.Plan.Name, Price: sub.Plan.Price},
		}
	}
	return me, nil
}

package service

import (
	"context"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Session is the validated state of an authenticated request
type Session struct {
	User         *domain.User
	Subscription *domain.CurrentSubscription
}

// SessionService resolves the user behind an access token, reading through
// the user state cache
type SessionService struct {
	userRepo  repository.UserRepository
	subRepo   repository.SubscriptionRepository
	userCache UserCache
	now       func() time.Time
}

func NewSessionService(userRepo repository.UserRepository, subRepo repository.SubscriptionRepository, userCache UserCache) *SessionService {
	return &SessionService{
		userRepo:  userRepo,
		subRepo:   subRepo,
		userCache: userCache,
		now:       time.Now,
	}
}

func (s *SessionService) load(ctx context.Context, userID uuid.UUID) (*Session, error) {
	if st, ok := s.userCache.GetUserState(ctx, userID); ok && st.User != nil {
		return &Session{User: st.User, Subscription: st.Subscription}, nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(domain.CodeUserNotFound, "Sua conta não foi encontrada. Por favor, entre em contato com o suporte.")
		}
		return nil, internalError(err, "Erro ao validar sessão. Tente novamente.", log.Fields{"user_id": userID})
	}
	sub, err := currentSubscription(ctx, s.subRepo, user.ID, user.CreatedBy)
	if err != nil {
		return nil, internalError(err, "Erro ao validar sessão. Tente novamente.", log.Fields{"user_id": userID})
	}
	s.userCache.SetUserState(ctx, user, sub)
	return &Session{User: user, Subscription: sub}, nil
}

// Validate loads the session and rejects deactivated accounts and missing,
// expired or canceled subscriptions. allowPending lets owners who have not
// paid yet reach routes such as /me.
func (s *SessionService) Validate(ctx context.Context, userID uuid.UUID, allowPending bool) (*Session, error) {
	sess, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !sess.User.IsActive {
		return nil, domain.NewError(domain.CodeAccountDeactivated, "")
	}
	if sess.Subscription == nil {
		return nil, domain.NewError(domain.CodeSubscriptionRequired, "Você não possui uma assinatura ativa. Por favor, renove sua assinatura.")
	}

	switch sess.Subscription.ComputedStatus(s.now()) {
	case domain.SubscriptionActive:
	case domain.SubscriptionPending:
		if !allowPending {
			return nil, domain.NewError(domain.CodeSubscriptionRequired, "Sua assinatura está pendente. Conclua o pagamento para continuar.")
		}
	case domain.SubscriptionExpired:
		return nil, domain.NewError(domain.CodeSubscriptionExpired, "Sua assinatura expirou. Por favor, renove para continuar usando o sistema.")
	default:
		msg := "Sua assinatura foi cancelada. Por favor, reative para continuar."
		if allowPending {
			msg = "Sua assinatura não está mais ativa. Por favor, renove para continuar."
		}
		return nil, domain.NewError(domain.CodeSubscriptionRequired, msg)
	}
	return sess, nil
}

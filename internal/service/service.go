package service

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/authz"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/cache"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/normalize"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/pagarme"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// PaymentGateway is the subset of the Pagar.me client used by the services
type PaymentGateway interface {
	CreateOrder(ctx context.Context, in pagarme.OrderInput) (*pagarme.Order, error)
	GetOrder(ctx context.Context, orderID string) (*pagarme.OrderInfo, error)
}

// UserCache holds the user + subscription state read by the auth middleware
type UserCache interface {
	GetUserState(ctx context.Context, userID uuid.UUID) (*cache.UserState, bool)
	SetUserState(ctx context.Context, user *domain.User, sub *domain.CurrentSubscription)
	InvalidateUser(ctx context.Context, userIDs ...uuid.UUID)
}

// FieldCache holds the active custom fields of each company
type FieldCache interface {
	GetCustomFields(ctx context.Context, companyID uuid.UUID) ([]domain.CustomField, bool)
	SetCustomFields(ctx context.Context, companyID uuid.UUID, fields []domain.CustomField)
	InvalidateCustomFields(ctx context.Context, companyID uuid.UUID)
}

// TokenRevoker blacklists issued JWTs
type TokenRevoker interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	RevokeUser(ctx context.Context, userID string) error
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// ListParams is the pagination and search input of list operations
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps page and limit into their allowed ranges
func (p ListParams) Normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one page of a listing
type Page[T any] struct {
	Items []T
	Total int
	Page  int
	Limit int
}

func newPage[T any](items []T, total int, p ListParams) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
}

// loadScoped fetches an entity and hides it behind NOT_FOUND when it is
// missing or belongs to another company than the actor's
func loadScoped[T domain.Scoped](ctx context.Context, actor authz.Actor, get func(context.Context, uuid.UUID) (T, error), id uuid.UUID, notFoundMsg string) (T, error) {
	var zero T
	entity, err := get(ctx, id)
	if err != nil && !isNotFound(err) {
		return zero, internalError(err, "Erro ao buscar registro. Tente novamente.", log.Fields{"id": id})
	}
	if err := authz.InCompany(actor, entity, err == nil, notFoundMsg); err != nil {
		return zero, err
	}
	return entity, nil
}

// isEmptyUpdate reports whether a patch request sets no field at all
func isEmptyUpdate(req any) bool {
	return reflect.ValueOf(req).IsZero()
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, repository.ErrDuplicate)
}

// internalError logs an unexpected failure and hides it behind a generic
// pt-BR message. AppErrors pass through untouched.
func internalError(err error, msg string, fields log.Fields) error {
	if appErr, ok := domain.AsAppError(err); ok {
		return appErr
	}
	log.WithError(err).WithFields(fields).Error(msg)
	return domain.Internal(msg).Wrap(err)
}

func strPtr(s string) *string { return &s }

// currentSubscription resolves the subscription that governs a user.
// Invited users run on the subscription of whoever created them. A nil
// result without error means there is none.
func currentSubscription(ctx context.Context, subRepo repository.SubscriptionRepository, userID uuid.UUID, createdBy *uuid.UUID) (*domain.CurrentSubscription, error) {
	sub, err := subRepo.GetCurrentByUserID(ctx, userID)
	if err == nil {
		return sub, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	if createdBy == nil {
		return nil, nil
	}

	sub, err = subRepo.GetCurrentByUserID(ctx, *createdBy)
	if isNotFound(err) {
		return nil, nil
	}
	return sub, err
}

func digitsOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	d := normalize.Digits(*s)
	if d == "" {
		return nil
	}
	return &d
}

func stateOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := normalize.State(*s)
	if v == "" {
		return nil
	}
	return &v
}

// checkBroker makes sure an assigned broker is an active broker of the company
func checkBroker(ctx context.Context, userRepo repository.UserRepository, companyID, brokerID uuid.UUID) error {
	broker, err := userRepo.GetByID(ctx, brokerID)
	if err != nil {
		if isNotFound(err) {
			return domain.NotFound("Corretor não encontrado.")
		}
		return internalError(err, "Erro ao validar corretor. Tente novamente.", log.Fields{"broker_id": brokerID})
	}
	if broker.ScopeCompanyID() != companyID {
		return domain.NotFound("Corretor não encontrado.")
	}
	if broker.Role != domain.RoleBroker || !broker.IsActive {
		return domain.BadRequest("O usuário informado não é um corretor ativo.")
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/normalize"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/pagarme"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// SubscriptionService drives the checkout of registered owners whose
// subscription is still pending. Callers hold a checkout token.
type SubscriptionService struct {
	userRepo  repository.UserRepository
	planRepo  repository.PlanRepository
	subRepo   repository.SubscriptionRepository
	gateway   PaymentGateway
	userCache UserCache
	now       func() time.Time
}

func NewSubscriptionService(
	userRepo repository.UserRepository,
	planRepo repository.PlanRepository,
	subRepo repository.SubscriptionRepository,
	gateway PaymentGateway,
	userCache UserCache,
) *SubscriptionService {
	return &SubscriptionService{
		userRepo:  userRepo,
		planRepo:  planRepo,
		subRepo:   subRepo,
		gateway:   gateway,
		userCache: userCache,
		now:       time.Now,
	}
}

type ActivateSubscriptionRequest struct {
	CardToken    string `json:"cardToken" validate:"required"`
	Installments int    `json:"installments"`
	Document     string `json:"document"`
}

type ActivateSubscriptionResponse struct {
	Success bool                      `json:"success"`
	Message string                    `json:"message"`
	OrderID string                    `json:"orderId,omitempty"`
	Status  domain.SubscriptionStatus `json:"status"`
}

type ChangePlanRequest struct {
	PlanID string `json:"planId" validate:"required,uuid"`
}

type CheckoutUser struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type CheckoutSubscription struct {
	ID     uuid.UUID                 `json:"id"`
	Status domain.SubscriptionStatus `json:"status"`
}

type CheckoutInfo struct {
	User         CheckoutUser         `json:"user"`
	Subscription CheckoutSubscription `json:"subscription"`
	Plan         PlanInfo             `json:"plan"`
}

// checkoutState loads the user and current subscription named by checkout
// token claims and checks they still match
func (s *SubscriptionService) checkoutState(ctx context.Context, claims *domain.Claims) (*domain.User, *domain.CurrentSubscription, error) {
	fields := log.Fields{"user_id": claims.UserID}
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, domain.NewError(domain.CodeUserNotFound, "")
		}
		return nil, nil, internalError(err, "Erro ao carregar assinatura. Tente novamente.", fields)
	}
	if !user.IsEmailVerified {
		return nil, nil, domain.NewError(domain.CodeEmailNotVerified, "")
	}

	sub, err := s.subRepo.GetCurrentByUserID(ctx, user.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, domain.NewError(domain.CodeSubscriptionNotFound, "")
		}
		return nil, nil, internalError(err, "Erro ao carregar assinatura. Tente novamente.", fields)
	}
	if claims.SubscriptionID == nil || *claims.SubscriptionID != sub.ID {
		return nil, nil, domain.NewError(domain.CodeOperationNotAllowed, "Assinatura não pertence ao usuário")
	}
	return user, sub, nil
}

func (s *SubscriptionService) GetCheckoutInfo(ctx context.Context, claims *domain.Claims) (*CheckoutInfo, error) {
	user, sub, err := s.checkoutState(ctx, claims)
	if err != nil {
		return nil, err
	}
	return &CheckoutInfo{
		User:         CheckoutUser{ID: user.ID, Name: user.Name, Email: user.Email},
		Subscription: CheckoutSubscription{ID: sub.ID, Status: sub.ComputedStatus(s.now())},
		Plan: PlanInfo{
			ID:       sub.Plan.ID,
			Name:     sub.Plan.Name,
			Price:    sub.Plan.Price,
			Features: []string(sub.Plan.Features),
		},
	}, nil
}

// ActivateSubscription charges the card for the pending subscription and
// activates it when the gateway reports the order paid
func (s *SubscriptionService) ActivateSubscription(ctx context.Context, claims *domain.Claims, req ActivateSubscriptionRequest) (*ActivateSubscriptionResponse, error) {
	user, sub, err := s.checkoutState(ctx, claims)
	if err != nil {
		return nil, err
	}
	switch sub.Status {
	case domain.SubscriptionPending:
	case domain.SubscriptionActive:
		return nil, domain.NewError(domain.CodeDuplicateSubscription, "")
	default:
		return nil, domain.NewError(domain.CodeOperationNotAllowed, "Esta assinatura não pode ser ativada")
	}

	fields := log.Fields{"user_id": user.ID, "subscription_id": sub.ID}
	plan, err := s.planRepo.GetByID(ctx, sub.PlanID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(domain.CodePlanNotFound, "")
		}
		return nil, internalError(err, "Erro ao processar pagamento. Tente novamente.", fields)
	}
	if !normalize.IsValidInstallments(req.Installments) {
		return nil, domain.NewError(domain.CodeInvalidInput, "Número de parcelas inválido (1-12)")
	}
	document := normalize.Digits(req.Document)
	if document != "" && !normalize.IsValidDocument(document) {
		return nil, domain.NewError(domain.CodeInvalidCPF, "")
	}

	order, err := s.gateway.CreateOrder(ctx, pagarme.OrderInput{
		Title:             fmt.Sprintf("Plano %s - CRM Imobiliário", plan.Name),
		Quantity:          1,
		UnitPrice:         plan.Price,
		CustomerName:      user.Name,
		CustomerEmail:     user.Email,
		CustomerDocument:  document,
		CardToken:         req.CardToken,
		Installments:      req.Installments,
		ExternalReference: sub.ID.String(),
	})
	if err != nil {
		log.WithError(err).WithFields(fields).Error("subscription: gateway rejected order")
		return nil, domain.NewError(domain.CodePaymentGatewayError, gatewayFailureMessage).Wrap(err)
	}

	resp := &ActivateSubscriptionResponse{OrderID: order.ID, Status: sub.Status}
	switch order.Status {
	case pagarme.StatusPaid:
		now := s.now()
		end := now.AddDate(0, 0, plan.DurationDays)
		activated := sub.Subscription
		activated.Status = domain.SubscriptionActive
		activated.StartDate = now
		activated.EndDate = &end
		activated.UpdatedAt = now
		if err := s.subRepo.Update(ctx, &activated); err != nil {
			return nil, internalError(err, "Pagamento aprovado, mas houve um erro ao ativar sua assinatura. Entre em contato com o suporte.", fields)
		}
		s.userCache.InvalidateUser(ctx, user.ID)
		resp.Success, resp.Message, resp.Status = true, "Assinatura ativada com sucesso!", domain.SubscriptionActive
	case pagarme.StatusPending:
		resp.Success, resp.Message = true, "Pagamento em processamento. Você receberá uma confirmação em breve."
	default:
		resp.Message = "Pagamento não aprovado. Verifique os dados do cartão e tente novamente."
	}

	log.WithFields(log.Fields{"user_id": user.ID, "subscription_id": sub.ID, "order_id": order.ID, "status": order.Status}).Info("subscription: checkout processed")
	return resp, nil
}

// ChangePlan swaps the plan of a subscription that was not paid yet
func (s *SubscriptionService) ChangePlan(ctx context.Context, claims *domain.Claims, req ChangePlanRequest) (*CheckoutInfo, error) {
	user, sub, err := s.checkoutState(ctx, claims)
	if err != nil {
		return nil, err
	}
	if sub.Status != domain.SubscriptionPending {
		return nil, domain.NewError(domain.CodeOperationNotAllowed, "Apenas assinaturas pendentes podem ter o plano alterado")
	}

	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return nil, domain.NewError(domain.CodePlanNotFound, "")
	}
	if planID == sub.PlanID {
		return nil, domain.BadRequest("Você já está neste plano")
	}
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(domain.CodePlanNotFound, "")
		}
		return nil, internalError(err, "Erro ao alterar plano. Tente novamente.", log.Fields{"user_id": user.ID})
	}
	if !plan.IsActive {
		return nil, domain.NewError(domain.CodePlanNotFound, "")
	}

	updated := sub.Subscription
	updated.PlanID = plan.ID
	updated.UpdatedAt = s.now()
	if err := s.subRepo.Update(ctx, &updated); err != nil {
		return nil, internalError(err, "Erro ao alterar plano. Tente novamente.", log.Fields{"user_id": user.ID})
	}

	log.WithFields(log.Fields{"user_id": user.ID, "subscription_id": sub.ID, "plan_id": plan.ID}).Info("subscription: plan changed")
	return &CheckoutInfo{
		User:         CheckoutUser{ID: user.ID, Name: user.Name, Email: user.Email},
		Subscription: CheckoutSubscription{ID: updated.ID, Status: updated.Status},
		Plan:         PlanInfo{ID: plan.ID, Name: plan.Name, Price: plan.Price, Features: []string(plan.Features)},
	}, nil
}

// ExpireEnded is run by the scheduler. Cached state of affected users is
// dropped so the middleware sees the expiry at once.
func (s *SubscriptionService) ExpireEnded(ctx context.Context) (int, error) {
	userIDs, err := s.subRepo.ExpireEnded(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if len(userIDs) > 0 {
		s.userCache.InvalidateUser(ctx, userIDs...)
	}
	return len(userIDs), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/events"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/hash"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/normalize"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/pagarme"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	webhookOrderPaid  = "order.paid"
	webhookChargePaid = "charge.paid"

	gatewayFailureMessage = "Não foi possível processar seu pagamento no momento. Por favor, verifique os dados e tente novamente."
)

type PaymentService struct {
	pendingRepo repository.PendingPaymentRepository
	planRepo    repository.PlanRepository
	userRepo    repository.UserRepository
	gateway     PaymentGateway
	hasher      *hash.Hasher
	userCache   UserCache
	publisher   events.Publisher
	pendingTTL  time.Duration
	now         func() time.Time
}

func NewPaymentService(
	pendingRepo repository.PendingPaymentRepository,
	planRepo repository.PlanRepository,
	userRepo repository.UserRepository,
	gateway PaymentGateway,
	hasher *hash.Hasher,
	userCache UserCache,
	publisher events.Publisher,
	pendingTTL time.Duration,
) *PaymentService {
	return &PaymentService{
		pendingRepo: pendingRepo,
		planRepo:    planRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		hasher:      hasher,
		userCache:   userCache,
		publisher:   publisher,
		pendingTTL:  pendingTTL,
		now:         time.Now,
	}
}

type CreatePendingPaymentRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	PlanID   string `json:"planId" validate:"required,uuid"`
}

type CreatePendingPaymentResponse struct {
	PendingPaymentID uuid.UUID `json:"pendingPaymentId"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

type PlanSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price int64     `json:"price"`
}

type PendingPaymentDTO struct {
	ID        uuid.UUID            `json:"id"`
	Email     string               `json:"email"`
	Name      string               `json:"name"`
	PlanID    uuid.UUID            `json:"planId"`
	Plan      PlanSummary          `json:"plan"`
	Status    domain.PaymentStatus `json:"status"`
	ExpiresAt time.Time            `json:"expiresAt"`
}

type ProcessCardPaymentRequest struct {
	PendingPaymentID string `json:"pendingPaymentId" validate:"required,uuid"`
	CardToken        string `json:"cardToken" validate:"required"`
	Installments     int    `json:"installments"`
}

type ProcessCardPaymentResponse struct {
	OrderID string         `json:"orderId"`
	Status  pagarme.Status `json:"status"`
	UserID  *uuid.UUID     `json:"userId,omitempty"`
}

// WebhookEvent is the subset of a Pagar.me webhook body the service reads
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		ID    string `json:"id"`
		Order *struct {
			ID string `json:"id"`
		} `json:"order,omitempty"`
	} `json:"data"`
}

// OrderID is the order referenced by the event. charge.* events carry the
// order under data.order.
func (e WebhookEvent) OrderID() string {
	if e.Data.Order != nil && e.Data.Order.ID != "" {
		return e.Data.Order.ID
	}
	return e.Data.ID
}

type WebhookResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func weakPasswordError(problems []string) error {
	return domain.NewError(domain.CodeWeakPassword, "A senha deve conter: "+strings.Join(problems, ", ")).
		WithMetadata("requirements", problems)
}

// CreatePendingPayment starts a checkout for a prospective customer. A still
// valid pending checkout of the same email is reused.
func (s *PaymentService) CreatePendingPayment(ctx context.Context, req CreatePendingPaymentRequest) (*CreatePendingPaymentResponse, error) {
	email := normalize.Email(req.Email)
	fields := log.Fields{"email": email}

	if problems := normalize.CheckPasswordStrength(req.Password); len(problems) > 0 {
		return nil, weakPasswordError(problems)
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, domain.NewError(domain.CodeEmailAlreadyExists, "")
	} else if !isNotFound(err) {
		return nil, internalError(err, "Erro ao iniciar pagamento. Tente novamente.", fields)
	}

	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		return nil, domain.NewError(domain.CodePlanNotFound, "")
	}
	if _, err := s.planRepo.GetByID(ctx, planID); err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(domain.CodePlanNotFound, "")
		}
		return nil, internalError(err, "Erro ao iniciar pagamento. Tente novamente.", fields)
	}

	now := s.now()
	existing, err := s.pendingRepo.GetLatestPendingByEmail(ctx, email)
	switch {
	case err == nil && !existing.IsExpiredAt(now):
		return &CreatePendingPaymentResponse{PendingPaymentID: existing.ID, ExpiresAt: existing.ExpiresAt}, nil
	case err != nil && !isNotFound(err):
		return nil, internalError(err, "Erro ao iniciar pagamento. Tente novamente.", fields)
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, internalError(err, "Erro ao iniciar pagamento. Tente novamente.", fields)
	}

	payment := &domain.PendingPayment{
		ID:        uuid.New(),
		Email:     email,
		Name:      normalize.SanitizeName(req.Name),
		Password:  hashed,
		PlanID:    planID,
		Status:    domain.PaymentPending,
		ExpiresAt: now.Add(s.pendingTTL),
	}
	if err := s.pendingRepo.Create(ctx, payment); err != nil {
		return nil, internalError(err, "Erro ao iniciar pagamento. Tente novamente.", fields)
	}

	log.WithFields(log.Fields{"pending_payment_id": payment.ID, "plan_id": planID}).Info("payment: checkout started")
	return &CreatePendingPaymentResponse{PendingPaymentID: payment.ID, ExpiresAt: payment.ExpiresAt}, nil
}

func (s *PaymentService) GetPendingPayment(ctx context.Context, id uuid.UUID) (*PendingPaymentDTO, error) {
	payment, err := s.pendingRepo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(domain.CodePendingPaymentNotFound, "")
		}
		return nil, internalError(err, "Erro ao buscar pagamento.", log.Fields{"pending_payment_id": id})
	}

	plan, err := s.planRepo.GetByID(ctx, payment.PlanID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(domain.CodePlanNotFound, "")
		}
		return nil, internalError(err, "Erro ao buscar pagamento.", log.Fields{"pending_payment_id": id})
	}

	return &PendingPaymentDTO{
		ID:        payment.ID,
		Email:     payment.Email,
		Name:      payment.Name,
		PlanID:    payment.PlanID,
		Plan:      PlanSummary{ID: plan.ID, Name: plan.Name, Price: plan.Price},
		Status:    payment.Status,
		ExpiresAt: payment.ExpiresAt,
	}, nil
}

// ProcessCreditCardPayment charges the card for a pending checkout and
// provisions the account when the gateway confirms the order right away
func (s *PaymentService) ProcessCreditCardPayment(ctx context.Context, req ProcessCardPaymentRequest) (*ProcessCardPaymentResponse, error) {
	id, err := uuid.Parse(req.PendingPaymentID)
	if err != nil {
		return nil, domain.NewError(domain.CodePendingPaymentNotFound, "")
	}
	fields := log.Fields{"pending_payment_id": id}

	payment, err := s.pendingRepo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(domain.CodePendingPaymentNotFound, "")
		}
		return nil, internalError(err, "Erro ao processar pagamento. Tente novamente.", fields)
	}

	// a paid checkout is final, even past its expiry
	if payment.Status == domain.PaymentPaid {
		return nil, domain.NewError(domain.CodePaymentAlreadyProcessed, "")
	}

	if payment.IsExpiredAt(s.now()) {
		expired := domain.PaymentExpired
		if err := s.pendingRepo.Update(ctx, payment.ID, domain.PendingPaymentUpdate{Status: &expired}); err != nil {
			if errors.Is(err, repository.ErrAlreadyProcessed) {
				return nil, domain.NewError(domain.CodePaymentAlreadyProcessed, "")
			}
			log.WithError(err).WithFields(fields).Warn("payment: failed to mark checkout expired")
		}
		return nil, domain.NewError(domain.CodePaymentExpired, "Pagamento expirado. Por favor, inicie um novo processo de pagamento.")
	}

	plan, err := s.planRepo.GetByID(ctx, payment.PlanID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(domain.CodePlanNotFound, "")
		}
		return nil, internalError(err, "Erro ao buscar pagamento.", log.Fields{"pending_payment_id": id})
	}

	return &PendingPaymentDTO{
		ID:        payment.ID,
		Email:     payment.Email,
		Name:      payment.Name,
		PlanID:    payment.PlanID,
		Plan:      PlanSummary{ID: plan.ID, Name: plan.Name, Price: plan.Price},
		Status:    payment.Status,
		ExpiresAt: payment.ExpiresAt,
	}, nil
}

// ProcessCreditCardPayment charges the card for a pending checkout and
// provisions the account when the gateway confirms the order right away
func (s *PaymentService) ProcessCreditCardPayment(ctx context.Context, req ProcessCardPaymentRequest) (*ProcessCardPaymentResponse, error) {
	id, err := uuid.Parse(req.PendingPaymentID)
	if err != nil {
		return nil, domain.NewError(domain.CodePendingPaymentNotFound, "")
	}
	fields := log.Fields{"pending_payment_id": id}

	payment, err := s.pendingRepo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(domain.CodePendingPaymentNotFound, "")
		}
		return nil, internalError(err, "Erro ao processar pagamento. Tente novamente.", fields)
	}

	if payment.IsExpiredAt(s.now()) {
		expired := domain.PaymentExpired
		if err := s.pendingRepo.Update(ctx, payment.ID, domain.PendingPaymentUpdate{Status: &expired}); err != nil {
			log.WithError(err).WithFields(fields).Warn("payment: failed to mark checkout expired")
		}
		return nil, domain.NewError(domain.CodePaymentExpired, "Pagamento expirado. Por favor, inicie um novo processo de pagamento.")
	}

	if payment.Status == domain.PaymentPaid {
		return nil, domain.NewError(domain.CodePaymentAlreadyProcessed, "")
	}

	plan, err := s.planRepo.GetByID(ctx, payment.PlanID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(domain.CodePlanNotFound, "")
		}
		return nil, internalError(err, "Erro ao processar pagamento. Tente novamente.", fields)
	}

	if !normalize.IsValidInstallments(req.Installments) {
		return nil, domain.NewError(domain.CodeInvalidInput, "Número de parcelas inválido (1-12)")
	}

	order, err := s.gateway.CreateOrder(ctx, pagarme.OrderInput{
		Title:             fmt.Sprintf("Plano %s - CRM Imobiliário", plan.Name),
		Quantity:          1,
		UnitPrice:         plan.Price,
		CustomerName:      payment.Name,
		CustomerEmail:     payment.Email,
		CardToken:         req.CardToken,
		Installments:      req.Installments,
		ExternalReference: payment.ID.String(),
	})
	if err != nil {
		log.WithError(err).WithFields(fields).Error("payment: gateway rejected order")
		s.markFailed(ctx, payment.ID)
		return nil, domain.NewError(domain.CodePaymentGatewayError, gatewayFailureMessage).Wrap(err)
	}

	update := domain.PendingPaymentUpdate{PagarmeOrderID: &order.ID}
	if chargeID := order.FirstChargeID(); chargeID != "" {
		update.PagarmeChargeID = &chargeID
	}
	if err := s.pendingRepo.Update(ctx, payment.ID, update); err != nil {
		return nil, internalError(err, "Erro ao processar pagamento. Tente novamente.", fields)
	}

	resp := &ProcessCardPaymentResponse{OrderID: order.ID, Status: order.Status}

	switch order.Status {
	case pagarme.StatusPaid:
		userID, err := s.approve(ctx, payment, plan, order.ID)
		switch {
		case errors.Is(err, repository.ErrAlreadyProcessed):
			// the order.paid webhook provisioned the account first
			userID, err = s.provisionedUserID(ctx, payment)
		case err == nil:
			s.publishApproved(ctx, payment, userID, order.ID)
		}
		if err != nil {
			return nil, internalError(err, "Pagamento aprovado, mas houve um erro ao ativar sua conta. Entre em contato com o suporte.", fields)
		}
		resp.UserID = &userID
	case pagarme.StatusFailed:
		s.markFailed(ctx, payment.ID)
	}

	log.WithFields(log.Fields{"pending_payment_id": payment.ID, "order_id": order.ID, "status": order.Status}).Info("payment: card order processed")
	return resp, nil
}

// approve provisions the owner and the subscription and marks the checkout
// paid in one transaction. confirmationID is the webhook event id, or the
// order id when the card charge is confirmed synchronously. It returns
// repository.ErrAlreadyProcessed when another confirmation won.
func (s *PaymentService) approve(ctx context.Context, payment *domain.PendingPayment, plan *domain.Plan, confirmationID string) (uuid.UUID, error) {
	approval := domain.ApprovedPayment{
		PendingPaymentID: payment.ID,
		WebhookID:        confirmationID,
		Subscription:     domain.NewActiveSubscription(uuid.Nil, plan, s.now()),
	}
	existing, err := s.userRepo.GetByEmail(ctx, payment.Email)
	switch {
	case err == nil:
		approval.ExistingUserID = &existing.ID
	case isNotFound(err):
		approval.NewUser = newPaidOwner(payment)
	default:
		return uuid.Nil, fmt.Errorf("find user: %w", err)
	}

	userID, err := s.pendingRepo.Approve(ctx, approval)
	if err != nil {
		return uuid.Nil, err
	}
	s.userCache.InvalidateUser(ctx, userID)
	return userID, nil
}

func (s *PaymentService) provisionedUserID(ctx context.Context, payment *domain.PendingPayment) (uuid.UUID, error) {
	user, err := s.userRepo.GetByEmail(ctx, payment.Email)
	if err != nil {
		return uuid.Nil, fmt.Errorf("find provisioned user: %w", err)
	}
	return user.ID, nil
}

// newPaidOwner keeps the password hashed at checkout time
func newPaidOwner(payment *domain.PendingPayment) *domain.User {
	password := payment.Password
	return &domain.User{
		ID:              uuid.New(),
		Email:           payment.Email,
		Password:        &password,
		Name:            payment.Name,
		Role:            domain.RoleOwner,
		IsActive:        true,
		IsEmailVerified: true,
	}
}

func (s *PaymentService) markFailed(ctx context.Context, id uuid.UUID) {
	failed := domain.PaymentFailed
	if err := s.pendingRepo.Update(ctx, id, domain.PendingPaymentUpdate{Status: &failed}); err != nil {
		log.WithError(err).WithField("pending_payment_id", id).Warn("payment: failed to mark checkout failed")
	}
}

func (s *PaymentService) publishApproved(ctx context.Context, payment *domain.PendingPayment, userID uuid.UUID, orderID string) {
	evt := events.PaymentApproved{
		PendingPaymentID: payment.ID,
		UserID:           userID,
		PlanID:           payment.PlanID,
		OrderID:          orderID,
		Timestamp:        s.now(),
	}
	if err := s.publisher.Publish(ctx, events.RoutingPaymentApproved, evt); err != nil {
		log.WithError(err).WithField("pending_payment_id", payment.ID).Warn("payment: failed to publish approval")
	}
}

// ProcessWebhook confirms a payment notified by the gateway. Only paid
// events are handled and replays are acknowledged without side effects.
func (s *PaymentService) ProcessWebhook(ctx context.Context, event WebhookEvent) *WebhookResult {
	if event.Type != webhookOrderPaid && event.Type != webhookChargePaid {
		return &WebhookResult{Success: true, Message: "Event type not processed"}
	}

	orderID := event.OrderID()
	fields := log.Fields{"event_id": event.ID, "type": event.Type, "order_id": orderID}

	order, err := s.gateway.GetOrder(ctx, orderID)
	if err != nil {
		log.WithError(err).WithFields(fields).Error("payment: webhook order lookup failed")
		return webhookFailure(err)
	}

	if order.Status == pagarme.StatusPaid && order.ExternalReference != "" {
		webhookID := event.ID
		if webhookID == "" {
			webhookID = orderID
		}
		if err := s.approveFromWebhook(ctx, order, webhookID); err != nil {
			if errors.Is(err, repository.ErrAlreadyProcessed) {
				return &WebhookResult{Success: true, Message: "Payment already processed (idempotent)"}
			}
			log.WithError(err).WithFields(fields).Error("payment: webhook approval failed")
			return webhookFailure(err)
		}
	}

	log.WithFields(fields).Info("payment: webhook processed")
	return &WebhookResult{Success: true, Message: "Webhook processed successfully"}
}

func webhookFailure(err error) *WebhookResult {
	if appErr, ok := domain.AsAppError(err); ok {
		return &WebhookResult{Success: false, Message: appErr.Message}
	}
	return &WebhookResult{Success: false, Message: "Erro ao processar webhook"}
}

func (s *PaymentService) approveFromWebhook(ctx context.Context, order *pagarme.OrderInfo, webhookID string) error {
	paymentID, err := uuid.Parse(order.ExternalReference)
	if err != nil {
		return domain.NewError(domain.CodePendingPaymentNotFound, "")
	}

	payment, err := s.pendingRepo.GetByID(ctx, paymentID)
	if err != nil {
		if isNotFound(err) {
			return domain.NewError(domain.CodePendingPaymentNotFound, "")
		}
		return err
	}
	if payment.Status == domain.PaymentPaid {
		return repository.ErrAlreadyProcessed
	}

	plan, err := s.planRepo.GetByID(ctx, payment.PlanID)
	if err != nil {
		if isNotFound(err) {
			return domain.NewError(domain.CodePlanNotFound, "")
		}
		return err
	}

	userID, err := s.approve(ctx, payment, plan, webhookID)
	if err != nil {
		return err
	}
	s.publishApproved(ctx, payment, userID, order.ID)
	return nil
}

// ExpireStale is run by the scheduler to close abandoned checkouts
func (s *PaymentService) ExpireStale(ctx context.Context) (int64, error) {
	return s.pendingRepo.ExpireStale(ctx, s.now())
}

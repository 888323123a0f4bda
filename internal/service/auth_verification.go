package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	log "github.com/sirupsen/logrus"
)

type ConfirmCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResendCodeResponse struct {
	Message           string     `json:"message"`
	RemainingAttempts int        `json:"remainingAttempts"`
	CanResendAt       time.Time  `json:"canResendAt"`
	IsBlocked         bool       `json:"isBlocked"`
	BlockedUntil      *time.Time `json:"blockedUntil"`
}

type ResendStatusResponse struct {
	RemainingAttempts int        `json:"remainingAttempts"`
	CanResend         bool       `json:"canResend"`
	CanResendAt       *time.Time `json:"canResendAt"`
}

// codeState is the stored state of one code flow (verification or reset)
type codeState struct {
	secret      *string
	expiresAt   *time.Time
	attempts    int
	lastAttempt *time.Time
}

func ceilSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// checkAttempt runs the checks shared by every code confirmation: a code
// must be pending and fresh, the attempt cap not reached and the throttle
// delay since the last failure elapsed
func (s *AuthService) checkAttempt(st codeState, now time.Time, missing, expired *domain.AppError) error {
	if st.secret == nil || st.expiresAt == nil {
		return missing
	}
	if now.After(*st.expiresAt) {
		return expired
	}
	if st.attempts >= s.cfg.MaxCodeAttempts {
		return domain.NewError(domain.CodeTooManyAttempts, "Você atingiu o limite de tentativas para este código. Solicite um novo código.")
	}
	if st.lastAttempt != nil && st.attempts > 0 {
		wait := s.cfg.ThrottleFor(st.attempts) - now.Sub(*st.lastAttempt)
		if wait > 0 {
			secs := ceilSeconds(wait)
			return domain.NewError(domain.CodeTooManyAttempts,
				fmt.Sprintf("Aguarde %d %s antes de tentar novamente.", secs, plural(secs, "segundo", "segundos"))).
				WithMetadata("remainingSeconds", secs)
		}
	}
	return nil
}

func (s *AuthService) invalidCode(code domain.ErrorCode, noun string, attempts int) error {
	remaining := max(s.cfg.MaxCodeAttempts-attempts, 0)
	left := fmt.Sprintf("Restam %d tentativas", remaining)
	if remaining == 1 {
		left = "Resta 1 tentativa"
	}
	return domain.NewError(code, fmt.Sprintf("Código de %s inválido. %s para este código.", noun, left)).
		WithMetadata("remainingAttempts", remaining)
}

func (s *AuthService) userByEmail(ctx context.Context, raw string) (*domain.User, error) {
	user, err := s.findByEmail(ctx, raw)
	if err != nil {
		return nil, internalError(err, "Erro ao buscar usuário. Tente novamente.", log.Fields{"email": raw})
	}
	if user == nil {
		return nil, domain.NewError(domain.CodeUserNotFound, "")
	}
	return user, nil
}

// ConfirmEmail checks the emailed code and, on success, marks the account
// verified and hands out a checkout token for the pending subscription
func (s *AuthService) ConfirmEmail(ctx context.Context, req ConfirmCodeRequest) (*domain.CheckoutToken, error) {
	user, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user.IsEmailVerified {
		return nil, domain.NewError(domain.CodeAccountAlreadyVerified, "")
	}

	now := s.now()
	st := codeState{
		secret:      user.VerificationSecret,
		expiresAt:   user.VerificationExpiresAt,
		attempts:    user.VerificationAttempts,
		lastAttempt: user.VerificationLastAttemptAt,
	}
	if err := s.checkAttempt(st, now,
		domain.NewError(domain.CodeInvalidVerificationCode, "Nenhum código de verificação foi solicitado"),
		domain.NewError(domain.CodeVerificationCodeExpired, ""),
	); err != nil {
		return nil, err
	}

	fields := log.Fields{"user_id": user.ID}
	if !s.otp.Verify(*user.VerificationSecret, req.Code, now) {
		user.VerificationAttempts++
		user.VerificationLastAttemptAt = &now
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, internalError(err, "Erro ao verificar código. Tente novamente.", fields)
		}
		return nil, s.invalidCode(domain.CodeInvalidVerificationCode, "verificação", user.VerificationAttempts)
	}

	sub, err := s.subRepo.GetCurrentByUserID(ctx, user.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(domain.CodeSubscriptionNotFound, "")
		}
		return nil, internalError(err, "Erro ao verificar código. Tente novamente.", fields)
	}
	if sub.Status != domain.SubscriptionPending {
		return nil, domain.NewError(domain.CodeAccountAlreadyVerified, "Esta assinatura já foi processada. Você pode fazer login normalmente.")
	}

	user.IsEmailVerified = true
	user.ClearVerification()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, internalError(err, "Erro ao verificar código. Tente novamente.", fields)
	}

	token, err := s.tokens.GenerateCheckoutToken(user, &sub.Subscription)
	if err != nil {
		return nil, internalError(err, "Erro ao verificar código. Tente novamente.", fields)
	}

	log.WithFields(fields).Info("auth: email confirmed")
	return token, nil
}

// effectiveResendCount is the resend counter after the reset window is
// taken into account
func (s *AuthService) effectiveResendCount(user *domain.User, now time.Time) int {
	if user.VerificationLastResendAt != nil && now.Sub(*user.VerificationLastResendAt) >= s.cfg.ResendResetWindow {
		return 0
	}
	return user.VerificationResendCount
}

func (s *AuthService) ResendVerificationCode(ctx context.Context, req EmailRequest) (*ResendCodeResponse, error) {
	user, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user.IsEmailVerified {
		return nil, domain.NewError(domain.CodeAccountAlreadyVerified, "")
	}

	now := s.now()
	count := s.effectiveResendCount(user, now)
	if count >= s.cfg.MaxResendAttempts {
		return nil, domain.NewError(domain.CodeResendLimitExceeded,
			fmt.Sprintf("Você atingiu o limite máximo de %d reenvios. Tente novamente em 24 horas ou entre em contato com o suporte.", s.cfg.MaxResendAttempts))
	}
	if user.VerificationLastResendAt != nil {
		if wait := s.cfg.CooldownFor(count) - now.Sub(*user.VerificationLastResendAt); wait > 0 {
			secs := ceilSeconds(wait)
			return nil, domain.NewError(domain.CodeResendLimitExceeded,
				fmt.Sprintf("Aguarde %d %s antes de solicitar um novo código.", secs, plural(secs, "segundo", "segundos"))).
				WithMetadata("remainingSeconds", secs)
		}
	}

	fields := log.Fields{"user_id": user.ID}
	secret, err := s.otp.NewSecret(user.Email)
	if err != nil {
		return nil, internalError(err, "Erro ao reenviar código. Tente novamente.", fields)
	}
	code, err := s.otp.Code(secret, now)
	if err != nil {
		return nil, internalError(err, "Erro ao reenviar código. Tente novamente.", fields)
	}

	prev := *user
	expiresAt := now.Add(s.cfg.TOTPStep)
	user.VerificationSecret = &secret
	user.VerificationExpiresAt = &expiresAt
	user.VerificationAttempts = 0
	user.VerificationLastAttemptAt = nil
	user.VerificationResendCount = count + 1
	user.VerificationLastResendAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, internalError(err, "Erro ao reenviar código. Tente novamente.", fields)
	}

	if err := s.mailer.SendVerificationCode(ctx, user.Email, user.Name, code); err != nil {
		log.WithError(err).WithFields(fields).Error("auth: verification email failed, rolling back resend")
		if rbErr := s.userRepo.Update(ctx, &prev); rbErr != nil {
			log.WithError(rbErr).WithFields(fields).Error("auth: rollback of resend failed")
		}
		return nil, domain.NewError(domain.CodeEmailSendFailed, "Não foi possível enviar o código de verificação por email. Verifique sua conexão ou tente novamente mais tarde.")
	}

	remaining := s.cfg.MaxResendAttempts - user.VerificationResendCount
	resp := &ResendCodeResponse{
		Message:           "Código de verificação reenviado com sucesso",
		RemainingAttempts: remaining,
		CanResendAt:       now.Add(s.cfg.CooldownFor(user.VerificationResendCount)),
		IsBlocked:         remaining <= 0,
	}
	if resp.IsBlocked {
		until := now.Add(s.cfg.ResendResetWindow)
		resp.BlockedUntil = &until
	}
	return resp, nil
}

// GetResendStatus tells the verification page whether and when another
// code can be requested
func (s *AuthService) GetResendStatus(ctx context.Context, req EmailRequest) (*ResendStatusResponse, error) {
	user, err := s.userByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if user.IsEmailVerified {
		return nil, domain.NewError(domain.CodeAccountAlreadyVerified, "")
	}

	now := s.now()
	count := s.effectiveResendCount(user, now)
	resp := &ResendStatusResponse{RemainingAttempts: max(s.cfg.MaxResendAttempts-count, 0)}

	if user.VerificationLastResendAt != nil {
		next := user.VerificationLastResendAt.Add(s.cfg.CooldownFor(count))
		if next.After(now) {
			resp.CanResendAt = &next
		}
	}
	resp.CanResend = resp.RemainingAttempts > 0 && resp.CanResendAt == nil
	return resp, nil
}

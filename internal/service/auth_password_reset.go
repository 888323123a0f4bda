package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/normalize"
	log "github.com/sirupsen/logrus"
)

const resetEmailFailed = "Não foi possível enviar o email de recuperação de senha. Tente novamente mais tarde."

type PasswordResetStatus struct {
	CanResend               bool       `json:"canResend"`
	RemainingResendAttempts int        `json:"remainingResendAttempts"`
	CanResendAt             *time.Time `json:"canResendAt"`
	RemainingCodeAttempts   int        `json:"remainingCodeAttempts"`
	CanTryCodeAt            *time.Time `json:"canTryCodeAt"`
	IsResendBlocked         bool       `json:"isResendBlocked"`
	ResendBlockedUntil      *time.Time `json:"resendBlockedUntil"`
	CodeExpiresAt           *time.Time `json:"codeExpiresAt"`
}

type ResendResetCodeResponse struct {
	RemainingResendAttempts int       `json:"remainingResendAttempts"`
	CanResendAt             time.Time `json:"canResendAt"`
	CodeExpiresAt           time.Time `json:"codeExpiresAt"`
}

type ConfirmPasswordResetRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// resetUser loads the user of a reset flow. Invited users have no password
// yet and are allowed through unverified.
func (s *AuthService) resetUser(ctx context.Context, raw string) (*domain.User, error) {
	user, err := s.userByEmail(ctx, raw)
	if err != nil {
		return nil, err
	}
	if !user.IsEmailVerified && user.Password != nil {
		return nil, domain.NewError(domain.CodeEmailNotVerified, "Email não verificado. Por favor, verifique seu email primeiro.")
	}
	return user, nil
}

func resetBlocked(user *domain.User, now time.Time) bool {
	return user.PasswordResetResendBlocked && user.PasswordResetResendBlockedUntil != nil &&
		user.PasswordResetResendBlockedUntil.After(now)
}

// issueResetCode stores a fresh code on user and emails it. The stored
// fields are rolled back to prev when the email cannot be sent.
func (s *AuthService) issueResetCode(ctx context.Context, user *domain.User, prev domain.User, now time.Time) (time.Time, error) {
	fields := log.Fields{"user_id": user.ID}
	secret, err := s.otp.NewSecret(user.Email)
	if err != nil {
		return time.Time{}, internalError(err, "Erro ao gerar código. Tente novamente.", fields)
	}
	code, err := s.otp.Code(secret, now)
	if err != nil {
		return time.Time{}, internalError(err, "Erro ao gerar código. Tente novamente.", fields)
	}

	expiresAt := now.Add(s.cfg.TOTPStep)
	user.PasswordResetSecret = &secret
	user.PasswordResetExpiresAt = &expiresAt
	user.PasswordResetAttempts = 0
	if err := s.userRepo.Update(ctx, user); err != nil {
		return time.Time{}, internalError(err, "Erro ao gerar código. Tente novamente.", fields)
	}

	if err := s.mailer.SendPasswordResetCode(ctx, user.Email, user.Name, code); err != nil {
		log.WithError(err).WithFields(fields).Error("auth: password reset email failed, rolling back")
		if rbErr := s.userRepo.Update(ctx, &prev); rbErr != nil {
			log.WithError(rbErr).WithFields(fields).Error("auth: rollback of password reset failed")
		}
		return time.Time{}, domain.NewError(domain.CodeEmailSendFailed, resetEmailFailed)
	}
	return expiresAt, nil
}

// RequestPasswordReset sends the first reset code when none is active and
// otherwise reports the state of the running reset
func (s *AuthService) RequestPasswordReset(ctx context.Context, req EmailRequest) (*PasswordResetStatus, error) {
	user, err := s.resetUser(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	fields := log.Fields{"user_id": user.ID}
	blocked := resetBlocked(user, now)
	if user.PasswordResetResendBlocked && !blocked {
		user.PasswordResetResendBlocked = false
		user.PasswordResetResendBlockedUntil = nil
		user.PasswordResetResendCount = 0
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, internalError(err, "Erro ao consultar recuperação de senha. Tente novamente.", fields)
		}
	}

	active := user.PasswordResetSecret != nil && user.PasswordResetExpiresAt != nil && user.PasswordResetExpiresAt.After(now)
	if !active {
		prev := *user
		user.ClearPasswordReset()
		expiresAt, err := s.issueResetCode(ctx, user, prev, now)
		if err != nil {
			return nil, err
		}
		log.WithFields(fields).Info("auth: password reset requested")
		return &PasswordResetStatus{
			CanResend:               true,
			RemainingResendAttempts: s.cfg.MaxResendAttempts,
			RemainingCodeAttempts:   s.cfg.MaxCodeAttempts,
			CodeExpiresAt:           &expiresAt,
		}, nil
	}

	status := &PasswordResetStatus{
		RemainingResendAttempts: max(s.cfg.MaxResendAttempts-user.PasswordResetResendCount, 0),
		RemainingCodeAttempts:   max(s.cfg.MaxCodeAttempts-user.PasswordResetAttempts, 0),
		IsResendBlocked:         blocked,
		ResendBlockedUntil:      user.PasswordResetResendBlockedUntil,
		CodeExpiresAt:           user.PasswordResetExpiresAt,
	}
	if user.PasswordResetLastAttemptAt != nil {
		next := user.PasswordResetLastAttemptAt.Add(s.cfg.ThrottleFor(user.PasswordResetAttempts))
		if next.After(now) {
			status.CanTryCodeAt = &next
		}
	}
	if cd := user.PasswordResetCooldownEndsAt; cd != nil && cd.After(now) {
		status.CanResendAt = cd
	}
	if blocked {
		status.RemainingResendAttempts = 0
	}
	status.CanResend = !blocked && status.CanResendAt == nil && status.RemainingResendAttempts > 0
	return status, nil
}

func (s *AuthService) ResendPasswordResetCode(ctx context.Context, req EmailRequest) (*ResendResetCodeResponse, error) {
	user, err := s.resetUser(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if resetBlocked(user, now) {
		mins := int(math.Ceil(user.PasswordResetResendBlockedUntil.Sub(now).Minutes()))
		return nil, domain.NewError(domain.CodeTooManyAttempts,
			fmt.Sprintf("Muitas tentativas de reenvio. Aguarde %d minuto(s) para tentar novamente.", mins))
	}
	if cd := user.PasswordResetCooldownEndsAt; cd != nil && cd.After(now) {
		return nil, domain.NewError(domain.CodeTooManyAttempts,
			fmt.Sprintf("Aguarde %d segundos antes de solicitar um novo código.", ceilSeconds(cd.Sub(now))))
	}

	fields := log.Fields{"user_id": user.ID}
	if user.PasswordResetResendCount >= s.cfg.MaxResendAttempts {
		until := now.Add(s.cfg.ResetBlockDuration)
		user.PasswordResetResendBlocked = true
		user.PasswordResetResendBlockedUntil = &until
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, internalError(err, "Erro ao reenviar código. Tente novamente.", fields)
		}
		log.WithFields(fields).Warn("auth: password reset resend blocked")
		return nil, domain.NewError(domain.CodeTooManyAttempts,
			fmt.Sprintf("Limite de reenvios atingido. Aguarde %d minutos para tentar novamente.", int(s.cfg.ResetBlockDuration.Minutes())))
	}

	prev := *user
	cooldownEnds := now.Add(s.cfg.InitialCooldown)
	user.PasswordResetResendCount++
	user.PasswordResetCooldownEndsAt = &cooldownEnds
	expiresAt, err := s.issueResetCode(ctx, user, prev, now)
	if err != nil {
		return nil, err
	}

	return &ResendResetCodeResponse{
		RemainingResendAttempts: s.cfg.MaxResendAttempts - user.PasswordResetResendCount,
		CanResendAt:             cooldownEnds,
		CodeExpiresAt:           expiresAt,
	}, nil
}

// ConfirmPasswordReset sets a new password and revokes every token issued
// to the user before now
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, req ConfirmPasswordResetRequest) (*MessageResponse, error) {
	user, err := s.resetUser(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	st := codeState{
		secret:      user.PasswordResetSecret,
		expiresAt:   user.PasswordResetExpiresAt,
		attempts:    user.PasswordResetAttempts,
		lastAttempt: user.PasswordResetLastAttemptAt,
	}
	if err := s.checkAttempt(st, now,
		domain.NewError(domain.CodeInvalidPasswordResetCode, "Nenhum código de recuperação foi solicitado. Solicite um novo código."),
		domain.NewError(domain.CodePasswordResetCodeExpired, "Código de recuperação expirado. Solicite um novo código."),
	); err != nil {
		return nil, err
	}

	fields := log.Fields{"user_id": user.ID}
	if !s.otp.Verify(*user.PasswordResetSecret, req.Code, now) {
		user.PasswordResetAttempts++
		user.PasswordResetLastAttemptAt = &now
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, internalError(err, "Erro ao redefinir senha. Tente novamente.", fields)
		}
		return nil, s.invalidCode(domain.CodeInvalidPasswordResetCode, "recuperação", user.PasswordResetAttempts)
	}

	if problems := normalize.CheckPasswordStrength(req.NewPassword); len(problems) > 0 {
		return nil, weakPasswordError(problems)
	}
	hashed, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return nil, internalError(err, "Erro ao redefinir senha. Tente novamente.", fields)
	}

	user.Password = &hashed
	user.ClearPasswordReset()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, internalError(err, "Erro ao redefinir senha. Tente novamente.", fields)
	}

	if err := s.revoker.RevokeUser(ctx, user.ID.String()); err != nil {
		log.WithError(err).WithFields(fields).Error("auth: revoking tokens after password reset failed")
	}
	s.userCache.InvalidateUser(ctx, user.ID)

	log.WithFields(fields).Info("auth: password reset")
	return &MessageResponse{Message: "Senha redefinida com sucesso. Faça login com sua nova senha."}, nil
}

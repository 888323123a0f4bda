package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	log "github.com/sirupsen/logrus"
)

type ResendSender struct {
	client *resend.Client
	cfg    Config
}

func NewResendSender(cfg Config) (*ResendSender, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("resend API key is required")
	}
	if cfg.FromEmail == "" {
		return nil, errors.New("from email is required")
	}
	return &ResendSender{client: resend.NewClient(cfg.APIKey), cfg: cfg}, nil
}

func (s *ResendSender) send(ctx context.Context, kind, to, subject, html string) error {
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail),
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"kind": kind, "to": to}).Error("email: send failed")
		return fmt.Errorf("send %s email: %w", kind, err)
	}
	log.WithFields(log.Fields{"kind": kind, "to": to, "id": sent.Id}).Info("email: sent")
	return nil
}

func (s *ResendSender) SendVerificationCode(ctx context.Context, to, name, code string) error {
	html, err := render(verificationTmpl, codeData{Name: name, Code: code})
	if err != nil {
		return err
	}
	return s.send(ctx, "verification", to, "Seu código de verificação - CRM Imobiliário", html)
}

func (s *ResendSender) SendPasswordResetCode(ctx context.Context, to, name, code string) error {
	html, err := render(passwordResetTmpl, codeData{Name: name, Code: code})
	if err != nil {
		return err
	}
	return s.send(ctx, "password_reset", to, "Recuperação de senha - CRM Imobiliário", html)
}

func (s *ResendSender) SendUserInvitation(ctx context.Context, inv Invitation) error {
	if inv.SetupURL == "" {
		inv.SetupURL = s.cfg.FrontendURL + "/login"
	}
	html, err := render(invitationTmpl, inv)
	if err != nil {
		return err
	}
	return s.send(ctx, "invitation", inv.To, fmt.Sprintf("Você foi convidado para %s", inv.CompanyName), html)
}

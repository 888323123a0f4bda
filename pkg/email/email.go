package email

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Sender delivers the transactional emails of the CRM
type Sender interface {
	SendVerificationCode(ctx context.Context, to, name, code string) error
	SendPasswordResetCode(ctx context.Context, to, name, code string) error
	SendUserInvitation(ctx context.Context, inv Invitation) error
}

// Invitation is sent when an owner or manager adds a user to their company
type Invitation struct {
	To          string
	Name        string
	InviterName string
	CompanyName string
	Role        string
	SetupURL    string
}

type Config struct {
	APIKey      string
	FromName    string
	FromEmail   string
	FrontendURL string
}

// LogSender only logs. It is used when email delivery is disabled.
type LogSender struct{}

func (LogSender) SendVerificationCode(_ context.Context, to, _, code string) error {
	log.WithFields(log.Fields{"to": to, "code": code}).Info("email disabled: verification code")
	return nil
}

func (LogSender) SendPasswordResetCode(_ context.Context, to, _, code string) error {
	log.WithFields(log.Fields{"to": to, "code": code}).Info("email disabled: password reset code")
	return nil
}

func (LogSender) SendUserInvitation(_ context.Context, inv Invitation) error {
	log.WithFields(log.Fields{"to": inv.To, "company": inv.CompanyName}).Info("email disabled: invitation")
	return nil
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Email           string     `json:"email" db:"email"`
	Password        *string    `json:"-" db:"password"`
	Name            string     `json:"name" db:"name"`
	Phone           *string    `json:"phone,omitempty" db:"phone"`
	AvatarURL       *string    `json:"avatar_url,omitempty" db:"avatar_url"`
	Role            Role       `json:"role" db:"role"`
	CompanyID       *uuid.UUID `json:"company_id,omitempty" db:"company_id"`
	CreatedBy       *uuid.UUID `json:"created_by,omitempty" db:"created_by"`
	IsActive        bool       `json:"is_active" db:"is_active"`
	IsEmailVerified bool       `json:"is_email_verified" db:"is_email_verified"`

	VerificationSecret        *string    `json:"-" db:"verification_secret"`
	VerificationExpiresAt     *time.Time `json:"-" db:"verification_expires_at"`
	VerificationAttempts      int        `json:"-" db:"verification_attempts"`
	VerificationLastAttemptAt *time.Time `json:"-" db:"verification_last_attempt_at"`
	VerificationResendCount   int        `json:"-" db:"verification_resend_count"`
	VerificationLastResendAt  *time.Time `json:"-" db:"verification_last_resend_at"`

	PasswordResetSecret             *string    `json:"-" db:"password_reset_secret"`
	PasswordResetExpiresAt          *time.Time `json:"-" db:"password_reset_expires_at"`
	PasswordResetAttempts           int        `json:"-" db:"password_reset_attempts"`
	PasswordResetLastAttemptAt      *time.Time `json:"-" db:"password_reset_last_attempt_at"`
	PasswordResetResendCount        int        `json:"-" db:"password_reset_resend_count"`
	PasswordResetCooldownEndsAt     *time.Time `json:"-" db:"password_reset_cooldown_ends_at"`
	PasswordResetResendBlocked      bool       `json:"-" db:"password_reset_resend_blocked"`
	PasswordResetResendBlockedUntil *time.Time `json:"-" db:"password_reset_resend_blocked_until"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasCompany reports whether onboarding linked the user to a company
func (u *User) HasCompany() bool {
	return u.CompanyID != nil && *u.CompanyID != uuid.Nil
}

// ScopeCompanyID is uuid.Nil for users not yet linked to a company
func (u *User) ScopeCompanyID() uuid.UUID {
	if u.CompanyID == nil {
		return uuid.Nil
	}
	return *u.CompanyID
}

// ClearVerification removes the pending email verification state
func (u *User) ClearVerification() {
	u.VerificationSecret = nil
	u.VerificationExpiresAt = nil
	u.VerificationAttempts = 0
	u.VerificationLastAttemptAt = nil
}

// ClearPasswordReset removes every password reset field
func (u *User) ClearPasswordReset() {
	u.PasswordResetSecret = nil
	u.PasswordResetExpiresAt = nil
	u.PasswordResetAttempts = 0
	u.PasswordResetLastAttemptAt = nil
	u.PasswordResetResendCount = 0
	u.PasswordResetCooldownEndsAt = nil
	u.PasswordResetResendBlocked = false
	u.PasswordResetResendBlockedUntil = nil
}

// UserFilter narrows user listings inside a company
type UserFilter struct {
	CompanyID uuid.UUID
	Role      *Role
	IsActive  *bool
	// MembersOnly leaves the company owner out
	MembersOnly bool
	ExcludeID   *uuid.UUID
	Search      string
	Limit       int
	Offset      int
}

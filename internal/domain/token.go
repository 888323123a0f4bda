package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess   = "access"
	TokenTypeRefresh  = "refresh"
	TokenTypeCheckout = "checkout"
)

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}

type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID  `json:"uid"`
	Email     string     `json:"email,omitempty"`
	Role      Role       `json:"role,omitempty"`
	CompanyID *uuid.UUID `json:"company_id,omitempty"`
	TokenType string     `json:"type"`

	// checkout tokens only
	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
	PlanID         *uuid.UUID `json:"plan_id,omitempty"`
}

// CheckoutToken lets a verified user with a pending subscription pay for it
type CheckoutToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

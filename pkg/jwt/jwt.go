package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidSigningMethod = errors.New("unexpected signing method")
	ErrInvalidToken         = errors.New("invalid token")
	ErrWrongTokenType       = errors.New("wrong token type")
	ErrTokenExpired         = errors.New("token expired")
)

type Config struct {
	AccessExpiry   time.Duration
	RefreshExpiry  time.Duration
	CheckoutExpiry time.Duration
	Issuer         string
}

type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	cfg        Config
}

func NewTokenService(privateKeyPEM, publicKeyPEM []byte, cfg Config) (*TokenService, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return NewTokenServiceFromKeys(privateKey, publicKey, cfg), nil
}

func NewTokenServiceFromKeys(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, cfg Config) *TokenService {
	return &TokenService{privateKey: privateKey, publicKey: publicKey, cfg: cfg}
}

func (s *TokenService) registered(subject uuid.UUID, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   subject.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.New().String(),
	}
}

func (s *TokenService) sign(claims domain.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
}

func (s *TokenService) GenerateTokenPair(user *domain.User) (*domain.TokenPair, error) {
	now := time.Now()

	access, err := s.sign(domain.Claims{
		RegisteredClaims: s.registered(user.ID, now, s.cfg.AccessExpiry),
		UserID:           user.ID,
		Email:            user.Email,
		Role:             user.Role,
		CompanyID:        user.CompanyID,
		TokenType:        domain.TokenTypeAccess,
	})
	if err != nil {
		return nil, err
	}

	// refresh tokens carry identity only; role and company are reloaded on refresh
	refresh, err := s.sign(domain.Claims{
		RegisteredClaims: s.registered(user.ID, now, s.cfg.RefreshExpiry),
		UserID:           user.ID,
		TokenType:        domain.TokenTypeRefresh,
	})
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.cfg.AccessExpiry),
		TokenType:    "Bearer",
	}, nil
}

// GenerateCheckoutToken issues a short-lived token that only unlocks the
// checkout routes for a user whose subscription is still pending.
func (s *TokenService) GenerateCheckoutToken(user *domain.User, sub *domain.Subscription) (*domain.CheckoutToken, error) {
	now := time.Now()
	token, err := s.sign(domain.Claims{
		RegisteredClaims: s.registered(user.ID, now, s.cfg.CheckoutExpiry),
		UserID:           user.ID,
		Email:            user.Email,
		TokenType:        domain.TokenTypeCheckout,
		SubscriptionID:   &sub.ID,
		PlanID:           &sub.PlanID,
	})
	if err != nil {
		return nil, err
	}
	return &domain.CheckoutToken{Token: token, ExpiresAt: now.Add(s.cfg.CheckoutExpiry)}, nil
}

// ValidateToken parses tokenString and checks that it is of the wanted type
func (s *TokenService) ValidateToken(tokenString, tokenType string) (*domain.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return s.publicKey, nil
	}, jwt.WithIssuer(s.cfg.Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	if claims.Role != "" && !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RemainingTTL is how long a token stays valid; blacklist entries live this long
func RemainingTTL(claims *domain.Claims, now time.Time) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	if d := claims.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/google/uuid"
)

func newTestService(t *testing.T, cfg Config) *TokenService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return NewTokenServiceFromKeys(key, &key.PublicKey, cfg)
}

func defaultConfig() Config {
	return Config{AccessExpiry: 15 * time.Minute, RefreshExpiry: 24 * time.Hour, CheckoutExpiry: time.Hour, Issuer: "crm-imobiliario"}
}

func TestTokenPairRoundTrip(t *testing.T) {
	s := newTestService(t, defaultConfig())
	companyID := uuid.New()
	user := &domain.User{ID: uuid.New(), Email: "a@b.com", Role: domain.RoleManager, CompanyID: &companyID}

	pair, err := s.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	claims, err := s.ValidateToken(pair.AccessToken, domain.TokenTypeAccess)
	if err != nil {
		t.Fatalf("ValidateToken(access): %v", err)
	}
	if claims.UserID != user.ID || claims.Role != domain.RoleManager || claims.CompanyID == nil || *claims.CompanyID != companyID {
		t.Errorf("unexpected claims %+v", claims)
	}

	refresh, err := s.ValidateToken(pair.RefreshToken, domain.TokenTypeRefresh)
	if err != nil {
		t.Fatalf("ValidateToken(refresh): %v", err)
	}
	if refresh.Role != "" || refresh.CompanyID != nil {
		t.Errorf("refresh token should not carry role or company: %+v", refresh)
	}
}

func TestValidateRejectsWrongType(t *testing.T) {
	s := newTestService(t, defaultConfig())
	pair, err := s.GenerateTokenPair(&domain.User{ID: uuid.New(), Role: domain.RoleOwner})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ValidateToken(pair.RefreshToken, domain.TokenTypeAccess); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("err = %v, want ErrWrongTokenType", err)
	}
}

func TestValidateExpired(t *testing.T) {
	cfg := defaultConfig()
	cfg.AccessExpiry = -time.Minute
	s := newTestService(t, cfg)
	pair, err := s.GenerateTokenPair(&domain.User{ID: uuid.New(), Role: domain.RoleOwner})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ValidateToken(pair.AccessToken, domain.TokenTypeAccess); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestValidateForeignKey(t *testing.T) {
	a := newTestService(t, defaultConfig())
	b := newTestService(t, defaultConfig())
	pair, err := a.GenerateTokenPair(&domain.User{ID: uuid.New(), Role: domain.RoleBroker})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.ValidateToken(pair.AccessToken, domain.TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestCheckoutToken(t *testing.T) {
	s := newTestService(t, defaultConfig())
	user := &domain.User{ID: uuid.New(), Email: "x@y.com"}
	sub := &domain.Subscription{ID: uuid.New(), PlanID: uuid.New()}

	tok, err := s.GenerateCheckoutToken(user, sub)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := s.ValidateToken(tok.Token, domain.TokenTypeCheckout)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.SubscriptionID == nil || *claims.SubscriptionID != sub.ID || *claims.PlanID != sub.PlanID {
		t.Errorf("unexpected checkout claims %+v", claims)
	}
	if ttl := RemainingTTL(claims, time.Now()); ttl <= 0 || ttl > time.Hour {
		t.Errorf("RemainingTTL = %v", ttl)
	}
}

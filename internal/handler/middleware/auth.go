package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/authz"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/service"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/pkg/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Keys of the values stored in fiber.Locals by this package
const (
	LocalUserID    = "user_id"
	LocalRole      = "role"
	LocalCompanyID = "company_id"
	LocalActor     = "actor"
	LocalClaims    = "claims"
	LocalSession   = "session"
	LocalToken     = "token"
)

// TokenValidator parses signed tokens
type TokenValidator interface {
	ValidateToken(token, tokenType string) (*domain.Claims, error)
}

// RevocationChecker reports blacklisted tokens and users
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

// SessionValidator loads the account behind a token and checks that it may
// still use the system
type SessionValidator interface {
	Validate(ctx context.Context, userID uuid.UUID, allowPending bool) (*service.Session, error)
}

func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", domain.NewError(domain.CodeTokenNotFound, "")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", domain.NewError(domain.CodeInvalidToken, "Formato do cabeçalho Authorization inválido")
	}
	return strings.TrimSpace(parts[1]), nil
}

func tokenError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return domain.NewError(domain.CodeTokenExpired, "")
	}
	return domain.NewError(domain.CodeInvalidToken, "")
}

// RequireAuth validates the access token, rejects revoked tokens and loads
// the caller's session. allowPending admits owners whose subscription is
// still unpaid.
func RequireAuth(tokens TokenValidator, revoker RevocationChecker, sessions SessionValidator, allowPending bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c)
		if err != nil {
			return err
		}
		claims, err := tokens.ValidateToken(raw, domain.TokenTypeAccess)
		if err != nil {
			return tokenError(err)
		}

		ctx := c.UserContext()
		if claims.ID != "" {
			revoked, err := revoker.IsTokenRevoked(ctx, claims.ID)
			if err != nil {
				log.WithError(err).WithField("user_id", claims.UserID).Error("auth: blacklist lookup failed")
				return domain.Internal("Erro ao validar sessão. Tente novamente.")
			}
			if revoked {
				return domain.NewError(domain.CodeInvalidToken, "Sessão encerrada. Faça login novamente.")
			}
		}
		if claims.IssuedAt != nil {
			revoked, err := revoker.IsUserRevoked(ctx, claims.UserID.String(), claims.IssuedAt.Time)
			if err != nil {
				log.WithError(err).WithField("user_id", claims.UserID).Error("auth: blacklist lookup failed")
				return domain.Internal("Erro ao validar sessão. Tente novamente.")
			}
			if revoked {
				return domain.NewError(domain.CodeTokenExpired, "Sua sessão foi encerrada. Por favor, faça login novamente.")
			}
		}

		sess, err := sessions.Validate(ctx, claims.UserID, allowPending)
		if err != nil {
			return err
		}

		actor := authz.ActorFromUser(sess.User)
		c.Locals(LocalUserID, actor.UserID)
		c.Locals(LocalRole, actor.Role)
		if actor.CompanyID != nil {
			c.Locals(LocalCompanyID, *actor.CompanyID)
		}
		c.Locals(LocalActor, actor)
		c.Locals(LocalClaims, claims)
		c.Locals(LocalSession, sess)
		c.Locals(LocalToken, raw)
		return c.Next()
	}
}

// RequireCheckout admits holders of a checkout token
func RequireCheckout(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c)
		if err != nil {
			return err
		}
		claims, err := tokens.ValidateToken(raw, domain.TokenTypeCheckout)
		if err != nil {
			return tokenError(err)
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalClaims, claims)
		return c.Next()
	}
}

// ActorFrom returns the actor stored by RequireAuth
func ActorFrom(c *fiber.Ctx) (authz.Actor, bool) {
	actor, ok := c.Locals(LocalActor).(authz.Actor)
	return actor, ok
}

func ClaimsFrom(c *fiber.Ctx) (*domain.Claims, bool) {
	claims, ok := c.Locals(LocalClaims).(*domain.Claims)
	return claims, ok && claims != nil
}

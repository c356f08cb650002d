// Package middleware holds the authorization gate placed in front of
// protected admin panel routes.
package middleware

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/corp_site/internal/metrics"
	"github.com/Skotchmaster/corp_site/internal/policy"
	"github.com/Skotchmaster/corp_site/internal/service"
	"github.com/Skotchmaster/corp_site/pkg/roles"
	"github.com/Skotchmaster/corp_site/pkg/tokens"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxClaims = "claims"
)

type Authenticator interface {
	Authenticate(accessToken string) (*tokens.Claims, error)
}

type Gate struct {
	Auth Authenticator
}

func NewGate(auth Authenticator) *Gate {
	return &Gate{Auth: auth}
}

// RequireAuth admits any request carrying a valid access token.
func (g *Gate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := g.authenticate(c); err != nil {
			return err
		}
		return next(c)
	}
}

// RequireRole admits requests whose token role ranks at least min.
// An unknown role in the token never passes.
func (g *Gate) RequireRole(min roles.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := g.authenticate(c)
			if err != nil {
				return err
			}
			if !claims.Role.AtLeast(min) {
				metrics.GateDenied("forbidden")
				return fmt.Errorf("%w: requires %s role", service.ErrForbidden, min)
			}
			return next(c)
		}
	}
}

func (g *Gate) authenticate(c echo.Context) (*tokens.Claims, error) {
	token, ok := service.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		metrics.GateDenied("missing_token")
		return nil, fmt.Errorf("%w: missing bearer token", service.ErrUnauthenticated)
	}

	claims, err := g.Auth.Authenticate(token)
	if err != nil {
		metrics.GateDenied(deniedReason(err))
		if !errors.Is(err, service.ErrUnauthenticated) {
			err = fmt.Errorf("%w: %w", service.ErrUnauthenticated, err)
		}
		return nil, err
	}

	c.Set(ctxUserID, claims.UserID())
	c.Set(ctxRole, claims.Role)
	c.Set(ctxClaims, claims)
	return claims, nil
}

func deniedReason(err error) string {
	switch {
	case errors.Is(err, tokens.ErrExpired):
		return "expired"
	case errors.Is(err, tokens.ErrSignatureInvalid):
		return "signature_invalid"
	default:
		return "malformed"
	}
}

func ClaimsFrom(c echo.Context) (*tokens.Claims, bool) {
	claims, ok := c.Get(ctxClaims).(*tokens.Claims)
	return claims, ok && claims != nil
}

// ActorFrom describes the authenticated caller for policy checks.
func ActorFrom(c echo.Context) (policy.Actor, bool) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		return policy.Actor{}, false
	}
	return policy.Actor{ID: claims.UserID(), Role: claims.Role}, true
}

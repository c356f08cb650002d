// Package auth gates routes of other site services by asking the auth
// service who the bearer is.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/corp_site/pkg/authclient"
	"github.com/Skotchmaster/corp_site/pkg/roles"
)

type RemoteAuth struct {
	Client *authclient.Client
}

func NewRemoteAuth(client *authclient.Client) *RemoteAuth {
	return &RemoteAuth{Client: client}
}

func (m *RemoteAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireRole(roles.Viewer)(next)
}

// RequireRole admits the request when the auth service knows the token's
// user and its current role ranks at least min.
func (m *RemoteAuth) RequireRole(min roles.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}

			user, err := m.Client.Me(c.Request().Context(), strings.TrimSpace(token))
			if err != nil {
				var apiErr *authclient.APIError
				if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
					return echo.NewHTTPError(http.StatusUnauthorized, apiErr.Message)
				}
				return echo.NewHTTPError(http.StatusServiceUnavailable, "auth service unavailable")
			}

			role, ok := roles.Parse(user.Role)
			if !ok || !role.AtLeast(min) {
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}

			c.Set("user_id", user.ID)
			c.Set("role", role)
			return next(c)
		}
	}
}

package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/corp_site/internal/middleware"
	"github.com/Skotchmaster/corp_site/internal/service"
	"github.com/Skotchmaster/corp_site/pkg/logging"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	CookieSecure bool
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (r loginRequest) identifier() string {
	switch {
	case r.Identifier != "":
		return r.Identifier
	case r.Username != "":
		return r.Username
	default:
		return r.Email
	}
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return fmt.Errorf("%w: invalid body", service.ErrValidation)
	}

	res, err := h.Svc.Login(ctx, req.identifier(), req.Password, c.RealIP())
	if err != nil {
		return err
	}

	c.SetCookie(accessCookie(res.Tokens.AccessToken, res.Tokens.AccessExpiresAt, h.CookieSecure))
	c.Set("user_id", res.User.ID)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    res.User,
		"tokens":  res.Tokens,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "error", err)
		return fmt.Errorf("%w: invalid body", service.ErrValidation)
	}
	if req.RefreshToken == "" {
		return fmt.Errorf("%w: refreshToken is required", service.ErrValidation)
	}

	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return err
	}

	c.SetCookie(accessCookie(res.Tokens.AccessToken, res.Tokens.AccessExpiresAt, h.CookieSecure))
	c.Set("user_id", res.User.ID)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"tokens":  res.Tokens,
	})
}

// Logout only clears the convenience cookie. Issued tokens stay valid until
// they expire.
func (h *AuthHTTP) Logout(c echo.Context) error {
	c.SetCookie(clearAccessCookie(h.CookieSecure))
	logging.FromContext(c.Request().Context()).Info("logout_successful")

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "logged out",
	})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return service.ErrUnauthenticated
	}

	user, err := h.Svc.Me(c.Request().Context(), claims)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    user,
	})
}

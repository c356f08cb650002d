package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/corp_site/internal/metrics"
	"github.com/Skotchmaster/corp_site/internal/middleware"
	"github.com/Skotchmaster/corp_site/pkg/roles"
)

type Deps struct {
	AuthHandler  *AuthHTTP
	UsersHandler *UsersHTTP
	Gate         *middleware.Gate
	// Ready reports whether dependencies can serve traffic; nil means always.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"success": false, "status": "unavailable"})
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", metrics.Handler())

	api := e.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/me", d.AuthHandler.Me, d.Gate.RequireRole(roles.Viewer))

	users := api.Group("/users")
	users.GET("", d.UsersHandler.List, d.Gate.RequireRole(roles.Editor))
	users.POST("", d.UsersHandler.Create, d.Gate.RequireRole(roles.Admin))
	users.PATCH("/:id/role", d.UsersHandler.ChangeRole, d.Gate.RequireRole(roles.Admin))
	users.PATCH("/:id/status", d.UsersHandler.SetStatus, d.Gate.RequireRole(roles.Admin))
	users.DELETE("/:id", d.UsersHandler.Delete, d.Gate.RequireRole(roles.Admin))
}

package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/corp_site/internal/middleware"
	"github.com/Skotchmaster/corp_site/internal/service"
	"github.com/Skotchmaster/corp_site/internal/util"
)

type UsersHTTP struct {
	Svc *service.AuthService
}

func (h *UsersHTTP) List(c echo.Context) error {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	page, size = util.Normalize(page, size)
	offset, limit := util.Calculate(page, size)

	users, total, err := h.Svc.ListUsers(c.Request().Context(), offset, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"users":   users,
		"meta": echo.Map{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *UsersHTTP) Create(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return service.ErrUnauthenticated
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid body", service.ErrValidation)
	}

	user, err := h.Svc.CreateUser(c.Request().Context(), actor, service.NewUser{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"user":    user,
	})
}

func (h *UsersHTTP) ChangeRole(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return service.ErrUnauthenticated
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid body", service.ErrValidation)
	}

	user, err := h.Svc.ChangeRole(c.Request().Context(), actor, c.Param("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    user,
	})
}

func (h *UsersHTTP) SetStatus(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return service.ErrUnauthenticated
	}

	var req struct {
		IsActive *bool `json:"isActive"`
	}
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid body", service.ErrValidation)
	}
	if req.IsActive == nil {
		return fmt.Errorf("%w: isActive is required", service.ErrValidation)
	}

	user, err := h.Svc.SetActive(c.Request().Context(), actor, c.Param("id"), *req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"user":    user,
	})
}

func (h *UsersHTTP) Delete(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return service.ErrUnauthenticated
	}

	if err := h.Svc.DeleteUser(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

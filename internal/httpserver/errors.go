package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/corp_site/internal/service"
	"github.com/Skotchmaster/corp_site/pkg/logging"
)

// ErrorBody is the failure envelope of every endpoint.
type ErrorBody struct {
	Success bool         `json:"success"`
	Code    service.Kind `json:"code"`
	Message string       `json:"message"`
}

var statusByKind = map[service.Kind]int{
	service.KindInvalidCredentials:  http.StatusUnauthorized,
	service.KindUnauthenticated:     http.StatusUnauthorized,
	service.KindInvalidRefreshToken: http.StatusUnauthorized,
	service.KindAccountDisabled:     http.StatusUnauthorized,
	service.KindForbidden:           http.StatusForbidden,
	service.KindValidation:          http.StatusBadRequest,
	service.KindNotFound:            http.StatusNotFound,
	service.KindConflict:            http.StatusConflict,
	service.KindTooManyAttempts:     http.StatusTooManyRequests,
	service.KindStoreUnavailable:    http.StatusServiceUnavailable,
}

func StatusOf(kind service.Kind) int {
	if code, ok := statusByKind[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// ErrorHandler renders service errors and echo errors into ErrorBody.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var status int
	var body ErrorBody

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		body = ErrorBody{Code: kindForStatus(he.Code), Message: fmt.Sprint(he.Message)}
	} else {
		kind := service.KindOf(err)
		status = StatusOf(kind)
		body = ErrorBody{Code: kind, Message: service.PublicMessage(err)}
	}

	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("request_failed", "status", status, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("write_error_response", "error", err)
	}
}

func kindForStatus(code int) service.Kind {
	switch {
	case code == http.StatusBadRequest:
		return service.KindValidation
	case code == http.StatusUnauthorized:
		return service.KindUnauthenticated
	case code == http.StatusForbidden:
		return service.KindForbidden
	case code == http.StatusNotFound:
		return service.KindNotFound
	case code >= http.StatusInternalServerError:
		return service.KindInternal
	}
	return service.Kind(strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_")))
}

package service

import (
	"errors"

	"github.com/Skotchmaster/corp_site/pkg/config"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrAccountDisabled     = errors.New("account is disabled")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrStoreUnavailable    = errors.New("service temporarily unavailable")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("user already exists")
	ErrTooManyAttempts     = errors.New("too many login attempts")
	ErrConfiguration       = config.ErrConfiguration
)

// Kind is the stable machine code sent to clients.
type Kind string

const (
	KindInvalidCredentials  Kind = "INVALID_CREDENTIALS"
	KindAccountDisabled     Kind = "ACCOUNT_DISABLED"
	KindUnauthenticated     Kind = "UNAUTHENTICATED"
	KindForbidden           Kind = "FORBIDDEN"
	KindInvalidRefreshToken Kind = "INVALID_REFRESH_TOKEN"
	KindStoreUnavailable    Kind = "STORE_UNAVAILABLE"
	KindValidation          Kind = "VALIDATION_ERROR"
	KindNotFound            Kind = "NOT_FOUND"
	KindConflict            Kind = "CONFLICT"
	KindTooManyAttempts     Kind = "TOO_MANY_ATTEMPTS"
	KindInternal            Kind = "INTERNAL_ERROR"
)

var kinds = []struct {
	err  error
	kind Kind
	// detailed messages carry only caller supplied detail and may be shown as is
	detailed bool
}{
	{ErrInvalidCredentials, KindInvalidCredentials, false},
	{ErrAccountDisabled, KindAccountDisabled, false},
	{ErrInvalidRefreshToken, KindInvalidRefreshToken, false},
	{ErrUnauthenticated, KindUnauthenticated, false},
	{ErrForbidden, KindForbidden, true},
	{ErrValidation, KindValidation, true},
	{ErrNotFound, KindNotFound, false},
	{ErrConflict, KindConflict, false},
	{ErrTooManyAttempts, KindTooManyAttempts, true},
	{ErrStoreUnavailable, KindStoreUnavailable, false},
}

func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// PublicMessage is the text a client may see for err. Internal causes never
// leak through it.
func PublicMessage(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			if k.detailed {
				return err.Error()
			}
			return k.err.Error()
		}
	}
	return "internal server error"
}

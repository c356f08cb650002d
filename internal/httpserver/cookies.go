package httpserver

import (
	"net/http"
	"time"
)

const accessCookieName = "accessToken"

// accessCookie mirrors the access token for the admin frontend, which reads
// it from script, so it is not HttpOnly.
func accessCookie(value string, exp time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     accessCookieName,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func clearAccessCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     accessCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

package service

import (
	"fmt"
	"strings"

	"github.com/Skotchmaster/corp_site/pkg/tokens"
)

// Authenticate verifies an access token. It does no I/O.
func (s *AuthService) Authenticate(accessToken string) (*tokens.Claims, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}
	claims, err := s.Codec.Verify(tokens.KindAccess, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/corp_site/internal/repo"
	"github.com/Skotchmaster/corp_site/pkg/logging"
	"github.com/Skotchmaster/corp_site/pkg/tokens"
)

// Me returns the current projection of the token's subject. When the store
// cannot be reached the claims alone are used.
func (s *AuthService) Me(ctx context.Context, claims *tokens.Claims) (*UserView, error) {
	if claims == nil || claims.UserID() == "" {
		return nil, ErrUnauthenticated
	}
	l := logging.FromContext(ctx).With("svc", "auth.me", "user_id", claims.UserID())

	user, err := s.Repo.FindByID(ctx, claims.UserID())
	switch {
	case errors.Is(err, repo.ErrUserNotFound):
		l.Warn("me_failed", "status", 401, "reason", "user not found")
		return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthenticated)
	case err != nil:
		l.Warn("me_degraded", "reason", "store unavailable", "error", err)
		return &UserView{
			ID:       claims.UserID(),
			Username: claims.Username,
			Email:    claims.Email,
			Role:     claims.Role,
			IsActive: true,
		}, nil
	}

	if !user.IsActive {
		l.Warn("me_failed", "status", 401, "reason", "account disabled")
		return nil, ErrAccountDisabled
	}

	v := s.view(user)
	return &v, nil
}

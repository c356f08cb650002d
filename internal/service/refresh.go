package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/corp_site/internal/events"
	"github.com/Skotchmaster/corp_site/internal/metrics"
	"github.com/Skotchmaster/corp_site/internal/repo"
	"github.com/Skotchmaster/corp_site/pkg/logging"
	"github.com/Skotchmaster/corp_site/pkg/tokens"
)

// Refresh issues a new pair for a valid refresh token. The role and the
// active flag come from the store, never from the token. A refresh token
// stays usable until it expires.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := s.Codec.Verify(tokens.KindRefresh, refreshToken)
	if err != nil {
		metrics.Refresh("invalid")
		l.Warn("refresh_failed", "status", 401, "reason", "invalid token", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
	}

	user, err := s.Repo.FindByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			metrics.Refresh("invalid")
			l.Warn("refresh_failed", "status", 401, "reason", "user not found", "user_id", claims.UserID())
			return nil, fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
		}
		metrics.Refresh("error")
		l.Error("refresh_failed", "status", 503, "reason", "store unavailable", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if !user.IsActive {
		metrics.Refresh("disabled")
		l.Warn("refresh_failed", "status", 401, "reason", "account disabled", "user_id", user.ID)
		return nil, ErrAccountDisabled
	}

	role := s.roleOf(user)
	pair, err := s.issuePair(user, role)
	if err != nil {
		metrics.Refresh("error")
		l.Error("refresh_failed", "status", 500, "reason", "cannot sign tokens", "error", err)
		return nil, err
	}

	now := s.now().UTC()
	s.touchLastLogin(ctx, user.ID, now)
	s.publish(ctx, events.Event{Type: events.TokenRefreshed, UserID: user.ID, Username: user.Username, Role: role.String(), At: now})

	v := s.view(user)
	v.LastLogin = &now

	metrics.Refresh("success")
	l.Info("refresh_successful", "user_id", user.ID, "role", role)
	return &LoginResult{User: v, Tokens: pair}, nil
}

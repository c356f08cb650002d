package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Skotchmaster/corp_site/internal/events"
	"github.com/Skotchmaster/corp_site/internal/metrics"
	"github.com/Skotchmaster/corp_site/internal/models"
	"github.com/Skotchmaster/corp_site/internal/repo"
	"github.com/Skotchmaster/corp_site/pkg/hash"
	"github.com/Skotchmaster/corp_site/pkg/logging"
)

// Login exchanges an identifier (username or email) and a password for a
// token pair. Unknown users, disabled accounts and wrong passwords all fail
// with ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, identifier, password, clientIP string) (*LoginResult, error) {
	ident := models.NormalizeIdentifier(identifier)
	l := logging.FromContext(ctx).With("svc", "auth.login", "identifier", ident)

	if ident == "" || password == "" {
		metrics.Login("validation")
		l.Warn("login_failed", "status", 400, "reason", "missing identifier or password")
		return nil, fmt.Errorf("%w: identifier and password are required", ErrValidation)
	}

	limitKey := ident + "|" + clientIP
	if s.Limiter != nil {
		ok, retry, err := s.Limiter.Allow(ctx, limitKey)
		switch {
		case err != nil:
			l.Warn("login_limiter_unavailable", "error", err)
		case !ok:
			metrics.Login("throttled")
			l.Warn("login_failed", "status", 429, "reason", "too many attempts")
			return nil, fmt.Errorf("%w, retry in %s", ErrTooManyAttempts, retry.Round(time.Second))
		}
	}

	user, err := s.Repo.FindByIdentifier(ctx, ident)
	if errors.Is(err, repo.ErrUserNotFound) {
		user, err = s.provisionSeedOnLogin(ctx, ident, password)
	}
	if errors.Is(err, ErrConfiguration) {
		metrics.Login("error")
		l.Error("login_failed", "status", 500, "reason", "seed admin misconfigured", "error", err)
		return nil, err
	}
	if err != nil {
		metrics.Login("error")
		l.Error("login_failed", "status", 503, "reason", "store unavailable", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if user == nil {
		hash.BurnCompare(password)
		return nil, loginRejected(l, "user not found")
	}
	if !user.IsActive {
		hash.BurnCompare(password)
		return nil, loginRejected(l, "account disabled")
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, loginRejected(l, "wrong password")
	}

	role := s.roleOf(user)
	pair, err := s.issuePair(user, role)
	if err != nil {
		metrics.Login("error")
		l.Error("login_failed", "status", 500, "reason", "cannot sign tokens", "error", err)
		return nil, err
	}

	if s.Limiter != nil {
		if err := s.Limiter.Reset(ctx, limitKey); err != nil {
			l.Warn("login_limiter_reset_failed", "error", err)
		}
	}

	now := s.now().UTC()
	s.touchLastLogin(ctx, user.ID, now)
	s.publish(ctx, events.Event{Type: events.UserLoggedIn, UserID: user.ID, Username: user.Username, Role: role.String(), At: now})

	v := s.view(user)
	v.LastLogin = &now

	metrics.Login("success")
	l.Info("login_successful", "user_id", user.ID, "role", role)
	return &LoginResult{User: v, Tokens: pair}, nil
}

func loginRejected(l *slog.Logger, reason string) error {
	metrics.Login("invalid_credentials")
	l.Warn("login_failed", "status", 401, "reason", reason)
	return ErrInvalidCredentials
}

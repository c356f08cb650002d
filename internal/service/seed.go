package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/Skotchmaster/corp_site/internal/models"
	"github.com/Skotchmaster/corp_site/internal/repo"
	"github.com/Skotchmaster/corp_site/pkg/hash"
	"github.com/Skotchmaster/corp_site/pkg/logging"
	"github.com/Skotchmaster/corp_site/pkg/roles"
)

// SeedAdmin creates the bootstrap administrator on first boot. It is a
// no-op when seeding is disabled or the account already exists.
func (s *AuthService) SeedAdmin(ctx context.Context) error {
	if !s.Seed.Enabled() {
		return nil
	}
	_, err := s.Repo.FindByIdentifier(ctx, s.Seed.Username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repo.ErrUserNotFound) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	_, err = s.createSeedAdmin(ctx)
	return err
}

// provisionSeedOnLogin returns the freshly created seed admin when the
// login names it and carries the configured seed password, and nil
// otherwise.
func (s *AuthService) provisionSeedOnLogin(ctx context.Context, ident, password string) (*models.User, error) {
	if !s.Seed.Rule().Matches(ident) {
		return nil, nil
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.Seed.Password)) != 1 {
		return nil, nil
	}

	u, err := s.createSeedAdmin(ctx)
	if errors.Is(err, ErrConflict) {
		u, err = s.Repo.FindByIdentifier(ctx, ident)
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, nil
		}
	}
	return u, err
}

func (s *AuthService) createSeedAdmin(ctx context.Context) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.seed")

	pwHash, err := hash.HashPassword(s.Seed.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: seed admin password: %w", ErrConfiguration, err)
	}
	u := &models.User{
		Username:     s.Seed.Username,
		Email:        s.Seed.Email,
		PasswordHash: pwHash,
		Role:         roles.Admin.String(),
		IsActive:     true,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, u); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("seed_admin_skipped", "reason", "username or email taken", "username", s.Seed.Username)
			return nil, fmt.Errorf("%w: seed admin", ErrConflict)
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	l.Warn("seed_admin_created", "username", u.Username, "user_id", u.ID)
	return u, nil
}

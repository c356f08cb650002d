// Package service implements the session lifecycle of the admin panel:
// login, token validation, refresh, introspection and user administration.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/Skotchmaster/corp_site/internal/events"
	"github.com/Skotchmaster/corp_site/internal/models"
	"github.com/Skotchmaster/corp_site/internal/policy"
	"github.com/Skotchmaster/corp_site/internal/repo"
	"github.com/Skotchmaster/corp_site/pkg/roles"
	"github.com/Skotchmaster/corp_site/pkg/tokens"
)

type UserStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	CreateUserIfNotExists(ctx context.Context, u *models.User) error
	List(ctx context.Context, offset, limit int) (int64, []models.User, error)
	UpdateRole(ctx context.Context, id, role string) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	WithAdminGuard(ctx context.Context, id string, fn func(w repo.UserWriter) error) error
}

type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
	Reset(ctx context.Context, key string) error
}

// SeedConfig describes the bootstrap administrator. An empty Password
// turns provisioning and the forced admin role off; the account named by
// Username stays protected from deletion and demotion either way.
type SeedConfig struct {
	Username string
	Email    string
	Password string
}

func (s SeedConfig) Enabled() bool { return s.Password != "" && s.Username != "" }

func (s SeedConfig) Rule() roles.SeedRule {
	return roles.SeedRule{Enabled: s.Enabled(), Username: models.NormalizeIdentifier(s.Username)}
}

const defaultSideEffectTimeout = 5 * time.Second

type AuthService struct {
	Repo       UserStore
	Codec      *tokens.Codec
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Seed       SeedConfig

	// Limiter and Events are optional.
	Limiter LoginLimiter
	Events  events.Publisher

	Now               func() time.Time
	SideEffectTimeout time.Duration

	wg sync.WaitGroup
}

type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// UserView is the safe projection of a user; it never carries the hash.
type UserView struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      roles.Role `json:"role"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

type LoginResult struct {
	User   UserView  `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) rules() policy.Rules {
	return policy.Rules{SeedUsername: models.NormalizeIdentifier(s.Seed.Username)}
}

// roleOf applies the role resolution rule to a stored user.
func (s *AuthService) roleOf(u *models.User) roles.Role {
	return roles.Resolve(u.Role, u.Roles, u.Username, s.Seed.Rule())
}

func (s *AuthService) view(u *models.User) UserView {
	created := u.CreatedAt
	v := UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      s.roleOf(u),
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
	}
	if !created.IsZero() {
		v.CreatedAt = &created
	}
	return v
}

func (s *AuthService) issuePair(u *models.User, role roles.Role) (TokenPair, error) {
	id := tokens.Identity{Username: u.Username, Email: u.Email, Role: role}

	access, accessExp, err := s.Codec.Sign(tokens.KindAccess, u.ID, id, s.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := s.Codec.Sign(tokens.KindRefresh, u.ID, id, s.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

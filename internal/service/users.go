package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/Skotchmaster/corp_site/internal/events"
	"github.com/Skotchmaster/corp_site/internal/models"
	"github.com/Skotchmaster/corp_site/internal/policy"
	"github.com/Skotchmaster/corp_site/internal/repo"
	"github.com/Skotchmaster/corp_site/pkg/hash"
	"github.com/Skotchmaster/corp_site/pkg/logging"
	"github.com/Skotchmaster/corp_site/pkg/roles"
)

const minPasswordLen = 8

type NewUser struct {
	Username string
	Email    string
	Password string
	Role     string
}

// ListUsers returns one page of users and the total number of users.
func (s *AuthService) ListUsers(ctx context.Context, offset, limit int) ([]UserView, int64, error) {
	total, users, err := s.Repo.List(ctx, offset, limit)
	if err != nil {
		logging.FromContext(ctx).Error("list_users_failed", "error", err)
		return nil, 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	out := make([]UserView, 0, len(users))
	for i := range users {
		out = append(out, s.view(&users[i]))
	}
	return out, total, nil
}

func (s *AuthService) CreateUser(ctx context.Context, actor policy.Actor, in NewUser) (*UserView, error) {
	l := logging.FromContext(ctx).With("svc", "users.create", "actor_id", actor.ID)

	username := models.NormalizeIdentifier(in.Username)
	email := models.NormalizeIdentifier(in.Email)
	switch {
	case username == "":
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	case strings.Contains(username, "@"):
		return nil, fmt.Errorf("%w: username must not contain @", ErrValidation)
	case !validEmail(email):
		return nil, fmt.Errorf("%w: email is invalid", ErrValidation)
	case len(in.Password) < minPasswordLen:
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	case len(in.Password) > hash.MaxPasswordBytes:
		return nil, fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, hash.MaxPasswordBytes)
	}

	role := roles.Viewer
	if in.Role != "" {
		r, ok := roles.Parse(in.Role)
		if !ok {
			return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, in.Role)
		}
		role = r
	}

	if err := s.rules().CanCreate(actor, role); err != nil {
		l.Warn("create_user_denied", "status", 403, "reason", err)
		return nil, fmt.Errorf("%w: %w", ErrForbidden, err)
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         role.String(),
		IsActive:     true,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, u); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("create_user_failed", "status", 409, "reason", "user already exist")
			return nil, ErrConflict
		}
		l.Error("create_user_failed", "status", 503, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	s.publish(ctx, events.Event{Type: events.UserCreated, UserID: u.ID, Username: u.Username, Role: u.Role, ActorID: actor.ID})
	l.Info("user_created", "user_id", u.ID, "role", role)
	v := s.view(u)
	return &v, nil
}

func (s *AuthService) ChangeRole(ctx context.Context, actor policy.Actor, id, role string) (*UserView, error) {
	l := logging.FromContext(ctx).With("svc", "users.change_role", "actor_id", actor.ID, "user_id", id)

	to, ok := roles.Parse(role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	target, err := s.loadTarget(ctx, id)
	if err != nil {
		return nil, err
	}
	current := s.roleOf(target)

	if err := s.rules().CanChangeRole(actor, s.policyTarget(target), to); err != nil {
		l.Warn("change_role_denied", "status", 403, "reason", err)
		return nil, fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	err = s.write(ctx, target.ID, current == roles.Admin && to != roles.Admin, func(w repo.UserWriter) error {
		return w.UpdateRole(ctx, target.ID, to.String())
	})
	if err != nil {
		return nil, mutationErr(l, err)
	}
	target.Role = to.String()
	target.Roles = nil

	s.publish(ctx, events.Event{Type: events.UserRoleChanged, UserID: target.ID, Username: target.Username, Role: to.String(), ActorID: actor.ID})
	l.Info("role_changed", "from", current, "to", to)
	v := s.view(target)
	return &v, nil
}

func (s *AuthService) SetActive(ctx context.Context, actor policy.Actor, id string, active bool) (*UserView, error) {
	l := logging.FromContext(ctx).With("svc", "users.set_active", "actor_id", actor.ID, "user_id", id)

	target, err := s.loadTarget(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.rules().CanSetActive(actor, s.policyTarget(target), active); err != nil {
		l.Warn("set_active_denied", "status", 403, "reason", err)
		return nil, fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	err = s.write(ctx, target.ID, !active && s.roleOf(target) == roles.Admin, func(w repo.UserWriter) error {
		return w.SetActive(ctx, target.ID, active)
	})
	if err != nil {
		return nil, mutationErr(l, err)
	}
	target.IsActive = active

	s.publish(ctx, events.Event{Type: events.UserStatusChanged, UserID: target.ID, Username: target.Username, ActorID: actor.ID, Active: &active})
	l.Info("status_changed", "active", active)
	v := s.view(target)
	return &v, nil
}

func (s *AuthService) DeleteUser(ctx context.Context, actor policy.Actor, id string) error {
	l := logging.FromContext(ctx).With("svc", "users.delete", "actor_id", actor.ID, "user_id", id)

	target, err := s.loadTarget(ctx, id)
	if err != nil {
		return err
	}

	if err := s.rules().CanDelete(actor, s.policyTarget(target)); err != nil {
		l.Warn("delete_user_denied", "status", 403, "reason", err)
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	err = s.write(ctx, target.ID, s.roleOf(target) == roles.Admin, func(w repo.UserWriter) error {
		return w.Delete(ctx, target.ID)
	})
	if err != nil {
		return mutationErr(l, err)
	}

	s.publish(ctx, events.Event{Type: events.UserDeleted, UserID: target.ID, Username: target.Username, ActorID: actor.ID})
	l.Info("user_deleted")
	return nil
}

func (s *AuthService) loadTarget(ctx context.Context, id string) (*models.User, error) {
	u, err := s.Repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		logging.FromContext(ctx).Error("load_user_failed", "user_id", id, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return u, nil
}

func (s *AuthService) policyTarget(u *models.User) policy.Target {
	return policy.Target{ID: u.ID, Username: u.Username, Role: s.roleOf(u)}
}

// write applies fn directly, or under the last-admin guard when the
// change takes an admin away.
func (s *AuthService) write(ctx context.Context, id string, guard bool, fn func(w repo.UserWriter) error) error {
	if !guard {
		return fn(s.Repo)
	}
	return s.Repo.WithAdminGuard(ctx, id, fn)
}

func mutationErr(l *slog.Logger, err error) error {
	switch {
	case errors.Is(err, repo.ErrUserNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrLastAdmin):
		l.Warn("update_user_denied", "status", 403, "reason", err)
		return fmt.Errorf("%w: the last admin cannot be removed", ErrForbidden)
	}
	l.Error("update_user_failed", "status", 503, "error", err)
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

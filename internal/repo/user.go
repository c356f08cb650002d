package repo

import (
	"context"
	"errors"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/corp_site/internal/models"
)

// FindByIdentifier matches a username or an email, ignoring case.
func (r *GormRepo) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	ident := models.NormalizeIdentifier(identifier)
	if ident == "" {
		return nil, ErrUserNotFound
	}

	var user models.User
	err := r.DB.WithContext(ctx).
		Where("LOWER(username) = ? OR LOWER(email) = ?", ident, ident).
		Order("created_at").
		First(&user).Error
	if err != nil {
		return nil, storeErr("find user by identifier", err)
	}
	return &user, nil
}

func (r *GormRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, ErrUserNotFound
	}
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, storeErr("find user by id", err)
	}
	return &user, nil
}

func (r *GormRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at.UTC())
	if res.Error != nil {
		return storeErr("touch last login", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CreateUserIfNotExists inserts u unless its username or email is taken.
func (r *GormRepo) CreateUserIfNotExists(ctx context.Context, u *models.User) error {
	u.Normalize()

	var count int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(username) = ? OR LOWER(email) = ?", u.Username, u.Email).
		Count(&count).Error
	if err != nil {
		return storeErr("check user exists", err)
	}
	if count > 0 {
		return ErrUserAlreadyExist
	}

	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		return storeErr("create user", err)
	}
	return nil
}

// List returns one page of users ordered by username, plus the total count.
func (r *GormRepo) List(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, nil, storeErr("count users", err)
	}

	var users []models.User
	err := r.DB.WithContext(ctx).
		Order("username").
		Offset(offset).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return 0, nil, storeErr("list users", err)
	}
	return total, users, nil
}

// UpdateRole sets the scalar role and drops the legacy roles list so the
// new role is the one that resolves.
func (r *GormRepo) UpdateRole(ctx context.Context, id, role string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Select("role", "roles").
		Updates(&models.User{Role: role, Roles: nil})
	if res.Error != nil {
		return storeErr("update role", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormRepo) SetActive(ctx context.Context, id string, active bool) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return storeErr("set active", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormRepo) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if res.Error != nil {
		return storeErr("delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UserWriter is the mutating half of the repository, usable inside
// WithAdminGuard.
type UserWriter interface {
	UpdateRole(ctx context.Context, id, role string) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// activeAdmins matches active users that resolve to admin, through the
// scalar role or an "admin" entry in the legacy roles list.
func activeAdmins(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ? AND (role = ? OR LOWER(roles) LIKE ?)", true, "admin", `%"admin"%`)
}

// WithAdminGuard locks the active admin rows and runs fn in the same
// transaction. When id is the only active admin fn is not called and
// ErrLastAdmin is returned.
func (r *GormRepo) WithAdminGuard(ctx context.Context, id string, fn func(w UserWriter) error) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := activeAdmins(tx.Model(&models.User{})).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Pluck("id", &ids).Error
		if err != nil {
			return storeErr("lock admins", err)
		}
		if len(ids) <= 1 && slices.Contains(ids, id) {
			return ErrLastAdmin
		}
		return fn(&GormRepo{DB: tx})
	})
	if err != nil && !errors.Is(err, ErrLastAdmin) && !errors.Is(err, ErrUserNotFound) && !errors.Is(err, ErrStoreUnavailable) {
		return storeErr("admin guard", err)
	}
	return err
}

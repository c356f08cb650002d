package repo

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/corp_site/internal/models"
)

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func seedUser(t *testing.T, r *GormRepo, username, email, role string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: email, PasswordHash: "hash", Role: role, IsActive: true}
	require.NoError(t, r.CreateUserIfNotExists(context.Background(), u))
	return u
}

func TestGormRepo_FindByIdentifier_CaseInsensitive(t *testing.T) {
	r := New(InitTestDB(t))
	ctx := context.Background()
	u := seedUser(t, r, "Jane", "Jane@Example.com", "editor")

	assert.Equal(t, "jane", u.Username)
	assert.NotEmpty(t, u.ID)

	for _, ident := range []string{"jane", "JANE", " jane@example.COM "} {
		got, err := r.FindByIdentifier(ctx, ident)
		require.NoError(t, err, ident)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)
	}

	_, err := r.FindByIdentifier(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = r.FindByIdentifier(ctx, "  ")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGormRepo_CreateUserIfNotExists_Conflict(t *testing.T) {
	r := New(InitTestDB(t))
	ctx := context.Background()
	seedUser(t, r, "jane", "jane@example.com", "viewer")

	err := r.CreateUserIfNotExists(ctx, &models.User{Username: "JANE", Email: "other@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrUserAlreadyExist)

	err = r.CreateUserIfNotExists(ctx, &models.User{Username: "other", Email: "jane@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrUserAlreadyExist)
}

func TestGormRepo_LegacyRolesRoundTrip(t *testing.T) {
	r := New(InitTestDB(t))
	ctx := context.Background()

	u := &models.User{Username: "old", Email: "old@example.com", PasswordHash: "h", Role: "viewer", Roles: []string{"admin"}, IsActive: true}
	require.NoError(t, r.CreateUserIfNotExists(ctx, u))

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, got.Roles)

	require.NoError(t, r.UpdateRole(ctx, u.ID, "editor"))
	got, err = r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "editor", got.Role)
	assert.Empty(t, got.Roles)
}

func TestGormRepo_TouchLastLogin(t *testing.T) {
	r := New(InitTestDB(t))
	ctx := context.Background()
	u := seedUser(t, r, "jane", "jane@example.com", "viewer")
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, r.TouchLastLogin(ctx, u.ID, at))

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, at.Equal(got.LastLogin.UTC()))

	assert.ErrorIs(t, r.TouchLastLogin(ctx, "missing", at), ErrUserNotFound)
}

func TestGormRepo_SetActiveAndDelete(t *testing.T) {
	r := New(InitTestDB(t))
	ctx := context.Background()
	u := seedUser(t, r, "jane", "jane@example.com", "viewer")

	require.NoError(t, r.SetActive(ctx, u.ID, false))
	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.NoError(t, r.Delete(ctx, u.ID))
	_, err = r.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.ErrorIs(t, r.Delete(ctx, u.ID), ErrUserNotFound)
	assert.ErrorIs(t, r.SetActive(ctx, u.ID, true), ErrUserNotFound)
	assert.ErrorIs(t, r.UpdateRole(ctx, u.ID, "admin"), ErrUserNotFound)
}

func TestGormRepo_List(t *testing.T) {
	r := New(InitTestDB(t))
	seedUser(t, r, "zed", "zed@example.com", "viewer")
	seedUser(t, r, "amy", "amy@example.com", "editor")
	seedUser(t, r, "bob", "bob@example.com", "viewer")

	total, users, err := r.List(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, users, 2)
	assert.Equal(t, "amy", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)

	total, users, err = r.List(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, users, 1)
	assert.Equal(t, "zed", users[0].Username)
}

func TestGormRepo_StoreUnavailable(t *testing.T) {
	db := InitTestDB(t)
	r := New(db)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = r.FindByIdentifier(context.Background(), "jane")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotErrorIs(t, err, ErrUserNotFound)

	_, err = r.FindByID(context.Background(), "some-id")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestGormRepo_WithAdminGuard(t *testing.T) {
	r := New(InitTestDB(t))
	ctx := context.Background()
	root := seedUser(t, r, "root", "root@example.com", "admin")
	boss := seedUser(t, r, "boss", "boss@example.com", "admin")
	ed := seedUser(t, r, "ed", "ed@example.com", "editor")

	require.NoError(t, r.WithAdminGuard(ctx, boss.ID, func(w UserWriter) error {
		return w.Delete(ctx, boss.ID)
	}))

	called := false
	err := r.WithAdminGuard(ctx, root.ID, func(w UserWriter) error {
		called = true
		return w.SetActive(ctx, root.ID, false)
	})
	assert.ErrorIs(t, err, ErrLastAdmin)
	assert.False(t, called)

	got, err := r.FindByID(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	// non-admin targets pass even when one admin is left
	require.NoError(t, r.WithAdminGuard(ctx, ed.ID, func(w UserWriter) error {
		return w.UpdateRole(ctx, ed.ID, "viewer")
	}))
}

func TestGormRepo_WithAdminGuard_LegacyAdminCounts(t *testing.T) {
	r := New(InitTestDB(t))
	ctx := context.Background()
	root := seedUser(t, r, "root", "root@example.com", "admin")
	legacy := &models.User{Username: "old", Email: "old@example.com", PasswordHash: "hash", Role: "viewer", Roles: []string{"Admin"}, IsActive: true}
	require.NoError(t, r.CreateUserIfNotExists(ctx, legacy))

	require.NoError(t, r.WithAdminGuard(ctx, root.ID, func(w UserWriter) error {
		return w.UpdateRole(ctx, root.ID, "editor")
	}))

	err := r.WithAdminGuard(ctx, legacy.ID, func(w UserWriter) error {
		return w.Delete(ctx, legacy.ID)
	})
	assert.ErrorIs(t, err, ErrLastAdmin)
}

func TestGormRepo_WithAdminGuard_RollsBack(t *testing.T) {
	r := New(InitTestDB(t))
	ctx := context.Background()
	seedUser(t, r, "root", "root@example.com", "admin")
	boss := seedUser(t, r, "boss", "boss@example.com", "admin")

	err := r.WithAdminGuard(ctx, boss.ID, func(w UserWriter) error {
		require.NoError(t, w.SetActive(ctx, boss.ID, false))
		return w.Delete(ctx, "missing")
	})
	assert.ErrorIs(t, err, ErrUserNotFound)

	got, err := r.FindByID(ctx, boss.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestGormRepo_DuplicateKeyIsConflict(t *testing.T) {
	r := New(InitTestDB(t))
	seedUser(t, r, "jane", "jane@example.com", "viewer")

	// bypasses the existence check, as a concurrent create would
	err := r.DB.Create(&models.User{Username: "jane", Email: "other@example.com", PasswordHash: "hash", Role: "viewer", IsActive: true}).Error
	require.Error(t, err)
	assert.ErrorIs(t, storeErr("create user", err), ErrUserAlreadyExist)
}

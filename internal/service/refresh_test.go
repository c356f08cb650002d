package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/corp_site/internal/events"
	"github.com/Skotchmaster/corp_site/pkg/roles"
	"github.com/Skotchmaster/corp_site/pkg/tokens"
)

func TestAuthService_Refresh_RereadsRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "jane", "viewer", true)

	login, err := env.svc.Login(ctx, "jane", testPassword, "")
	require.NoError(t, err)

	require.NoError(t, env.repo.UpdateRole(ctx, u.ID, "editor"))

	res, err := env.svc.Refresh(ctx, login.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, roles.Editor, res.User.Role)

	claims, err := env.svc.Codec.Verify(tokens.KindAccess, res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, roles.Editor, claims.Role)
	assert.Equal(t, u.ID, claims.UserID())

	env.svc.Wait()
	assert.Contains(t, env.pub.types(), events.TokenRefreshed)
}

func TestAuthService_Refresh_ReplayAccepted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "jane", "viewer", true)

	login, err := env.svc.Login(ctx, "jane", testPassword, "")
	require.NoError(t, err)

	first, err := env.svc.Refresh(ctx, login.Tokens.RefreshToken)
	require.NoError(t, err)
	second, err := env.svc.Refresh(ctx, login.Tokens.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)
}

func TestAuthService_Refresh_AccountDisabled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "jane", "viewer", true)

	login, err := env.svc.Login(ctx, "jane", testPassword, "")
	require.NoError(t, err)
	require.NoError(t, env.repo.SetActive(ctx, u.ID, false))

	res, err := env.svc.Refresh(ctx, login.Tokens.RefreshToken)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrAccountDisabled)
	assert.Equal(t, KindAccountDisabled, KindOf(err))
}

func TestAuthService_Refresh_UserDeleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "jane", "viewer", true)

	login, err := env.svc.Login(ctx, "jane", testPassword, "")
	require.NoError(t, err)
	env.svc.Wait()
	require.NoError(t, env.repo.Delete(ctx, u.ID))

	_, err = env.svc.Refresh(ctx, login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	u := env.addUser(t, "jane", "viewer", true)
	access, _, err := env.svc.Codec.Sign(tokens.KindAccess, u.ID, tokens.Identity{Role: roles.Viewer}, time.Minute)
	require.NoError(t, err)

	expiredAt := time.Now().Add(-30 * 24 * time.Hour)
	expired, _, err := env.svc.Codec.WithClock(func() time.Time { return expiredAt }).
		Sign(tokens.KindRefresh, u.ID, tokens.Identity{}, 7*24*time.Hour)
	require.NoError(t, err)

	other, err := tokens.NewCodec([]byte("x"), []byte("rotated"), "corp_site")
	require.NoError(t, err)
	rotated, _, err := other.Sign(tokens.KindRefresh, u.ID, tokens.Identity{}, time.Hour)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":      "not-a-valid-jwt",
		"empty":        "",
		"access token": access,
		"expired":      expired,
		"rotated":      rotated,
	} {
		res, err := env.svc.Refresh(context.Background(), tok)
		require.Error(t, err, name)
		assert.Nil(t, res, name)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken, name)
		assert.Equal(t, ErrInvalidRefreshToken.Error(), PublicMessage(err), name)
	}
}

func TestAuthService_Refresh_StoreUnavailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "jane", "viewer", true)

	login, err := env.svc.Login(ctx, "jane", testPassword, "")
	require.NoError(t, err)
	env.closeStore(t)

	_, err = env.svc.Refresh(ctx, login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestAuthService_Me(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.addUser(t, "jane", "editor", true)

	login, err := env.svc.Login(ctx, "jane", testPassword, "")
	require.NoError(t, err)
	claims, err := env.svc.Authenticate(login.Tokens.AccessToken)
	require.NoError(t, err)

	me, err := env.svc.Me(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)
	assert.Equal(t, roles.Editor, me.Role)
	assert.True(t, me.IsActive)

	_, err = env.svc.Me(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	env.svc.Wait()
	require.NoError(t, env.repo.SetActive(ctx, u.ID, false))
	_, err = env.svc.Me(ctx, claims)
	assert.ErrorIs(t, err, ErrAccountDisabled)

	require.NoError(t, env.repo.Delete(ctx, u.ID))
	_, err = env.svc.Me(ctx, claims)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthService_Me_DegradesWithoutStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(t, "jane", "editor", true)

	login, err := env.svc.Login(ctx, "jane", testPassword, "")
	require.NoError(t, err)
	claims, err := env.svc.Authenticate(login.Tokens.AccessToken)
	require.NoError(t, err)
	env.closeStore(t)

	me, err := env.svc.Me(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, claims.UserID(), me.ID)
	assert.Equal(t, "jane", me.Username)
	assert.Equal(t, roles.Editor, me.Role)
}

package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teambalancer/teambalancer-api/internal/models"
	"github.com/teambalancer/teambalancer-api/internal/oauth"
	"github.com/teambalancer/teambalancer-api/internal/services"
	"github.com/teambalancer/teambalancer-api/tests/testutil"
)

func TestUserService_Integration_FirstSignInBecomesAdmin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewUserService(tdb.DB, nil)
	ctx := context.Background()

	first, err := svc.FindOrCreateFromOAuth(ctx, &oauth.UserInfo{ID: "100", Username: "first", Provider: "discord"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, first.Role)

	second, err := svc.FindOrCreateFromOAuth(ctx, &oauth.UserInfo{ID: "200", Username: "second", Provider: "discord"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, second.Role)
}

func TestUserService_Integration_ConcurrentFirstSignIns(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewUserService(tdb.DB, nil)
	fixtures := testutil.NewFixtures(tdb.DB)
	ctx := context.Background()

	const n = 8
	infos := make([]*oauth.UserInfo, n)
	for i := range infos {
		infos[i] = fixtures.DiscordUserInfo()
	}

	var wg sync.WaitGroup
	roles := make([]string, n)
	errs := make([]error, n)
	for i := range infos {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := svc.FindOrCreateFromOAuth(ctx, infos[i])
			errs[i] = err
			if err == nil {
				roles[i] = u.Role
			}
		}(i)
	}
	wg.Wait()

	admins := 0
	for i := range roles {
		require.NoError(t, errs[i])
		if roles[i] == models.RoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

func TestUserService_Integration_SignInRefreshesProfile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewUserService(tdb.DB, nil)
	ctx := context.Background()

	created, err := svc.FindOrCreateFromOAuth(ctx, &oauth.UserInfo{ID: "300", Username: "old", Provider: "discord"})
	require.NoError(t, err)

	again, err := svc.FindOrCreateFromOAuth(ctx, &oauth.UserInfo{
		ID:        "300",
		Username:  "new",
		AvatarURL: "https://cdn.discordapp.com/avatars/300/a.png",
		Provider:  "discord",
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "new", again.Username)
	require.NotNil(t, again.Avatar)
	assert.Equal(t, created.Role, again.Role)
}

func TestUserService_Integration_UpdateRole(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := setupTest(t)
	svc := services.NewUserService(tdb.DB, nil)
	fixtures := testutil.NewFixtures(tdb.DB)
	ctx := context.Background()

	user := fixtures.CreateUser(t)

	updated, err := svc.UpdateRole(ctx, user.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	_, err = svc.UpdateRole(ctx, user.ID, "owner")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.UpdateRole(ctx, user.ID+1000, models.RoleUser)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

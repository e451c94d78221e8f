package services

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teambalancer/teambalancer-api/internal/database"
	"github.com/teambalancer/teambalancer-api/internal/models"
	"github.com/teambalancer/teambalancer-api/internal/oauth"
)

var userRowColumns = []string{"id", "discord_id", "username", "avatar", "role", "created_at", "updated_at"}

func setupUserService(t *testing.T) (*UserService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewUserService(db, nil), mock
}

func TestUserService_FindOrCreateFromOAuth_FirstUserBecomesAdmin(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	info := &oauth.UserInfo{ID: "1001", Username: "alice", AvatarURL: "https://cdn/a.png", Provider: "discord"}
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users\s+WHERE discord_id = \$1`).
		WithArgs(info.ID).
		WillReturnError(pgx.ErrNoRows)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(info.ID, info.Username, &info.AvatarURL).
		WillReturnRows(pgxmock.NewRows(userRowColumns).
			AddRow(int64(1), info.ID, info.Username, &info.AvatarURL, models.RoleUser, now, now))
	mock.ExpectExec(`INSERT INTO bootstrap_claims`).
		WithArgs(firstAdminClaim, int64(1)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE users SET role`).
		WithArgs(models.RoleAdmin, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	user, err := svc.FindOrCreateFromOAuth(ctx, info)

	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_FindOrCreateFromOAuth_LaterUserStaysUser(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	info := &oauth.UserInfo{ID: "1002", Username: "bob", Provider: "discord"}
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users\s+WHERE discord_id = \$1`).
		WithArgs(info.ID).
		WillReturnError(pgx.ErrNoRows)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(info.ID, info.Username, (*string)(nil)).
		WillReturnRows(pgxmock.NewRows(userRowColumns).
			AddRow(int64(2), info.ID, info.Username, nil, models.RoleUser, now, now))
	mock.ExpectExec(`INSERT INTO bootstrap_claims`).
		WithArgs(firstAdminClaim, int64(2)).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectCommit()

	user, err := svc.FindOrCreateFromOAuth(ctx, info)

	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_FindOrCreateFromOAuth_InsertFailsRollsBack(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	info := &oauth.UserInfo{ID: "1003", Username: "carol", Provider: "discord"}

	mock.ExpectQuery(`SELECT .+ FROM users`).
		WithArgs(info.ID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(info.ID, info.Username, (*string)(nil)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := svc.FindOrCreateFromOAuth(ctx, info)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create user")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_FindOrCreateFromOAuth_FindExisting(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	avatar := "https://cdn/a.png"
	info := &oauth.UserInfo{ID: "1001", Username: "alice", AvatarURL: avatar, Provider: "discord"}
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users\s+WHERE discord_id = \$1`).
		WithArgs(info.ID).
		WillReturnRows(pgxmock.NewRows(userRowColumns).
			AddRow(int64(1), info.ID, info.Username, &avatar, models.RoleAdmin, now, now))

	user, err := svc.FindOrCreateFromOAuth(ctx, info)

	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.True(t, user.IsAdmin())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_FindOrCreateFromOAuth_RefreshesProfile(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	info := &oauth.UserInfo{ID: "1001", Username: "alice-renamed", AvatarURL: "https://cdn/new.png", Provider: "discord"}
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users`).
		WithArgs(info.ID).
		WillReturnRows(pgxmock.NewRows(userRowColumns).
			AddRow(int64(1), info.ID, "alice", nil, models.RoleUser, now, now))
	mock.ExpectExec(`UPDATE users SET username = .+, avatar`).
		WithArgs(info.Username, &info.AvatarURL, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	user, err := svc.FindOrCreateFromOAuth(ctx, info)

	require.NoError(t, err)
	assert.Equal(t, "alice-renamed", user.Username)
	require.NotNil(t, user.Avatar)
	assert.Equal(t, "https://cdn/new.png", *user.Avatar)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_GetByID(t *testing.T) {
	svc, mock := setupUserService(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows(userRowColumns).
			AddRow(int64(5), "d5", "eve", nil, models.RoleUser, now, now))

	user, err := svc.GetByID(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, "eve", user.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	svc, mock := setupUserService(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetByID(context.Background(), 99)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_List(t *testing.T) {
	svc, mock := setupUserService(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users ORDER BY username`).
		WillReturnRows(pgxmock.NewRows(userRowColumns).
			AddRow(int64(1), "d1", "alice", nil, models.RoleAdmin, now, now).
			AddRow(int64(2), "d2", "bob", nil, models.RoleUser, now, now))

	users, err := svc.List(context.Background())

	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "bob", users[1].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_UpdateRole(t *testing.T) {
	svc, mock := setupUserService(t)
	now := time.Now()

	mock.ExpectQuery(`UPDATE users SET role = \$1`).
		WithArgs(models.RoleAdmin, int64(2)).
		WillReturnRows(pgxmock.NewRows(userRowColumns).
			AddRow(int64(2), "d2", "bob", nil, models.RoleAdmin, now, now))

	user, err := svc.UpdateRole(context.Background(), 2, models.RoleAdmin)

	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_UpdateRole_Invalid(t *testing.T) {
	svc, mock := setupUserService(t)

	_, err := svc.UpdateRole(context.Background(), 2, "superuser")

	assert.ErrorIs(t, err, ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_UpdateRole_NotFound(t *testing.T) {
	svc, mock := setupUserService(t)

	mock.ExpectQuery(`UPDATE users SET role`).
		WithArgs(models.RoleUser, int64(404)).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.UpdateRole(context.Background(), 404, models.RoleUser)

	assert.ErrorIs(t, err, ErrNotFound)
}

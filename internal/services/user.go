package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/teambalancer/teambalancer-api/internal/database"
	"github.com/teambalancer/teambalancer-api/internal/models"
	"github.com/teambalancer/teambalancer-api/internal/oauth"
)

const (
	userColumns     = `id, discord_id, username, avatar, role, created_at, updated_at`
	firstAdminClaim = "first_admin"
)

type UserService struct {
	db     *database.DB
	logger *slog.Logger
}

func NewUserService(db *database.DB, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{db: db, logger: logger}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.DiscordID, &user.Username, &user.Avatar,
		&user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindOrCreateFromOAuth returns the user for a Discord identity, creating it on
// first sign-in. The first user ever created wins the bootstrap claim and
// becomes admin; everyone after starts as a plain user.
func (s *UserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE discord_id = $1
	`, info.ID))

	if err == nil {
		if user.Username != info.Username || (user.Avatar == nil && info.AvatarURL != "") ||
			(user.Avatar != nil && *user.Avatar != info.AvatarURL) {
			_, _ = s.db.Pool.Exec(ctx, `
				UPDATE users SET username = $1, avatar = $2, updated_at = NOW()
				WHERE id = $3
			`, info.Username, nullableString(info.AvatarURL), user.ID)
			user.Username = info.Username
			user.Avatar = nullableString(info.AvatarURL)
		}
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	err = s.db.InTx(ctx, func(tx pgx.Tx) error {
		created, err := scanUser(tx.QueryRow(ctx, `
			INSERT INTO users (discord_id, username, avatar)
			VALUES ($1, $2, $3)
			ON CONFLICT (discord_id) DO UPDATE
			SET username = EXCLUDED.username, avatar = EXCLUDED.avatar, updated_at = NOW()
			RETURNING `+userColumns,
			info.ID, info.Username, nullableString(info.AvatarURL)))
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO bootstrap_claims (name, user_id)
			VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
		`, firstAdminClaim, created.ID)
		if err != nil {
			return fmt.Errorf("failed to check admin bootstrap: %w", err)
		}

		if tag.RowsAffected() == 1 {
			if _, err := tx.Exec(ctx, `
				UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2
			`, models.RoleAdmin, created.ID); err != nil {
				return fmt.Errorf("failed to promote first user: %w", err)
			}
			created.Role = models.RoleAdmin
			s.logger.Info("first user promoted to admin", "user_id", created.ID, "username", created.Username)
		}

		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id))
	if err != nil {
		return nil, wrapDBError(err, "get user", "user")
	}
	return user, nil
}

func (s *UserService) GetByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE discord_id = $1
	`, discordID))
	if err != nil {
		return nil, wrapDBError(err, "get user", "user")
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE username = $1
		ORDER BY id LIMIT 1
	`, username))
	if err != nil {
		return nil, wrapDBError(err, "get user", "user")
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+userColumns+` FROM users ORDER BY username, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (s *UserService) UpdateRole(ctx context.Context, id int64, role string) (*models.User, error) {
	if !models.ValidRole(role) {
		return nil, validationError("role must be %q or %q", models.RoleAdmin, models.RoleUser)
	}

	user, err := scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET role = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+userColumns,
		role, id))
	if err != nil {
		return nil, wrapDBError(err, "update user role", "user")
	}
	return user, nil
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/teambalancer/teambalancer-api/internal/database"
	"github.com/teambalancer/teambalancer-api/internal/models"
)

const userClassColumns = `id, name, description, created_at`

type UserClassService struct {
	db *database.DB
}

func NewUserClassService(db *database.DB) *UserClassService {
	return &UserClassService{db: db}
}

func scanUserClass(row pgx.Row) (*models.UserClass, error) {
	var class models.UserClass
	if err := row.Scan(&class.ID, &class.Name, &class.Description, &class.CreatedAt); err != nil {
		return nil, err
	}
	return &class, nil
}

func collectUserClasses(rows pgx.Rows) ([]models.UserClass, error) {
	defer rows.Close()

	classes := []models.UserClass{}
	for rows.Next() {
		class, err := scanUserClass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user class: %w", err)
		}
		classes = append(classes, *class)
	}
	return classes, rows.Err()
}

func (s *UserClassService) Create(ctx context.Context, name string, description *string) (*models.UserClass, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("name is required")
	}

	class, err := scanUserClass(s.db.Pool.QueryRow(ctx, `
		INSERT INTO user_classes (name, description)
		VALUES ($1, $2)
		RETURNING `+userClassColumns,
		name, description))
	if err != nil {
		return nil, wrapDBError(err, "create user class", "user class")
	}
	return class, nil
}

func (s *UserClassService) GetByID(ctx context.Context, id int64) (*models.UserClass, error) {
	class, err := scanUserClass(s.db.Pool.QueryRow(ctx, `
		SELECT `+userClassColumns+` FROM user_classes WHERE id = $1
	`, id))
	if err != nil {
		return nil, wrapDBError(err, "get user class", "user class")
	}
	return class, nil
}

func (s *UserClassService) List(ctx context.Context) ([]models.UserClass, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+userClassColumns+` FROM user_classes ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user classes: %w", err)
	}
	return collectUserClasses(rows)
}

func (s *UserClassService) ClassesForUser(ctx context.Context, userID int64) ([]models.UserClass, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT uc.id, uc.name, uc.description, uc.created_at
		FROM user_classes uc
		INNER JOIN user_class_assignments uca ON uca.user_class_id = uc.id
		WHERE uca.user_id = $1
		ORDER BY uc.name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user classes for user: %w", err)
	}
	return collectUserClasses(rows)
}

func (s *UserClassService) ListUsers(ctx context.Context, classID int64) ([]models.User, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT u.id, u.discord_id, u.username, u.avatar, u.role, u.created_at, u.updated_at
		FROM users u
		INNER JOIN user_class_assignments uca ON uca.user_id = u.id
		WHERE uca.user_class_id = $1
		ORDER BY u.username
	`, classID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users in class: %w", err)
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

// AssignUser adds userID to classID. Assigning twice is a conflict.
func (s *UserClassService) AssignUser(ctx context.Context, classID, userID, assignedBy int64) (*models.UserClassAssignment, error) {
	var a models.UserClassAssignment
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO user_class_assignments (user_id, user_class_id, assigned_by)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, user_class_id, assigned_by, created_at
	`, userID, classID, assignedBy).Scan(&a.ID, &a.UserID, &a.UserClassID, &a.AssignedBy, &a.CreatedAt)
	if err != nil {
		return nil, wrapDBError(err, "assign user to class", "user class assignment")
	}
	return &a, nil
}

func (s *UserClassService) RemoveUser(ctx context.Context, classID, userID int64) error {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM user_class_assignments WHERE user_class_id = $1 AND user_id = $2
	`, classID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove user from class: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user class assignment: %w", ErrNotFound)
	}
	return nil
}

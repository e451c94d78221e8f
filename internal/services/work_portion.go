package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/teambalancer/teambalancer-api/internal/database"
	"github.com/teambalancer/teambalancer-api/internal/models"
	"github.com/teambalancer/teambalancer-api/internal/notify"
)

const workPortionColumns = `id, name, description, weight, created_by, created_at, updated_at`

type WorkPortionInput struct {
	Name        string
	Description *string
	Weight      int
}

func (in *WorkPortionInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return validationError("name is required")
	}
	if in.Weight < models.MinWeight || in.Weight > models.MaxWeight {
		return validationError("weight must be between %d and %d", models.MinWeight, models.MaxWeight)
	}
	return nil
}

type WorkPortionService struct {
	outbox

	db       *database.DB
	notifier notify.Notifier
	events   EventPublisher
	logger   *slog.Logger
}

func NewWorkPortionService(db *database.DB, notifier notify.Notifier, events EventPublisher, logger *slog.Logger) *WorkPortionService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if events == nil {
		events = nopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkPortionService{db: db, notifier: notifier, events: events, logger: logger}
}

func scanWorkPortion(row pgx.Row) (*models.WorkPortion, error) {
	var wp models.WorkPortion
	err := row.Scan(&wp.ID, &wp.Name, &wp.Description, &wp.Weight, &wp.CreatedBy, &wp.CreatedAt, &wp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &wp, nil
}

func (s *WorkPortionService) Create(ctx context.Context, in WorkPortionInput, creator *models.User) (*models.WorkPortion, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	wp, err := scanWorkPortion(s.db.Pool.QueryRow(ctx, `
		INSERT INTO work_portions (name, description, weight, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING `+workPortionColumns,
		in.Name, in.Description, in.Weight, creator.ID))
	if err != nil {
		return nil, wrapDBError(err, "create work portion", "work portion")
	}

	name, username := wp.Name, creator.Username
	s.send(ctx, s.logger, "work_portion_created", func(ctx context.Context) error {
		return s.notifier.WorkPortionCreated(ctx, name, username)
	})
	s.events.BroadcastWorkPortionCreated(wp.ID, wp.Name, wp.Weight, creator.ID)

	return wp, nil
}

func (s *WorkPortionService) GetByID(ctx context.Context, id int64) (*models.WorkPortion, error) {
	wp, err := scanWorkPortion(s.db.Pool.QueryRow(ctx, `
		SELECT `+workPortionColumns+` FROM work_portions WHERE id = $1
	`, id))
	if err != nil {
		return nil, wrapDBError(err, "get work portion", "work portion")
	}
	return wp, nil
}

func (s *WorkPortionService) List(ctx context.Context) ([]models.WorkPortion, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+workPortionColumns+` FROM work_portions ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list work portions: %w", err)
	}
	defer rows.Close()

	portions := []models.WorkPortion{}
	for rows.Next() {
		wp, err := scanWorkPortion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work portion: %w", err)
		}
		portions = append(portions, *wp)
	}
	return portions, rows.Err()
}

func (s *WorkPortionService) Update(ctx context.Context, id int64, in WorkPortionInput) (*models.WorkPortion, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	wp, err := scanWorkPortion(s.db.Pool.QueryRow(ctx, `
		UPDATE work_portions
		SET name = $1, description = $2, weight = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING `+workPortionColumns,
		in.Name, in.Description, in.Weight, id))
	if err != nil {
		return nil, wrapDBError(err, "update work portion", "work portion")
	}
	return wp, nil
}

// Delete removes the portion with its access links, preferences and current
// assignments. History rows are kept.
func (s *WorkPortionService) Delete(ctx context.Context, id int64) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM work_portions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete work portion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("work portion: %w", ErrNotFound)
	}
	return nil
}

// GrantAccess links a user class to a portion. Granting twice is a no-op.
func (s *WorkPortionService) GrantAccess(ctx context.Context, workPortionID, classID int64) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO work_portion_access (work_portion_id, user_class_id)
		VALUES ($1, $2)
		ON CONFLICT (work_portion_id, user_class_id) DO NOTHING
	`, workPortionID, classID)
	if err != nil {
		return wrapDBError(err, "grant work portion access", "work portion access")
	}
	return nil
}

func (s *WorkPortionService) RevokeAccess(ctx context.Context, workPortionID, classID int64) error {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM work_portion_access WHERE work_portion_id = $1 AND user_class_id = $2
	`, workPortionID, classID)
	if err != nil {
		return fmt.Errorf("failed to revoke work portion access: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("work portion access: %w", ErrNotFound)
	}
	return nil
}

// ListAccess returns the user classes linked to a portion.
func (s *WorkPortionService) ListAccess(ctx context.Context, workPortionID int64) ([]models.UserClass, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT uc.id, uc.name, uc.description, uc.created_at
		FROM user_classes uc
		INNER JOIN work_portion_access wpa ON wpa.user_class_id = uc.id
		WHERE wpa.work_portion_id = $1
		ORDER BY uc.name
	`, workPortionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list work portion access: %w", err)
	}
	return collectUserClasses(rows)
}

package services

import (
	"context"
	"fmt"

	"github.com/teambalancer/teambalancer-api/internal/database"
	"github.com/teambalancer/teambalancer-api/internal/models"
)

const preferenceColumns = `id, user_id, work_portion_id, preference_level, created_at, updated_at`

type AccessChecker interface {
	HasAccess(ctx context.Context, userID, workPortionID int64) (bool, error)
}

type PreferenceService struct {
	db     *database.DB
	access AccessChecker
}

func NewPreferenceService(db *database.DB, access AccessChecker) *PreferenceService {
	return &PreferenceService{db: db, access: access}
}

// Set records how much userID wants a work portion. Setting it again replaces
// the previous level.
func (s *PreferenceService) Set(ctx context.Context, userID, workPortionID int64, level int) (*models.WorkloadPreference, error) {
	if level < models.MinPreference || level > models.MaxPreference {
		return nil, validationError("preference level must be between %d and %d", models.MinPreference, models.MaxPreference)
	}

	ok, err := s.access.HasAccess(ctx, userID, workPortionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no access to work portion %d: %w", workPortionID, ErrForbidden)
	}

	var p models.WorkloadPreference
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO workload_preferences (user_id, work_portion_id, preference_level)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, work_portion_id)
		DO UPDATE SET preference_level = EXCLUDED.preference_level, updated_at = NOW()
		RETURNING `+preferenceColumns,
		userID, workPortionID, level).Scan(
		&p.ID, &p.UserID, &p.WorkPortionID, &p.PreferenceLevel, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, wrapDBError(err, "set preference", "preference")
	}
	return &p, nil
}

func (s *PreferenceService) ListForUser(ctx context.Context, userID int64) ([]models.WorkloadPreference, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+preferenceColumns+`
		FROM workload_preferences
		WHERE user_id = $1
		ORDER BY work_portion_id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	prefs := []models.WorkloadPreference{}
	for rows.Next() {
		var p models.WorkloadPreference
		if err := rows.Scan(&p.ID, &p.UserID, &p.WorkPortionID, &p.PreferenceLevel, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

package services

import (
	"context"
	"fmt"

	"github.com/teambalancer/teambalancer-api/internal/config"
	"github.com/teambalancer/teambalancer-api/internal/database"
	"github.com/teambalancer/teambalancer-api/internal/models"
)

// AccessService decides whether a user may work on a work portion. Admins may
// work on anything. Everyone else needs a user class linked to the portion;
// portions with no linked classes follow the configured policy.
type AccessService struct {
	db     *database.DB
	policy string
}

func NewAccessService(db *database.DB, policy string) *AccessService {
	if policy == "" {
		policy = config.AccessPolicyAdminsOnly
	}
	return &AccessService{db: db, policy: policy}
}

func (s *AccessService) Policy() string {
	return s.policy
}

func (s *AccessService) HasAccess(ctx context.Context, userID, workPortionID int64) (bool, error) {
	var role string
	err := s.db.Pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		return false, wrapDBError(err, "get user role", "user")
	}
	if role == models.RoleAdmin {
		return true, nil
	}

	var linked, shared int
	err = s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(uca.id)
		FROM work_portion_access wpa
		LEFT JOIN user_class_assignments uca
			ON uca.user_class_id = wpa.user_class_id AND uca.user_id = $2
		WHERE wpa.work_portion_id = $1
	`, workPortionID, userID).Scan(&linked, &shared)
	if err != nil {
		return false, fmt.Errorf("failed to check work portion access: %w", err)
	}

	if linked == 0 {
		return s.policy == config.AccessPolicyEveryone, nil
	}
	return shared > 0, nil
}

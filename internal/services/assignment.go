package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/teambalancer/teambalancer-api/internal/database"
	"github.com/teambalancer/teambalancer-api/internal/metrics"
	"github.com/teambalancer/teambalancer-api/internal/models"
	"github.com/teambalancer/teambalancer-api/internal/notify"
	"github.com/teambalancer/teambalancer-api/internal/oracle"
)

const (
	dateLayout = "2006-01-02"

	// High bits of the advisory lock key; the low bits are the cycle's day number.
	cycleLockNamespace int64 = 0x7462 << 32
)

type PortionAssignment struct {
	WorkPortionID int64 `json:"work_portion_id"`
	UserID        int64 `json:"user_id"`
}

type GenerationResult struct {
	RunID       string              `json:"run_id"`
	CycleDate   time.Time           `json:"cycle_date"`
	Assignments []PortionAssignment `json:"assignments"`
	// Unassigned lists portions the oracle left out of its mapping.
	Unassigned []int64 `json:"unassigned"`
}

// AssignmentService generates a cycle's assignment set through the oracle
// and serves the current set and history.
type AssignmentService struct {
	outbox

	db       *database.DB
	oracle   oracle.Oracle
	notifier notify.Notifier
	events   EventPublisher
	logger   *slog.Logger
}

func NewAssignmentService(db *database.DB, o oracle.Oracle, notifier notify.Notifier, events EventPublisher, logger *slog.Logger) *AssignmentService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if events == nil {
		events = nopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AssignmentService{db: db, oracle: o, notifier: notifier, events: events, logger: logger}
}

func cycleDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func cycleLockKey(cycleDate time.Time) int64 {
	return cycleLockNamespace + cycleDate.Unix()/86400
}

// GenerateAndSave asks the oracle for a distribution and replaces the cycle's
// assignment set with it in one transaction. The replaced set is also copied
// into history. Concurrent calls for the same cycle are serialized; readers see
// either the old set or the new one.
func (s *AssignmentService) GenerateAndSave(ctx context.Context, cycleDate time.Time) (*GenerationResult, error) {
	cycleDate = cycleDay(cycleDate)
	runID := uuid.New().String()
	logger := s.logger.With("run_id", runID, "cycle", cycleDate.Format(dateLayout))

	start := time.Now()
	result, err := s.generate(ctx, runID, cycleDate)
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.GenerationsTotal.WithLabelValues("failure").Inc()
		logger.Error("assignment generation failed", "error", err, "oracle_error", oracle.Kind(err))
		message := fmt.Sprintf("Assignment generation for %s failed: %v", cycleDate.Format(dateLayout), err)
		s.send(ctx, logger, "system_error", func(ctx context.Context) error {
			return s.notifier.SystemError(ctx, message)
		})
		return nil, err
	}

	metrics.GenerationsTotal.WithLabelValues("success").Inc()
	metrics.AssignmentsSaved.Add(float64(len(result.Assignments)))
	logger.Info("assignments generated",
		"assigned", len(result.Assignments),
		"unassigned", len(result.Unassigned),
		"duration", time.Since(start),
	)

	s.send(ctx, logger, "assignments_generated", func(ctx context.Context) error {
		return s.notifier.AssignmentsGenerated(ctx, cycleDate)
	})
	s.events.BroadcastAssignmentsGenerated(runID, cycleDate, len(result.Assignments))

	return result, nil
}

func (s *AssignmentService) generate(ctx context.Context, runID string, cycleDate time.Time) (*GenerationResult, error) {
	in, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	dist, err := s.oracle.Distribute(ctx, in)
	if err != nil {
		metrics.OracleFailures.WithLabelValues(oracle.Kind(err)).Inc()
		return nil, fmt.Errorf("failed to get distribution: %w", err)
	}

	portionIDs := make([]int64, 0, len(dist))
	for id := range dist {
		portionIDs = append(portionIDs, id)
	}
	sort.Slice(portionIDs, func(i, j int) bool { return portionIDs[i] < portionIDs[j] })

	result := &GenerationResult{
		RunID:       runID,
		CycleDate:   cycleDate,
		Assignments: make([]PortionAssignment, 0, len(portionIDs)),
		Unassigned:  []int64{},
	}
	for _, id := range portionIDs {
		result.Assignments = append(result.Assignments, PortionAssignment{WorkPortionID: id, UserID: dist[id]})
	}
	for _, p := range in.Portions {
		if _, ok := dist[p.ID]; !ok {
			result.Unassigned = append(result.Unassigned, p.ID)
		}
	}

	err = s.db.InTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, cycleLockKey(cycleDate)); err != nil {
			return fmt.Errorf("failed to lock cycle: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			DELETE FROM work_assignments WHERE assignment_cycle = $1
		`, cycleDate); err != nil {
			return fmt.Errorf("failed to clear cycle assignments: %w", err)
		}

		for _, a := range result.Assignments {
			if _, err := tx.Exec(ctx, `
				INSERT INTO work_assignments (work_portion_id, user_id, assignment_cycle)
				VALUES ($1, $2, $3)
			`, a.WorkPortionID, a.UserID, cycleDate); err != nil {
				return fmt.Errorf("failed to save assignment of work portion %d to user %d: %w", a.WorkPortionID, a.UserID, err)
			}
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO assignment_history (user_id, work_portion_id, assigned_date)
			SELECT user_id, work_portion_id, assignment_cycle
			FROM work_assignments
			WHERE assignment_cycle = $1
		`, cycleDate); err != nil {
			return fmt.Errorf("failed to record assignment history: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO cycle_runs (cycle_date, run_id, assignments)
			VALUES ($1, $2, $3)
			ON CONFLICT (cycle_date)
			DO UPDATE SET run_id = EXCLUDED.run_id, assignments = EXCLUDED.assignments, generated_at = NOW()
		`, cycleDate, runID, len(result.Assignments)); err != nil {
			return fmt.Errorf("failed to record cycle run: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *AssignmentService) snapshot(ctx context.Context) (oracle.Input, error) {
	in := oracle.Input{
		Portions:    []oracle.Portion{},
		Users:       []oracle.Member{},
		Preferences: map[int64]map[int64]int{},
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), weight FROM work_portions ORDER BY id
	`)
	if err != nil {
		return in, fmt.Errorf("failed to load work portions: %w", err)
	}
	for rows.Next() {
		var p oracle.Portion
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Weight); err != nil {
			rows.Close()
			return in, fmt.Errorf("failed to scan work portion: %w", err)
		}
		in.Portions = append(in.Portions, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return in, fmt.Errorf("failed to load work portions: %w", err)
	}

	rows, err = s.db.Pool.Query(ctx, `SELECT id, username, role FROM users ORDER BY id`)
	if err != nil {
		return in, fmt.Errorf("failed to load users: %w", err)
	}
	for rows.Next() {
		var m oracle.Member
		if err := rows.Scan(&m.ID, &m.Username, &m.Role); err != nil {
			rows.Close()
			return in, fmt.Errorf("failed to scan user: %w", err)
		}
		in.Users = append(in.Users, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return in, fmt.Errorf("failed to load users: %w", err)
	}

	rows, err = s.db.Pool.Query(ctx, `
		SELECT user_id, work_portion_id, preference_level FROM workload_preferences
	`)
	if err != nil {
		return in, fmt.Errorf("failed to load preferences: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID, portionID int64
		var level int
		if err := rows.Scan(&userID, &portionID, &level); err != nil {
			return in, fmt.Errorf("failed to scan preference: %w", err)
		}
		if in.Preferences[userID] == nil {
			in.Preferences[userID] = map[int64]int{}
		}
		in.Preferences[userID][portionID] = level
	}
	if err := rows.Err(); err != nil {
		return in, fmt.Errorf("failed to load preferences: %w", err)
	}

	return in, nil
}

// HasAssignments reports whether the cycle already has an assignment set.
func (s *AssignmentService) HasAssignments(ctx context.Context, cycleDate time.Time) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM work_assignments WHERE assignment_cycle = $1)
	`, cycleDay(cycleDate)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check cycle assignments: %w", err)
	}
	return exists, nil
}

// WasGenerated reports whether a generation for the cycle has committed, even
// one that produced no assignments.
func (s *AssignmentService) WasGenerated(ctx context.Context, cycleDate time.Time) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM cycle_runs WHERE cycle_date = $1)
	`, cycleDay(cycleDate)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check cycle runs: %w", err)
	}
	return exists, nil
}

func (s *AssignmentService) Current(ctx context.Context, cycleDate time.Time) ([]models.WorkAssignmentDetail, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT wa.id, wa.work_portion_id, wa.user_id, wa.assigned_at, wa.assignment_cycle,
			wp.name, wp.weight, u.username
		FROM work_assignments wa
		INNER JOIN work_portions wp ON wp.id = wa.work_portion_id
		INNER JOIN users u ON u.id = wa.user_id
		WHERE wa.assignment_cycle = $1
		ORDER BY wa.work_portion_id
	`, cycleDay(cycleDate))
	if err != nil {
		return nil, fmt.Errorf("failed to get current assignments: %w", err)
	}
	defer rows.Close()

	assignments := []models.WorkAssignmentDetail{}
	for rows.Next() {
		var a models.WorkAssignmentDetail
		if err := rows.Scan(
			&a.ID, &a.WorkPortionID, &a.UserID, &a.AssignedAt, &a.AssignmentCycle,
			&a.WorkPortionName, &a.Weight, &a.Username,
		); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (s *AssignmentService) HistoryForUser(ctx context.Context, userID int64) ([]models.AssignmentHistoryDetail, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT ah.id, ah.user_id, ah.work_portion_id, ah.assigned_date, ah.completed_date, ah.created_at,
			wp.name, u.username
		FROM assignment_history ah
		LEFT JOIN work_portions wp ON wp.id = ah.work_portion_id
		LEFT JOIN users u ON u.id = ah.user_id
		WHERE ah.user_id = $1
		ORDER BY ah.assigned_date DESC, ah.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment history: %w", err)
	}
	return collectHistory(rows)
}

func (s *AssignmentService) HistoryForWorkPortion(ctx context.Context, workPortionID int64) ([]models.AssignmentHistoryDetail, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT ah.id, ah.user_id, ah.work_portion_id, ah.assigned_date, ah.completed_date, ah.created_at,
			wp.name, u.username
		FROM assignment_history ah
		LEFT JOIN work_portions wp ON wp.id = ah.work_portion_id
		LEFT JOIN users u ON u.id = ah.user_id
		WHERE ah.work_portion_id = $1
		ORDER BY ah.assigned_date DESC, ah.id DESC
	`, workPortionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get work portion history: %w", err)
	}
	return collectHistory(rows)
}

func collectHistory(rows pgx.Rows) ([]models.AssignmentHistoryDetail, error) {
	defer rows.Close()

	history := []models.AssignmentHistoryDetail{}
	for rows.Next() {
		var h models.AssignmentHistoryDetail
		if err := rows.Scan(
			&h.ID, &h.UserID, &h.WorkPortionID, &h.AssignedDate, &h.CompletedDate, &h.CreatedAt,
			&h.WorkPortionName, &h.Username,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// CompleteHistoryEntry marks one of the caller's own history entries done.
func (s *AssignmentService) CompleteHistoryEntry(ctx context.Context, id, userID int64) (*models.AssignmentHistory, error) {
	var h models.AssignmentHistory
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE assignment_history
		SET completed_date = CURRENT_DATE
		WHERE id = $1 AND user_id = $2 AND completed_date IS NULL
		RETURNING id, user_id, work_portion_id, assigned_date, completed_date, created_at
	`, id, userID).Scan(&h.ID, &h.UserID, &h.WorkPortionID, &h.AssignedDate, &h.CompletedDate, &h.CreatedAt)
	if err != nil {
		return nil, wrapDBError(err, "complete history entry", "open history entry")
	}
	return &h, nil
}

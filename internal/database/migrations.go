package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		discord_id VARCHAR(64) UNIQUE NOT NULL,
		username VARCHAR(255) NOT NULL,
		avatar VARCHAR(500),
		role VARCHAR(20) NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// Single-row claims; the first transaction to insert a name wins it.
	`CREATE TABLE IF NOT EXISTS bootstrap_claims (
		name VARCHAR(64) PRIMARY KEY,
		user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
		claimed_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS user_classes (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) UNIQUE NOT NULL,
		description TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS user_class_assignments (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user_class_id BIGINT NOT NULL REFERENCES user_classes(id) ON DELETE CASCADE,
		assigned_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(user_id, user_class_id)
	)`,

	`CREATE TABLE IF NOT EXISTS work_portions (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		weight INTEGER NOT NULL CHECK (weight BETWEEN 1 AND 10),
		created_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS work_portion_access (
		id BIGSERIAL PRIMARY KEY,
		work_portion_id BIGINT NOT NULL REFERENCES work_portions(id) ON DELETE CASCADE,
		user_class_id BIGINT NOT NULL REFERENCES user_classes(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(work_portion_id, user_class_id)
	)`,

	`CREATE TABLE IF NOT EXISTS workload_preferences (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		work_portion_id BIGINT NOT NULL REFERENCES work_portions(id) ON DELETE CASCADE,
		preference_level INTEGER NOT NULL CHECK (preference_level BETWEEN 1 AND 5),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(user_id, work_portion_id)
	)`,

	`CREATE TABLE IF NOT EXISTS work_assignments (
		id BIGSERIAL PRIMARY KEY,
		work_portion_id BIGINT NOT NULL REFERENCES work_portions(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		assigned_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		assignment_cycle DATE NOT NULL
	)`,

	// History keeps ids only, no FKs: rows outlive the portions and users they mention.
	`CREATE TABLE IF NOT EXISTS assignment_history (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		work_portion_id BIGINT NOT NULL,
		assigned_date DATE NOT NULL,
		completed_date DATE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// One row per generated cycle, written with the assignment set. An empty
	// distribution leaves no assignments but still counts as generated.
	`CREATE TABLE IF NOT EXISTS cycle_runs (
		cycle_date DATE PRIMARY KEY,
		run_id VARCHAR(64) NOT NULL,
		assignments INTEGER NOT NULL,
		generated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_user_class_assignments_user_id ON user_class_assignments(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_user_class_assignments_class_id ON user_class_assignments(user_class_id)`,
	`CREATE INDEX IF NOT EXISTS idx_work_portion_access_portion_id ON work_portion_access(work_portion_id)`,
	`CREATE INDEX IF NOT EXISTS idx_workload_preferences_user_id ON workload_preferences(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_work_assignments_cycle ON work_assignments(assignment_cycle)`,
	`CREATE INDEX IF NOT EXISTS idx_assignment_history_user_id ON assignment_history(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_assignment_history_portion_id ON assignment_history(work_portion_id)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}

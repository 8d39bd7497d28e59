package migration

import (
	"context"

	"xaistudy/internal"
	"xaistudy/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
	logger  *internal.Logger
}

// NewRunner creates a new migration runner
func NewRunner(logger *internal.Logger) *MigrationRunner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MigrationRunner{
		version: "1.1.0",
		logger:  logger,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createUsersTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create users table")
	}

	if err := r.convertLegacyFeedback(ctx, db); err != nil {
		return errors.Wrap(err, "failed to convert legacy feedback")
	}

	if err := r.createEventsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create events table")
	}

	if err := r.createUserCompletedTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create user_completed table")
	}

	if err := r.createLogEntriesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create log_entries table")
	}

	r.createIndexes(ctx, db)

	r.logger.Info("[Migration] schema version %s applied", r.version)
	return nil
}

func (r *MigrationRunner) createUsersTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			profile JSONB NOT NULL DEFAULT '{}'::jsonb,
			study_group VARCHAR(50),
			questionnaires JSONB NOT NULL DEFAULT '{}'::jsonb,
			feedback JSONB NOT NULL DEFAULT '[]'::jsonb,
			completed BOOLEAN NOT NULL DEFAULT false,
			matrik_num VARCHAR(50),
			prolific_id VARCHAR(100),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

// convertLegacyFeedback wraps feedback stored as a single object into a one-entry array
func (r *MigrationRunner) convertLegacyFeedback(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		UPDATE users
		SET feedback = jsonb_build_array(feedback)
		WHERE jsonb_typeof(feedback) = 'object'
	`)
	return err
}

func (r *MigrationRunner) createEventsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			source VARCHAR(100) NOT NULL,
			action VARCHAR(100) NOT NULL,
			details JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

// user_completed rows exist for university participants (matrik_num only) and for
// crowdsourced or attention-checked participants (user_id), so user_id stays nullable
func (r *MigrationRunner) createUserCompletedTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS user_completed (
			id SERIAL PRIMARY KEY,
			user_id TEXT UNIQUE,
			matrik_num VARCHAR(50),
			prolific_id VARCHAR(100),
			attention_checks JSONB,
			completed BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createLogEntriesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS log_entries (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			datapoint_count INTEGER NOT NULL,
			test_response TEXT,
			timestamp TEXT,
			true_label TEXT,
			is_final BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_group_completed ON users(study_group, completed)",
		"CREATE INDEX IF NOT EXISTS idx_events_user_created ON events(user_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_user_completed_matrik_num ON user_completed(matrik_num)",
		"CREATE INDEX IF NOT EXISTS idx_log_entries_user_id ON log_entries(user_id)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// index failures only cost query speed
			r.logger.Warn("[Migration] failed to create index: %v", err)
		}
	}
}

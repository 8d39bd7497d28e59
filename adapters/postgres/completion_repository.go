package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"xaistudy/domain/attention"
	"xaistudy/internal/errors"
	"xaistudy/ports"

	"github.com/jmoiron/sqlx"
)

// CompletionRepositoryImpl implements CompletionRepository for PostgreSQL
type CompletionRepositoryImpl struct {
	db *sqlx.DB
}

// NewCompletionRepository creates a new PostgreSQL completion repository
func NewCompletionRepository(db *sqlx.DB) ports.CompletionRepository {
	return &CompletionRepositoryImpl{db: db}
}

// LogAttentionCheck upserts the participant's row and merges the check in by id
func (r *CompletionRepositoryImpl) LogAttentionCheck(ctx context.Context, userID, checkID string, data json.RawMessage) error {
	if checkID == "" {
		return errors.ValidationError("check id is required")
	}
	if !json.Valid(data) {
		return errors.InvalidInput("attention check data is not valid JSON")
	}
	raw, err := json.Marshal(map[string]json.RawMessage{checkID: data})
	if err != nil {
		return fmt.Errorf("encode attention check %s: %w", checkID, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_completed (user_id, attention_checks)
		VALUES ($1, $2::jsonb)
		ON CONFLICT (user_id) DO UPDATE
		SET attention_checks = COALESCE(user_completed.attention_checks, '{}'::jsonb) || EXCLUDED.attention_checks
	`, userID, string(raw))
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to log attention check %s for %s", checkID, userID), err)
	}
	return nil
}

// GetAttentionChecks returns the stored checks of a participant. Entries that are not check
// objects come back as malformed checks, which count as failed.
func (r *CompletionRepositoryImpl) GetAttentionChecks(ctx context.Context, userID string) (attention.Checks, error) {
	var raw []byte
	err := r.db.GetContext(ctx, &raw, `
		SELECT attention_checks
		FROM user_completed
		WHERE user_id = $1
	`, userID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to get attention checks for %s", userID), err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var checks attention.Checks
	if err := json.Unmarshal(raw, &checks); err != nil {
		return nil, fmt.Errorf("failed to decode attention checks for %s: %w", userID, err)
	}
	return checks, nil
}

// CreateUniParticipant records a university participant by matriculation number
func (r *CompletionRepositoryImpl) CreateUniParticipant(ctx context.Context, matrikNum string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_completed (matrik_num)
		VALUES ($1)
	`, matrikNum)
	if err != nil {
		return errors.DatabaseError("failed to create university participant", err)
	}
	return nil
}

// CreateProlificParticipant records a crowdsourced participant. A row created earlier by an
// attention check only gets its prolific id filled in.
func (r *CompletionRepositoryImpl) CreateProlificParticipant(ctx context.Context, userID, prolificID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_completed (user_id, prolific_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET prolific_id = EXCLUDED.prolific_id
	`, userID, prolificID)
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to create prolific participant %s", userID), err)
	}
	return nil
}

// AssignFinishedUniParticipant marks the university participant as finished
func (r *CompletionRepositoryImpl) AssignFinishedUniParticipant(ctx context.Context, matrikNum string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_completed
		SET completed = true
		WHERE matrik_num = $1
	`, matrikNum)
	if err != nil {
		return errors.DatabaseError("failed to mark university participant finished", err)
	}
	return nil
}

// AssignFinishedProlificParticipant marks the crowdsourced participant as finished
func (r *CompletionRepositoryImpl) AssignFinishedProlificParticipant(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_completed
		SET completed = true
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to mark prolific participant %s finished", userID), err)
	}
	return nil
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"xaistudy/internal/errors"
	"xaistudy/models"
	"xaistudy/ports"

	"github.com/jmoiron/sqlx"
)

// testingTimeLayout is the second-precision UTC timestamp stored in log_entries
const testingTimeLayout = "2006-01-02T15:04:05"

// EventRepositoryImpl implements EventRepository for PostgreSQL
type EventRepositoryImpl struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewEventRepository creates a new PostgreSQL event repository
func NewEventRepository(db *sqlx.DB) ports.EventRepository {
	return &EventRepositoryImpl{db: db, now: time.Now}
}

// LogEvent appends one event. created_at is filled in by the database.
func (r *EventRepositoryImpl) LogEvent(ctx context.Context, userID, source, action string, details map[string]interface{}) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("encode event details: %w", err))
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO events (user_id, source, action, details)
		VALUES ($1, $2, $3, $4::jsonb)
	`, userID, source, action, string(raw))
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return errors.NotFound("participant " + userID)
		}
		return errors.DatabaseError(fmt.Sprintf("failed to log event %s/%s for %s", source, action, userID), err)
	}
	return nil
}

// LogTestingResponse stores one prediction of the testing phase
func (r *EventRepositoryImpl) LogTestingResponse(ctx context.Context, entry *models.TestingResponse) error {
	if entry.Timestamp == "" {
		entry.Timestamp = r.now().UTC().Format(testingTimeLayout)
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO log_entries (user_id, datapoint_count, test_response, timestamp, true_label, is_final)
		VALUES (:user_id, :datapoint_count, :test_response, :timestamp, :true_label, :is_final)
	`, entry)
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to log testing response for %s", entry.UserID), err)
	}
	return nil
}

// ListEvents returns the events of one participant in order, or of everyone when userID is empty
func (r *EventRepositoryImpl) ListEvents(ctx context.Context, userID string) ([]*models.Event, error) {
	var events []*models.Event
	var err error
	if userID == "" {
		err = r.db.SelectContext(ctx, &events, `
			SELECT id, user_id, source, action, details, created_at
			FROM events
			ORDER BY created_at ASC, id ASC
		`)
	} else {
		err = r.db.SelectContext(ctx, &events, `
			SELECT id, user_id, source, action, details, created_at
			FROM events
			WHERE user_id = $1
			ORDER BY created_at ASC, id ASC
		`, userID)
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to list events", err)
	}
	return events, nil
}

package ports

import (
	"context"

	"xaistudy/models"
)

// EventRepository defines the append-only interaction log
type EventRepository interface {
	// LogEvent appends one event; the timestamp is set by the database
	LogEvent(ctx context.Context, userID, source, action string, details map[string]interface{}) error

	// LogTestingResponse stores one prediction of the testing phase in log_entries
	LogTestingResponse(ctx context.Context, entry *models.TestingResponse) error

	// ListEvents returns the events of one participant in order, or of everyone when userID is empty
	ListEvents(ctx context.Context, userID string) ([]*models.Event, error)
}

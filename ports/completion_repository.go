package ports

import (
	"context"
	"encoding/json"

	"xaistudy/domain/attention"
)

// CompletionRepository defines the data operations on the user_completed table, which tracks
// attention checks and the external participant identifiers used for payout
type CompletionRepository interface {
	// LogAttentionCheck stores the result of one check. Checks are merged by id, so a later
	// write for the same id replaces only that entry.
	LogAttentionCheck(ctx context.Context, userID, checkID string, data json.RawMessage) error

	// GetAttentionChecks returns the stored checks of a participant, nil when there are none
	GetAttentionChecks(ctx context.Context, userID string) (attention.Checks, error)

	CreateUniParticipant(ctx context.Context, matrikNum string) error
	CreateProlificParticipant(ctx context.Context, userID, prolificID string) error
	AssignFinishedUniParticipant(ctx context.Context, matrikNum string) error
	AssignFinishedProlificParticipant(ctx context.Context, userID string) error
}

package ports

import (
	"context"

	"xaistudy/models"
)

// ParticipantRepository defines the data operations on the users table
type ParticipantRepository interface {
	// SetupUserProfile creates the participant row with its demographic profile
	SetupUserProfile(ctx context.Context, userID string, profile map[string]interface{}) error

	// SetStudyGroup stores the arm the participant was assigned to
	SetStudyGroup(ctx context.Context, userID, studyGroup string) error

	// CountCompleted counts participants of an arm that finished the study
	CountCompleted(ctx context.Context, studyGroup string) (int, error)

	// SaveQuestionnaireAnswers merges one questionnaire into users.questionnaires.
	// A questionnaire stored earlier under the same name is replaced.
	SaveQuestionnaireAnswers(ctx context.Context, userID, name string, questions []string, answers []int) error

	// LogFinalFeedback appends a timestamped entry to the participant's feedback log
	LogFinalFeedback(ctx context.Context, userID, feedback string) error

	// LogCompleted marks the participant as finished
	LogCompleted(ctx context.Context, userID string) error

	SetMatrikNum(ctx context.Context, userID, matrikNum string) error
	GetMatrikNum(ctx context.Context, userID string) (string, error)
	DeleteMatrikNum(ctx context.Context, userID string) error
	SetProlificID(ctx context.Context, userID, prolificID string) error

	// GetParticipant retrieves the full row of one participant
	GetParticipant(ctx context.Context, userID string) (*models.Participant, error)

	// ListParticipants returns all participants, oldest first
	ListParticipants(ctx context.Context) ([]*models.Participant, error)
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"xaistudy/internal/errors"
	"xaistudy/models"
	"xaistudy/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// DefaultQuestionnaireName is used when a questionnaire is saved without a name
const DefaultQuestionnaireName = "exit"

// feedbackTimeLayout matches the ISO timestamps the study frontend writes elsewhere
const feedbackTimeLayout = "2006-01-02T15:04:05.000Z"

const participantColumns = `id, profile, study_group, questionnaires, feedback, completed, matrik_num, prolific_id, created_at`

// PostgreSQL error codes the repositories react to
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// ParticipantRepositoryImpl implements ParticipantRepository for PostgreSQL
type ParticipantRepositoryImpl struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewParticipantRepository creates a new PostgreSQL participant repository
func NewParticipantRepository(db *sqlx.DB) ports.ParticipantRepository {
	return &ParticipantRepositoryImpl{db: db, now: time.Now}
}

// SetupUserProfile creates the participant row with its demographic profile
func (r *ParticipantRepositoryImpl) SetupUserProfile(ctx context.Context, userID string, profile map[string]interface{}) error {
	if profile == nil {
		profile = map[string]interface{}{}
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("encode profile: %w", err))
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, profile)
		VALUES ($1, $2::jsonb)
	`, userID, string(raw))
	if err != nil {
		if pqCode(err) == uniqueViolation {
			return errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("participant %s already exists: %w", userID, err))
		}
		return errors.DatabaseError(fmt.Sprintf("failed to create participant %s", userID), err)
	}
	return nil
}

// SetStudyGroup stores the arm the participant was assigned to
func (r *ParticipantRepositoryImpl) SetStudyGroup(ctx context.Context, userID, studyGroup string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET study_group = $1
		WHERE id = $2
	`, studyGroup, userID)
	return affectedOne(res, err, "set study group", userID)
}

// CountCompleted counts participants of an arm that finished the study
func (r *ParticipantRepositoryImpl) CountCompleted(ctx context.Context, studyGroup string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM users
		WHERE study_group = $1 AND completed = true
	`, studyGroup)
	if err != nil {
		return 0, errors.DatabaseError(fmt.Sprintf("failed to count completed %s participants", studyGroup), err)
	}
	return count, nil
}

// SaveQuestionnaireAnswers merges one questionnaire into users.questionnaires. The merge is
// top-level, so a questionnaire stored earlier under the same name is replaced.
func (r *ParticipantRepositoryImpl) SaveQuestionnaireAnswers(ctx context.Context, userID, name string, questions []string, answers []int) error {
	if name == "" {
		name = DefaultQuestionnaireName
	}
	if questions == nil {
		questions = []string{}
	}
	if answers == nil {
		answers = []int{}
	}
	raw, err := json.Marshal(map[string]models.QuestionnaireAnswers{
		name: {Questions: questions, Answers: answers},
	})
	if err != nil {
		return fmt.Errorf("encode questionnaire %s: %w", name, err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET questionnaires = COALESCE(questionnaires, '{}'::jsonb) || $1::jsonb
		WHERE id = $2
	`, string(raw), userID)
	return affectedOne(res, err, "save questionnaire", userID)
}

// LogFinalFeedback appends a timestamped entry to the participant's feedback log
func (r *ParticipantRepositoryImpl) LogFinalFeedback(ctx context.Context, userID, feedback string) error {
	raw, err := json.Marshal(models.FeedbackLog{{
		Timestamp: r.now().UTC().Format(feedbackTimeLayout),
		Feedback:  feedback,
	}})
	if err != nil {
		return fmt.Errorf("encode feedback: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET feedback = COALESCE(feedback, '[]'::jsonb) || $1::jsonb
		WHERE id = $2
	`, string(raw), userID)
	return affectedOne(res, err, "log feedback", userID)
}

// LogCompleted marks the participant as finished
func (r *ParticipantRepositoryImpl) LogCompleted(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET completed = true
		WHERE id = $1
	`, userID)
	return affectedOne(res, err, "mark completed", userID)
}

// SetMatrikNum stores the university matriculation number
func (r *ParticipantRepositoryImpl) SetMatrikNum(ctx context.Context, userID, matrikNum string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET matrik_num = $1
		WHERE id = $2
	`, matrikNum, userID)
	return affectedOne(res, err, "set matriculation number", userID)
}

// GetMatrikNum returns the matriculation number, empty when none was stored
func (r *ParticipantRepositoryImpl) GetMatrikNum(ctx context.Context, userID string) (string, error) {
	var matrikNum sql.NullString
	err := r.db.GetContext(ctx, &matrikNum, `
		SELECT matrik_num
		FROM users
		WHERE id = $1
	`, userID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", errors.NotFound("participant " + userID)
	}
	if err != nil {
		return "", errors.DatabaseError(fmt.Sprintf("failed to get matriculation number of %s", userID), err)
	}
	return matrikNum.String, nil
}

// DeleteMatrikNum removes the matriculation number once it is no longer needed
func (r *ParticipantRepositoryImpl) DeleteMatrikNum(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET matrik_num = NULL
		WHERE id = $1
	`, userID)
	return affectedOne(res, err, "delete matriculation number", userID)
}

// SetProlificID stores the crowdsourcing platform id
func (r *ParticipantRepositoryImpl) SetProlificID(ctx context.Context, userID, prolificID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET prolific_id = $1
		WHERE id = $2
	`, prolificID, userID)
	return affectedOne(res, err, "set prolific id", userID)
}

// GetParticipant retrieves the full row of one participant
func (r *ParticipantRepositoryImpl) GetParticipant(ctx context.Context, userID string) (*models.Participant, error) {
	var p models.Participant
	err := r.db.GetContext(ctx, &p, `SELECT `+participantColumns+` FROM users WHERE id = $1`, userID)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("participant " + userID)
	}
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to get participant %s", userID), err)
	}
	return &p, nil
}

// ListParticipants returns all participants, oldest first
func (r *ParticipantRepositoryImpl) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	var participants []*models.Participant
	err := r.db.SelectContext(ctx, &participants, `SELECT `+participantColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, errors.DatabaseError("failed to list participants", err)
	}
	return participants, nil
}

// affectedOne turns an update that matched no participant into a NotFound error
func affectedOne(res sql.Result, err error, op, userID string) error {
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to %s for %s", op, userID), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to %s for %s", op, userID), err)
	}
	if n == 0 {
		return errors.NotFound("participant " + userID)
	}
	return nil
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

package app

import (
	"context"

	"xaistudy/internal"
	"xaistudy/internal/errors"
	"xaistudy/models"
	"xaistudy/ports"

	"github.com/google/uuid"
)

// ParticipantService covers the participant writes made during and at the end of the study
type ParticipantService struct {
	participants ports.ParticipantRepository
	events       ports.EventRepository
	completions  ports.CompletionRepository
	logger       *internal.Logger
}

// NewParticipantService creates a participant service
func NewParticipantService(participants ports.ParticipantRepository, events ports.EventRepository, completions ports.CompletionRepository, logger *internal.Logger) *ParticipantService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ParticipantService{
		participants: participants,
		events:       events,
		completions:  completions,
		logger:       logger.WithField("component", "participant"),
	}
}

// NewUserID mints the id of a new participant
func NewUserID() string {
	return uuid.NewString()
}

// LogEvent appends one interaction event
func (s *ParticipantService) LogEvent(ctx context.Context, userID, source, action string, details map[string]interface{}) error {
	if userID == "" || source == "" || action == "" {
		return errors.ValidationError("user_id, source and action are required")
	}
	return s.events.LogEvent(ctx, userID, source, action, details)
}

// LogFeedback appends the participant's final free-text feedback
func (s *ParticipantService) LogFeedback(ctx context.Context, userID, feedback string) error {
	if userID == "" {
		return errors.ValidationError("user_id is required")
	}
	return s.participants.LogFinalFeedback(ctx, userID, feedback)
}

// Complete marks the participant as finished, then marks the matching university or
// crowdsourcing record so the participant can be compensated
func (s *ParticipantService) Complete(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.ValidationError("user_id is required")
	}
	if err := s.participants.LogCompleted(ctx, userID); err != nil {
		return errors.Wrap(err, "failed to mark participant completed")
	}

	p, err := s.participants.GetParticipant(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "failed to load participant")
	}
	if p.MatrikNum.Valid && p.MatrikNum.String != "" {
		if err := s.completions.AssignFinishedUniParticipant(ctx, p.MatrikNum.String); err != nil {
			return errors.Wrap(err, "failed to mark university participant finished")
		}
	}
	if p.ProlificID.Valid && p.ProlificID.String != "" {
		if err := s.completions.AssignFinishedProlificParticipant(ctx, userID); err != nil {
			return errors.Wrap(err, "failed to mark prolific participant finished")
		}
	}

	s.logger.Info("[Participant] %s completed the study", userID)
	return nil
}

// Get returns the stored participant
func (s *ParticipantService) Get(ctx context.Context, userID string) (*models.Participant, error) {
	return s.participants.GetParticipant(ctx, userID)
}

// MatrikNum returns the stored matriculation number, empty when there is none
func (s *ParticipantService) MatrikNum(ctx context.Context, userID string) (string, error) {
	return s.participants.GetMatrikNum(ctx, userID)
}

// ForgetMatrikNum removes the matriculation number from the participant row. The
// user_completed record used for compensation keeps it.
func (s *ParticipantService) ForgetMatrikNum(ctx context.Context, userID string) error {
	return s.participants.DeleteMatrikNum(ctx, userID)
}

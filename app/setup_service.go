package app

import (
	"context"
	"fmt"

	"xaistudy/internal"
	"xaistudy/internal/errors"
	"xaistudy/ports"
)

// ProfileStudyGroupNameKey is added to every stored profile
const ProfileStudyGroupNameKey = "study_group_name"

// SetupRequest is the body of POST /api/setup. The participant source ids are pointers
// because presence, not value, decides whether the source records are written.
type SetupRequest struct {
	UserID         string                 `json:"user_id"`
	ProfileData    map[string]interface{} `json:"profile_data"`
	StudyGroup     string                 `json:"study_group"`
	Matrikelnummer *string                `json:"matrikelnummer,omitempty"`
	ProlificID     *string                `json:"prolific_id,omitempty"`
}

// SetupService registers a participant at the start of the study
type SetupService struct {
	participants ports.ParticipantRepository
	completions  ports.CompletionRepository
	studyGroups  *StudyGroupService
	logger       *internal.Logger
}

// NewSetupService creates a setup service
func NewSetupService(participants ports.ParticipantRepository, completions ports.CompletionRepository, studyGroups *StudyGroupService, logger *internal.Logger) *SetupService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SetupService{
		participants: participants,
		completions:  completions,
		studyGroups:  studyGroups,
		logger:       logger.WithField("component", "setup"),
	}
}

// Setup stores the profile enriched with the name of the submitted study group, then the
// study group, then the university or crowdsourcing records when their ids were sent. The
// first failing write aborts the remaining steps. No arm is assigned here.
func (s *SetupService) Setup(ctx context.Context, req SetupRequest) error {
	if req.UserID == "" {
		return errors.ValidationError("user_id is required")
	}

	profile := make(map[string]interface{}, len(req.ProfileData)+1)
	for k, v := range req.ProfileData {
		profile[k] = v
	}
	name := s.studyGroups.NameFor(req.StudyGroup)
	if name == "" {
		name = s.studyGroups.StudyGroupName(ctx)
	}
	profile[ProfileStudyGroupNameKey] = name

	if err := s.participants.SetupUserProfile(ctx, req.UserID, profile); err != nil {
		return errors.Wrap(err, "failed to store profile")
	}
	if err := s.participants.SetStudyGroup(ctx, req.UserID, req.StudyGroup); err != nil {
		return errors.Wrap(err, "failed to store study group")
	}

	if req.Matrikelnummer != nil {
		if err := s.completions.CreateUniParticipant(ctx, *req.Matrikelnummer); err != nil {
			return errors.Wrap(err, "failed to create university participant")
		}
		if err := s.participants.SetMatrikNum(ctx, req.UserID, *req.Matrikelnummer); err != nil {
			return errors.Wrap(err, "failed to store matriculation number")
		}
	}
	if req.ProlificID != nil {
		if err := s.completions.CreateProlificParticipant(ctx, req.UserID, *req.ProlificID); err != nil {
			return errors.Wrap(err, "failed to create prolific participant")
		}
		if err := s.participants.SetProlificID(ctx, req.UserID, *req.ProlificID); err != nil {
			return errors.Wrap(err, "failed to store prolific id")
		}
	}

	s.logger.Info("[Setup] participant %s registered in %s", req.UserID, displayGroup(req.StudyGroup))
	return nil
}

func displayGroup(group string) string {
	if group == "" {
		return "no group"
	}
	return fmt.Sprintf("group %q", group)
}

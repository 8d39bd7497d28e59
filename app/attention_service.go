package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"xaistudy/domain/attention"
	"xaistudy/internal/errors"
	"xaistudy/ports"
)

// AttentionStatus summarises the embedded checks of one participant
type AttentionStatus struct {
	TwoFailed           bool `json:"two_failed"`
	ComprehensionFailed bool `json:"comprehension_failed"`
	FailedCount         int  `json:"failed_count"`
}

// AttentionService records attention checks and evaluates them
type AttentionService struct {
	completions     ports.CompletionRepository
	comprehensionID string
}

// NewAttentionService creates an attention service. An empty comprehensionID selects the
// default comprehension check.
func NewAttentionService(completions ports.CompletionRepository, comprehensionID string) *AttentionService {
	comprehensionID = strings.TrimSpace(comprehensionID)
	if comprehensionID == "" {
		comprehensionID = attention.DefaultComprehensionCheckID
	}
	return &AttentionService{completions: completions, comprehensionID: comprehensionID}
}

// LogCheck stores the participant's answer to one check
func (s *AttentionService) LogCheck(ctx context.Context, userID, checkID string, data json.RawMessage) error {
	if userID == "" {
		return errors.ValidationError("user_id is required")
	}
	if checkID == "" {
		return errors.ValidationError("check_id is required")
	}
	return s.completions.LogAttentionCheck(ctx, userID, checkID, data)
}

// TwoAttentionChecksFailed reports whether two or more attention checks were answered wrong.
// Participants without stored checks have not failed.
func (s *AttentionService) TwoAttentionChecksFailed(ctx context.Context, userID string) (bool, error) {
	checks, err := s.completions.GetAttentionChecks(ctx, userID)
	if err != nil {
		return false, err
	}
	return attention.TwoOrMoreFailed(checks, s.comprehensionID), nil
}

// ComprehensionCheckFailed reports whether the comprehension check was answered wrong
func (s *AttentionService) ComprehensionCheckFailed(ctx context.Context, userID string) (bool, error) {
	checks, err := s.completions.GetAttentionChecks(ctx, userID)
	if err != nil {
		return false, err
	}
	return attention.ComprehensionFailed(checks, s.comprehensionID), nil
}

// Status evaluates all checks of the participant with a single read
func (s *AttentionService) Status(ctx context.Context, userID string) (*AttentionStatus, error) {
	checks, err := s.completions.GetAttentionChecks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attention checks: %w", err)
	}
	return &AttentionStatus{
		TwoFailed:           attention.TwoOrMoreFailed(checks, s.comprehensionID),
		ComprehensionFailed: attention.ComprehensionFailed(checks, s.comprehensionID),
		FailedCount:         attention.FailedCount(checks, s.comprehensionID),
	}, nil
}

package app

import (
	"context"
	"fmt"
	"io"

	"xaistudy/adapters/backend"
	"xaistudy/internal"
	"xaistudy/internal/errors"
	"xaistudy/models"
	"xaistudy/ports"
)

// TestingResponseService records predictions made in the testing phase, locally and at the
// experiment backend
type TestingResponseService struct {
	events  ports.EventRepository
	backend *backend.Client
	logger  *internal.Logger
}

// NewTestingResponseService creates a testing response service
func NewTestingResponseService(events ports.EventRepository, client *backend.Client, logger *internal.Logger) *TestingResponseService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &TestingResponseService{
		events:  events,
		backend: client,
		logger:  logger.WithField("component", "testing_response"),
	}
}

// Record stores the prediction in log_entries, then forwards it to the backend
func (s *TestingResponseService) Record(ctx context.Context, entry *models.TestingResponse) error {
	if entry.UserID == "" {
		return errors.ValidationError("user_id is required")
	}
	if entry.DatapointCount < 0 {
		return errors.ValidationError("datapoint_count must not be negative")
	}

	if err := s.events.LogTestingResponse(ctx, entry); err != nil {
		return errors.Wrap(err, "failed to log testing response")
	}

	resp, err := s.backend.ForSession(entry.UserID, "", "").SetUserPrediction(ctx, entry.Response, entry.DatapointCount)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("[TestingResponse] backend rejected prediction of %s: http %d", entry.UserID, resp.StatusCode)
		return errors.ExternalServiceError("backend", fmt.Errorf("set_user_prediction http %d", resp.StatusCode))
	}
	return nil
}

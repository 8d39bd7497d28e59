package testkit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"xaistudy/domain/attention"
	"xaistudy/internal/errors"
	"xaistudy/models"
)

// InMemoryStore implements the participant, event and completion repositories with the same
// merge and append semantics as the PostgreSQL adapters
type InMemoryStore struct {
	mu           sync.RWMutex
	participants map[string]*models.Participant
	events       []*models.Event
	testing      []models.TestingResponse
	completions  []*completionRow
	now          func() time.Time
}

type completionRow struct {
	UserID          string
	MatrikNum       string
	ProlificID      string
	AttentionChecks map[string]json.RawMessage
	Completed       bool
}

// NewInMemoryStore creates an empty store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		participants: make(map[string]*models.Participant),
		now:          time.Now,
	}
}

func (s *InMemoryStore) participant(userID string) (*models.Participant, error) {
	p, ok := s.participants[userID]
	if !ok {
		return nil, errors.NotFound("participant " + userID)
	}
	return p, nil
}

func (s *InMemoryStore) SetupUserProfile(ctx context.Context, userID string, profile map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.participants[userID]; exists {
		return errors.WithCode(errors.CodeInvalidInput, fmt.Errorf("participant %s already exists", userID))
	}
	p := &models.Participant{
		ID:             userID,
		Profile:        models.JSONBMap{},
		Questionnaires: models.JSONBMap{},
		Feedback:       models.FeedbackLog{},
		CreatedAt:      s.now(),
	}
	for k, v := range profile {
		p.Profile[k] = v
	}
	s.participants[userID] = p
	return nil
}

func (s *InMemoryStore) SetStudyGroup(ctx context.Context, userID, studyGroup string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.participant(userID)
	if err != nil {
		return err
	}
	p.StudyGroup = sql.NullString{String: studyGroup, Valid: true}
	return nil
}

func (s *InMemoryStore) CountCompleted(ctx context.Context, studyGroup string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.participants {
		if p.Completed && p.StudyGroup.Valid && p.StudyGroup.String == studyGroup {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) SaveQuestionnaireAnswers(ctx context.Context, userID, name string, questions []string, answers []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.participant(userID)
	if err != nil {
		return err
	}
	if name == "" {
		name = "exit"
	}
	p.Questionnaires[name] = models.QuestionnaireAnswers{Questions: questions, Answers: answers}
	return nil
}

func (s *InMemoryStore) LogFinalFeedback(ctx context.Context, userID, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.participant(userID)
	if err != nil {
		return err
	}
	p.Feedback = append(p.Feedback, models.FeedbackEntry{
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Feedback:  feedback,
	})
	return nil
}

func (s *InMemoryStore) LogCompleted(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.participant(userID)
	if err != nil {
		return err
	}
	p.Completed = true
	return nil
}

func (s *InMemoryStore) SetMatrikNum(ctx context.Context, userID, matrikNum string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.participant(userID)
	if err != nil {
		return err
	}
	p.MatrikNum = sql.NullString{String: matrikNum, Valid: true}
	return nil
}

func (s *InMemoryStore) GetMatrikNum(ctx context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.participant(userID)
	if err != nil {
		return "", err
	}
	return p.MatrikNum.String, nil
}

func (s *InMemoryStore) DeleteMatrikNum(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.participant(userID)
	if err != nil {
		return err
	}
	p.MatrikNum = sql.NullString{}
	return nil
}

func (s *InMemoryStore) SetProlificID(ctx context.Context, userID, prolificID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.participant(userID)
	if err != nil {
		return err
	}
	p.ProlificID = sql.NullString{String: prolificID, Valid: true}
	return nil
}

func (s *InMemoryStore) GetParticipant(ctx context.Context, userID string) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, err := s.participant(userID)
	if err != nil {
		return nil, err
	}
	clone := *p
	return &clone, nil
}

func (s *InMemoryStore) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) LogEvent(ctx context.Context, userID, source, action string, details map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.participant(userID); err != nil {
		return err
	}
	d := models.JSONBMap{}
	for k, v := range details {
		d[k] = v
	}
	s.events = append(s.events, &models.Event{
		ID:        int64(len(s.events) + 1),
		UserID:    userID,
		Source:    source,
		Action:    action,
		Details:   d,
		CreatedAt: s.now(),
	})
	return nil
}

func (s *InMemoryStore) LogTestingResponse(ctx context.Context, entry *models.TestingResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.Timestamp == "" {
		entry.Timestamp = s.now().UTC().Format("2006-01-02T15:04:05")
	}
	s.testing = append(s.testing, *entry)
	return nil
}

func (s *InMemoryStore) ListEvents(ctx context.Context, userID string) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Event
	for _, e := range s.events {
		if userID == "" || e.UserID == userID {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

// TestingResponses returns the stored testing-phase predictions
func (s *InMemoryStore) TestingResponses() []models.TestingResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TestingResponse(nil), s.testing...)
}

func (s *InMemoryStore) completionByUser(userID string) *completionRow {
	for _, row := range s.completions {
		if row.UserID == userID {
			return row
		}
	}
	return nil
}

func (s *InMemoryStore) LogAttentionCheck(ctx context.Context, userID, checkID string, data json.RawMessage) error {
	if !json.Valid(data) {
		return errors.InvalidInput("attention check data is not valid JSON")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.completionByUser(userID)
	if row == nil {
		row = &completionRow{UserID: userID}
		s.completions = append(s.completions, row)
	}
	if row.AttentionChecks == nil {
		row.AttentionChecks = make(map[string]json.RawMessage)
	}
	row.AttentionChecks[checkID] = append(json.RawMessage(nil), data...)
	return nil
}

func (s *InMemoryStore) GetAttentionChecks(ctx context.Context, userID string) (attention.Checks, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.completionByUser(userID)
	if row == nil || row.AttentionChecks == nil {
		return nil, nil
	}
	raw, err := json.Marshal(row.AttentionChecks)
	if err != nil {
		return nil, err
	}
	var checks attention.Checks
	if err := json.Unmarshal(raw, &checks); err != nil {
		return nil, err
	}
	return checks, nil
}

func (s *InMemoryStore) CreateUniParticipant(ctx context.Context, matrikNum string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions = append(s.completions, &completionRow{MatrikNum: matrikNum})
	return nil
}

func (s *InMemoryStore) CreateProlificParticipant(ctx context.Context, userID, prolificID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row := s.completionByUser(userID); row != nil {
		row.ProlificID = prolificID
		return nil
	}
	s.completions = append(s.completions, &completionRow{UserID: userID, ProlificID: prolificID})
	return nil
}

func (s *InMemoryStore) AssignFinishedUniParticipant(ctx context.Context, matrikNum string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.completions {
		if row.MatrikNum == matrikNum {
			row.Completed = true
		}
	}
	return nil
}

func (s *InMemoryStore) AssignFinishedProlificParticipant(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row := s.completionByUser(userID); row != nil {
		row.Completed = true
	}
	return nil
}

// CompletionFinished reports whether a user_completed row matching the user id or
// matriculation number was marked finished
func (s *InMemoryStore) CompletionFinished(userID, matrikNum string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.completions {
		if (userID != "" && row.UserID == userID) || (matrikNum != "" && row.MatrikNum == matrikNum) {
			return row.Completed
		}
	}
	return false
}

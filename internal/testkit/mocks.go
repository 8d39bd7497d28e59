package testkit

import (
	"context"
	"encoding/json"

	"xaistudy/domain/attention"
	"xaistudy/models"

	"github.com/stretchr/testify/mock"
)

// MockParticipantRepository is a testify mock of ports.ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) SetupUserProfile(ctx context.Context, userID string, profile map[string]interface{}) error {
	args := m.Called(ctx, userID, profile)
	return args.Error(0)
}

func (m *MockParticipantRepository) SetStudyGroup(ctx context.Context, userID, studyGroup string) error {
	args := m.Called(ctx, userID, studyGroup)
	return args.Error(0)
}

func (m *MockParticipantRepository) CountCompleted(ctx context.Context, studyGroup string) (int, error) {
	args := m.Called(ctx, studyGroup)
	return args.Int(0), args.Error(1)
}

func (m *MockParticipantRepository) SaveQuestionnaireAnswers(ctx context.Context, userID, name string, questions []string, answers []int) error {
	args := m.Called(ctx, userID, name, questions, answers)
	return args.Error(0)
}

func (m *MockParticipantRepository) LogFinalFeedback(ctx context.Context, userID, feedback string) error {
	args := m.Called(ctx, userID, feedback)
	return args.Error(0)
}

func (m *MockParticipantRepository) LogCompleted(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockParticipantRepository) SetMatrikNum(ctx context.Context, userID, matrikNum string) error {
	args := m.Called(ctx, userID, matrikNum)
	return args.Error(0)
}

func (m *MockParticipantRepository) GetMatrikNum(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockParticipantRepository) DeleteMatrikNum(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockParticipantRepository) SetProlificID(ctx context.Context, userID, prolificID string) error {
	args := m.Called(ctx, userID, prolificID)
	return args.Error(0)
}

func (m *MockParticipantRepository) GetParticipant(ctx context.Context, userID string) (*models.Participant, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*models.Participant)
	return p, args.Error(1)
}

func (m *MockParticipantRepository) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	args := m.Called(ctx)
	ps, _ := args.Get(0).([]*models.Participant)
	return ps, args.Error(1)
}

// MockEventRepository is a testify mock of ports.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) LogEvent(ctx context.Context, userID, source, action string, details map[string]interface{}) error {
	args := m.Called(ctx, userID, source, action, details)
	return args.Error(0)
}

func (m *MockEventRepository) LogTestingResponse(ctx context.Context, entry *models.TestingResponse) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEventRepository) ListEvents(ctx context.Context, userID string) ([]*models.Event, error) {
	args := m.Called(ctx, userID)
	events, _ := args.Get(0).([]*models.Event)
	return events, args.Error(1)
}

// MockCompletionRepository is a testify mock of ports.CompletionRepository
type MockCompletionRepository struct {
	mock.Mock
}

func (m *MockCompletionRepository) LogAttentionCheck(ctx context.Context, userID, checkID string, data json.RawMessage) error {
	args := m.Called(ctx, userID, checkID, data)
	return args.Error(0)
}

func (m *MockCompletionRepository) GetAttentionChecks(ctx context.Context, userID string) (attention.Checks, error) {
	args := m.Called(ctx, userID)
	checks, _ := args.Get(0).(attention.Checks)
	return checks, args.Error(1)
}

func (m *MockCompletionRepository) CreateUniParticipant(ctx context.Context, matrikNum string) error {
	args := m.Called(ctx, matrikNum)
	return args.Error(0)
}

func (m *MockCompletionRepository) CreateProlificParticipant(ctx context.Context, userID, prolificID string) error {
	args := m.Called(ctx, userID, prolificID)
	return args.Error(0)
}

func (m *MockCompletionRepository) AssignFinishedUniParticipant(ctx context.Context, matrikNum string) error {
	args := m.Called(ctx, matrikNum)
	return args.Error(0)
}

func (m *MockCompletionRepository) AssignFinishedProlificParticipant(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

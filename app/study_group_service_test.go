package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"xaistudy/internal"
	"xaistudy/internal/config"
	"xaistudy/internal/metrics"
	"xaistudy/internal/testkit"
)

var quietLogger = internal.NewLogger(internal.LogLevelError)

func TestBalance(t *testing.T) {
	tests := []struct {
		static, interactive int
		want                string
	}{
		{static: 0, interactive: 0, want: "interactive"},
		{static: 5, interactive: 5, want: "interactive"},
		{static: 5, interactive: 4, want: "interactive"},
		{static: 3, interactive: 4, want: "static"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Balance(tt.static, tt.interactive), "static=%d interactive=%d", tt.static, tt.interactive)
	}
}

func TestStudyGroupFixedSelection(t *testing.T) {
	repo := new(testkit.MockParticipantRepository)
	tests := map[string]string{
		"":            "chat",
		"undefined":   "chat",
		"null":        "chat",
		"static":      "static",
		"interactive": "interactive",
		"pilot-arm":   "pilot-arm",
	}
	for selection, want := range tests {
		svc := NewStudyGroupService(repo, config.StudyConfig{ABSelection: selection}, nil, quietLogger)
		assert.Equal(t, want, svc.StudyGroup(context.Background()), "selection %q", selection)
	}
	repo.AssertNotCalled(t, "CountCompleted", mock.Anything, mock.Anything)
}

func TestStudyGroupAlternate(t *testing.T) {
	repo := new(testkit.MockParticipantRepository)
	repo.On("CountCompleted", mock.Anything, "static").Return(5, nil)
	repo.On("CountCompleted", mock.Anything, "interactive").Return(4, nil)
	m := metrics.New()

	svc := NewStudyGroupService(repo, config.StudyConfig{ABSelection: "alternate"}, m, quietLogger)
	assert.Equal(t, "interactive", svc.StudyGroup(context.Background()))
	repo.AssertExpectations(t)

	// a preview hands nothing out
	count, err := testutil.GatherAndCount(m.Registry, "xaistudy_study_group_assignments_total")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAssignDecidesOnceAndCounts(t *testing.T) {
	repo := new(testkit.MockParticipantRepository)
	repo.On("CountCompleted", mock.Anything, "static").Return(5, nil).Once()
	repo.On("CountCompleted", mock.Anything, "interactive").Return(4, nil).Once()
	m := metrics.New()

	svc := NewStudyGroupService(repo, config.StudyConfig{ABSelection: "alternate"}, m, quietLogger)
	group, name := svc.Assign(context.Background())
	assert.Equal(t, "interactive", group)
	assert.Equal(t, "interactive", name)
	repo.AssertExpectations(t)

	expected := `
# HELP xaistudy_study_group_assignments_total Study group assignments by arm and whether the fallback arm was used.
# TYPE xaistudy_study_group_assignments_total counter
xaistudy_study_group_assignments_total{fallback="false",group="interactive"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "xaistudy_study_group_assignments_total"))
}

func TestAssignUsesConfiguredName(t *testing.T) {
	repo := new(testkit.MockParticipantRepository)
	m := metrics.New()

	svc := NewStudyGroupService(repo, config.StudyConfig{GroupName: "wave-2"}, m, quietLogger)
	group, name := svc.Assign(context.Background())
	assert.Equal(t, "chat", group)
	assert.Equal(t, "wave-2", name)

	expected := `
# HELP xaistudy_study_group_assignments_total Study group assignments by arm and whether the fallback arm was used.
# TYPE xaistudy_study_group_assignments_total counter
xaistudy_study_group_assignments_total{fallback="true",group="chat"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "xaistudy_study_group_assignments_total"))
}

func TestStudyGroupAlternatePicksStatic(t *testing.T) {
	repo := new(testkit.MockParticipantRepository)
	repo.On("CountCompleted", mock.Anything, "static").Return(3, nil)
	repo.On("CountCompleted", mock.Anything, "interactive").Return(4, nil)

	svc := NewStudyGroupService(repo, config.StudyConfig{ABSelection: "alternate"}, nil, quietLogger)
	assert.Equal(t, "static", svc.StudyGroup(context.Background()))
}

func TestStudyGroupFallsBackToChatOnError(t *testing.T) {
	repo := new(testkit.MockParticipantRepository)
	repo.On("CountCompleted", mock.Anything, "static").Return(0, errors.New("connection refused"))
	repo.On("CountCompleted", mock.Anything, "interactive").Return(2, nil).Maybe()

	svc := NewStudyGroupService(repo, config.StudyConfig{ABSelection: "alternate"}, metrics.New(), quietLogger)
	assert.Equal(t, "chat", svc.StudyGroup(context.Background()))
}

func TestStudyGroupName(t *testing.T) {
	repo := new(testkit.MockParticipantRepository)

	named := NewStudyGroupService(repo, config.StudyConfig{ABSelection: "static", GroupName: "spring-cohort"}, nil, quietLogger)
	assert.Equal(t, "spring-cohort", named.StudyGroupName(context.Background()))

	unnamed := NewStudyGroupService(repo, config.StudyConfig{ABSelection: "static"}, nil, quietLogger)
	assert.Equal(t, "static", unnamed.StudyGroupName(context.Background()))
	assert.Equal(t, "chat", unnamed.NameFor("chat"))
	assert.Equal(t, "spring-cohort", named.NameFor("chat"))
}

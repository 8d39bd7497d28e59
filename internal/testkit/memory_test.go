package testkit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xaistudy/internal/errors"
	"xaistudy/ports"
)

var (
	_ ports.ParticipantRepository = (*InMemoryStore)(nil)
	_ ports.EventRepository       = (*InMemoryStore)(nil)
	_ ports.CompletionRepository  = (*InMemoryStore)(nil)

	_ ports.ParticipantRepository = (*MockParticipantRepository)(nil)
	_ ports.EventRepository       = (*MockEventRepository)(nil)
	_ ports.CompletionRepository  = (*MockCompletionRepository)(nil)
)

func TestInMemoryStoreMergesQuestionnaires(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.SetupUserProfile(ctx, "u-1", map[string]interface{}{"age": 30}))
	require.NoError(t, store.SaveQuestionnaireAnswers(ctx, "u-1", "", []string{"a"}, []int{1}))
	require.NoError(t, store.SaveQuestionnaireAnswers(ctx, "u-1", "understanding", []string{"b"}, []int{2}))

	p, err := store.GetParticipant(ctx, "u-1")
	require.NoError(t, err)
	assert.Contains(t, p.Questionnaires, "exit")
	assert.Contains(t, p.Questionnaires, "understanding")
}

func TestInMemoryStoreUnknownParticipant(t *testing.T) {
	store := NewInMemoryStore()
	err := store.SetStudyGroup(context.Background(), "ghost", "static")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestInMemoryStoreAttentionChecksMergeByKey(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.LogAttentionCheck(ctx, "u-1", "2", json.RawMessage(`{"selected":"a","correct":"b"}`)))
	require.NoError(t, store.LogAttentionCheck(ctx, "u-1", "3", json.RawMessage(`{"selected":"a","correct":"a"}`)))
	require.NoError(t, store.LogAttentionCheck(ctx, "u-1", "2", json.RawMessage(`{"selected":"b","correct":"b"}`)))

	checks, err := store.GetAttentionChecks(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, checks, 2)
	assert.True(t, checks["2"].Passed())
}

package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xaistudy/adapters/excel"
)

func TestExportWorkbook(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()
	require.NoError(t, store.SetStudyGroup(ctx, "u-1", "static"))
	require.NoError(t, store.SetMatrikNum(ctx, "u-1", "123456"))
	require.NoError(t, store.LogEvent(ctx, "u-1", "ui", "start", nil))

	var buf bytes.Buffer
	require.NoError(t, NewExportService(store, store).WriteWorkbook(ctx, &buf))

	participants, err := excel.ReadSheet(bytes.NewReader(buf.Bytes()), "Participants")
	require.NoError(t, err)
	require.Len(t, participants, 2)
	assert.Equal(t, participantHeaders, participants[0])
	assert.Equal(t, "u-1", participants[1][0])
	assert.Equal(t, "static", participants[1][1])
	assert.NotContains(t, participants[1], "123456")

	events, err := excel.ReadSheet(bytes.NewReader(buf.Bytes()), "Events")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "start", events[1][3])
}

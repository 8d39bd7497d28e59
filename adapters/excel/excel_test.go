package excel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWorkbookRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	err := WriteWorkbook(&buf,
		Sheet{Name: "Participants", Headers: []string{"id", "study_group"}, Rows: [][]string{{"u-1", "static"}, {"u-2", "chat"}}},
		Sheet{Name: "Events", Headers: []string{"id", "action"}, Rows: [][]string{{"1", "start"}}},
	)
	require.NoError(t, err)

	participants, err := ReadSheet(bytes.NewReader(buf.Bytes()), "Participants")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"id", "study_group"}, {"u-1", "static"}, {"u-2", "chat"}}, participants)

	events, err := ReadSheet(bytes.NewReader(buf.Bytes()), "Events")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"id", "action"}, {"1", "start"}}, events)

	_, err = ReadSheet(bytes.NewReader(buf.Bytes()), "Sheet1")
	assert.Error(t, err)
}

func TestWriteWorkbookNeedsSheets(t *testing.T) {
	assert.Error(t, WriteWorkbook(&bytes.Buffer{}))
}

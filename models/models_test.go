package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONBMapScan(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  JSONBMap
	}{
		{"nil", nil, JSONBMap{}},
		{"empty bytes", []byte{}, JSONBMap{}},
		{"bytes", []byte(`{"age":31}`), JSONBMap{"age": float64(31)}},
		{"string", `{"study_group_name":"chat"}`, JSONBMap{"study_group_name": "chat"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m JSONBMap
			require.NoError(t, m.Scan(tt.input))
			assert.Equal(t, tt.want, m)
		})
	}
}

func TestJSONBMapScanRejectsUnknownType(t *testing.T) {
	var m JSONBMap
	assert.Error(t, m.Scan(42))
}

func TestFeedbackLogScan(t *testing.T) {
	var log FeedbackLog
	require.NoError(t, log.Scan([]byte(`[{"timestamp":"t1","feedback":"fine"},{"timestamp":"t2","feedback":"long"}]`)))
	assert.Len(t, log, 2)
	assert.Equal(t, "long", log[1].Feedback)

	require.NoError(t, log.Scan([]byte(`{"timestamp":"t0","feedback":"single"}`)))
	assert.Equal(t, FeedbackLog{{Timestamp: "t0", Feedback: "single"}}, log)

	require.NoError(t, log.Scan(nil))
	assert.Empty(t, log)
}

func TestFeedbackLogValue(t *testing.T) {
	v, err := FeedbackLog(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}

func TestDemographicsFromProfile(t *testing.T) {
	d := DemographicsFromProfile(JSONBMap{
		"age":              float64(31),
		"gender":           "female",
		"ml_knowledge":     "low",
		"education":        42,
		"study_group_name": "chat",
	})
	assert.Equal(t, Demographics{Age: 31, Gender: "female", MLKnowledge: "low"}, d)

	assert.Equal(t, 25, DemographicsFromProfile(JSONBMap{"age": " 25 "}).Age)
	assert.Equal(t, Demographics{}, DemographicsFromProfile(nil))
}

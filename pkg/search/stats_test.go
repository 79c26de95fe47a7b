package search

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAggTimestamp(t *testing.T) {

	value := 1717243200000.0 // 2024-06-01T12:00:00Z in epoch millis

	parsed := parseAggTimestamp(maxAggregation{
		Value:         &value,
		ValueAsString: "2024-06-01T12:00:00Z",
	})
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), parsed.UTC())

	// Without a string representation the epoch-millis value is used.
	parsed = parseAggTimestamp(maxAggregation{Value: &value})
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), parsed.UTC())
}

func TestAggregationEnvelope_Decode(t *testing.T) {

	payload := `{
		"aggregations": {
			"file_types": {
				"buckets": [
					{"key": "txt", "doc_count": 12},
					{"key": "pdf", "doc_count": 3}
				]
			},
			"total_size": {"value": 2097152.0},
			"last_indexed": {"value": 1717243200000, "value_as_string": "2024-06-01T12:00:00Z"}
		}
	}`

	var envelope aggregationEnvelope
	require.NoError(t, json.Unmarshal([]byte(payload), &envelope))

	require.Len(t, envelope.Aggregations.FileTypes.Buckets, 2)
	assert.Equal(t, "txt", envelope.Aggregations.FileTypes.Buckets[0].Key)
	assert.Equal(t, int64(12), envelope.Aggregations.FileTypes.Buckets[0].DocCount)
	assert.Equal(t, 2097152.0, envelope.Aggregations.TotalSize.Value)
	require.NotNil(t, envelope.Aggregations.LastIndexed.Value)
}

func TestErrorStats(t *testing.T) {

	stats := errorStats()

	assert.Equal(t, int64(0), stats.TotalDocuments)
	assert.NotNil(t, stats.DocumentsByType)
	assert.Nil(t, stats.LastIndexed)
	assert.Equal(t, 1, stats.IndexingErrors)
}

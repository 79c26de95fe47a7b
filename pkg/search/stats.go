package search

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/doclens/doclens/pkg/model"
)

// Stats computes aggregate index state: total documents, counts by format,
// total stored size and the most recent indexing timestamp. Any backend
// failure yields zeroed stats with one recorded error, never a Go error.
func (c *Client) Stats(ctx context.Context) model.IndexingStats {

	countRes, err := c.es.Count(
		c.es.Count.WithContext(ctx),
		c.es.Count.WithIndex(c.index),
	)
	if err != nil {
		c.logger.Errorf("Count query failed: %v", err)
		return errorStats()
	}
	defer countRes.Body.Close()
	if countRes.IsError() {
		c.logger.Errorf("Count query failed: %s", countRes.String())
		return errorStats()
	}

	var count struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(countRes.Body).Decode(&count); err != nil {
		c.logger.Errorf("Could not decode count response: %v", err)
		return errorStats()
	}

	aggsBody := map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			"file_types": map[string]interface{}{
				"terms": map[string]interface{}{"field": "metadata.file_type"},
			},
			"total_size": map[string]interface{}{
				"sum": map[string]interface{}{"field": "metadata.file_size"},
			},
			"last_indexed": map[string]interface{}{
				"max": map[string]interface{}{"field": "indexed_at"},
			},
		},
	}
	payload, err := json.Marshal(aggsBody)
	if err != nil {
		c.logger.Errorf("Could not encode aggregation query: %v", err)
		return errorStats()
	}

	aggsRes, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		c.logger.Errorf("Aggregation query failed: %v", err)
		return errorStats()
	}
	defer aggsRes.Body.Close()
	if aggsRes.IsError() {
		c.logger.Errorf("Aggregation query failed: %s", aggsRes.String())
		return errorStats()
	}

	var aggs aggregationEnvelope
	if err := json.NewDecoder(aggsRes.Body).Decode(&aggs); err != nil {
		c.logger.Errorf("Could not decode aggregation response: %v", err)
		return errorStats()
	}

	documentsByType := map[model.FileType]int64{}
	for _, bucket := range aggs.Aggregations.FileTypes.Buckets {
		documentsByType[model.FileType(bucket.Key)] = bucket.DocCount
	}

	totalSizeMb := aggs.Aggregations.TotalSize.Value / (1024 * 1024)

	var lastIndexed *time.Time
	if aggs.Aggregations.LastIndexed.Value != nil {
		if parsed := parseAggTimestamp(aggs.Aggregations.LastIndexed); parsed != nil {
			lastIndexed = parsed
		}
	}

	return model.IndexingStats{
		TotalDocuments:  count.Count,
		DocumentsByType: documentsByType,
		TotalSizeMb:     totalSizeMb,
		LastIndexed:     lastIndexed,
		IndexingErrors:  0,
	}
}

type maxAggregation struct {
	Value         *float64 `json:"value"`
	ValueAsString string   `json:"value_as_string"`
}

type aggregationEnvelope struct {
	Aggregations struct {
		FileTypes struct {
			Buckets []struct {
				Key      string `json:"key"`
				DocCount int64  `json:"doc_count"`
			} `json:"buckets"`
		} `json:"file_types"`
		TotalSize struct {
			Value float64 `json:"value"`
		} `json:"total_size"`
		LastIndexed maxAggregation `json:"last_indexed"`
	} `json:"aggregations"`
}

func parseAggTimestamp(agg maxAggregation) *time.Time {
	if agg.ValueAsString != "" {
		if parsed, err := time.Parse(time.RFC3339, agg.ValueAsString); err == nil {
			return &parsed
		}
	}
	// Fall back to the epoch-millis value.
	millis := int64(*agg.Value)
	parsed := time.Unix(millis/1000, (millis%1000)*int64(time.Millisecond)).UTC()
	return &parsed
}

func errorStats() model.IndexingStats {
	return model.IndexingStats{
		TotalDocuments:  0,
		DocumentsByType: map[model.FileType]int64{},
		TotalSizeMb:     0,
		LastIndexed:     nil,
		IndexingErrors:  1,
	}
}

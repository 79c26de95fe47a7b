package search

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/doclens/doclens/pkg/config"
	"github.com/doclens/doclens/pkg/model"
)

// BuildSearchQuery translates a SearchQuery into the engine's query body.
// Scoring is the engine's job; this only decides what matches, what is
// filtered, and how hits are highlighted and ordered.
func BuildSearchQuery(query *model.SearchQuery, cfg *config.SearchConfig) map[string]interface{} {

	limit := query.Limit
	if limit <= 0 {
		limit = cfg.DefaultLimit
	}
	if limit > cfg.MaxLimit {
		limit = cfg.MaxLimit
	}

	minScore := cfg.MinScore
	if query.MinScore != nil {
		minScore = *query.MinScore
	}

	// Filters live in the filter context so they never influence scoring.
	filters := []map[string]interface{}{}
	if query.FileType != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"metadata.file_type": query.FileType},
		})
	}

	return map[string]interface{}{
		"size":      limit,
		"min_score": minScore,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{
						"multi_match": map[string]interface{}{
							"query": query.Query,
							"fields": []string{
								"content^2",
								"metadata.file_name.text^1.5",
								"metadata.csv_columns^1.2",
							},
							"type":      "best_fields",
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": filters,
			},
		},
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				"content": map[string]interface{}{
					"fragment_size":       cfg.HighlightFragmentSize,
					"number_of_fragments": cfg.HighlightFragments,
					"max_analyzed_offset": cfg.MaxAnalyzedOffset,
				},
			},
			"pre_tags":  []string{"<mark>"},
			"post_tags": []string{"</mark>"},
		},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"metadata.modified_at": map[string]interface{}{"order": "desc"}},
		},
	}
}

type documentSource struct {
	Content   string                 `json:"content"`
	Metadata  model.DocumentMetadata `json:"metadata"`
	IndexedAt time.Time              `json:"indexed_at"`
}

type searchHit struct {
	ID        string              `json:"_id"`
	Score     float64             `json:"_score"`
	Source    documentSource      `json:"_source"`
	Highlight map[string][]string `json:"highlight"`
}

type searchEnvelope struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

// Search runs a ranked query. Backend failures are logged and yield a valid
// zero-hit response, never an error; search must not take the caller down.
func (c *Client) Search(ctx context.Context, query *model.SearchQuery) *model.SearchResponse {

	startTime := time.Now()

	body := BuildSearchQuery(query, &c.cfg.Search)
	payload, err := json.Marshal(body)
	if err != nil {
		c.logger.Errorf("Could not encode search query: %v", err)
		return emptyResponse(query, startTime)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		c.logger.Errorf("Search request failed: %v", err)
		return emptyResponse(query, startTime)
	}
	defer res.Body.Close()

	if res.IsError() {
		c.logger.Errorf("Search request failed: %s", res.String())
		return emptyResponse(query, startTime)
	}

	var envelope searchEnvelope
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		c.logger.Errorf("Could not decode search response: %v", err)
		return emptyResponse(query, startTime)
	}

	return &model.SearchResponse{
		Query:           query.Query,
		TotalHits:       envelope.Hits.Total.Value,
		Results:         c.decodeSearchResults(envelope.Hits.Hits),
		ExecutionTimeMs: time.Since(startTime).Milliseconds(),
	}
}

func (c *Client) decodeSearchResults(hits []searchHit) []model.SearchResult {

	results := make([]model.SearchResult, 0, len(hits))
	for _, hit := range hits {
		metadata := hit.Source.Metadata

		// Missing highlight data is normal (e.g. a pure file name match).
		highlights := hit.Highlight["content"]
		if highlights == nil {
			highlights = []string{}
		}

		auxiliary := map[string]interface{}{
			"file_size":  metadata.FileSize,
			"created_at": metadata.CreatedAt,
		}
		if metadata.PageCount != nil {
			auxiliary["page_count"] = *metadata.PageCount
		}
		if metadata.CSVRows != nil {
			auxiliary["csv_rows"] = *metadata.CSVRows
		}

		results = append(results, model.SearchResult{
			DocumentID: hit.ID,
			FileName:   metadata.FileName,
			FileType:   metadata.FileType,
			URL:        c.publicURL(metadata.StoragePath),
			Score:      hit.Score,
			Highlights: highlights,
			Metadata:   auxiliary,
		})
	}
	return results
}

func emptyResponse(query *model.SearchQuery, startTime time.Time) *model.SearchResponse {
	return &model.SearchResponse{
		Query:           query.Query,
		TotalHits:       0,
		Results:         []model.SearchResult{},
		ExecutionTimeMs: time.Since(startTime).Milliseconds(),
	}
}

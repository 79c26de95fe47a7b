package model

type SearchQuery struct {
	Query    string   `json:"q"`
	Limit    int      `json:"limit"`
	FileType FileType `json:"file_type,omitempty"`

	// MinScore overrides the configured floor when set. An explicit 0 is
	// meaningful (no floor at all), which is why this is a pointer.
	MinScore *float64 `json:"min_score,omitempty"`
}

type SearchResult struct {
	DocumentID string                 `json:"document_id"`
	FileName   string                 `json:"file_name"`
	FileType   FileType               `json:"file_type"`
	URL        string                 `json:"url"`
	Score      float64                `json:"score"`
	Highlights []string               `json:"highlights"`
	Metadata   map[string]interface{} `json:"metadata"`
}

type SearchResponse struct {
	Query           string         `json:"query"`
	TotalHits       int64          `json:"total_hits"`
	Results         []SearchResult `json:"results"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
}

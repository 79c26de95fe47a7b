package model

import "time"

type IndexingStats struct {
	TotalDocuments  int64              `json:"total_documents"`
	DocumentsByType map[FileType]int64 `json:"documents_by_type"`
	TotalSizeMb     float64            `json:"total_size_mb"`
	LastIndexed     *time.Time         `json:"last_indexed,omitempty"`
	IndexingErrors  int                `json:"indexing_errors"`
}

// PipelineStats are the run-scoped counters accumulated by the indexing
// orchestrator. They reset at the start of every full reindex.
type PipelineStats struct {
	DocumentsProcessed int      `json:"documents_processed"`
	DocumentsIndexed   int      `json:"documents_indexed"`
	DocumentsFailed    int      `json:"documents_failed"`
	ProcessingErrors   []string `json:"processing_errors"`
	IndexingErrors     []string `json:"indexing_errors"`
}

type Status struct {
	IndexingStats  IndexingStats   `json:"indexing_stats"`
	PipelineStats  PipelineStats   `json:"pipeline_stats"`
	ServicesHealth map[string]bool `json:"services_health"`
}

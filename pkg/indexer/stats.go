package indexer

import (
	"sync"

	"github.com/doclens/doclens/pkg/model"
)

// runStats guards the run-scoped pipeline counters. Workers from several
// goroutines report into it, so every mutation takes the lock.
type runStats struct {
	mu sync.Mutex
	s  model.PipelineStats
}

func (r *runStats) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s = model.PipelineStats{}
}

func (r *runStats) AddProcessed(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.DocumentsProcessed += n
}

func (r *runStats) AddIndexed(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.DocumentsIndexed += n
}

func (r *runStats) RecordProcessingFailure(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.DocumentsFailed++
	r.s.ProcessingErrors = append(r.s.ProcessingErrors, message)
}

func (r *runStats) RecordIndexingFailure(count int, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.DocumentsFailed += count
	r.s.IndexingErrors = append(r.s.IndexingErrors, message)
}

func (r *runStats) Snapshot() model.PipelineStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.s
	snapshot.ProcessingErrors = append([]string(nil), r.s.ProcessingErrors...)
	snapshot.IndexingErrors = append([]string(nil), r.s.IndexingErrors...)
	return snapshot
}

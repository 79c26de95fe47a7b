package indexer

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/doclens/doclens/pkg/config"
	"github.com/doclens/doclens/pkg/extract"
	"github.com/doclens/doclens/pkg/model"
	"github.com/doclens/doclens/pkg/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// ObjectStore is the slice of the object store the indexing pipeline needs.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]storage.BlobRef, error)
	Download(ctx context.Context, ref storage.BlobRef) ([]byte, error)
	Exists(ctx context.Context, objectPath string) (bool, error)
	Delete(ctx context.Context, objectPath string) (bool, error)
	Health(ctx context.Context) bool
}

// SearchEngine is the slice of the search backend the pipeline drives.
type SearchEngine interface {
	EnsureIndex(ctx context.Context) bool
	BulkWrite(ctx context.Context, documents []*model.Document) (int, []string)
	DeleteByID(ctx context.Context, documentID string) bool
	FindIDByPath(ctx context.Context, storagePath string) (string, string, bool)
	FindSimilarPaths(ctx context.Context, fileName string) []string
	ClearIndex(ctx context.Context) bool
	Refresh(ctx context.Context) bool
	Stats(ctx context.Context) model.IndexingStats
	Health(ctx context.Context) bool
}

type batchProcessor interface {
	ProcessBatch(ctx context.Context, files []extract.FileData) []*model.Document
}

// Indexer orchestrates the pipeline from object store to search index:
// discovery, batched downloads, concurrent extraction, bulk writes. It owns
// the run-scoped pipeline counters.
//
// Concurrent full reindexes are not mutually excluded here; callers must
// serialize them, a clear racing another rebuild can lose documents.
type Indexer struct {
	store     ObjectStore
	engine    SearchEngine
	batches   batchProcessor
	bucket    string
	batchSize int
	downloads int
	logger    *logrus.Entry
	stats     runStats
}

func CreateIndexer(logger *logrus.Entry, cfg *config.Config, store ObjectStore, engine SearchEngine) *Indexer {
	return &Indexer{
		store:     store,
		engine:    engine,
		batches:   extract.CreateBatchProcessor(logger, cfg, cfg.Performance.MaxConcurrent),
		bucket:    cfg.Storage.Bucket,
		batchSize: cfg.Performance.BatchSize,
		downloads: cfg.Performance.MaxConcurrent,
		logger:    logger,
	}
}

// Initialize bootstraps the index schema and probes the object store. Both
// are allowed to fail; the service starts degraded rather than not at all.
func (idx *Indexer) Initialize(ctx context.Context) bool {

	indexReady := idx.engine.EnsureIndex(ctx)
	if !indexReady {
		idx.logger.Warn("Search index could not be initialized, continuing degraded")
	}

	if !idx.store.Health(ctx) {
		idx.logger.Warn("Object store health check failed, indexing will be unavailable until it recovers")
	}

	return indexReady
}

// FullReindex wipes the index and rebuilds it from every eligible object in
// the store. The wipe is best effort: a failed clear is logged and the run
// proceeds, idempotent document ids make the rebuild an overwrite.
func (idx *Indexer) FullReindex(ctx context.Context) model.IndexingStats {

	idx.logger.Info("Starting full reindex")
	startTime := time.Now()
	idx.stats.Reset()

	if !idx.engine.ClearIndex(ctx) {
		idx.logger.Warn("Could not clear existing index, continuing anyway")
	}

	refs, err := idx.store.List(ctx, "")
	if err != nil {
		idx.logger.Errorf("Object discovery failed: %v", err)
		idx.stats.RecordProcessingFailure(fmt.Sprintf("discovery failed: %v", err))
		return idx.engine.Stats(ctx)
	}
	if len(refs) == 0 {
		idx.logger.Warn("No eligible objects found in bucket")
		return idx.engine.Stats(ctx)
	}

	idx.runBatches(ctx, refs)

	idx.engine.Refresh(ctx)
	idx.logger.Infof("Full reindex completed in %s", time.Since(startTime).Round(time.Millisecond))
	return idx.engine.Stats(ctx)
}

// IncrementalReindex indexes the given paths without clearing the index
// first. Missing paths are skipped with a warning. With no paths it falls
// back to full discovery.
func (idx *Indexer) IncrementalReindex(ctx context.Context, paths []string) model.IndexingStats {

	idx.logger.Infof("Starting incremental reindex (%d paths)", len(paths))

	var refs []storage.BlobRef
	if len(paths) > 0 {
		for _, objectPath := range paths {
			exists, err := idx.store.Exists(ctx, objectPath)
			if err != nil {
				idx.logger.Warnf("Could not check %s: %v", objectPath, err)
				continue
			}
			if !exists {
				idx.logger.Warnf("Object not found in store, skipping: %s", objectPath)
				continue
			}
			refs = append(refs, storage.BlobRef{Path: objectPath})
		}
	} else {
		var err error
		refs, err = idx.store.List(ctx, "")
		if err != nil {
			idx.logger.Errorf("Object discovery failed: %v", err)
			idx.stats.RecordProcessingFailure(fmt.Sprintf("discovery failed: %v", err))
			return idx.engine.Stats(ctx)
		}
	}

	if len(refs) == 0 {
		idx.logger.Info("No objects to index")
		return idx.engine.Stats(ctx)
	}

	idx.runBatches(ctx, refs)

	idx.engine.Refresh(ctx)
	return idx.engine.Stats(ctx)
}

// runBatches partitions refs into fixed-size batches and runs them in
// discovery order. Cancellation is coarse: the context is only checked at
// batch boundaries.
func (idx *Indexer) runBatches(ctx context.Context, refs []storage.BlobRef) {

	totalBatches := (len(refs) + idx.batchSize - 1) / idx.batchSize
	for batchIdx := 0; batchIdx < totalBatches; batchIdx++ {
		if ctx.Err() != nil {
			idx.logger.Warnf("Reindex cancelled after %d/%d batches", batchIdx, totalBatches)
			return
		}

		start := batchIdx * idx.batchSize
		end := start + idx.batchSize
		if end > len(refs) {
			end = len(refs)
		}

		idx.logger.Infof("Processing batch %d/%d (%d objects)", batchIdx+1, totalBatches, end-start)
		idx.processBatch(ctx, refs[start:end])
	}
}

// processBatch runs one batch through download, extraction and bulk write.
// Every per-document failure is accounted and contained here.
func (idx *Indexer) processBatch(ctx context.Context, refs []storage.BlobRef) {

	files := idx.downloadBatch(ctx, refs)
	if len(files) == 0 {
		idx.logger.Warn("No objects successfully downloaded in batch")
		return
	}

	idx.stats.AddProcessed(len(files))

	documents := idx.batches.ProcessBatch(ctx, files)

	var valid []*model.Document
	for i, document := range documents {
		if document == nil {
			idx.stats.RecordProcessingFailure(fmt.Sprintf("processing failed: %s", files[i].StoragePath))
			continue
		}
		valid = append(valid, document)
	}

	if len(valid) == 0 {
		return
	}

	successCount, failedIDs := idx.engine.BulkWrite(ctx, valid)
	idx.stats.AddIndexed(successCount)
	if len(failedIDs) > 0 {
		idx.stats.RecordIndexingFailure(len(failedIDs), fmt.Sprintf("failed to index %d documents", len(failedIDs)))
	}
}

// downloadBatch fans downloads out under the same concurrency bound as
// extraction. Failed downloads leave gaps that are compacted away, so the
// surviving order still matches discovery order.
func (idx *Indexer) downloadBatch(ctx context.Context, refs []storage.BlobRef) []extract.FileData {

	slots := make([]*extract.FileData, len(refs))
	sem := semaphore.NewWeighted(int64(idx.downloads))

	var wg sync.WaitGroup
	for i := range refs {
		wg.Add(1)
		go func(slot int, ref storage.BlobRef) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			content, err := idx.store.Download(ctx, ref)
			if err != nil {
				idx.logger.Warnf("Failed to download %s: %v", ref.Path, err)
				idx.stats.RecordProcessingFailure(fmt.Sprintf("download failed: %s", ref.Path))
				return
			}
			slots[slot] = &extract.FileData{
				Content:     content,
				FileName:    path.Base(ref.Path),
				StoragePath: ref.Path,
			}
		}(i, refs[i])
	}
	wg.Wait()

	var files []extract.FileData
	for _, slot := range slots {
		if slot != nil {
			files = append(files, *slot)
		}
	}
	return files
}

// DeleteDocument removes the indexed document for a store path. Historical
// runs stored paths in more than one shape, so the lookup walks an ordered
// list of candidate representations; this is a compatibility shim for
// legacy data, new writes always store the bare object key.
func (idx *Indexer) DeleteDocument(ctx context.Context, storagePath string) bool {

	idx.logger.Infof("Attempting to delete document: %s", storagePath)

	for _, candidate := range idx.deleteCandidates(storagePath) {
		documentID, actualPath, found := idx.engine.FindIDByPath(ctx, candidate)
		if !found {
			continue
		}

		idx.logger.Infof("Found document to delete: %s (id %s)", actualPath, documentID)
		return idx.engine.DeleteByID(ctx, documentID)
	}

	// Nothing matched exactly; log near-misses to help diagnose stale or
	// oddly-shaped paths, then report not found.
	if similar := idx.engine.FindSimilarPaths(ctx, path.Base(storagePath)); len(similar) > 0 {
		idx.logger.Warnf("Document not found for deletion: %s (similar paths: %v)", storagePath, similar)
	} else {
		idx.logger.Warnf("Document not found for deletion: %s", storagePath)
	}
	return false
}

func (idx *Indexer) deleteCandidates(storagePath string) []string {

	candidates := []string{storagePath}
	if strings.HasPrefix(storagePath, "s3://") {
		candidates = append(candidates, path.Base(storagePath))
	} else {
		candidates = append(candidates, fmt.Sprintf("s3://%s/%s", idx.bucket, storagePath))
	}
	return candidates
}

// PurgeDocument removes both the index entry and the stored object itself.
// The two removals are independent; the purge reports success if either side
// had something to remove.
func (idx *Indexer) PurgeDocument(ctx context.Context, storagePath string) bool {

	indexDeleted := idx.DeleteDocument(ctx, storagePath)

	removed, err := idx.store.Delete(ctx, storagePath)
	if err != nil {
		idx.logger.Errorf("Failed to delete object %s from store: %v", storagePath, err)
		return indexDeleted
	}
	return indexDeleted || removed
}

// Stats returns the aggregate index state.
func (idx *Indexer) Stats(ctx context.Context) model.IndexingStats {
	return idx.engine.Stats(ctx)
}

// PipelineStats returns a snapshot of the run-scoped counters.
func (idx *Indexer) PipelineStats() model.PipelineStats {
	return idx.stats.Snapshot()
}

// Status bundles index stats, pipeline counters and dependency health. It
// stays answerable even when both backends are down.
func (idx *Indexer) Status(ctx context.Context) model.Status {
	return model.Status{
		IndexingStats: idx.engine.Stats(ctx),
		PipelineStats: idx.stats.Snapshot(),
		ServicesHealth: map[string]bool{
			"elasticsearch": idx.engine.Health(ctx),
			"storage":       idx.store.Health(ctx),
		},
	}
}

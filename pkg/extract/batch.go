package extract

import (
	"context"
	"sync"

	"github.com/doclens/doclens/pkg/config"
	"github.com/doclens/doclens/pkg/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// FileData is one unit of batch work: the downloaded bytes plus where they
// came from.
type FileData struct {
	Content     []byte
	FileName    string
	StoragePath string
}

type documentProcessor interface {
	ProcessDocument(raw []byte, fileName string, storagePath string) (*model.Document, error)
}

// BatchProcessor fans document processing out across a bounded number of
// workers. Results keep the input order; a failed item leaves a nil slot and
// never disturbs its siblings.
type BatchProcessor struct {
	processor documentProcessor
	sem       *semaphore.Weighted
	logger    *logrus.Entry
}

func CreateBatchProcessor(logger *logrus.Entry, cfg *config.Config, maxConcurrent int) *BatchProcessor {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &BatchProcessor{
		processor: CreateProcessor(logger, cfg),
		sem:       semaphore.NewWeighted(int64(maxConcurrent)),
		logger:    logger,
	}
}

func (b *BatchProcessor) ProcessBatch(ctx context.Context, files []FileData) []*model.Document {

	results := make([]*model.Document, len(files))

	var wg sync.WaitGroup
	for i := range files {
		wg.Add(1)
		go func(slot int, file FileData) {
			defer wg.Done()

			if err := b.sem.Acquire(ctx, 1); err != nil {
				b.logger.Warnf("Skipping %s, batch cancelled: %v", file.FileName, err)
				return
			}
			defer b.sem.Release(1)

			// A panicking extractor must not take the batch down with it.
			defer func() {
				if r := recover(); r != nil {
					b.logger.Errorf("Panic while processing %s: %v", file.FileName, r)
				}
			}()

			document, err := b.processor.ProcessDocument(file.Content, file.FileName, file.StoragePath)
			if err != nil {
				b.logger.Warnf("Failed to process %s: %v", file.FileName, err)
				return
			}
			results[slot] = document
		}(i, files[i])
	}
	wg.Wait()

	return results
}

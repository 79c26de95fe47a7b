package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/doclens/doclens/pkg/config"
	"github.com/doclens/doclens/pkg/model"
	"github.com/sirupsen/logrus"
)

// Processor turns one downloaded file into an index-ready Document: size
// gate, format gate, extraction, then metadata/id assembly.
type Processor struct {
	cfg    *config.Config
	logger *logrus.Entry
}

func CreateProcessor(logger *logrus.Entry, cfg *config.Config) *Processor {
	return &Processor{
		cfg:    cfg,
		logger: logger,
	}
}

func (p *Processor) ProcessDocument(raw []byte, fileName string, storagePath string) (*model.Document, error) {

	fileSize := int64(len(raw))
	if fileSize > p.cfg.Processing.MaxFileSizeBytes() {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrSizeLimitExceeded, fileName, fileSize)
	}

	fileType, err := DetectFileType(fileName, p.cfg.Processing.SupportedFormats)
	if err != nil {
		return nil, fmt.Errorf("detecting format of %s: %w", fileName, err)
	}

	extractor, err := ForFileType(fileType, &p.cfg.Processing, p.logger)
	if err != nil {
		return nil, err
	}

	content, meta, err := extractor.Extract(raw)
	if err != nil {
		return nil, fmt.Errorf("extracting content of %s: %w", fileName, err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyContent, fileName)
	}

	now := time.Now().UTC()
	contentHash := model.ContentHash(raw)

	document := &model.Document{
		ID: model.DocumentID(storagePath, contentHash),
		Metadata: model.DocumentMetadata{
			FileName:    fileName,
			FileType:    fileType,
			FileSize:    fileSize,
			CreatedAt:   now,
			ModifiedAt:  now,
			StoragePath: storagePath,
			ContentHash: contentHash,

			PageCount:       meta.PageCount,
			ImageDimensions: meta.ImageDimensions,
			CSVColumns:      meta.CSVColumns,
			CSVRows:         meta.CSVRows,
		},
		Content:   content,
		IndexedAt: now,
	}

	p.logger.Debugf("Processed document %s (%s, %d chars)", fileName, fileType, len(content))
	return document, nil
}

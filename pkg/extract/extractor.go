package extract

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/doclens/doclens/pkg/config"
	"github.com/doclens/doclens/pkg/model"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrSizeLimitExceeded = errors.New("file exceeds size limit")
	ErrEmptyContent      = errors.New("no content extracted")
)

// Metadata carries the format-specific facts an extractor learned about a
// file. Only the fields for one format are ever populated.
type Metadata struct {
	PageCount       *int
	ImageDimensions *model.ImageDimensions
	CSVColumns      []string
	CSVRows         *int
}

// Extractor converts the raw bytes of one file into plain text plus
// format-specific metadata. Extractors have no side effects beyond warnings
// in the log; empty text means "nothing worth indexing" and is handled by
// the caller, not treated as an error.
type Extractor interface {
	Extract(raw []byte) (string, Metadata, error)
}

// ForFileType selects the extractor for a format. The switch is exhaustive
// over the closed FileType set, adding a format without an extractor is a
// compile-time hole here rather than a runtime surprise.
func ForFileType(fileType model.FileType, cfg *config.ProcessingConfig, logger *logrus.Entry) (Extractor, error) {
	switch fileType {
	case model.FileTypeTxt:
		return &textExtractor{}, nil
	case model.FileTypeCsv:
		return &csvExtractor{maxRows: cfg.CSV.MaxRows, sampleRows: cfg.CSV.SampleRows}, nil
	case model.FileTypePdf:
		return &pdfExtractor{maxPages: cfg.PDF.MaxPages, logger: logger}, nil
	case model.FileTypePng:
		return &imageExtractor{language: cfg.OCR.Language, logger: logger}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileType)
	}
}

// DetectFileType derives the format from the file name suffix and validates
// it against the configured allow-list. Unsupported suffixes are rejected
// here, before any bytes are touched.
func DetectFileType(fileName string, supportedFormats []string) (model.FileType, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))

	allowed := false
	for _, format := range supportedFormats {
		if ext == format {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}

	fileType, ok := model.FileTypeFromExtension(ext)
	if !ok {
		return "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}
	return fileType, nil
}

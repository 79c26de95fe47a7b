package model

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

type FileType string

const (
	FileTypeTxt FileType = "txt"
	FileTypeCsv FileType = "csv"
	FileTypePdf FileType = "pdf"
	FileTypePng FileType = "png"
)

// FileTypeFromExtension maps a lowercased file extension (without the dot) to
// its FileType. The second return value is false for anything outside the
// closed set of supported formats.
func FileTypeFromExtension(ext string) (FileType, bool) {
	switch FileType(ext) {
	case FileTypeTxt:
		return FileTypeTxt, true
	case FileTypeCsv:
		return FileTypeCsv, true
	case FileTypePdf:
		return FileTypePdf, true
	case FileTypePng:
		return FileTypePng, true
	default:
		return "", false
	}
}

type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DocumentMetadata is persisted alongside the extracted content and mirrors
// the index mapping. Field names must stay stable across releases, existing
// documents are matched against them during deletes and reindexing.
type DocumentMetadata struct {
	FileName    string    `json:"file_name"`
	FileType    FileType  `json:"file_type"`
	FileSize    int64     `json:"file_size"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
	StoragePath string    `json:"storage_path"`
	ContentHash string    `json:"content_hash"`

	// Format specific fields, only one group is ever populated.
	PageCount       *int             `json:"page_count,omitempty"`
	ImageDimensions *ImageDimensions `json:"image_dimensions,omitempty"`
	CSVColumns      []string         `json:"csv_columns,omitempty"`
	CSVRows         *int             `json:"csv_rows,omitempty"`
}

type Document struct {
	ID        string           `json:"-"`
	Metadata  DocumentMetadata `json:"metadata"`
	Content   string           `json:"content"`
	IndexedAt time.Time        `json:"indexed_at"`
}

// ContentHash returns the sha256 hex digest of the raw file bytes.
func ContentHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// DocumentID derives the deterministic index id for a document. Re-ingesting
// unchanged content at the same path yields the same id, so index writes are
// idempotent upserts. The derivation (md5 of "path:sha256hex") must never
// change, it is the dedupe contract with every previously indexed document.
func DocumentID(storagePath string, contentHash string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%s", storagePath, contentHash)))
	return hex.EncodeToString(sum[:])
}

package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
	"github.com/unidoc/unipdf/v3/extractor"
	pdfmodel "github.com/unidoc/unipdf/v3/model"
)

// pdfExtractor tries a layout-aware extraction first and falls back to a
// simpler page-by-page pass for documents the primary parser chokes on.
// Extraction stops at maxPages, but the reported page count is always the
// true total.
type pdfExtractor struct {
	maxPages int
	logger   *logrus.Entry
}

func (e *pdfExtractor) Extract(raw []byte) (string, Metadata, error) {

	content, pageCount, err := e.extractLayoutAware(raw)
	if err != nil {
		e.logger.Warnf("Layout-aware PDF extraction failed, falling back to plain text pass: %v", err)
		content, pageCount, err = e.extractPlainText(raw)
		if err != nil {
			return "", Metadata{}, fmt.Errorf("extracting pdf content: %w", err)
		}
	}

	return strings.TrimSpace(content), Metadata{PageCount: &pageCount}, nil
}

func (e *pdfExtractor) extractLayoutAware(raw []byte) (string, int, error) {

	reader, err := pdfmodel.NewPdfReader(bytes.NewReader(raw))
	if err != nil {
		return "", 0, fmt.Errorf("opening pdf: %w", err)
	}

	pageCount, err := reader.GetNumPages()
	if err != nil {
		return "", 0, fmt.Errorf("counting pdf pages: %w", err)
	}

	var contentParts []string
	for i := 1; i <= min(pageCount, e.maxPages); i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return "", 0, fmt.Errorf("loading page %d: %w", i, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return "", 0, fmt.Errorf("creating extractor for page %d: %w", i, err)
		}
		pageText, err := ex.ExtractText()
		if err != nil {
			return "", 0, fmt.Errorf("extracting text from page %d: %w", i, err)
		}
		if pageText != "" {
			contentParts = append(contentParts, pageText)
		}
	}

	return strings.Join(contentParts, "\n\n"), pageCount, nil
}

func (e *pdfExtractor) extractPlainText(raw []byte) (string, int, error) {

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", 0, fmt.Errorf("opening pdf: %w", err)
	}

	pageCount := reader.NumPage()

	var contentParts []string
	for i := 1; i <= min(pageCount, e.maxPages); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warnf("Skipping unreadable pdf page %d: %v", i, err)
			continue
		}
		if pageText != "" {
			contentParts = append(contentParts, pageText)
		}
	}

	return strings.Join(contentParts, "\n\n"), pageCount, nil
}

func min(a int, b int) int {
	if a < b {
		return a
	}
	return b
}

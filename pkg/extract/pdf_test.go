package extract

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPdf assembles a minimal valid PDF with one line of text per page.
// Object layout: 1 catalog, 2 page tree, 3 font, then the page objects and
// their content streams.
func buildPdf(t *testing.T, pageTexts []string) []byte {
	t.Helper()

	pageCount := len(pageTexts)

	var kids []string
	for i := 0; i < pageCount; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 4+i))
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pageCount),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	for i := 0; i < pageCount; i++ {
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			4+pageCount+i))
	}
	for _, text := range pageTexts {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefOffset)

	return buf.Bytes()
}

func testPdfExtractor(maxPages int) *pdfExtractor {
	return &pdfExtractor{
		maxPages: maxPages,
		logger:   logrus.New().WithField("type", "test"),
	}
}

func TestPdfExtractor_AllPages(t *testing.T) {

	raw := buildPdf(t, []string{"alpha", "bravo", "charlie"})

	content, meta, err := testPdfExtractor(100).Extract(raw)
	require.NoError(t, err)

	require.NotNil(t, meta.PageCount)
	assert.Equal(t, 3, *meta.PageCount)
	assert.Contains(t, content, "alpha")
	assert.Contains(t, content, "bravo")
	assert.Contains(t, content, "charlie")
}

func TestPdfExtractor_PageCap(t *testing.T) {

	raw := buildPdf(t, []string{"alpha", "bravo", "charlie"})

	content, meta, err := testPdfExtractor(2).Extract(raw)
	require.NoError(t, err)

	// The reported count is the true total even though extraction stopped
	// at the cap.
	require.NotNil(t, meta.PageCount)
	assert.Equal(t, 3, *meta.PageCount)
	assert.Contains(t, content, "alpha")
	assert.Contains(t, content, "bravo")
	assert.NotContains(t, content, "charlie")
}

func TestPdfExtractor_PlainTextFallback(t *testing.T) {

	raw := buildPdf(t, []string{"alpha", "bravo", "charlie"})

	content, pageCount, err := testPdfExtractor(2).extractPlainText(raw)
	require.NoError(t, err)

	assert.Equal(t, 3, pageCount)
	assert.Contains(t, content, "alpha")
	assert.NotContains(t, content, "charlie")
}

func TestPdfExtractor_InvalidInput(t *testing.T) {

	_, _, err := testPdfExtractor(10).Extract([]byte("not a pdf"))
	assert.Error(t, err)
}

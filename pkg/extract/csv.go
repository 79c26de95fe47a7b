package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// csvExtractor renders tabular data as searchable text: the column list, a
// handful of sample rows, and every value of the non-numeric columns. Rows
// are read up to maxRows, the reported row count is capped alongside.
type csvExtractor struct {
	maxRows    int
	sampleRows int
}

func (e *csvExtractor) Extract(raw []byte) (string, Metadata, error) {

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	columns, err := reader.Read()
	if err != nil {
		return "", Metadata{}, fmt.Errorf("reading csv header: %w", err)
	}

	var rows [][]string
	for len(rows) < e.maxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", Metadata{}, fmt.Errorf("reading csv row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, record)
	}

	var contentParts []string
	contentParts = append(contentParts, fmt.Sprintf("Columns: %s", strings.Join(columns, ", ")))

	sampleCount := e.sampleRows
	if sampleCount > len(rows) {
		sampleCount = len(rows)
	}
	for i := 0; i < sampleCount; i++ {
		var rowData []string
		for col, name := range columns {
			rowData = append(rowData, fmt.Sprintf("%s: %s", name, cellValue(rows[i], col)))
		}
		contentParts = append(contentParts, strings.Join(rowData, " | "))
	}

	// Text columns contribute every distinct value as an extra searchable
	// line, numeric columns would only add noise.
	for col := range columns {
		if isNumericColumn(rows, col) {
			continue
		}
		for _, row := range rows {
			if value := cellValue(row, col); value != "" {
				contentParts = append(contentParts, value)
			}
		}
	}

	rowCount := len(rows)
	return strings.Join(contentParts, "\n"), Metadata{
		CSVColumns: columns,
		CSVRows:    &rowCount,
	}, nil
}

func cellValue(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// isNumericColumn reports whether every non-empty cell of a column parses as
// a number. Empty columns count as numeric so they contribute nothing.
func isNumericColumn(rows [][]string, col int) bool {
	for _, row := range rows {
		value := cellValue(row, col)
		if value == "" {
			continue
		}
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return false
		}
	}
	return true
}

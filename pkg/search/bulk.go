package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/doclens/doclens/pkg/model"
)

// BulkWrite upserts documents in a single bulk request, keyed by their
// deterministic ids. Returns the number of successful writes and the ids
// that failed; a transport-level failure fails every document.
func (c *Client) BulkWrite(ctx context.Context, documents []*model.Document) (int, []string) {

	if len(documents) == 0 {
		return 0, nil
	}

	body, err := buildBulkBody(c.index, documents)
	if err != nil {
		c.logger.Errorf("Could not encode bulk request: %v", err)
		return 0, documentIDs(documents)
	}

	res, err := c.es.Bulk(bytes.NewReader(body), c.es.Bulk.WithContext(ctx))
	if err != nil {
		c.logger.Errorf("Bulk indexing failed: %v", err)
		return 0, documentIDs(documents)
	}
	defer res.Body.Close()

	if res.IsError() {
		c.logger.Errorf("Bulk indexing failed: %s", res.String())
		return 0, documentIDs(documents)
	}

	var bulkRes bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkRes); err != nil {
		c.logger.Errorf("Could not decode bulk response: %v", err)
		return 0, documentIDs(documents)
	}

	successCount := 0
	var failedIDs []string
	for _, item := range bulkRes.Items {
		result := item["index"]
		if result.Status < 300 {
			successCount++
			continue
		}
		failedIDs = append(failedIDs, result.ID)
		if result.Error != nil {
			c.logger.Errorf("Failed to index document %s: %s: %s", result.ID, result.Error.Type, result.Error.Reason)
		}
	}

	c.logger.Infof("Bulk indexed %d documents, %d failed", successCount, len(failedIDs))
	return successCount, failedIDs
}

type bulkResponse struct {
	Errors bool                          `json:"errors"`
	Items  []map[string]bulkItemResult `json:"items"`
}

type bulkItemResult struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// buildBulkBody renders the newline-delimited action/source pairs of a bulk
// request.
func buildBulkBody(index string, documents []*model.Document) ([]byte, error) {

	var buf bytes.Buffer
	for _, document := range documents {
		action := map[string]interface{}{
			"index": map[string]interface{}{
				"_index": index,
				"_id":    document.ID,
			},
		}
		actionLine, err := json.Marshal(action)
		if err != nil {
			return nil, fmt.Errorf("encoding bulk action for %s: %w", document.ID, err)
		}
		sourceLine, err := json.Marshal(document)
		if err != nil {
			return nil, fmt.Errorf("encoding document %s: %w", document.ID, err)
		}

		buf.Write(actionLine)
		buf.WriteByte('\n')
		buf.Write(sourceLine)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func documentIDs(documents []*model.Document) []string {
	ids := make([]string, 0, len(documents))
	for _, document := range documents {
		ids = append(ids, document.ID)
	}
	return ids
}

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// DeleteByID removes one document by its index-assigned id. A missing
// document reports false, not an error.
func (c *Client) DeleteByID(ctx context.Context, documentID string) bool {

	res, err := c.es.Delete(c.index, documentID, c.es.Delete.WithContext(ctx))
	if err != nil {
		c.logger.Errorf("Delete of document %s failed: %v", documentID, err)
		return false
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		c.logger.Warnf("Document not found for deletion: %s", documentID)
		return false
	}
	if res.IsError() {
		c.logger.Errorf("Delete of document %s failed: %s", documentID, res.String())
		return false
	}

	c.logger.Infof("Deleted document from index: %s", documentID)
	return true
}

// FindIDByPath looks up the document whose stored path exactly matches
// storagePath. It returns the document id and the path as stored.
func (c *Client) FindIDByPath(ctx context.Context, storagePath string) (string, string, bool) {

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"metadata.storage_path": storagePath},
		},
		"size": 1,
	}

	hits, err := c.runLookup(ctx, body)
	if err != nil {
		c.logger.Errorf("Path lookup for %s failed: %v", storagePath, err)
		return "", "", false
	}
	if len(hits) == 0 {
		return "", "", false
	}
	return hits[0].ID, hits[0].Source.Metadata.StoragePath, true
}

// FindSimilarPaths runs a best-effort wildcard lookup around a file name,
// purely to surface near-miss candidates in the logs when an exact delete
// lookup came up empty.
func (c *Client) FindSimilarPaths(ctx context.Context, fileName string) []string {

	body := map[string]interface{}{
		"query": map[string]interface{}{
			"wildcard": map[string]interface{}{
				"metadata.storage_path": fmt.Sprintf("*%s*", fileName),
			},
		},
		"size": 5,
	}

	hits, err := c.runLookup(ctx, body)
	if err != nil {
		c.logger.Debugf("Wildcard lookup for %s failed: %v", fileName, err)
		return nil
	}

	var paths []string
	for _, hit := range hits {
		paths = append(paths, hit.Source.Metadata.StoragePath)
	}
	return paths
}

func (c *Client) runLookup(ctx context.Context, body map[string]interface{}) ([]searchHit, error) {

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("lookup failed: %s", res.String())
	}

	var envelope searchEnvelope
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, err
	}
	return envelope.Hits.Hits, nil
}

// ClearIndex deletes every document in the index, then refreshes so the
// wipe is immediately visible. Best effort.
func (c *Client) ClearIndex(ctx context.Context) bool {

	res, err := c.es.DeleteByQuery(
		[]string{c.index},
		strings.NewReader(`{"query": {"match_all": {}}}`),
		c.es.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		c.logger.Errorf("Clearing index failed: %v", err)
		return false
	}
	defer res.Body.Close()

	if res.IsError() {
		c.logger.Errorf("Clearing index failed: %s", res.String())
		return false
	}

	c.Refresh(ctx)
	c.logger.Infof("Cleared all documents from index: %s", c.index)
	return true
}

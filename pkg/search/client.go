package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/doclens/doclens/pkg/config"
	"github.com/elastic/go-elasticsearch/v7"
	"github.com/gobuffalo/packr"
	"github.com/sirupsen/logrus"
)

// Client owns every interaction with the Elasticsearch backend: schema
// bootstrap, bulk writes, queries, deletes, and aggregations. Construct it
// once and share it, the underlying transport is safe for concurrent use.
type Client struct {
	es       *elasticsearch.Client
	index    string
	cfg      *config.Config
	mappings packr.Box

	// publicURL renders the stable download URL for a stored object path,
	// it belongs to the object store but search results carry it.
	publicURL func(objectPath string) string

	logger *logrus.Entry
}

func CreateClient(logger *logrus.Entry, cfg *config.Config, publicURL func(string) string) (*Client, error) {

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  []string{cfg.Elasticsearch.Endpoint},
		Username:   cfg.Elasticsearch.Username,
		Password:   cfg.Elasticsearch.Password,
		MaxRetries: cfg.Elasticsearch.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}

	return &Client{
		es:        es,
		index:     cfg.Elasticsearch.Index,
		cfg:       cfg,
		mappings:  packr.NewBox("../../static/document-indexer"),
		publicURL: publicURL,
		logger:    logger,
	}, nil
}

// Refresh makes recently written documents visible to subsequent queries.
func (c *Client) Refresh(ctx context.Context) bool {
	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithContext(ctx),
		c.es.Indices.Refresh.WithIndex(c.index),
	)
	if err != nil {
		c.logger.Warnf("Index refresh failed: %v", err)
		return false
	}
	defer res.Body.Close()

	if res.IsError() {
		c.logger.Warnf("Index refresh failed: %s", res.String())
		return false
	}
	return true
}

// Health reports whether the cluster answers and the index exists.
func (c *Client) Health(ctx context.Context) bool {

	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		c.logger.Warnf("Elasticsearch health check failed: %v", err)
		return false
	}
	defer res.Body.Close()
	if res.IsError() {
		return false
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&health); err != nil {
		return false
	}
	if health.Status != "green" && health.Status != "yellow" {
		return false
	}

	exists, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false
	}
	defer exists.Body.Close()
	return exists.StatusCode == 200
}

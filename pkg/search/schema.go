package search

import (
	"bytes"
	"context"
	"encoding/json"
)

// EnsureIndex makes sure the index exists with the bundled mapping and
// settings. It is idempotent and deliberately never returns an error: a
// broken search backend degrades the service, it must not stop it.
func (c *Client) EnsureIndex(ctx context.Context) bool {

	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		c.logger.Warnf("Could not check index existence: %v", err)
		return false
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		c.logger.Debugf("Index %s already exists, skipping", c.index)
		return true
	}

	settings, err := c.indexSettings()
	if err != nil {
		c.logger.Warnf("Could not load index settings: %v", err)
		return false
	}

	createRes, err := c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader(settings)),
	)
	if err != nil {
		c.logger.Warnf("Could not create index %s: %v", c.index, err)
		return false
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		c.logger.Warnf("Could not create index %s: %s", c.index, createRes.String())
		return false
	}

	c.logger.Infof("Created index: %s", c.index)
	return true
}

// indexSettings loads the embedded mapping and applies the configured
// refresh interval.
func (c *Client) indexSettings() ([]byte, error) {

	raw, err := c.mappings.FindString("settings.json")
	if err != nil {
		return nil, err
	}

	var body map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return nil, err
	}

	if settings, ok := body["settings"].(map[string]interface{}); ok {
		settings["refresh_interval"] = c.cfg.Performance.RefreshInterval
	}

	return json.Marshal(body)
}

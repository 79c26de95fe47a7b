package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "documents", cfg.Storage.Bucket)
	assert.Equal(t, "http://localhost:9200", cfg.Elasticsearch.Endpoint)
	assert.Equal(t, "documents", cfg.Elasticsearch.Index)
	assert.Equal(t, 30*time.Second, cfg.Elasticsearch.Timeout())

	assert.Equal(t, 8, cfg.Processing.MaxFileSizeMb)
	assert.Equal(t, int64(8*1024*1024), cfg.Processing.MaxFileSizeBytes())
	assert.Equal(t, []string{"txt", "csv", "pdf", "png"}, cfg.Processing.SupportedFormats)
	assert.Equal(t, "eng", cfg.Processing.OCR.Language)
	assert.Equal(t, 100, cfg.Processing.PDF.MaxPages)
	assert.Equal(t, 10000, cfg.Processing.CSV.MaxRows)

	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 100, cfg.Search.MaxLimit)
	assert.Equal(t, 0.1, cfg.Search.MinScore)

	assert.Equal(t, 10, cfg.Performance.MaxConcurrent)
	assert.Equal(t, 50, cfg.Performance.BatchSize)
	assert.Equal(t, "5s", cfg.Performance.RefreshInterval)
}

func TestLoad_FromFile(t *testing.T) {

	configPath := filepath.Join(t.TempDir(), "doclens.yaml")
	err := os.WriteFile(configPath, []byte(`
app:
  log_level: debug
storage:
  endpoint: https://minio.internal:9000
  bucket: archives
processing:
  max_file_size_mb: 16
search:
  max_limit: 25
filter:
  exclude:
    - ".*"
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "https://minio.internal:9000", cfg.Storage.Endpoint)
	assert.Equal(t, "archives", cfg.Storage.Bucket)
	assert.Equal(t, 16, cfg.Processing.MaxFileSizeMb)
	assert.Equal(t, 25, cfg.Search.MaxLimit)
	assert.Equal(t, []string{".*"}, cfg.Filter.Exclude)

	// Unset keys keep their defaults.
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, "documents", cfg.Elasticsearch.Index)
}

func TestLoad_MissingFile(t *testing.T) {

	_, err := Load("/nonexistent/doclens.yaml")
	assert.Error(t, err)
}

func TestLoad_CredentialFallback(t *testing.T) {

	t.Setenv("MINIO_ACCESS_KEY", "fallback-access")
	t.Setenv("MINIO_SECRET_KEY", "fallback-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "fallback-access", cfg.Storage.AccessKey)
	assert.Equal(t, "fallback-secret", cfg.Storage.SecretKey)
}

func TestLoad_CredentialExpansion(t *testing.T) {

	t.Setenv("TEST_DOCLENS_KEY", "expanded-access")

	configPath := filepath.Join(t.TempDir(), "doclens.yaml")
	err := os.WriteFile(configPath, []byte(`
storage:
  access_key: ${TEST_DOCLENS_KEY}
  secret_key: literal-secret
`), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "expanded-access", cfg.Storage.AccessKey)
	assert.Equal(t, "literal-secret", cfg.Storage.SecretKey)
}

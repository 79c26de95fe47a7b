package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/doclens/doclens/pkg/model"
	"github.com/spf13/viper"
)

// Config is the full configuration bundle. It is constructed once in the
// entrypoint and passed by reference into every component constructor, there
// is no ambient global configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Processing    ProcessingConfig    `mapstructure:"processing"`
	Search        SearchConfig        `mapstructure:"search"`
	Performance   PerformanceConfig   `mapstructure:"performance"`
	Filter        model.Filter        `mapstructure:"filter"`
}

type AppConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
}

type ElasticsearchConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Index      string `mapstructure:"index"`
	MaxRetries int    `mapstructure:"max_retries"`
	TimeoutSec int    `mapstructure:"timeout_seconds"`
}

func (e *ElasticsearchConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSec) * time.Second
}

type OCRConfig struct {
	Language string `mapstructure:"language"`
}

type PDFConfig struct {
	MaxPages int `mapstructure:"max_pages"`
}

type CSVConfig struct {
	MaxRows    int `mapstructure:"max_rows"`
	SampleRows int `mapstructure:"sample_rows"`
}

type ProcessingConfig struct {
	MaxFileSizeMb    int       `mapstructure:"max_file_size_mb"`
	SupportedFormats []string  `mapstructure:"supported_formats"`
	OCR              OCRConfig `mapstructure:"ocr"`
	PDF              PDFConfig `mapstructure:"pdf"`
	CSV              CSVConfig `mapstructure:"csv"`
}

func (p *ProcessingConfig) MaxFileSizeBytes() int64 {
	return int64(p.MaxFileSizeMb) * 1024 * 1024
}

type SearchConfig struct {
	DefaultLimit          int     `mapstructure:"default_limit"`
	MaxLimit              int     `mapstructure:"max_limit"`
	MinScore              float64 `mapstructure:"min_score"`
	HighlightFragments    int     `mapstructure:"highlight_fragments"`
	HighlightFragmentSize int     `mapstructure:"highlight_fragment_size"`
	MaxAnalyzedOffset     int     `mapstructure:"max_analyzed_offset"`
}

type PerformanceConfig struct {
	MaxConcurrent   int    `mapstructure:"max_concurrent"`
	BatchSize       int    `mapstructure:"batch_size"`
	RefreshInterval string `mapstructure:"refresh_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "text")

	v.SetDefault("storage.endpoint", "http://storage:9000")
	v.SetDefault("storage.bucket", "documents")

	v.SetDefault("elasticsearch.endpoint", "http://localhost:9200")
	v.SetDefault("elasticsearch.index", "documents")
	v.SetDefault("elasticsearch.max_retries", 3)
	v.SetDefault("elasticsearch.timeout_seconds", 30)

	v.SetDefault("processing.max_file_size_mb", 8)
	v.SetDefault("processing.supported_formats", []string{"txt", "csv", "pdf", "png"})
	v.SetDefault("processing.ocr.language", "eng")
	v.SetDefault("processing.pdf.max_pages", 100)
	v.SetDefault("processing.csv.max_rows", 10000)
	v.SetDefault("processing.csv.sample_rows", 5)

	v.SetDefault("search.default_limit", 10)
	v.SetDefault("search.max_limit", 100)
	v.SetDefault("search.min_score", 0.1)
	v.SetDefault("search.highlight_fragments", 3)
	v.SetDefault("search.highlight_fragment_size", 150)
	v.SetDefault("search.max_analyzed_offset", 1000000)

	v.SetDefault("performance.max_concurrent", 10)
	v.SetDefault("performance.batch_size", 50)
	v.SetDefault("performance.refresh_interval", "5s")
}

// Load reads the YAML configuration at configPath and overlays environment
// variables (DOCLENS_STORAGE_ACCESS_KEY overrides storage.access_key and so
// on). An empty configPath yields a configuration of pure defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("doclens")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Credentials are commonly provided as ${VAR} references in the YAML or
	// via the conventional MINIO_* variables.
	cfg.Storage.AccessKey = expandCredential(cfg.Storage.AccessKey, "MINIO_ACCESS_KEY")
	cfg.Storage.SecretKey = expandCredential(cfg.Storage.SecretKey, "MINIO_SECRET_KEY")

	return &cfg, nil
}

func expandCredential(value string, fallbackEnv string) string {
	expanded := os.ExpandEnv(value)
	if expanded == "" {
		return os.Getenv(fallbackEnv)
	}
	return expanded
}

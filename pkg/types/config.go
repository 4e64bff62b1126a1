package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds the search request (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-harvest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429/503 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// HarvestConfig holds settings for the retrieval pipeline.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the search endpoint; the built query string is appended
	// verbatim (default "http://export.arxiv.org/api/query?").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Workers is the size of the shared worker pool (default 10).
	Workers int `json:"workers" yaml:"workers"`

	// FetchTimeout bounds each document download and extraction (default 30s).
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout"`

	// MaxDocumentBytes caps the size of a downloaded document (default 64 MiB).
	MaxDocumentBytes int64 `json:"max_document_bytes" yaml:"max_document_bytes"`
}

// FileFormat selects the on-disk encoding of saved records.
type FileFormat string

const (
	FormatJSON FileFormat = "json"
	FormatYAML FileFormat = "yaml"
)

// StoreConfig holds settings for the persistence sinks.
type StoreConfig struct {
	// OutputDir is the directory that receives one file per record
	// (default "ArxivPapers").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Format selects json or yaml record files.
	Format FileFormat `json:"format" yaml:"format"`

	// AddTimestamp appends a YYYYMMDDhhmmss suffix to every file name.
	AddTimestamp bool `json:"timestamp" yaml:"timestamp"`

	// SQLitePath enables the SQLite catalog when non-empty.
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`

	// PostgresDSN enables the Postgres catalog when non-empty.
	PostgresDSN string `json:"postgres_dsn,omitempty" yaml:"postgres_dsn,omitempty"`
}

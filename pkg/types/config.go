package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "ssi-report/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 and 503. Zero uses the httputil default.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// FetchConfig holds settings for the report fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// KeepDir, when set, is where the downloaded PDF is kept after the run.
	// Empty means the PDF lives in a temporary directory and is removed.
	KeepDir string `json:"keep_dir,omitempty" yaml:"keep_dir,omitempty"`
}

// ExtractionBackend identifies the PDF table extraction implementation.
type ExtractionBackend string

const (
	BackendTabula    ExtractionBackend = "tabula"
	BackendContainer ExtractionBackend = "container"
)

// ExtractionConfig holds settings for the table extraction stage.
type ExtractionConfig struct {
	// Backend selects the extractor: tabula or container.
	Backend ExtractionBackend `json:"backend" yaml:"backend"`

	// Image is the container image used by the container backend.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

// DatasetConfig holds settings for the CSV datasets.
type DatasetConfig struct {
	// DataDir is the directory holding the corona_<kind>_data.csv files.
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// HistoryConfig holds settings for the run ledger.
type HistoryConfig struct {
	// Enabled controls whether runs are recorded.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the SQLite database file. Empty means
	// <data_dir>/.ssi-report/history.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// PipelineConfig groups all stage configurations for a run.
type PipelineConfig struct {
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction"`
	Dataset    DatasetConfig    `json:"dataset" yaml:"dataset"`
	History    HistoryConfig    `json:"history" yaml:"history"`
}

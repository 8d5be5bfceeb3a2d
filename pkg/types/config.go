package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "telescan/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the fetch stage.
// Per prd001-retrieval R1.3, R4.1-R4.5.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of articles to return (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableEuropePMC controls whether the Europe PMC backend is queried
	// alongside PubMed E-utilities.
	EnableEuropePMC bool `json:"enable_europepmc" yaml:"enable_europepmc"`

	// EntrezEmail identifies the caller to NCBI E-utilities; NCBI asks
	// for it on every request.
	EntrezEmail string `json:"entrez_email" yaml:"entrez_email"`

	// EntrezAPIKey is an optional NCBI API key for higher rate limits.
	EntrezAPIKey string `json:"entrez_api_key,omitempty" yaml:"entrez_api_key,omitempty"`

	// InterBackendDelay is the delay between calls to different
	// backends (default 1s).
	InterBackendDelay time.Duration `json:"inter_backend_delay" yaml:"inter_backend_delay"`
}

// AcquisitionConfig holds settings for the PDF acquisition stage.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// ArticlesDir is the base directory for articles (contains raw/,
	// text/, metadata/).
	ArticlesDir string `json:"articles_dir" yaml:"articles_dir"`
}

// ConversionBackend identifies the PDF-to-text tool.
type ConversionBackend string

const (
	BackendPdftotext ConversionBackend = "pdftotext"
	BackendPoppler   ConversionBackend = "poppler"
)

// ConversionConfig holds settings for the conversion stage.
type ConversionConfig struct {
	// Backend selects the conversion tool: the local pdftotext binary
	// or a containerized poppler image.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// ArticlesDir is the base directory for articles (contains raw/, text/).
	ArticlesDir string `json:"articles_dir" yaml:"articles_dir"`
}

// AnalysisConfig holds settings for the rule-based analysis stage.
// Per prd002-analysis R1.1, R5.1-R5.3.
type AnalysisConfig struct {
	// ArticlesDir is the base directory for articles (contains text/).
	ArticlesDir string `json:"articles_dir" yaml:"articles_dir"`

	// OutputDir is the base directory for analysis output
	// (contains records/).
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// CurrentYear bounds publication-year extraction; years beyond it
	// are rejected. Zero means the wall-clock year.
	CurrentYear int `json:"current_year,omitempty" yaml:"current_year,omitempty"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API. There is no
	// built-in default; callers must supply one explicitly.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// MeasuresConfig holds settings for the LLM-assisted measure extraction stage.
// Per prd003-llm-measures R2.1-R2.4.
type MeasuresConfig struct {
	AIConfig `yaml:",inline"`

	// WindowSize is the number of leading characters of article text
	// sent to the model (default 4000).
	WindowSize int `json:"window_size" yaml:"window_size"`

	// OutputDir is the directory for per-article measure files.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// StoreConfig holds settings for the corpus database.
type StoreConfig struct {
	// DataDir is the base directory for derived data (contains index/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search      SearchConfig      `json:"search" yaml:"search"`
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition"`
	Conversion  ConversionConfig  `json:"conversion" yaml:"conversion"`
	Analysis    AnalysisConfig    `json:"analysis" yaml:"analysis"`
	Measures    MeasuresConfig    `json:"measures" yaml:"measures"`
	Store       StoreConfig       `json:"store" yaml:"store"`
}

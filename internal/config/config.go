package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"pyscan/internal/diag"
	"pyscan/internal/errors"
)

type Config struct {
	// IndentUnit overrides the inferred indentation unit; 0 means infer
	// from the first indented line of each file.
	IndentUnit int      `toml:"indent_unit"`
	Suppress   []string `toml:"suppress"`

	Paths         Paths         `toml:"paths"`
	Report        Report        `toml:"report"`
	Watch         Watch         `toml:"watch"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
}

type Report struct {
	Format         string `toml:"format"` // text, tsv, sarif, markdown
	TSV            string `toml:"tsv"`    // optional output file paths
	SARIF          string `toml:"sarif"`
	MarkdownFile   string `toml:"markdown_file"`
	MarkdownMarker string `toml:"markdown_marker"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
	Rate     float64       `toml:"rate"` // re-analysis runs per second
	Burst    int           `toml:"burst"`
}

type History struct {
	Path string `toml:"path"` // sqlite file, empty disables history
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`  // empty disables the listener
	OTLPEndpoint string `toml:"otlp_endpoint"` // empty disables trace export
}

func Default() *Config {
	return &Config{
		Paths: Paths{
			ExcludeDirs:  []string{".git", "__pycache__", "venv", ".venv"},
			ExcludeFiles: []string{},
		},
		Report: Report{Format: "text"},
		Watch:  Watch{Debounce: 500 * time.Millisecond, Rate: 2, Burst: 4},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "decode config")
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.Rate <= 0 {
		cfg.Watch.Rate = 2
	}
	if cfg.Watch.Burst <= 0 {
		cfg.Watch.Burst = 4
	}
	if cfg.Report.Format == "" {
		cfg.Report.Format = "text"
	}

	if _, err := cfg.SuppressedCodes(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SuppressedCodes validates and converts the configured suppression list.
func (c *Config) SuppressedCodes() ([]diag.Code, error) {
	codes, err := diag.ParseCodes(c.Suppress)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid suppression list")
	}
	return codes, nil
}

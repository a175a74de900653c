// Package config provides the configuration of tabeval.
//
// The configuration is organized into logical sections:
//   - Evaluation: parallelism, dropped columns and the per-row timeout
//   - Codec: table format, payload compression and CSV options
//   - Observability: logging, metrics and tracing
//
// Example usage:
//
//	cfg := config.Default()
//	cfg.Evaluation.Parallelism = 8
//	cfg.Evaluation.DropColumns = []string{"debug"}
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"time"
	"unicode/utf8"

	"github.com/ajitpratap0/tabeval/pkg/compression"
	"github.com/ajitpratap0/tabeval/pkg/errors"
	"github.com/ajitpratap0/tabeval/pkg/evaluator"
)

// Table formats understood by the codec.
const (
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatArrow = "arrow"
)

// Config is the top-level tabeval configuration.
type Config struct {
	// Name identifies the evaluator in logs, metrics and spans
	Name string `yaml:"name" json:"name"`

	// Evaluation controls how rows are scheduled and projected
	Evaluation EvaluationConfig `yaml:"evaluation" json:"evaluation"`

	// Codec selects the external table rendition
	Codec CodecConfig `yaml:"codec" json:"codec"`

	// Observability settings for monitoring and debugging
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// EvaluationConfig contains batch evaluation settings.
type EvaluationConfig struct {
	// Parallelism is 1 for sequential, -1 for unordered or n > 1 for n workers
	Parallelism int `yaml:"parallelism" json:"parallelism"`
	// DropColumns never appear in the output table
	DropColumns []string `yaml:"drop_columns" json:"drop_columns"`
	// RowTimeout bounds each row transform call (0 = no deadline)
	RowTimeout time.Duration `yaml:"row_timeout" json:"row_timeout"`
}

// CodecConfig contains table encoding settings.
type CodecConfig struct {
	// Format is json, csv or arrow
	Format string `yaml:"format" json:"format"`
	// Compression selects the payload compression (none, gzip, snappy, s2, lz4, zstd, deflate)
	Compression string `yaml:"compression" json:"compression"`
	// CompressionLevel sets compression ratio vs speed (1-9)
	CompressionLevel int `yaml:"compression_level" json:"compression_level"`
	// CSVSeparator is the single-character CSV field delimiter
	CSVSeparator string `yaml:"csv_separator" json:"csv_separator"`
	// ErrorColumn names the column carrying row failures in csv and arrow output
	ErrorColumn string `yaml:"error_column" json:"error_column"`
}

// ObservabilityConfig contains monitoring and observability settings.
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogEncoding is json or console
	LogEncoding string `yaml:"log_encoding" json:"log_encoding"`
	// EnableMetrics activates Prometheus batch metrics
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// EnableTracing activates OpenTelemetry spans
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// TracingSampleRate controls trace sampling (0.0-1.0)
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
}

// Default returns a sequential JSON configuration.
func Default() *Config {
	return &Config{
		Name: "tabeval",
		Evaluation: EvaluationConfig{
			Parallelism: 1,
		},
		Codec: CodecConfig{
			Format:           FormatJSON,
			Compression:      string(compression.None),
			CompressionLevel: int(compression.Default),
			CSVSeparator:     ",",
			ErrorColumn:      "_error",
		},
		Observability: ObservabilityConfig{
			LogLevel:          "info",
			LogEncoding:       "json",
			TracingSampleRate: 1.0,
		},
	}
}

// Validate validates the configuration for correctness.
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.New(errors.ErrorTypeConfig, "name is required")
	}
	if _, err := c.EvaluatorConfig(); err != nil {
		return err
	}

	switch c.Codec.Format {
	case FormatJSON, FormatCSV, FormatArrow:
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unsupported format %q", c.Codec.Format)
	}
	if _, err := compression.ParseAlgorithm(c.Codec.Compression); err != nil {
		return err
	}
	if c.Codec.CompressionLevel < 0 || c.Codec.CompressionLevel > 9 {
		return errors.Newf(errors.ErrorTypeConfig, "compression_level must be between 0 and 9, got %d", c.Codec.CompressionLevel)
	}
	if _, err := c.Codec.Separator(); err != nil {
		return err
	}

	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		return errors.Newf(errors.ErrorTypeConfig, "tracing_sample_rate must be between 0 and 1, got %g", c.Observability.TracingSampleRate)
	}
	return nil
}

// EvaluatorConfig converts the evaluation section into an evaluator
// configuration.
func (c *Config) EvaluatorConfig() (evaluator.Config, error) {
	p, err := evaluator.ParseParallelism(c.Evaluation.Parallelism)
	if err != nil {
		return evaluator.Config{}, err
	}
	cfg := evaluator.Config{
		Name:        c.Name,
		Parallelism: p,
		DropColumns: c.Evaluation.DropColumns,
		RowTimeout:  c.Evaluation.RowTimeout,
	}
	return cfg, cfg.Validate()
}

// CompressionConfig returns the compressor configuration of the codec
// section.
func (c *CodecConfig) CompressionConfig() (*compression.Config, error) {
	algorithm, err := compression.ParseAlgorithm(c.Compression)
	if err != nil {
		return nil, err
	}
	return &compression.Config{
		Algorithm: algorithm,
		Level:     compression.Level(c.CompressionLevel),
	}, nil
}

// Separator returns the CSV delimiter, ',' when unset.
func (c *CodecConfig) Separator() (rune, error) {
	if c.CSVSeparator == "" {
		return ',', nil
	}
	r, size := utf8.DecodeRuneInString(c.CSVSeparator)
	if r == utf8.RuneError || size != len(c.CSVSeparator) || r == '"' || r == '\r' || r == '\n' {
		return 0, errors.Newf(errors.ErrorTypeConfig, "csv_separator must be a single character, got %q", c.CSVSeparator)
	}
	return r, nil
}

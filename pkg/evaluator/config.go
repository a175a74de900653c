package evaluator

import (
	"time"

	"github.com/ajitpratap0/tabeval/pkg/errors"
)

// Config contains evaluator configuration
type Config struct {
	Name        string        // used in logs, metrics and spans
	Parallelism Parallelism   // row scheduling
	DropColumns []string      // output columns never written
	RowTimeout  time.Duration // per-row deadline passed to the transform, 0 disables
}

// DefaultConfig returns a sequential configuration with nothing dropped.
func DefaultConfig() Config {
	return Config{
		Name:        "default",
		Parallelism: Sequential(),
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.Name == "" {
		return errors.New(errors.ErrorTypeConfig, "evaluator name is required")
	}
	if err := c.Parallelism.Validate(); err != nil {
		return err
	}
	if c.RowTimeout < 0 {
		return errors.Newf(errors.ErrorTypeConfig, "row timeout must not be negative, got %s", c.RowTimeout)
	}
	for _, column := range c.DropColumns {
		if column == "" {
			return errors.New(errors.ErrorTypeConfig, "drop columns must not contain an empty name")
		}
	}
	return nil
}

package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/tabeval/pkg/errors"
)

// Load reads a YAML file over the defaults, substituting ${VAR} and
// ${VAR:-default} references from the environment, and validates the
// result.
func Load(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read config file")
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to a YAML file
func Save(filePath string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write config file")
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// ${VAR_NAME:-fallback} uses fallback when the variable is unset or empty.
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		name, fallback, hasFallback := strings.Cut(content[start+2:end], ":-")
		value := os.Getenv(name)
		if value == "" && hasFallback {
			value = fallback
		}

		b.WriteString(content[:start])
		b.WriteString(value)
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}

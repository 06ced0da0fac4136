package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the TaskRiot desktop shell.
// Values come from defaults, an optional YAML file and environment variables.
type Config struct {
	App     AppConfig     `yaml:"app"`
	Paths   PathsConfig   `yaml:"paths"`
	Logging LoggingConfig `yaml:"logging"`
}

// AppConfig identifies the application to the host platform.
type AppConfig struct {
	// Identifier is the reverse-DNS application identifier.
	// It names the per-user application data directory.
	Identifier string `yaml:"identifier"`

	// ProductName is the human-readable product name.
	// On Linux it names the packaged resource directory (/usr/lib/<ProductName>).
	ProductName string `yaml:"product_name"`
}

// PathsConfig overrides the platform-derived directories.
// Empty values mean "use the platform convention".
type PathsConfig struct {
	ResourceDir string `yaml:"resource_dir"`
	DataDir     string `yaml:"data_dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load builds the configuration and validates it.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values, if path is not empty
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TASKRIOT_SECTION_KEY
// For example: TASKRIOT_PATHS_DATA_DIR, TASKRIOT_LOGGING_LEVEL
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for none
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read or parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config matching the packaged desktop build.
func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Identifier:  "com.taskriot.desktop",
			ProductName: "TaskRiot",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TASKRIOT_APP_IDENTIFIER"); v != "" {
		cfg.App.Identifier = v
	}
	if v := os.Getenv("TASKRIOT_APP_PRODUCT_NAME"); v != "" {
		cfg.App.ProductName = v
	}

	if v := os.Getenv("TASKRIOT_PATHS_RESOURCE_DIR"); v != "" {
		cfg.Paths.ResourceDir = v
	}
	if v := os.Getenv("TASKRIOT_PATHS_DATA_DIR"); v != "" {
		cfg.Paths.DataDir = v
	}

	if v := os.Getenv("TASKRIOT_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TASKRIOT_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TASKRIOT_LOGGING_OUTPUT"); v != "" {
		cfg.Logging.Output = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.App.Identifier == "" {
		errs = append(errs, "app.identifier is required")
	} else if strings.ContainsAny(c.App.Identifier, `/\`) || c.App.Identifier == "." || c.App.Identifier == ".." {
		// The identifier becomes a single directory name under the user data dir.
		errs = append(errs, "app.identifier must be a single path segment")
	}

	if c.App.ProductName == "" {
		errs = append(errs, "app.product_name is required")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, "logging.format must be json or text")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "stdout", "stderr":
	default:
		errs = append(errs, "logging.output must be stdout or stderr")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

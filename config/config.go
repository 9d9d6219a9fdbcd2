package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for depscout.
type Config struct {
	GitHub  GitHubConfig  `yaml:"github"`
	Scanner ScannerConfig `yaml:"scanner"`
	Output  OutputConfig  `yaml:"output"`
}

// GitHubConfig holds repository acquisition settings.
type GitHubConfig struct {
	Organization string `yaml:"organization"` // Default owner for bare repo names
	Token        string `yaml:"token"`        // Inline, ${ENV_VAR}, or file path
	WorkDir      string `yaml:"work_dir"`     // Where clones are kept
}

// ScannerConfig tunes the reconciliation pipeline.
type ScannerConfig struct {
	BatchSize  int      `yaml:"batch_size"` // Queries per database batch (max 100)
	Workers    int      `yaml:"workers"`    // Concurrent requests per phase
	Ecosystems []string `yaml:"ecosystems"` // Parser names to enable; empty means all
}

// OutputConfig holds report rendering defaults.
type OutputConfig struct {
	Formats   []string `yaml:"formats"`
	Directory string   `yaml:"directory"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Load reads and parses a configuration file, expanding environment variables
// and resolving token file paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg Config
	if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	cfg.GitHub.Token = resolveToken(cfg.GitHub.Token)
	cfg.applyDefaults()

	if validateErr := validate(&cfg); validateErr != nil {
		return nil, validateErr
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Scanner.BatchSize == 0 {
		c.Scanner.BatchSize = 100
	}
	if c.Scanner.Workers == 0 {
		c.Scanner.Workers = 10
	}
	if len(c.Output.Formats) == 0 {
		c.Output.Formats = []string{"json"}
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "reports"
	}
	if c.GitHub.WorkDir == "" {
		c.GitHub.WorkDir = filepath.Join(os.TempDir(), "depscout")
	}
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".depscout.yaml",
		".depscout.yml",
		"depscout.yaml",
		"depscout.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	// Expand ${ENV_VAR} references
	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	// If the resolved value is a path to an existing file, read the token from it
	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

// validate checks for required configuration values.
func validate(cfg *Config) error {
	if cfg.Scanner.BatchSize < 0 || cfg.Scanner.BatchSize > 100 {
		return fmt.Errorf("scanner.batch_size must be between 1 and 100, got %d", cfg.Scanner.BatchSize)
	}
	if cfg.Scanner.Workers < 0 {
		return fmt.Errorf("scanner.workers must be positive, got %d", cfg.Scanner.Workers)
	}

	for _, format := range cfg.Output.Formats {
		switch strings.ToLower(format) {
		case "json", "csv", "txt", "xml", "html":
		default:
			return fmt.Errorf("output.formats contains unsupported format %q", format)
		}
	}

	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the facetdex API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Metadata MetadataConfig `yaml:"metadata"`
	Facets   FacetsConfig   `yaml:"facets"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds search engine connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	WriteTimeoutSec  int      `yaml:"write_timeout_sec"`
}

// MetadataConfig locates the collection metadata side-store.
type MetadataConfig struct {
	Driver string `yaml:"driver"` // sqlite (default), postgres
	Path   string `yaml:"path"`   // sqlite file
	DSN    string `yaml:"dsn"`    // postgres connection string
}

// FacetsConfig holds facet tracking thresholds.
type FacetsConfig struct {
	MaxCardinality int `yaml:"max_cardinality"`
	MinValueLen    int `yaml:"min_value_len"`
	MaxValueLen    int `yaml:"max_value_len"`
	DefaultLimit   int `yaml:"default_limit"`
}

// IngestConfig holds bulk import settings.
type IngestConfig struct {
	DefaultBatchSize  int           `yaml:"default_batch_size"`
	MinBatchSize      int           `yaml:"min_batch_size"`
	MaxBatchSize      int           `yaml:"max_batch_size"`
	MaxAttempts       int           `yaml:"max_attempts"`
	RetryBackoff      time.Duration `yaml:"retry_backoff"`
	MaxFailureDetails int           `yaml:"max_failure_details"`
	MaxUploadMB       int64         `yaml:"max_upload_mb"`
}

// SearchConfig holds pagination settings for search and document listing.
type SearchConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.WriteTimeoutSec <= 0 {
		c.Database.WriteTimeoutSec = 30
	}
	if c.Metadata.Driver == "" {
		c.Metadata.Driver = "sqlite"
	}
	if c.Metadata.Driver == "sqlite" && c.Metadata.Path == "" {
		c.Metadata.Path = "data/facetdex.db"
	}
	if c.Facets.MaxCardinality <= 0 {
		c.Facets.MaxCardinality = 1000
	}
	if c.Facets.MinValueLen <= 0 {
		c.Facets.MinValueLen = 2
	}
	if c.Facets.MaxValueLen <= 0 {
		c.Facets.MaxValueLen = 80
	}
	if c.Facets.DefaultLimit <= 0 {
		c.Facets.DefaultLimit = 100
	}
	if c.Ingest.DefaultBatchSize <= 0 {
		c.Ingest.DefaultBatchSize = 2000
	}
	if c.Ingest.MinBatchSize <= 0 {
		c.Ingest.MinBatchSize = 1
	}
	if c.Ingest.MaxBatchSize <= 0 {
		c.Ingest.MaxBatchSize = 10000
	}
	if c.Ingest.MaxAttempts <= 0 {
		c.Ingest.MaxAttempts = 3
	}
	if c.Ingest.RetryBackoff <= 0 {
		c.Ingest.RetryBackoff = 200 * time.Millisecond
	}
	if c.Ingest.MaxFailureDetails <= 0 {
		c.Ingest.MaxFailureDetails = 100
	}
	if c.Ingest.MaxUploadMB <= 0 {
		c.Ingest.MaxUploadMB = 512
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 20
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Metadata.Driver {
	case "sqlite":
	case "postgres":
		if c.Metadata.DSN == "" {
			return fmt.Errorf("metadata.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("metadata.driver must be \"sqlite\" or \"postgres\", got %q", c.Metadata.Driver)
	}
	if c.Ingest.MinBatchSize > c.Ingest.MaxBatchSize {
		return fmt.Errorf("ingest.min_batch_size (%d) exceeds ingest.max_batch_size (%d)",
			c.Ingest.MinBatchSize, c.Ingest.MaxBatchSize)
	}
	if c.Ingest.DefaultBatchSize < c.Ingest.MinBatchSize || c.Ingest.DefaultBatchSize > c.Ingest.MaxBatchSize {
		return fmt.Errorf("ingest.default_batch_size must be between %d and %d, got %d",
			c.Ingest.MinBatchSize, c.Ingest.MaxBatchSize, c.Ingest.DefaultBatchSize)
	}
	if c.Facets.MinValueLen > c.Facets.MaxValueLen {
		return fmt.Errorf("facets.min_value_len (%d) exceeds facets.max_value_len (%d)",
			c.Facets.MinValueLen, c.Facets.MaxValueLen)
	}
	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size (%d) exceeds search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

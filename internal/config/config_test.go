package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Metadata.Driver != "sqlite" || cfg.Metadata.Path == "" {
		t.Errorf("metadata = %+v", cfg.Metadata)
	}
	if cfg.Ingest.DefaultBatchSize != 2000 || cfg.Ingest.MaxBatchSize != 10000 || cfg.Ingest.MaxAttempts != 3 {
		t.Errorf("ingest = %+v", cfg.Ingest)
	}
	if cfg.Facets.MaxCardinality != 1000 || cfg.Facets.MinValueLen != 2 || cfg.Facets.MaxValueLen != 80 {
		t.Errorf("facets = %+v", cfg.Facets)
	}
	if cfg.Search.DefaultPageSize != 20 || cfg.Search.MaxPageSize != 100 {
		t.Errorf("search = %+v", cfg.Search)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"no addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"unknown driver", func(c *Config) { c.Metadata.Driver = "mysql" }, "metadata.driver"},
		{"postgres without dsn", func(c *Config) { c.Metadata.Driver = "postgres" }, "metadata.dsn"},
		{"batch bounds inverted", func(c *Config) { c.Ingest.MinBatchSize = 20000 }, "ingest.min_batch_size"},
		{"default batch out of bounds", func(c *Config) { c.Ingest.DefaultBatchSize = 20000 }, "ingest.default_batch_size"},
		{"value length inverted", func(c *Config) { c.Facets.MinValueLen = 100 }, "facets.min_value_len"},
		{"page size inverted", func(c *Config) { c.Search.DefaultPageSize = 500 }, "search.default_page_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("FACETDEX_TEST_REDIS", "redis.internal:6380")

	cfg, err := Parse([]byte(`
http:
  port: ${FACETDEX_TEST_PORT:-9090}
database:
  addrs: ["${FACETDEX_TEST_REDIS}"]
ingest:
  retry_backoff: 50ms
metadata:
  driver: postgres
  dsn: postgres://facetdex@localhost/facetdex
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if len(cfg.Database.Addrs) != 1 || cfg.Database.Addrs[0] != "redis.internal:6380" {
		t.Errorf("addrs = %v", cfg.Database.Addrs)
	}
	if cfg.Ingest.RetryBackoff != 50*time.Millisecond {
		t.Errorf("retry_backoff = %v", cfg.Ingest.RetryBackoff)
	}
	if cfg.Metadata.Driver != "postgres" {
		t.Errorf("driver = %q", cfg.Metadata.Driver)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Error("expected validation error")
	}
}

// Package config loads process configuration from a YAML file, a .env file and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendBigQuery = "bigquery"
)

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Gemini       GeminiConfig       `yaml:"gemini"`
	Transactions TransactionsConfig `yaml:"transactions"`
	Cache        CacheConfig        `yaml:"cache"`
	Runs         RunsConfig         `yaml:"runs"`
	Log          LogConfig          `yaml:"log"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	AllowedOrigin string `yaml:"allowed_origin"`
}

type GeminiConfig struct {
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"`
	AnalysisModel string        `yaml:"analysis_model"`
	ImageModel    string        `yaml:"image_model"`
	Timeout       time.Duration `yaml:"timeout"` // zero means no bound
}

type TransactionsConfig struct {
	// Source is a local JSON file or a gs:// URI. Empty uses the built-in sample.
	Source string `yaml:"source"`
}

type CacheConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type RunsConfig struct {
	Backend   string `yaml:"backend"`
	ProjectID string `yaml:"project_id"`
	Dataset   string `yaml:"dataset"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the YAML file at path (optional when empty), then .env, then the
// environment, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("Load: read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("Load: parse config yaml: %w", err)
		}
	}

	if err := LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	applyEnvironmentOverrides(cfg, os.Getenv)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: validate config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads the given .env files (".env" when none) into the process
// environment without overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("LoadDotEnv: %s: %w", f, err)
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.AllowedOrigin == "" {
		cfg.Server.AllowedOrigin = "*"
	}
	if cfg.Gemini.AnalysisModel == "" {
		cfg.Gemini.AnalysisModel = "gemini-3-flash-preview"
	}
	if cfg.Gemini.ImageModel == "" {
		cfg.Gemini.ImageModel = "gemini-2.5-flash-image"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = BackendSQLite
	}
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = "smartpause.db"
	}
	if cfg.Runs.Backend == "" {
		cfg.Runs.Backend = BackendMemory
	}
	if cfg.Runs.Dataset == "" {
		cfg.Runs.Dataset = "smartpause"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

func applyEnvironmentOverrides(cfg *Config, getenv func(string) string) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&cfg.Gemini.APIKey, "GEMINI_API_KEY", "API_KEY")
	set(&cfg.Gemini.BaseURL, "SMARTPAUSE_GEMINI_BASE_URL")
	set(&cfg.Gemini.AnalysisModel, "SMARTPAUSE_ANALYSIS_MODEL")
	set(&cfg.Gemini.ImageModel, "SMARTPAUSE_IMAGE_MODEL")
	set(&cfg.Server.Addr, "SMARTPAUSE_ADDR")
	set(&cfg.Server.AllowedOrigin, "SMARTPAUSE_ALLOWED_ORIGIN")
	set(&cfg.Transactions.Source, "SMARTPAUSE_TRANSACTIONS")
	set(&cfg.Cache.Backend, "SMARTPAUSE_CACHE_BACKEND")
	set(&cfg.Cache.Path, "SMARTPAUSE_CACHE_PATH")
	set(&cfg.Runs.Backend, "SMARTPAUSE_RUNS_BACKEND")
	set(&cfg.Runs.ProjectID, "SMARTPAUSE_BQ_PROJECT", "GOOGLE_CLOUD_PROJECT")
	set(&cfg.Runs.Dataset, "SMARTPAUSE_BQ_DATASET")
	set(&cfg.Log.Level, "SMARTPAUSE_LOG_LEVEL")
	set(&cfg.Log.Format, "SMARTPAUSE_LOG_FORMAT")

	if v := strings.TrimSpace(getenv("SMARTPAUSE_GEMINI_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Gemini.Timeout = d
		}
	}
}

// Validate checks backend names and the settings each backend requires.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Cache.Path == "" {
			return fmt.Errorf("cache.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got %q", BackendSQLite, BackendMemory, c.Cache.Backend)
	}

	switch c.Runs.Backend {
	case BackendMemory:
	case BackendBigQuery:
		if c.Runs.ProjectID == "" {
			return fmt.Errorf("runs.project_id is required for the bigquery backend")
		}
		if c.Runs.Dataset == "" {
			return fmt.Errorf("runs.dataset is required for the bigquery backend")
		}
	default:
		return fmt.Errorf("runs.backend must be %q or %q, got %q", BackendMemory, BackendBigQuery, c.Runs.Backend)
	}

	if c.Gemini.Timeout < 0 {
		return fmt.Errorf("gemini.timeout must not be negative")
	}
	return nil
}

// RequireAPIKey reports an error when no Gemini API key is configured.
func (c *Config) RequireAPIKey() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini api key is required (set GEMINI_API_KEY or gemini.api_key)")
	}
	return nil
}

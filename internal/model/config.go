package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `mapstructure:"addr" yaml:"addr"`

	// RequestTimeoutSec bounds a single page request end to end,
	// including the per-message fan-out.
	RequestTimeoutSec int `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// DatabaseConfig holds the local cache database settings.
type DatabaseConfig struct {
	// Path is the SQLite database file. ":memory:" is accepted.
	Path string `mapstructure:"path" yaml:"path"`
}

// MailboxConfig holds Gmail API access settings.
type MailboxConfig struct {
	// CredentialsFile is the OAuth client secret JSON file.
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`

	// Query filters which mailbox messages enter the feed.
	Query string `mapstructure:"query" yaml:"query"`
}

// PipelineConfig tunes the per-page fan-out.
type PipelineConfig struct {
	// DefaultPageSize is applied when a request omits limit.
	DefaultPageSize int `mapstructure:"default_page_size" yaml:"default_page_size"`

	// MaxConcurrent caps how many per-message tasks run at once.
	MaxConcurrent int `mapstructure:"max_concurrent" yaml:"max_concurrent"`

	// RatePerSec caps provider calls issued per second, independently
	// of concurrency.
	RatePerSec float64 `mapstructure:"rate_per_sec" yaml:"rate_per_sec"`

	// RefreshIntervalSec is how often the background refresher re-runs
	// the first page. Zero disables it.
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`
}

// SectorConfig is one entry of the ordered classification taxonomy.
type SectorConfig struct {
	Name     string   `mapstructure:"name" yaml:"name"`
	Keywords []string `mapstructure:"keywords" yaml:"keywords"`
}

// AnalysisConfig holds settings for the optional deep-analysis service.
type AnalysisConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level service configuration.
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Mailbox  MailboxConfig  `mapstructure:"mailbox" yaml:"mailbox"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Sectors  []SectorConfig `mapstructure:"sectors" yaml:"sectors"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// RequestTimeout returns the page request deadline as a duration.
func (c *AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}

// RefreshInterval returns the background refresh cadence, zero when
// disabled.
func (c *AppConfig) RefreshInterval() time.Duration {
	return time.Duration(c.Pipeline.RefreshIntervalSec) * time.Second
}

// DefaultConfigPath returns the default configuration file location,
// ~/.config/pitchub/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "pitchub", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server:   ServerConfig{Addr: ":8080", RequestTimeoutSec: 30},
		Database: DatabaseConfig{Path: filepath.Join(".", "pitchub.db")},
		Mailbox:  MailboxConfig{Query: "in:inbox -in:draft"},
		Pipeline: PipelineConfig{
			DefaultPageSize:    10,
			MaxConcurrent:      10,
			RatePerSec:         20,
			RefreshIntervalSec: 300,
		},
		Analysis: AnalysisConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 1024,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper. If the file does not exist, it returns the defaults.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.request_timeout_sec", 30)
	v.SetDefault("database.path", filepath.Join(".", "pitchub.db"))
	v.SetDefault("mailbox.query", "in:inbox -in:draft")
	v.SetDefault("pipeline.default_page_size", 10)
	v.SetDefault("pipeline.max_concurrent", 10)
	v.SetDefault("pipeline.rate_per_sec", 20)
	v.SetDefault("pipeline.refresh_interval_sec", 300)
	v.SetDefault("analysis.model", "claude-sonnet-4-20250514")
	v.SetDefault("analysis.max_tokens", 1024)
	v.SetDefault("logging.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Pipeline.DefaultPageSize <= 0 {
		cfg.Pipeline.DefaultPageSize = 10
	}
	if cfg.Pipeline.MaxConcurrent <= 0 {
		cfg.Pipeline.MaxConcurrent = cfg.Pipeline.DefaultPageSize
	}

	return cfg, nil
}

package manager

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rohith4444/VITA-sub003/shortterm"
)

// Config configures the memory manager and its tiers.
type Config struct {
	// ShortTerm configures the TTL store.
	ShortTerm shortterm.Config

	// LongTerm configures the Redis-backed long-term store. An empty URL
	// disables the long-term tier; operations that need it fail with a
	// storage error.
	LongTerm LongTermConfig

	// Consolidation configures promotion of short-term entries to long-term
	// memory.
	Consolidation ConsolidationConfig
}

// LongTermConfig carries the Redis connection settings for the long-term
// tier.
type LongTermConfig struct {
	// URL is the Redis connection string (e.g. "redis://localhost:6379").
	URL string

	// KeyPrefix namespaces every key written by the store.
	KeyPrefix string

	// ConnectTimeout is the maximum time to wait for connection
	// establishment.
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations.
	WriteTimeout time.Duration
}

// ConsolidationConfig governs ConsolidateToLongTerm.
type ConsolidationConfig struct {
	// Threshold is the default minimum importance for promotion when the
	// caller passes a non-positive threshold. Default: 0.7.
	Threshold float64
}

// ApplyDefaults applies default values to unset fields.
func (c *Config) ApplyDefaults() {
	c.ShortTerm.ApplyDefaults()
	if c.Consolidation.Threshold == 0 {
		c.Consolidation.Threshold = 0.7
	}
}

// Validate performs validation on the Config.
func (c *Config) Validate() error {
	if err := c.ShortTerm.Validate(); err != nil {
		return err
	}
	if c.Consolidation.Threshold < 0 || c.Consolidation.Threshold > 1 {
		return fmt.Errorf("manager: consolidation threshold must be in [0, 1], got %g", c.Consolidation.Threshold)
	}
	return nil
}

// fileConfig is the yaml-facing shape of Config. Durations are Go duration
// strings (e.g. "30m", "60s"); empty or invalid values fall back to the
// defaults.
type fileConfig struct {
	ShortTerm struct {
		RetentionPeriod string `yaml:"retention_period,omitempty"`
		SweepInterval   string `yaml:"sweep_interval,omitempty"`
		BackupRetention string `yaml:"backup_retention,omitempty"`
	} `yaml:"short_term"`

	LongTerm struct {
		URL            string `yaml:"url,omitempty"`
		KeyPrefix      string `yaml:"key_prefix,omitempty"`
		ConnectTimeout string `yaml:"connect_timeout,omitempty"`
		ReadTimeout    string `yaml:"read_timeout,omitempty"`
		WriteTimeout   string `yaml:"write_timeout,omitempty"`
	} `yaml:"long_term"`

	Consolidation struct {
		Threshold float64 `yaml:"threshold,omitempty"`
	} `yaml:"consolidation"`
}

// Load reads and parses a yaml configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config := &Config{
		ShortTerm: shortterm.Config{
			RetentionPeriod: parseDuration(fc.ShortTerm.RetentionPeriod),
			SweepInterval:   parseDuration(fc.ShortTerm.SweepInterval),
			BackupRetention: parseDuration(fc.ShortTerm.BackupRetention),
		},
		LongTerm: LongTermConfig{
			URL:            fc.LongTerm.URL,
			KeyPrefix:      fc.LongTerm.KeyPrefix,
			ConnectTimeout: parseDuration(fc.LongTerm.ConnectTimeout),
			ReadTimeout:    parseDuration(fc.LongTerm.ReadTimeout),
			WriteTimeout:   parseDuration(fc.LongTerm.WriteTimeout),
		},
		Consolidation: ConsolidationConfig{
			Threshold: fc.Consolidation.Threshold,
		},
	}
	return config, nil
}

// parseDuration parses a Go duration string, returning zero (meaning "use
// the default") when unset or invalid.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

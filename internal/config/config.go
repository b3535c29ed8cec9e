package config

import (
	"fmt"
	"time"

	"github.com/moleculab/chemmirror/internal/domain"
)

// Config is the complete configuration for chemmirror.
type Config struct {
	Remote RemoteConfig `mapstructure:"remote"`
	Mirror MirrorConfig `mapstructure:"mirror"`
	Retry  RetryConfig  `mapstructure:"retry"`
	Ingest IngestConfig `mapstructure:"ingest"`
	Log    LogConfig    `mapstructure:"log"`
}

// RemoteConfig describes the remote file server.
type RemoteConfig struct {
	// Host of the FTP server, with optional port.
	Host string `mapstructure:"host"`

	// User and Password; empty means anonymous access.
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`

	// RootPrefix is the first component of every remote source
	// directory (e.g. "pubchem").
	RootPrefix string `mapstructure:"root_prefix"`

	// Datasets maps dataset names to remote subtree names, overriding
	// the built-in mapping.
	Datasets map[string]string `mapstructure:"datasets"`
}

// MirrorConfig describes the local replica.
type MirrorConfig struct {
	// Dir is the local mirror root.
	Dir string `mapstructure:"dir"`
}

// RetryConfig tunes the restart-with-backoff policy.
type RetryConfig struct {
	// BackoffSeconds is the pause between restarted passes.
	BackoffSeconds int `mapstructure:"backoff_seconds"`

	// MaxAttempts bounds the number of passes; 0 means unbounded.
	MaxAttempts int `mapstructure:"max_attempts"`
}

// Backoff returns the backoff as a duration.
func (r RetryConfig) Backoff() time.Duration {
	return time.Duration(r.BackoffSeconds) * time.Second
}

// IngestConfig selects the ingestion backend.
type IngestConfig struct {
	// Backend is the backend name ("molstore", "searchidx", "noop").
	Backend string `mapstructure:"backend"`

	// StorePath locates the backing store; empty selects a default
	// under the mirror directory.
	StorePath string `mapstructure:"store_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`

	File LogFileConfig `mapstructure:"file"`
}

// LogFileConfig configures the optional rotating log file.
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// DatasetSubtrees returns the configured dataset mapping keyed by
// domain.Dataset.
func (c *Config) DatasetSubtrees() map[domain.Dataset]string {
	subtrees := make(map[domain.Dataset]string, len(c.Remote.Datasets))
	for name, subtree := range c.Remote.Datasets {
		subtrees[domain.Dataset(name)] = subtree
	}
	return subtrees
}

// Validate checks if the configuration is complete and consistent.
func (c *Config) Validate() error {
	if c.Remote.Host == "" {
		return fmt.Errorf("%w: remote host cannot be empty", domain.ErrConfigInvalid)
	}
	if c.Remote.RootPrefix == "" {
		return fmt.Errorf("%w: remote root_prefix cannot be empty", domain.ErrConfigInvalid)
	}
	for name, subtree := range c.Remote.Datasets {
		if subtree == "" {
			return fmt.Errorf("%w: dataset %q has an empty subtree", domain.ErrConfigInvalid, name)
		}
	}
	if c.Retry.BackoffSeconds < 0 {
		return fmt.Errorf("%w: retry backoff cannot be negative", domain.ErrConfigInvalid)
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("%w: retry max_attempts cannot be negative", domain.ErrConfigInvalid)
	}
	if c.Ingest.Backend == "" {
		return fmt.Errorf("%w: ingest backend cannot be empty", domain.ErrConfigInvalid)
	}
	if c.Log.File.Enabled && c.Log.File.Path == "" {
		return fmt.Errorf("%w: log file path cannot be empty when file logging is enabled", domain.ErrConfigInvalid)
	}
	return nil
}

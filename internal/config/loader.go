package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/moleculab/chemmirror/internal/domain"
)

// DefaultConfigPaths returns the default paths to search for config files
func DefaultConfigPaths() []string {
	paths := []string{
		".",
		"./configs",
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "chemmirror"))
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".chemmirror"))
	}

	return paths
}

// setDefaults registers the built-in defaults. They reproduce the
// historical behavior of the tool: anonymous access to the PubChem
// FTP server, compounds dataset, 5-second backoff without an attempt
// limit.
func setDefaults(v *viper.Viper) {
	v.SetDefault("remote.host", "ftp.ncbi.nlm.nih.gov")
	v.SetDefault("remote.root_prefix", "pubchem")
	v.SetDefault("remote.datasets", map[string]string{
		"compounds": "Compound",
	})
	v.SetDefault("mirror.dir", "./pubchem_dir")
	v.SetDefault("retry.backoff_seconds", 5)
	v.SetDefault("retry.max_attempts", 0)
	v.SetDefault("ingest.backend", "molstore")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads and parses a configuration file. If path is empty, the
// default locations are searched; a missing file then yields the
// built-in defaults rather than an error, since every setting has one.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, domain.ErrConfigNotFound
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/moleculab/chemmirror/internal/domain"
	"github.com/moleculab/chemmirror/internal/testutil"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Remote.Host != "ftp.ncbi.nlm.nih.gov" {
		t.Errorf("unexpected default host: %s", cfg.Remote.Host)
	}
	if cfg.Remote.RootPrefix != "pubchem" {
		t.Errorf("unexpected default root prefix: %s", cfg.Remote.RootPrefix)
	}
	if cfg.Remote.Datasets["compounds"] != "Compound" {
		t.Errorf("unexpected default dataset mapping: %v", cfg.Remote.Datasets)
	}
	if cfg.Retry.Backoff() != 5*time.Second {
		t.Errorf("unexpected default backoff: %v", cfg.Retry.Backoff())
	}
	if cfg.Retry.MaxAttempts != 0 {
		t.Errorf("retries must default to unbounded, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Ingest.Backend != "molstore" {
		t.Errorf("unexpected default backend: %s", cfg.Ingest.Backend)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
remote:
  host: ftp.example.org:2121
  root_prefix: datasets
  datasets:
    compounds: Compound
    substances: Substance
mirror:
  dir: /srv/mirror
retry:
  backoff_seconds: 10
  max_attempts: 3
ingest:
  backend: searchidx
`)
	path := testutil.CreateTestFile(t, dir, "config.yaml", content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Remote.Host != "ftp.example.org:2121" {
		t.Errorf("unexpected host: %s", cfg.Remote.Host)
	}
	if cfg.Remote.Datasets["substances"] != "Substance" {
		t.Errorf("dataset mapping not loaded: %v", cfg.Remote.Datasets)
	}
	if cfg.Mirror.Dir != "/srv/mirror" {
		t.Errorf("unexpected mirror dir: %s", cfg.Mirror.Dir)
	}
	if cfg.Retry.Backoff() != 10*time.Second || cfg.Retry.MaxAttempts != 3 {
		t.Errorf("retry config not loaded: %+v", cfg.Retry)
	}
	if cfg.Ingest.Backend != "searchidx" {
		t.Errorf("unexpected backend: %s", cfg.Ingest.Backend)
	}

	subtrees := cfg.DatasetSubtrees()
	if subtrees[domain.Dataset("substances")] != "Substance" {
		t.Errorf("unexpected subtree mapping: %v", subtrees)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, domain.ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CreateTestFile(t, dir, "config.yaml", []byte("remote: [not a map"))

	_, err := Load(path)
	if !errors.Is(err, domain.ErrConfigInvalid) {
		t.Errorf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Remote: RemoteConfig{
				Host:       "ftp.example.org",
				RootPrefix: "pubchem",
				Datasets:   map[string]string{"compounds": "Compound"},
			},
			Mirror: MirrorConfig{Dir: "./mirror"},
			Ingest: IngestConfig{Backend: "molstore"},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty host", func(c *Config) { c.Remote.Host = "" }},
		{"empty root prefix", func(c *Config) { c.Remote.RootPrefix = "" }},
		{"empty subtree", func(c *Config) { c.Remote.Datasets["compounds"] = "" }},
		{"negative backoff", func(c *Config) { c.Retry.BackoffSeconds = -1 }},
		{"negative attempts", func(c *Config) { c.Retry.MaxAttempts = -1 }},
		{"empty backend", func(c *Config) { c.Ingest.Backend = "" }},
		{"file logging without path", func(c *Config) { c.Log.File.Enabled = true }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, domain.ErrConfigInvalid) {
				t.Errorf("expected ErrConfigInvalid, got %v", err)
			}
		})
	}
}

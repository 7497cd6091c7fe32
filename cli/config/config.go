package config

import (
	"fmt"
	"time"
)

// Config represents a freshen.yaml configuration file.
// All values are optional and act as defaults for freshen command flags.
// CLI flags always override config values.
type Config struct {
	App      string         `yaml:"app"`
	Manifest ManifestConfig `yaml:"manifest"`
	Watch    WatchConfig    `yaml:"watch"`
	Storage  StorageConfig  `yaml:"storage"`
	Adapter  AdapterConfig  `yaml:"adapter"`
}

// ManifestConfig holds manifest defaults from the config file.
type ManifestConfig struct {
	// URL is where watching clients fetch the manifest from.
	URL string `yaml:"url"`
	// File is the manifest filename (default version.json).
	File string `yaml:"file"`
	// Dir is the local publish directory for freshen stamp.
	Dir string `yaml:"dir"`
}

// WatchConfig holds watcher defaults from the config file.
type WatchConfig struct {
	Interval     Duration `yaml:"interval"`
	Silent       bool     `yaml:"silent"`
	NoWakeChecks bool     `yaml:"no_wake_checks"`
	// Journal is the path of the msgpack check journal. Empty disables it.
	Journal string `yaml:"journal"`
}

// StorageConfig holds build-ledger storage defaults from the config file.
type StorageConfig struct {
	// Backend is "fs" or "s3".
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig holds notification adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

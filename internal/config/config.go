package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	// ConfigFileName is the default name of the configuration file.
	ConfigFileName = "attrsd.json"

	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"

	// DefaultSnapshotDriver is used when no snapshot driver is configured.
	DefaultSnapshotDriver = "memory"

	// DefaultSnapshotInterval is the default interval, in seconds, between
	// periodic snapshots.
	DefaultSnapshotInterval = 60
)

// Config is the complete attrsd.json configuration.
type Config struct {
	// Name identifies the served model in logs and metrics.
	Name string `json:"name,omitempty"`

	// Addr is the HTTP listen address.
	Addr string `json:"addr,omitempty"`

	// Properties are the model's initial observable properties.
	Properties map[string]any `json:"properties,omitempty"`

	// Snapshot configures snapshot persistence.
	Snapshot SnapshotConfig `json:"snapshot,omitempty"`

	// Log configures logging.
	Log LogConfig `json:"log,omitempty"`
}

// SnapshotConfig selects and configures the snapshot store.
type SnapshotConfig struct {
	// Driver is one of "memory", "sqlite" or "s3".
	Driver string `json:"driver,omitempty"`

	// Path is the database file for the sqlite driver.
	Path string `json:"path,omitempty"`

	// Bucket and Prefix locate snapshots for the s3 driver.
	Bucket string `json:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty"`

	// IntervalSeconds is the period between automatic snapshots.
	// Zero disables periodic snapshots.
	IntervalSeconds int `json:"interval_seconds,omitempty"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is one of "debug", "info", "warn" or "error".
	Level string `json:"level,omitempty"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Name: "model",
		Addr: DefaultAddr,
		Snapshot: SnapshotConfig{
			Driver:          DefaultSnapshotDriver,
			IntervalSeconds: DefaultSnapshotInterval,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a configuration file and fills in defaults for unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Name == "" {
		c.Name = d.Name
	}
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.Snapshot.Driver == "" {
		c.Snapshot.Driver = d.Snapshot.Driver
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// Warnings reports configuration combinations that are accepted but almost
// certainly unintended.
func (c *Config) Warnings() []string {
	var out []string

	switch strings.ToLower(c.Snapshot.Driver) {
	case "memory":
		if c.Snapshot.Path != "" || c.Snapshot.Bucket != "" {
			out = append(out, "snapshot path/bucket are ignored by the memory driver")
		}
	case "sqlite":
		if c.Snapshot.Path == "" {
			out = append(out, "sqlite snapshot driver configured without a path")
		}
	case "s3":
		if c.Snapshot.Bucket == "" {
			out = append(out, "s3 snapshot driver configured without a bucket")
		}
	default:
		out = append(out, fmt.Sprintf("unknown snapshot driver %q", c.Snapshot.Driver))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		out = append(out, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}

	return out
}

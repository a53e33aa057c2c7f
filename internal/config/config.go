// Package config loads the visiongraph configuration file.
//
// The file is TOML. Every key is optional and a missing file yields
// [Default]:
//
//	addr           = "127.0.0.1:8700"
//	persist_dir    = "/srv/visiongraph"
//	links_only     = false
//	flat_catalog   = false
//	cycle_interval = "100ms"
//	log_level      = "info"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

const appName = "visiongraph"

// Config is the application configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `toml:"addr"`
	// PersistDir is tried before the built-in storage locations.
	PersistDir string `toml:"persist_dir"`
	// LinksOnly writes nodetree inputs as bare links.
	LinksOnly bool `toml:"links_only"`
	// FlatCatalog lists functions without module grouping.
	FlatCatalog bool `toml:"flat_catalog"`
	// CycleInterval is the pause between execution cycles.
	CycleInterval Duration `toml:"cycle_interval"`
	LogLevel      string   `toml:"log_level"`
}

// Duration is a time.Duration written as a string such as "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:          "127.0.0.1:8700",
		CycleInterval: Duration{100 * time.Millisecond},
		LogLevel:      "info",
	}
}

// DefaultPath returns the configuration file location following the XDG
// convention (~/.config/visiongraph/config.toml).
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the file at path over [Default]. A missing file is not an
// error. Unknown keys are.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slices.Sort(keys)
		return Config{}, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.CycleInterval.Duration <= 0 {
		return fmt.Errorf("cycle_interval must be positive, got %s", c.CycleInterval)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Level returns the configured log level, or info if it does not parse.
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

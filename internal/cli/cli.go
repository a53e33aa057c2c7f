package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/visiongraph/internal/config"
	"github.com/matzehuels/visiongraph/internal/program"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "visiongraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Set by persistent flags on the root command.
	configPath string
	persistDir string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads the configuration file and applies flag overrides. The
// configured log level only ever makes logging more verbose, so --verbose
// keeps working with a quieter file setting.
func (c *CLI) loadConfig() (config.Config, error) {
	path, err := c.resolveConfigPath()
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if c.persistDir != "" {
		cfg.PersistDir = c.persistDir
	}
	if level := cfg.Level(); level < c.Logger.GetLevel() {
		c.SetLogLevel(level)
	}
	c.Logger.Debug("loaded configuration", "file", path)
	return cfg, nil
}

func (c *CLI) resolveConfigPath() (string, error) {
	if c.configPath != "" {
		return c.configPath, nil
	}
	path, err := config.DefaultPath()
	if err != nil {
		return "", fmt.Errorf("get config path: %w", err)
	}
	return path, nil
}

// openProgram loads the configuration, builds the engine and restores the
// active profile.
func (c *CLI) openProgram(ctx context.Context) (*program.Program, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	prog, err := program.New(program.Options{Config: cfg, Logger: c.Logger})
	if err != nil {
		return nil, err
	}
	if err := prog.Restore(ctx); err != nil {
		// Nodes before the failing one stay applied.
		c.Logger.Warn("could not restore stored nodetree", "err", err)
	}
	return prog, nil
}

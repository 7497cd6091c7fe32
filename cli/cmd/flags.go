// Package cmd provides CLI commands for the freshen binary.
package cmd

import (
	"errors"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/freshen-dev/freshen/cli/config"
)

// DefaultConfigFile is the config file loaded when --config is unset.
const DefaultConfigFile = "freshen.yaml"

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for the watch command.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (watch only)",
	}

	// ConfigFlag points at the freshen.yaml config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to freshen.yaml config file",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error
// messages instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		TUIFlag,
		ConfigFlag,
	}
}

// loadConfig resolves the config file for a command. An explicit --config
// that does not exist is an error; a missing default file yields an empty
// config so every command works flag-only.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path != "" {
		return config.Load(path)
	}

	if _, err := os.Stat(DefaultConfigFile); errors.Is(err, os.ErrNotExist) {
		return &config.Config{}, nil
	}
	return config.Load(DefaultConfigFile)
}

package app

import (
	"migrationmcp/internal/config"
)

// Config holds the application configuration
type Config struct {
	// ConfigPath is an extra configuration file layered over the defaults.
	ConfigPath string

	// Debug forces debug logging.
	Debug bool

	// Version is announced by the MCP server.
	Version string

	// ConfirmationMode replaces the configured confirmation mode when set.
	ConfirmationMode string

	// Transport replaces the configured server transport when set. It must
	// be known before the components are built.
	Transport string

	// Settings is the loaded configuration.
	Settings *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(configPath string, debug bool, version string) *Config {
	return &Config{
		ConfigPath: configPath,
		Debug:      debug,
		Version:    version,
	}
}

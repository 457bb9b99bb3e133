package app

import (
	"context"
	"fmt"
	"os"

	"migrationmcp/internal/config"
	"migrationmcp/internal/confirm"
	"migrationmcp/pkg/logging"
)

// Application is the main application structure that bootstraps and runs migrationmcp
type Application struct {
	config   *Config
	services *Services
}

// NewApplication loads configuration, initializes logging and builds the
// components. asker overrides the configured confirmation channel when not nil.
func NewApplication(ctx context.Context, cfg *Config, asker confirm.Asker) (*Application, error) {
	// Logs go to stderr: the stdio transport owns stdout.
	logging.InitForCLI(logging.LevelInfo, os.Stderr)

	settings, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration")
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.ConfirmationMode != "" {
		settings.Confirmation.Mode = cfg.ConfirmationMode
	}
	if cfg.Transport != "" {
		settings.Server.Transport = cfg.Transport
	}
	cfg.Settings = &settings

	level := logging.ParseLevel(settings.Logging.Level)
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.Init(level, settings.Logging.Format, os.Stderr)
	logging.Debug("Bootstrap", "Configuration loaded (default stage %s, transport %s)", settings.Stage.Default, settings.Server.Transport)

	services, err := InitializeServices(ctx, &settings, asker)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Services returns the initialized components.
func (a *Application) Services() *Services {
	return a.services
}

// Settings returns the loaded configuration.
func (a *Application) Settings() *config.Config {
	return a.config.Settings
}

// Run serves the MCP server until ctx is cancelled or a signal arrives.
func (a *Application) Run(ctx context.Context) error {
	return runServeMode(ctx, a.config, a.services)
}

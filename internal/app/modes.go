package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"migrationmcp/internal/server"
	"migrationmcp/pkg/logging"
)

// newServer builds the MCP server for the loaded settings.
func newServer(config *Config, services *Services) *server.Server {
	settings := config.Settings
	return server.New(server.Options{
		Version:      config.Version,
		Transport:    settings.Server.Transport,
		Host:         settings.Server.Host,
		Port:         settings.Server.Port,
		BaseURL:      settings.Server.BaseURL,
		EndpointPath: settings.Server.EndpointPath,
		Gate:         services.Gate,
	}, services.Tools)
}

// runServeMode serves until interrupted and then shuts down gracefully.
func runServeMode(ctx context.Context, config *Config, services *Services) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if services.Gate == nil && config.Settings.Server.Transport != server.TransportStdio {
		logging.Warn("Serve", "Authentication is disabled; every HTTP caller can use the tools")
	}

	if err := newServer(config, services).Serve(ctx); err != nil {
		logging.Error("Serve", err, "Server stopped with an error")
		return err
	}
	logging.Info("Serve", "Server stopped")
	return nil
}

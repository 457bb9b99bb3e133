package cmd

import (
	"context"
	"fmt"

	"migrationmcp/internal/app"

	"github.com/spf13/cobra"
)

var (
	serveTransport string
	serveHost      string
	servePort      int
)

// serveCmd starts the MCP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the migration MCP server",
	Long: `Starts the MCP server and exposes the check_project_dependencies,
get_serverless_config, find_database_credentials and whoami tools.

Transports:
  streamable-http (default)  HTTP on <host>:<port><endpointPath>
  sse                        Server-Sent Events on <host>:<port>/sse
  stdio                      JSON-RPC over stdin/stdout for local clients

Configuration:
  migrationmcp loads ~/.config/migrationmcp/config.yaml, then
  .migrationmcp/config.yaml in the current directory, then --config.
  MCP_STAGE, MCP_HOST, MCP_PORT, MCP_TRANSPORT, MCP_BASE_URL and
  MCP_LOG_LEVEL override the files. Flags override everything.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := app.NewConfig(configPath, debug, rootCmd.Version)
	if cmd.Flags().Changed("transport") {
		cfg.Transport = serveTransport
	}
	application, err := app.NewApplication(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	settings := application.Settings()
	if cmd.Flags().Changed("host") {
		settings.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		settings.Server.Port = servePort
	}

	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveTransport, "transport", "streamable-http", "MCP transport (streamable-http, sse, stdio)")
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "Address to listen on")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to listen on")
}

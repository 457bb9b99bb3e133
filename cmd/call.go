package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"migrationmcp/internal/cli"
	"migrationmcp/internal/config"

	"github.com/spf13/cobra"
)

var (
	callEndpoint string
	callToken    string
	callOutput   string
	callQuiet    bool
)

// callCmd calls a tool on a running server.
var callCmd = &cobra.Command{
	Use:   "call <tool> [key=value...]",
	Short: "Call a tool on a running migrationmcp server",
	Long: `Calls a tool on a running migrationmcp server over streamable-http.

Arguments are given as key=value pairs; "true" and "false" are sent as
booleans. The endpoint defaults to the configured server address. When the
server requires authentication pass a GitHub token with --token or
GITHUB_TOKEN.

Example:
  migrationmcp call check_project_dependencies project_path=/work/api stage=DESA`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCall,
}

// parseToolArgs turns key=value pairs into tool arguments.
func parseToolArgs(pairs []string) (map[string]interface{}, error) {
	args := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q, expected key=value", pair)
		}
		if b, err := strconv.ParseBool(value); err == nil && (value == "true" || value == "false") {
			args[key] = b
			continue
		}
		args[key] = value
	}
	return args, nil
}

func runCall(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(callOutput)
	if err != nil {
		return err
	}
	toolArgs, err := parseToolArgs(args[1:])
	if err != nil {
		return err
	}

	endpoint := callEndpoint
	if endpoint == "" {
		settings, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		endpoint = cli.EndpointFromConfig(settings.Server)
	}
	token := callToken
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client := cli.NewClient(endpoint, token)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	executor := cli.NewToolExecutor(client, cli.ExecutorOptions{
		Format: format,
		Quiet:  callQuiet,
		Out:    cmd.OutOrStdout(),
		ErrOut: cmd.ErrOrStderr(),
	})
	defer executor.Close()

	_, err = executor.Execute(ctx, args[0], toolArgs)
	return err
}

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringVar(&callEndpoint, "endpoint", "", "Server endpoint (defaults to the configured server address)")
	callCmd.Flags().StringVar(&callToken, "token", "", "GitHub token for servers with authentication enabled")
	callCmd.Flags().StringVarP(&callOutput, "output", "o", "table", "Output format (table, json, yaml)")
	callCmd.Flags().BoolVarP(&callQuiet, "quiet", "q", false, "Suppress non-essential output")
}

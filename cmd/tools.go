package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"migrationmcp/internal/app"
	"migrationmcp/internal/cli"
	"migrationmcp/internal/confirm"
	"migrationmcp/pkg/logging"

	"github.com/atotto/clipboard"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// toolFlags are shared by the commands that run a tool in-process.
type toolFlags struct {
	stage  string
	output string
	quiet  bool
	copy   bool
}

func (f *toolFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.stage, "stage", "s", "", "Deployment stage (defaults to MCP_STAGE, then the configured default)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "table", "Output format (table, json, yaml)")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.Flags().BoolVar(&f.copy, "copy", false, "Copy the suggested install command, or the JSON result, to the clipboard")
}

// projectArg makes a command line project path absolute.
func projectArg(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid project path %q: %w", path, err)
	}
	return abs, nil
}

// clipboardText prefers the suggested command of a report over the whole result.
func clipboardText(raw string) string {
	var report struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal([]byte(raw), &report); err == nil && report.Command != "" {
		return report.Command
	}
	return raw
}

// copyToClipboard is swapped in tests.
var copyToClipboard = clipboard.WriteAll

// runLocalTool builds the application and runs one tool in-process. asker,
// when not nil, answers every confirmation; otherwise confirmations use the
// terminal.
func runLocalTool(cmd *cobra.Command, flags *toolFlags, asker confirm.Asker, tool string, args map[string]interface{}) error {
	format, err := cli.ParseOutputFormat(flags.output)
	if err != nil {
		return err
	}
	if path, ok := args["project_path"].(string); ok {
		if args["project_path"], err = projectArg(path); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := app.NewConfig(configPath, debug, rootCmd.Version)
	cfg.ConfirmationMode = "terminal"
	application, err := app.NewApplication(ctx, cfg, asker)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if flags.stage != "" {
		args["stage"] = flags.stage
	}

	executor := cli.NewToolExecutor(cli.NewLocalCaller(application.Services().Tools.Definitions()), cli.ExecutorOptions{
		Format: format,
		Quiet:  flags.quiet,
		Out:    cmd.OutOrStdout(),
		ErrOut: cmd.ErrOrStderr(),
	})
	defer executor.Close()

	raw, err := executor.Execute(ctx, tool, args)
	if flags.copy && raw != "" {
		if cErr := copyToClipboard(clipboardText(raw)); cErr != nil {
			logging.Warn("CLI", "Failed to copy result to clipboard: %v", cErr)
		} else if !flags.quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), "Result copied to clipboard.")
		}
	}
	return err
}

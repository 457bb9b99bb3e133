package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is layered over the user and project configuration files.
	configPath string

	// debug enables verbose logging across the application.
	debug bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "migrationmcp",
	Short: "MCP server that prepares Serverless projects for migration",
	Long: `migrationmcp exposes MCP tools that check whether a Serverless Framework
project has its dependencies installed, resolve its configuration for a
deployment stage and store the result under .rimac_migration/ for later
analysis.

Run 'migrationmcp serve' to start the MCP server, or use the check, resolve
and scan commands to run the same operations directly from a terminal.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. invalid arguments, failed resolutions)
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "migrationmcp version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file layered over ~/.config/migrationmcp/config.yaml and .migrationmcp/config.yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}

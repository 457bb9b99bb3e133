package cmd

import (
	"migrationmcp/internal/server"

	"github.com/spf13/cobra"
)

var (
	resolveFlags       toolFlags
	resolveReuseCached bool
)

// resolveCmd runs get_serverless_config against a local project.
var resolveCmd = &cobra.Command{
	Use:   "resolve <project-path>",
	Short: "Resolve and store a project's Serverless configuration",
	Long: `Resolves the Serverless configuration of the project at <project-path>
for a stage and stores it as
.rimac_migration/serverless.resolved.<STAGE>.yaml inside the project.

Dependencies must already be installed; run 'migrationmcp check' first.
Resolution usually needs valid AWS credentials.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocalTool(cmd, &resolveFlags, nil, server.ToolGetServerlessConfig, map[string]interface{}{
			"project_path": args[0],
			"reuse_cached": resolveReuseCached,
		})
	},
}

// scanFlags configures scanCmd.
var scanFlags toolFlags

// scanCmd runs find_database_credentials against a resolved configuration.
var scanCmd = &cobra.Command{
	Use:   "scan <project-path>",
	Short: "Find database references in a resolved configuration",
	Long: `Scans the stored resolved configuration of the project at <project-path>
for keys and values that contain a database prefix (AX, AE, SAS, RSA by
default). Run 'migrationmcp resolve' for the same stage first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocalTool(cmd, &scanFlags, nil, server.ToolFindDatabaseCredentials, map[string]interface{}{
			"project_path": args[0],
		})
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(scanCmd)

	resolveFlags.register(resolveCmd)
	resolveCmd.Flags().BoolVar(&resolveReuseCached, "reuse-cached", false, "Return the stored configuration when one exists")
	scanFlags.register(scanCmd)
}

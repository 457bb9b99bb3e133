package cmd

import (
	"fmt"

	"migrationmcp/internal/confirm"
	"migrationmcp/internal/server"

	"github.com/spf13/cobra"
)

var (
	checkFlags toolFlags
	checkYes   bool
	checkNo    bool
)

// checkCmd runs check_project_dependencies against a local project.
var checkCmd = &cobra.Command{
	Use:   "check <project-path>",
	Short: "Check that a project's dependencies are installed",
	Long: `Checks whether the project at <project-path> has its dependencies
installed. When they are missing you are asked on the terminal before the
install command is launched.

Use --yes to authorize the install without a prompt, or --no to only report
the missing dependencies.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checkYes && checkNo {
		return fmt.Errorf("--yes and --no are mutually exclusive")
	}

	var asker confirm.Asker
	switch {
	case checkYes:
		asker = confirm.Fixed(confirm.DecisionConfirmed)
	case checkNo:
		asker = confirm.Fixed(confirm.DecisionDeclined)
	}

	return runLocalTool(cmd, &checkFlags, asker, server.ToolCheckProjectDependencies, map[string]interface{}{
		"project_path": args[0],
	})
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkFlags.register(checkCmd)
	checkCmd.Flags().BoolVarP(&checkYes, "yes", "y", false, "Authorize the install without prompting")
	checkCmd.Flags().BoolVar(&checkNo, "no", false, "Decline the install without prompting")
}

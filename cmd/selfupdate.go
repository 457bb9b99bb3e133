package cmd

import (
	"context"
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const githubRepoSlug = "rimac-seguros/migrationmcp"

func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update migrationmcp to the latest version",
		Long: `Checks for the latest release of migrationmcp on GitHub and
replaces the running binary when a newer version is available.`,
		Args: cobra.NoArgs,
		RunE: runSelfUpdate,
	}
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	current := rootCmd.Version
	if current == "" || current == "dev" {
		return fmt.Errorf("cannot self-update a development version")
	}

	ctx := context.Background()
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}

	repo := selfupdate.ParseSlug(githubRepoSlug)
	latest, found, err := selfupdate.DetectLatest(ctx, repo)
	if err != nil {
		return fmt.Errorf("failed to detect latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s", githubRepoSlug)
	}
	if latest.LessOrEqual(current) {
		fmt.Printf("Current version %s is the latest\n", current)
		return nil
	}

	release, err := selfupdate.UpdateSelf(ctx, current, repo)
	if err != nil {
		return fmt.Errorf("failed to update binary: %w", err)
	}
	fmt.Printf("Updated migrationmcp to version %s\n", release.Version())
	return nil
}

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	blueprintPath string
	jsonOutput    bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gwsynth",
		Short: "GWSynth - Synthetic Google Workspace tenant provisioning",
		Long: `GWSynth provisions a synthetic Google Workspace tenant from a declarative
blueprint: users and groups mirrored from Entra ID, per-department shared
drives with folder trees, generated documents, and sharing rules.

Runs are idempotent. Every created object carries tag properties derived
from stable IDs, so re-running apply converges on the desired state and
destroy removes only what this run created.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&blueprintPath, "blueprint", "b", "blueprint.yaml", "blueprint file path")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output reports as JSON only")

	// Add subcommands
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newApplyCommand())
	rootCmd.AddCommand(newDestroyCommand())
	rootCmd.AddCommand(newIdentityCommand())

	return rootCmd
}

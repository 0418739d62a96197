package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gwsynth/gwsynth/pkg/blueprint"
)

func newInitCommand() *cobra.Command {
	var (
		outFile string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init-blueprint",
		Short: "Write a starter blueprint file",
		Long: `Write a starter blueprint with every section filled in with safe
defaults. Edit the tenant_guard section before running anything against a
real tenant: plan, apply and destroy all refuse to run when the guard does
not match the environment.`,
		Example: `  # Write blueprint.yaml in the current directory
  gwsynth init-blueprint

  # Overwrite an existing file
  gwsynth init-blueprint --out tenant.yaml --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(outFile); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", outFile)
			}
			if err := blueprint.WriteDefault(outFile); err != nil {
				return err
			}
			fmt.Printf("Wrote blueprint to %s\n", outFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "blueprint.yaml", "output blueprint path")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gwsynth/gwsynth/pkg/blueprint"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a blueprint without touching any remote service",
		Long: `Load and validate a blueprint: YAML syntax, schema version, required
fields, value ranges, and cross-field rules such as license IDs being
present when assignment is enabled. No credentials are needed.`,
		Example: `  gwsynth validate --blueprint blueprint.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := blueprint.Load(blueprintPath)
			if err != nil {
				return err
			}
			fmt.Printf("Blueprint %s is valid (run %q)\n", blueprintPath, bp.Run.Name)
			return nil
		},
	}

	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gwsynth/gwsynth/pkg/blueprint"
	"github.com/gwsynth/gwsynth/pkg/engine"
)

func newDestroyCommand() *cobra.Command {
	var (
		yes  bool
		mode string
	)

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete synthetic content or the whole run",
		Long: `Delete what this run created, and nothing else. Targets are located
by their tag properties, the group description tag, and membership in the
run's org unit; untagged objects are never touched.

Modes:
  content-only  delete tagged files and documents, keep drives, groups
                and users (drive markers survive so ownership is kept)
  all           additionally delete the shared drives, tagged groups,
                and users still parked in the run's org unit`,
		Example: `  gwsynth destroy --blueprint blueprint.yaml --yes

  # Tear the whole run down, principals included
  gwsynth destroy --blueprint blueprint.yaml --mode all --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("destroy mutates the tenant; re-run with --yes")
			}
			destroyMode, err := engine.ParseDestroyMode(mode)
			if err != nil {
				return err
			}
			bp, err := blueprint.Load(blueprintPath)
			if err != nil {
				return err
			}
			eng, cleanup, err := buildEngine(cmd.Context(), bp, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			rep, err := eng.Destroy(cmd.Context(), destroyMode)
			if err != nil {
				return err
			}
			return printReport(rep)
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the destructive run")
	cmd.Flags().StringVar(&mode, "mode", "content-only", "what to delete: content-only or all")

	return cmd
}

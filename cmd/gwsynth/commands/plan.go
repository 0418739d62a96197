package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gwsynth/gwsynth/pkg/blueprint"
	"github.com/gwsynth/gwsynth/pkg/report"
)

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what apply would change",
		Long: `Compute what apply would create, update or skip without mutating
anything. Plan probes the live tenant read-only: drives are matched by
name, files by their tag properties, and principals by email.

Conflicts (a foreign object occupying a desired name) are reported but
never resolved; apply leaves conflicted objects untouched too.`,
		Example: `  # Human-readable summary plus the JSON report
  gwsynth plan --blueprint blueprint.yaml

  # JSON report only, for scripting
  gwsynth plan --blueprint blueprint.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := blueprint.Load(blueprintPath)
			if err != nil {
				return err
			}
			eng, cleanup, err := buildEngine(cmd.Context(), bp, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			rep, err := eng.Plan(cmd.Context())
			if err != nil {
				return err
			}
			if err := printReport(rep); err != nil {
				return err
			}
			if !jsonOutput {
				printPlanSummary(rep)
			}
			return nil
		},
	}

	return cmd
}

func printPlanSummary(rep *report.PlanReport) {
	counts := rep.Counts
	fmt.Println("Plan summary")
	fmt.Printf("- Users: create %d, update %d, conflicts %d\n",
		counts.UsersCreate, counts.UsersUpdate, counts.UsersConflict)
	fmt.Printf("- Groups: create %d, update %d, conflicts %d\n",
		counts.GroupsCreate, counts.GroupsUpdate, counts.GroupsConflict)
	fmt.Printf("- Licenses: assign %d\n", counts.LicensesAssign)
	fmt.Printf("- Drives: create %d, conflicts %d\n", counts.DrivesCreate, counts.DrivesConflict)
	fmt.Printf("- Folders: create %d\n", counts.FoldersCreate)
	fmt.Printf("- Docs: create %d, update %d\n", counts.DocsCreate, counts.DocsUpdate)
	if len(rep.Prerequisites) > 0 {
		fmt.Println("Prerequisites:")
		for _, item := range rep.Prerequisites {
			fmt.Printf("- %s\n", item)
		}
	}
	if len(rep.Conflicts) > 0 {
		fmt.Println("Conflicts:")
		for _, item := range rep.Conflicts {
			fmt.Printf("- %s\n", item)
		}
	}
}

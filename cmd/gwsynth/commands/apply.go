package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gwsynth/gwsynth/pkg/blueprint"
	"github.com/gwsynth/gwsynth/pkg/engine"
	"github.com/gwsynth/gwsynth/pkg/telemetry"
)

func newApplyCommand() *cobra.Command {
	var (
		yes         bool
		regen       bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Provision the synthetic tenant",
		Long: `Reconcile the live tenant to the blueprint: org unit, groups, users,
memberships, licenses, shared drives with folder trees and generated
documents, personal drive documents, and sharing rules.

Per-resource failures are recorded as warnings and the run continues;
only validation and tenant-guard failures abort up front. Foreign
objects occupying desired names are reported as conflicts and left
untouched.`,
		Example: `  gwsynth apply --blueprint blueprint.yaml --yes

  # Force fresh content even for unchanged documents
  gwsynth apply --blueprint blueprint.yaml --yes --regen

  # Expose Prometheus metrics while the run is in flight
  gwsynth apply --blueprint blueprint.yaml --yes --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("apply mutates the tenant; re-run with --yes")
			}
			bp, err := blueprint.Load(blueprintPath)
			if err != nil {
				return err
			}

			metricsCfg := telemetry.DefaultMetricsConfig()
			if metricsAddr != "" {
				metricsCfg.Enabled = true
				metricsCfg.ListenAddress = metricsAddr
			}
			metrics, err := telemetry.NewMetrics(metricsCfg)
			if err != nil {
				return err
			}
			metricsErrs := make(chan error, 1)
			metrics.Serve(metricsErrs)
			go func() {
				if err := <-metricsErrs; err != nil {
					log.Warn().Err(err).Msg("metrics server stopped")
				}
			}()

			eng, cleanup, err := buildEngine(cmd.Context(), bp, metrics)
			if err != nil {
				return err
			}
			defer cleanup()

			rep, err := eng.Apply(cmd.Context(), engine.ApplyOptions{Regen: regen})
			if err != nil {
				return err
			}
			return printReport(rep)
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the mutating run")
	cmd.Flags().BoolVar(&regen, "regen", false, "regenerate document content even when unchanged")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address during the run")

	return cmd
}

package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	sim "github.com/pathway-sim/pathway-sim/sim"
	"github.com/pathway-sim/pathway-sim/sim/report"
	"github.com/pathway-sim/pathway-sim/sim/scenario"
)

var (
	compareScenarioPaths []string // Scenario bundle YAMLs to run side by side
	compareArrivalsPath  string   // Shared arrival feed CSV
	compareCohortPath    string   // Shared synthetic cohort spec YAML
	compareCapacityPath  string   // Shared capacity supply feed YAML
	compareSeed          int64    // Override for the cohort spec seed
	compareOutPath       string   // Comparison JSON output
)

// compareCmd runs the same arrival feed under several named scenarios and
// reports per-step wait-queue lengths side by side.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run several scenarios over one arrival feed and compare queues",
	RunE: func(cmd *cobra.Command, args []string) error {
		arrivals, _, err := loadArrivals(compareArrivalsPath, compareCohortPath, compareSeed)
		if err != nil {
			return err
		}
		overrides, err := loadOverrides(compareCapacityPath)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var results []*sim.Result
		for _, path := range compareScenarioPaths {
			bundle, err := scenario.Load(path)
			if err != nil {
				return err
			}
			engine, err := bundle.Build(arrivals, overrides)
			if err != nil {
				return err
			}
			res, err := engine.Run(ctx)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
		cmp, err := report.Compare(results)
		if err != nil {
			return err
		}
		if err := cmp.WriteTable(cmd.OutOrStdout()); err != nil {
			return err
		}
		if compareOutPath != "" {
			return writeJSON(compareOutPath, cmp)
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().StringSliceVar(&compareScenarioPaths, "scenario", nil, "Scenario bundle YAML (repeat for each scenario)")
	compareCmd.Flags().StringVar(&compareArrivalsPath, "arrivals", "", "Arrival feed CSV shared by every scenario")
	compareCmd.Flags().StringVar(&compareCohortPath, "cohort", "", "Synthetic cohort spec YAML shared by every scenario")
	compareCmd.Flags().StringVar(&compareCapacityPath, "capacity", "", "Capacity supply feed YAML shared by every scenario")
	compareCmd.Flags().Int64Var(&compareSeed, "seed", -1, "Override the cohort spec seed (-1 keeps the spec's seed)")
	compareCmd.Flags().StringVar(&compareOutPath, "out", "", "Write the comparison as JSON")
	_ = compareCmd.MarkFlagRequired("scenario")
}

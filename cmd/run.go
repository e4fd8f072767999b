package cmd

import (
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/pathway-sim/pathway-sim/sim"
	"github.com/pathway-sim/pathway-sim/sim/report"
	"github.com/pathway-sim/pathway-sim/sim/scenario"
)

var (
	runScenarioPath   string // Scenario bundle YAML
	runArrivalsPath   string // Arrival feed CSV
	runCohortPath     string // Synthetic cohort spec YAML
	runCapacityPath   string // Capacity supply feed YAML
	runSeed           int64  // Override for the cohort spec seed (-1 keeps the spec's)
	runEventsPath     string // JSONL event log output
	runEventsCSVPath  string // CSV event log output
	runEventsDBPath   string // SQLite event sink
	runDecisionsPath  string // Decision export JSON
	runPriorityPath   string // Prioritisation list JSON
	runDischargePath  string // Early discharge flags JSON
	runInvestmentPath string // Investment recommendation JSON
	runGroupTrait     string // Trait grouping the prioritisation list
)

// runCmd executes one scenario over one arrival feed and writes the
// configured exports.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario over an arrival feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := scenario.Load(runScenarioPath)
		if err != nil {
			return err
		}
		arrivals, seed, err := loadArrivals(runArrivalsPath, runCohortPath, runSeed)
		if err != nil {
			return err
		}
		overrides, err := loadOverrides(runCapacityPath)
		if err != nil {
			return err
		}
		engine, err := bundle.Build(arrivals, overrides)
		if err != nil {
			return err
		}

		// A run may be stopped only between steps; partial results up to the
		// last committed step are retained and reported.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		res, err := engine.Run(ctx)
		if err != nil {
			return err
		}
		res.Metrics.Print()
		if res.Outcome == sim.OutcomeHorizonExhausted {
			logrus.Warnf("horizon exhausted with %d patients still active", res.ActiveRemaining)
		}
		return writeRunOutputs(res, seed)
	},
}

func writeRunOutputs(res *sim.Result, seed int64) error {
	if runEventsPath != "" {
		f, err := os.Create(runEventsPath)
		if err != nil {
			return err
		}
		err = report.WriteEventsJSONL(f, res.Scenario, res.Events)
		f.Close()
		if err != nil {
			return err
		}
	}
	if runEventsCSVPath != "" {
		f, err := os.Create(runEventsCSVPath)
		if err != nil {
			return err
		}
		err = report.WriteEventsCSV(f, res.Scenario, res.Events)
		f.Close()
		if err != nil {
			return err
		}
	}
	if runEventsDBPath != "" {
		store, err := report.OpenEventStore(runEventsDBPath)
		if err != nil {
			return err
		}
		runID, err := store.RecordRun(res, seed)
		store.Close()
		if err != nil {
			return err
		}
		logrus.Infof("events recorded: db=%s run=%s", runEventsDBPath, runID)
	}
	if runDecisionsPath != "" {
		f, err := os.Create(runDecisionsPath)
		if err != nil {
			return err
		}
		err = report.WriteDecisionsJSON(f, res.Decisions)
		f.Close()
		if err != nil {
			return err
		}
	}
	if runPriorityPath != "" {
		if err := writeJSON(runPriorityPath, report.BuildPrioritisationList(res, runGroupTrait)); err != nil {
			return err
		}
	}
	if runDischargePath != "" {
		if err := writeJSON(runDischargePath, report.CollectDischargeFlags(res)); err != nil {
			return err
		}
	}
	if runInvestmentPath != "" {
		if err := writeJSON(runInvestmentPath, report.RecommendInvestment(res)); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	runCmd.Flags().StringVar(&runScenarioPath, "scenario", "", "Scenario bundle YAML (required)")
	runCmd.Flags().StringVar(&runArrivalsPath, "arrivals", "", "Arrival feed CSV")
	runCmd.Flags().StringVar(&runCohortPath, "cohort", "", "Synthetic cohort spec YAML")
	runCmd.Flags().StringVar(&runCapacityPath, "capacity", "", "Capacity supply feed YAML")
	runCmd.Flags().Int64Var(&runSeed, "seed", -1, "Override the cohort spec seed (-1 keeps the spec's seed)")
	runCmd.Flags().StringVar(&runEventsPath, "events", "", "Write the event log as JSONL")
	runCmd.Flags().StringVar(&runEventsCSVPath, "events-csv", "", "Write the event log as CSV")
	runCmd.Flags().StringVar(&runEventsDBPath, "events-db", "", "Record the run into a SQLite event sink")
	runCmd.Flags().StringVar(&runDecisionsPath, "decisions", "", "Write the decision export as JSON")
	runCmd.Flags().StringVar(&runPriorityPath, "prioritisation", "", "Write the prioritisation list as JSON")
	runCmd.Flags().StringVar(&runDischargePath, "discharge-flags", "", "Write early discharge flags as JSON")
	runCmd.Flags().StringVar(&runInvestmentPath, "investment", "", "Write the investment recommendation as JSON")
	runCmd.Flags().StringVar(&runGroupTrait, "group-trait", "", "Group the prioritisation list by this trait (e.g. specialty)")
	_ = runCmd.MarkFlagRequired("scenario")
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	sim "github.com/pathway-sim/pathway-sim/sim"
	"github.com/pathway-sim/pathway-sim/sim/scenario"
)

var validateScenarioPaths []string // Scenario bundle YAMLs to check

// validateCmd checks scenario bundles without running anything, printing
// every violation found so a scenario can be fixed in one pass.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate scenario bundles without running them",
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range validateScenarioPaths {
			bundle, err := scenario.Load(path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				failed++
				continue
			}
			if err := bundle.Validate(); err != nil {
				var ce *sim.ConfigurationError
				if errors.As(err, &ce) {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d violation(s)\n", path, len(ce.Violations))
					for _, v := range ce.Violations {
						fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", v)
					}
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				}
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: scenario %q valid\n", path, bundle.Name)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scenario(s) failed validation", failed, len(validateScenarioPaths))
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringSliceVar(&validateScenarioPaths, "scenario", nil, "Scenario bundle YAML (repeatable)")
	_ = validateCmd.MarkFlagRequired("scenario")
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	sim "github.com/pathway-sim/pathway-sim/sim"
	"github.com/pathway-sim/pathway-sim/sim/feed"
)

// writeJSON writes v as indented JSON to path.
func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// loadArrivals resolves the arrival feed from exactly one of a CSV path or a
// synthetic cohort spec. Returns the arrivals and the seed that produced
// them (0 for CSV feeds).
func loadArrivals(arrivalsPath, cohortPath string, seed int64) ([]sim.Arrival, int64, error) {
	switch {
	case arrivalsPath != "" && cohortPath != "":
		return nil, 0, fmt.Errorf("--arrivals and --cohort are mutually exclusive")
	case arrivalsPath != "":
		arrivals, err := feed.ParseArrivalsCSV(arrivalsPath)
		return arrivals, 0, err
	case cohortPath != "":
		spec, err := feed.LoadCohortSpec(cohortPath)
		if err != nil {
			return nil, 0, err
		}
		if seed >= 0 {
			spec.Seed = seed
		}
		arrivals, err := spec.Generate()
		return arrivals, spec.Seed, err
	default:
		return nil, 0, fmt.Errorf("an arrival feed is required: set --arrivals or --cohort")
	}
}

// loadOverrides parses the optional capacity supply feed.
func loadOverrides(path string) ([]sim.CapacityOverride, error) {
	if path == "" {
		return nil, nil
	}
	return feed.LoadCapacityFeed(path)
}

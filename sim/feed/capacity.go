package feed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/pathway-sim/pathway-sim/sim"
)

// CapacityFeed is the YAML form of the external supply feed: explicit
// per-point, per-period capacity overrides merged into the ledger at load.
type CapacityFeed struct {
	Overrides []CapacityOverrideSpec `yaml:"overrides"`
}

// CapacityOverrideSpec pins one point's capacity for one period.
type CapacityOverrideSpec struct {
	Point    string `yaml:"point"`
	Period   int64  `yaml:"period"`
	Capacity int    `yaml:"capacity"`
}

// LoadCapacityFeed reads, parses and validates a capacity feed file.
func LoadCapacityFeed(path string) ([]sim.CapacityOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading capacity feed: %w", err)
	}
	var cf CapacityFeed
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing capacity feed: %w", err)
	}
	out := make([]sim.CapacityOverride, 0, len(cf.Overrides))
	for i, o := range cf.Overrides {
		if o.Point == "" {
			return nil, fmt.Errorf("capacity feed override %d: point not set", i)
		}
		if o.Period < 0 {
			return nil, fmt.Errorf("capacity feed override %d: negative period %d", i, o.Period)
		}
		if o.Capacity < 0 {
			return nil, fmt.Errorf("capacity feed override %d: negative capacity %d", i, o.Capacity)
		}
		out = append(out, sim.CapacityOverride{Point: o.Point, Period: o.Period, Capacity: o.Capacity})
	}
	return out, nil
}

// Package scenario loads, validates and freezes named scenario bundles: a
// pathway graph, initial capacities, decision rules with weights, and engine
// parameters. A bundle that fails validation reports every violation at
// once, before any simulation step runs.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/pathway-sim/pathway-sim/sim"
)

// ConditionSpec is the YAML form of a transition eligibility predicate.
// Exactly one of attribute or trait must be set.
type ConditionSpec struct {
	Attribute string  `yaml:"attribute"`
	Op        string  `yaml:"op"`
	Value     float64 `yaml:"value"`
	Trait     string  `yaml:"trait"`
	Equals    string  `yaml:"equals"`
}

// TransitionSpec is one outbound edge of a service point.
type TransitionSpec struct {
	To   string          `yaml:"to"`
	When []ConditionSpec `yaml:"when"`
}

// ServicePointSpec is the YAML form of a service point.
type ServicePointSpec struct {
	ID          string           `yaml:"id"`
	Activity    string           `yaml:"activity"`
	Capacity    int              `yaml:"capacity"`
	Terminal    bool             `yaml:"terminal"`
	Transitions []TransitionSpec `yaml:"transitions"`
}

// RuleSpec names, types and weights one decision rule. Weight is a pointer
// so "not set in YAML" is distinguishable from an explicit zero: scoring
// rules under the weighted-sum combiner must carry a weight.
type RuleSpec struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`
	Weight *float64       `yaml:"weight"`
	Params sim.RuleParams `yaml:"params"`
}

// DeltaSpec is an investment capacity delta: from the given period on, the
// point's capacity changes by delta.
type DeltaSpec struct {
	Point      string `yaml:"point"`
	FromPeriod int64  `yaml:"from_period"`
	Delta      int    `yaml:"delta"`
}

// Bundle is a named scenario configuration, loadable from a YAML file.
type Bundle struct {
	Name           string             `yaml:"name"`
	EntryPoint     string             `yaml:"entry_point"`
	DischargePoint string             `yaml:"discharge_point"`
	Horizon        int64              `yaml:"horizon"`
	PeriodLength   int64              `yaml:"period_length"`
	Workers        int                `yaml:"workers"`
	DefaultScore   float64            `yaml:"default_score"`
	Combiner       string             `yaml:"combiner"`
	ServicePoints  []ServicePointSpec `yaml:"service_points"`
	Rules          []RuleSpec         `yaml:"rules"`
	CapacityDeltas []DeltaSpec        `yaml:"capacity_deltas"`
}

// Load reads and parses a scenario bundle. The bundle is not yet validated;
// call Validate (or Build, which validates) before running.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &b, nil
}

// Validate checks the whole bundle and returns a *sim.ConfigurationError
// listing every violation found, or nil. Graph-level checks (undefined
// references, unreachable terminals) are included so operators fix a
// scenario in one pass.
func (b *Bundle) Validate() error {
	ce := &sim.ConfigurationError{}
	if b.Name == "" {
		ce.Add("scenario name not set")
	}
	if b.Horizon <= 0 {
		ce.Add("horizon must be positive, got %d", b.Horizon)
	}
	if b.PeriodLength < 0 {
		ce.Add("period_length must be non-negative, got %d", b.PeriodLength)
	}
	if b.Workers < 0 {
		ce.Add("workers must be non-negative, got %d", b.Workers)
	}
	if !sim.ValidCombiners[b.Combiner] {
		ce.Add("unknown combiner %q", b.Combiner)
	}
	if len(b.ServicePoints) == 0 {
		ce.Add("no service points defined")
	}
	if len(b.Rules) == 0 {
		ce.Add("no rules defined")
	}

	weighted := b.Combiner == "" || b.Combiner == "weighted-sum"
	names := map[string]bool{}
	hasDischargeSafety := false
	for i := range b.Rules {
		r := &b.Rules[i]
		if r.Name == "" {
			ce.Add("rule %d: name not set", i)
			continue
		}
		if names[r.Name] {
			ce.Add("rule %q defined twice", r.Name)
		}
		names[r.Name] = true
		if !sim.ValidRuleTypes[r.Type] {
			ce.Add("rule %q: unknown type %q", r.Name, r.Type)
			continue
		}
		if r.Type == "discharge-safety" {
			hasDischargeSafety = true
		} else if weighted && r.Weight == nil {
			ce.Add("rule %q: weight required under weighted-sum combiner", r.Name)
		}
		if r.Weight != nil && *r.Weight < 0 {
			ce.Add("rule %q: weight must be non-negative, got %f", r.Name, *r.Weight)
		}
		if _, err := sim.NewRule(r.Type, r.Name, r.Params); err != nil {
			ce.Add("%v", err)
		}
	}
	if hasDischargeSafety && b.DischargePoint == "" {
		ce.Add("discharge-safety rule configured but discharge_point not set")
	}

	pointIDs := map[string]bool{}
	for i := range b.ServicePoints {
		pointIDs[b.ServicePoints[i].ID] = true
	}
	for i := range b.CapacityDeltas {
		d := &b.CapacityDeltas[i]
		if !pointIDs[d.Point] {
			ce.Add("capacity delta %d: undefined service point %q", i, d.Point)
		}
		if d.FromPeriod < 0 {
			ce.Add("capacity delta %d: from_period must be non-negative, got %d", i, d.FromPeriod)
		}
	}

	// Graph construction runs its own validation; merge its violations.
	if _, err := b.buildGraph(); err != nil {
		var gce *sim.ConfigurationError
		if errors.As(err, &gce) {
			ce.Violations = append(ce.Violations, gce.Violations...)
		} else {
			ce.Add("%v", err)
		}
	}
	return ce.OrNil()
}

func (b *Bundle) buildGraph() (*sim.PathwayGraph, error) {
	points := make([]*sim.ServicePoint, 0, len(b.ServicePoints))
	for i := range b.ServicePoints {
		sp := &b.ServicePoints[i]
		p := &sim.ServicePoint{
			ID:       sp.ID,
			Activity: sp.Activity,
			Capacity: sp.Capacity,
			Terminal: sp.Terminal,
		}
		for j := range sp.Transitions {
			tr := sim.Transition{To: sp.Transitions[j].To}
			for k := range sp.Transitions[j].When {
				c := &sp.Transitions[j].When[k]
				tr.When = append(tr.When, sim.Condition{
					Attribute: c.Attribute,
					Op:        c.Op,
					Value:     c.Value,
					Trait:     c.Trait,
					Equals:    c.Equals,
				})
			}
			p.Transitions = append(p.Transitions, tr)
		}
		points = append(points, p)
	}
	return sim.NewPathwayGraph(points, b.EntryPoint, b.DischargePoint)
}

// Build validates the bundle, freezes it, and assembles a ready-to-run
// engine over the given arrival feed. Capacity overrides from the external
// supply feed are applied to the ledger before the first step.
func (b *Bundle) Build(arrivals []sim.Arrival, overrides []sim.CapacityOverride) (*sim.Engine, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	graph, err := b.buildGraph()
	if err != nil {
		return nil, err
	}
	ledger := sim.NewResourceLedger(graph)
	for i := range b.CapacityDeltas {
		d := &b.CapacityDeltas[i]
		ledger.AddDelta(sim.CapacityDelta{Point: d.Point, FromPeriod: d.FromPeriod, Delta: d.Delta})
	}
	for i := range overrides {
		ledger.SetOverride(overrides[i].Point, overrides[i].Period, overrides[i].Capacity)
	}
	rules := make([]sim.ConfiguredRule, 0, len(b.Rules))
	for i := range b.Rules {
		rs := &b.Rules[i]
		rule, err := sim.NewRule(rs.Type, rs.Name, rs.Params)
		if err != nil {
			return nil, err
		}
		w := 0.0
		if rs.Weight != nil {
			w = *rs.Weight
		}
		rules = append(rules, sim.ConfiguredRule{Name: rs.Name, Weight: w, Rule: rule})
	}
	combiner, err := sim.NewCombiner(b.Combiner)
	if err != nil {
		return nil, err
	}
	return sim.NewEngine(sim.EngineConfig{
		Scenario:     b.Name,
		Graph:        graph,
		Ledger:       ledger,
		Rules:        rules,
		Combiner:     combiner,
		DefaultScore: b.DefaultScore,
		Horizon:      b.Horizon,
		PeriodLength: b.PeriodLength,
		Workers:      b.Workers,
	}, arrivals)
}

package sim

import "testing"

// twoPointGraph builds triage -> ward with ward terminal.
func twoPointGraph(t *testing.T, triageCap, wardCap int) *PathwayGraph {
	t.Helper()
	g, err := NewPathwayGraph([]*ServicePoint{
		{ID: "triage", Activity: "assessment", Capacity: triageCap,
			Transitions: []Transition{{To: "ward"}}},
		{ID: "ward", Activity: "admission", Capacity: wardCap, Terminal: true},
	}, "triage", "")
	if err != nil {
		t.Fatalf("building graph: %v", err)
	}
	return g
}

func attrArrival(id string, at int64, attrs map[string]float64) Arrival {
	return Arrival{PatientID: id, Time: at, Attributes: attrs, Traits: map[string]string{}}
}

func attrRule(name, attribute string, weight float64) ConfiguredRule {
	return ConfiguredRule{Name: name, Weight: weight,
		Rule: &AttributeRule{Name: name, Attribute: attribute}}
}

func mustEngine(t *testing.T, cfg EngineConfig, arrivals []Arrival) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, arrivals)
	if err != nil {
		t.Fatalf("building engine: %v", err)
	}
	return e
}

func baseConfig(g *PathwayGraph, rules ...ConfiguredRule) EngineConfig {
	return EngineConfig{
		Scenario:     "test",
		Graph:        g,
		Ledger:       NewResourceLedger(g),
		Rules:        rules,
		Combiner:     WeightedSumCombiner{},
		DefaultScore: 0.5,
		Horizon:      50,
		PeriodLength: 1,
		Workers:      4,
	}
}

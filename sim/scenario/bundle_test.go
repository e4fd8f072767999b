package scenario

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/pathway-sim/pathway-sim/sim"
)

const validScenarioYAML = `
name: scenario-a
entry_point: triage
discharge_point: discharged
horizon: 20
period_length: 1
workers: 2
default_score: 0.5
combiner: weighted-sum
service_points:
  - id: triage
    activity: assessment
    capacity: 2
    transitions:
      - to: ward
        when:
          - attribute: acuity
            op: ">="
            value: 3
      - to: discharged
  - id: ward
    activity: admission
    capacity: 5
    terminal: true
  - id: discharged
    activity: exit
    capacity: 10
    terminal: true
rules:
  - name: complexity
    type: attribute
    weight: 0.5
    params:
      attribute: complexity
  - name: acuity
    type: attribute
    weight: 0.3
    params:
      attribute: acuity
  - name: vitals
    type: trait-map
    weight: 0.2
    params:
      trait: vitals_trend
      levels:
        Deteriorating: 1.0
        Stable: 0.5
        Improving: 0.0
  - name: discharge
    type: discharge-safety
    params:
      thresholds:
        - attribute: recovery
          op: ">="
          value: 0.8
capacity_deltas:
  - point: ward
    from_period: 5
    delta: 3
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidBundle(t *testing.T) {
	b, err := Load(writeScenario(t, validScenarioYAML))
	require.NoError(t, err)
	require.NoError(t, b.Validate())

	assert.Equal(t, "scenario-a", b.Name)
	assert.Equal(t, "triage", b.EntryPoint)
	assert.Len(t, b.ServicePoints, 3)
	assert.Len(t, b.Rules, 4)
	require.NotNil(t, b.Rules[0].Weight)
	assert.Equal(t, 0.5, *b.Rules[0].Weight)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeScenario(t, "rules: ["))
	assert.Error(t, err)
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	bad := `
name: ""
horizon: -1
combiner: vibes
service_points:
  - id: triage
    capacity: -2
    transitions:
      - to: nowhere
rules:
  - name: broken
    type: magic
  - name: unweighted
    type: attribute
    params:
      attribute: acuity
capacity_deltas:
  - point: missing
    from_period: -1
    delta: 1
`
	b, err := Load(writeScenario(t, bad))
	require.NoError(t, err)

	err = b.Validate()
	require.Error(t, err)
	var ce *sim.ConfigurationError
	require.ErrorAs(t, err, &ce)

	// One pass reports everything: name, horizon, combiner, unknown rule
	// type, missing weight, delta violations, and the graph errors.
	assert.GreaterOrEqual(t, len(ce.Violations), 8)
	assert.Contains(t, err.Error(), "scenario name not set")
	assert.Contains(t, err.Error(), "horizon must be positive")
	assert.Contains(t, err.Error(), `unknown combiner "vibes"`)
	assert.Contains(t, err.Error(), `unknown type "magic"`)
	assert.Contains(t, err.Error(), "weight required under weighted-sum")
	assert.Contains(t, err.Error(), `undefined service point "missing"`)
	assert.Contains(t, err.Error(), `undefined point "nowhere"`)
	assert.Contains(t, err.Error(), "negative capacity")
	assert.Contains(t, err.Error(), "entry point not set")
}

func TestValidate_DischargeSafetyNeedsDischargePoint(t *testing.T) {
	yaml := `
name: s
entry_point: a
horizon: 10
service_points:
  - id: a
    capacity: 1
    terminal: true
rules:
  - name: discharge
    type: discharge-safety
    params:
      thresholds:
        - attribute: recovery
          op: ">="
          value: 0.8
`
	b, err := Load(writeScenario(t, yaml))
	require.NoError(t, err)
	err = b.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discharge_point not set")
}

func TestValidate_LexicographicDoesNotRequireWeights(t *testing.T) {
	yaml := `
name: s
entry_point: a
horizon: 10
combiner: lexicographic
service_points:
  - id: a
    capacity: 1
    terminal: true
rules:
  - name: acuity
    type: attribute
    params:
      attribute: acuity
`
	b, err := Load(writeScenario(t, yaml))
	require.NoError(t, err)
	assert.NoError(t, b.Validate())
}

func TestBuild_ProducesRunnableEngine(t *testing.T) {
	b, err := Load(writeScenario(t, validScenarioYAML))
	require.NoError(t, err)

	arrivals := []sim.Arrival{
		{PatientID: "p1", Time: 0,
			Attributes: map[string]float64{"complexity": 3, "acuity": 4, "recovery": 0.1},
			Traits:     map[string]string{"vitals_trend": "Stable"}},
		{PatientID: "p2", Time: 0,
			Attributes: map[string]float64{"complexity": 1, "acuity": 1, "recovery": 0.9},
			Traits:     map[string]string{"vitals_trend": "Improving"}},
	}
	engine, err := b.Build(arrivals, nil)
	require.NoError(t, err)

	res, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sim.OutcomeCompleted, res.Outcome)
	assert.Equal(t, "scenario-a", res.Scenario)
	// p2 meets the discharge criteria and leaves through the exit point.
	assert.Equal(t, 1, res.Metrics.Discharged)
	for _, d := range res.Decisions {
		assert.NotEmpty(t, d.Rationale, "decision for %s", d.PatientID)
	}
}

func TestBuild_RefusesInvalidBundle(t *testing.T) {
	b := &Bundle{Name: "s"} // everything else missing
	_, err := b.Build(nil, nil)
	require.Error(t, err)
	var ce *sim.ConfigurationError
	assert.True(t, errors.As(err, &ce), "want *sim.ConfigurationError, got %T", err)
}

func TestBuild_AppliesCapacityOverrides(t *testing.T) {
	yaml := `
name: s
entry_point: a
horizon: 10
service_points:
  - id: a
    capacity: 5
    terminal: true
rules:
  - name: acuity
    type: attribute
    weight: 1.0
    params:
      attribute: acuity
`
	b, err := Load(writeScenario(t, yaml))
	require.NoError(t, err)

	// Supply feed closes the point in period 0: everyone waits one step.
	overrides := []sim.CapacityOverride{{Point: "a", Period: 0, Capacity: 0}}
	arrivals := []sim.Arrival{
		{PatientID: "p1", Time: 0, Attributes: map[string]float64{"acuity": 1}},
	}
	engine, err := b.Build(arrivals, overrides)
	require.NoError(t, err)

	res, err := engine.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, res.Events)
	assert.Equal(t, sim.ActionWait, res.Events[0].Action)
	assert.Equal(t, sim.OutcomeCompleted, res.Outcome)
}

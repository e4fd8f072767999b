package report

import (
	sim "github.com/pathway-sim/pathway-sim/sim"
)

// fixtureEmpty is a run that never committed a step.
var fixtureEmpty = sim.Result{Scenario: "empty", Outcome: sim.OutcomeCompleted}

// fixtureResult is a small two-step run: p1 advances then discharges, p2
// waits both steps for triage, p3 is flagged at the final step.
func fixtureResult() *sim.Result {
	m := sim.NewMetrics()
	m.StepsRun = 2
	m.Decisions = 6
	m.Discharged = 1
	m.Flagged = 1
	m.PerPoint["triage"] = &sim.PointMetrics{Admitted: 1, Denied: 2, WaitSteps: 2, PeakQueue: 1}
	m.PerPoint["ward"] = &sim.PointMetrics{Admitted: 1}

	rationale := func(rule string, v float64) []sim.RuleContribution {
		return []sim.RuleContribution{{Rule: rule, Weight: 1, Value: v, Weighted: v, Note: "fixture"}}
	}
	return &sim.Result{
		Scenario:        "scenario-a",
		Outcome:         sim.OutcomeHorizonExhausted,
		StepsRun:        2,
		ActiveRemaining: 2,
		Metrics:         m,
		Events: []sim.Event{
			{PatientID: "p1", Time: 0, Point: "triage", Action: sim.ActionAdvance, Priority: 0.9, Rationale: rationale("acuity", 0.9)},
			{PatientID: "p2", Time: 0, Point: "triage", Action: sim.ActionWait, Priority: 0.4, Rationale: rationale("acuity", 0.4)},
			{PatientID: "p1", Time: 1, Point: "discharged", Action: sim.ActionDischarge, Priority: 0.9, Rationale: rationale("discharge", 0)},
			{PatientID: "p2", Time: 1, Point: "triage", Action: sim.ActionWait, Priority: 0.4, Rationale: rationale("acuity", 0.4)},
			{PatientID: "p3", Time: 1, Point: "triage", Action: sim.ActionFlagged, Priority: 0.5, Rationale: rationale("discharge", 0), Degraded: true},
		},
		Decisions: []sim.Decision{
			{PatientID: "p1", Time: 0, Action: sim.ActionAdvance, Target: "triage", Priority: 0.9, Rationale: rationale("acuity", 0.9)},
			{PatientID: "p2", Time: 0, Action: sim.ActionWait, Target: "triage", Priority: 0.4, Rationale: rationale("acuity", 0.4)},
			{PatientID: "p1", Time: 1, Action: sim.ActionDischarge, Target: "discharged", Priority: 0.9, Rationale: rationale("discharge", 0)},
			{PatientID: "p2", Time: 1, Action: sim.ActionWait, Target: "triage", Priority: 0.4, Rationale: rationale("acuity", 0.4)},
			{PatientID: "p3", Time: 1, Action: sim.ActionFlagged, Target: "", Priority: 0.5, Rationale: rationale("discharge", 0), Degraded: true},
		},
		QueueSeries: []sim.StepQueues{
			{Time: 0, Waiting: map[string]int{"triage": 1}},
			{Time: 1, Waiting: map[string]int{"triage": 1}},
		},
		FinalViews: []*sim.PatientView{
			{ID: "p1", Traits: map[string]string{"specialty": "medical"}},
			{ID: "p2", Traits: map[string]string{"specialty": "surgical"}},
			{ID: "p3", Traits: map[string]string{"specialty": "medical"}},
		},
	}
}

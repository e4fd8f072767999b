package sim

// Action is the outcome a decision assigns to a patient for one step.
type Action string

const (
	// ActionAdvance moves the patient to the decision's target service point.
	ActionAdvance Action = "advance"
	// ActionWait keeps the patient in place; re-evaluated next step.
	ActionWait Action = "wait"
	// ActionDischarge routes the patient to the scenario's discharge point.
	ActionDischarge Action = "discharge"
	// ActionFlagged holds the patient for human review; the patient stays in
	// place and the flag is carried on the emitted event.
	ActionFlagged Action = "flagged-for-review"
	// ActionArrived appears only in patient history, marking the arrival
	// record. It is never produced by a decision.
	ActionArrived Action = "arrived"
)

// RuleContribution is one entry of a decision rationale: which rule fired,
// with what weight, what it scored, and its weighted share of the priority.
type RuleContribution struct {
	Rule     string  `json:"rule"`
	Weight   float64 `json:"weight"`
	Value    float64 `json:"value"`
	Weighted float64 `json:"weighted"`
	Note     string  `json:"note,omitempty"`
}

// Decision is the output record for one patient at one step. Rationale is
// mandatory: every decision carries at least one contribution, including
// fallback entries for rules that failed and the admission-control entry
// appended when a reservation is denied.
type Decision struct {
	PatientID string             `json:"patient_id"`
	Time      int64              `json:"time"`
	Action    Action             `json:"action"`
	Target    string             `json:"target,omitempty"`
	Priority  float64            `json:"priority"`
	Rationale []RuleContribution `json:"rationale"`
	// Degraded marks decisions where at least one rule fell back to the
	// scenario default score (e.g. a missing attribute).
	Degraded bool `json:"degraded,omitempty"`

	arrivalTime int64 // tie-break key, carried from the patient
}

// Event is the event-level record emitted at Commit, sufficient for external
// aggregation into activity tables and waiting-list profiles.
type Event struct {
	PatientID string             `json:"patient_id"`
	Time      int64              `json:"time"`
	Point     string             `json:"service_point"`
	Action    Action             `json:"action"`
	Priority  float64            `json:"priority"`
	Rationale []RuleContribution `json:"rationale"`
	Degraded  bool               `json:"degraded,omitempty"`
}

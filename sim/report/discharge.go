package report

import (
	sim "github.com/pathway-sim/pathway-sim/sim"
)

// DischargeFlag is one early-discharge signal for the dashboard: either a
// patient the rules discharged, or one flagged for human review because the
// safety criteria could not be assessed.
type DischargeFlag struct {
	PatientID string `json:"patient_id"`
	Time      int64  `json:"time"`
	Action    string `json:"action"`
	Degraded  bool   `json:"degraded,omitempty"`
	Rationale string `json:"rationale"`
}

// CollectDischargeFlags extracts every discharge and flagged-for-review
// decision from a run, in emission order.
func CollectDischargeFlags(res *sim.Result) []DischargeFlag {
	var flags []DischargeFlag
	for i := range res.Decisions {
		d := &res.Decisions[i]
		if d.Action != sim.ActionDischarge && d.Action != sim.ActionFlagged {
			continue
		}
		flags = append(flags, DischargeFlag{
			PatientID: d.PatientID,
			Time:      d.Time,
			Action:    string(d.Action),
			Degraded:  d.Degraded,
			Rationale: FlattenRationale(d.Rationale),
		})
	}
	return flags
}

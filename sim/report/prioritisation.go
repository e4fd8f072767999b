package report

import (
	"sort"

	sim "github.com/pathway-sim/pathway-sim/sim"
)

// PrioritisationEntry is one row of the dashboard prioritisation list: a
// patient still waiting at the end of the run, ranked by the engine's
// tie-broken admission order.
type PrioritisationEntry struct {
	Rank      int     `json:"rank"`
	Group     string  `json:"group,omitempty"`
	PatientID string  `json:"patient_id"`
	Point     string  `json:"service_point"`
	Priority  float64 `json:"priority"`
	Rationale string  `json:"rationale"`
}

// BuildPrioritisationList extracts the waiting patients from the last
// committed step, preserving the engine's admission order (priority desc,
// arrival asc, patient id asc). When groupTrait is non-empty, entries are
// grouped by that trait (groups alphabetical, ranks restarting per group),
// matching clinic-by-specialty worklists.
func BuildPrioritisationList(res *sim.Result, groupTrait string) []PrioritisationEntry {
	if len(res.Decisions) == 0 {
		return nil
	}
	lastTime := res.Decisions[len(res.Decisions)-1].Time
	traits := map[string]string{}
	if groupTrait != "" {
		for _, v := range res.FinalViews {
			if tv, ok := v.Trait(groupTrait); ok {
				traits[v.ID] = tv
			}
		}
	}

	var entries []PrioritisationEntry
	for i := range res.Decisions {
		d := &res.Decisions[i]
		if d.Time != lastTime {
			continue
		}
		if d.Action != sim.ActionWait && d.Action != sim.ActionFlagged {
			continue
		}
		entries = append(entries, PrioritisationEntry{
			Group:     traits[d.PatientID],
			PatientID: d.PatientID,
			Point:     d.Target,
			Priority:  d.Priority,
			Rationale: FlattenRationale(d.Rationale),
		})
	}
	if groupTrait != "" {
		// Stable: within a group the engine's admission order is preserved.
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Group < entries[j].Group })
	}
	rank, lastGroup := 0, ""
	for i := range entries {
		if groupTrait != "" && entries[i].Group != lastGroup {
			rank, lastGroup = 0, entries[i].Group
		}
		rank++
		entries[i].Rank = rank
	}
	return entries
}

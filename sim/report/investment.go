package report

import (
	"fmt"
	"sort"

	sim "github.com/pathway-sim/pathway-sim/sim"
)

// Recommendation ranks one service point as an investment target, with the
// evidence behind the ranking. The top entry is the bottleneck that turned
// the most patients away.
type Recommendation struct {
	Rank      int    `json:"rank"`
	Point     string `json:"service_point"`
	Denied    int    `json:"denied_admissions"`
	WaitSteps int    `json:"wait_patient_steps"`
	PeakQueue int    `json:"peak_queue"`
	Rationale string `json:"rationale"`
}

// RecommendInvestment analyses a run's per-point metrics and ranks the
// points where extra capacity would relieve the most waiting. Points that
// never denied an admission and never held a queue are omitted. Ordering is
// denied admissions desc, then wait steps desc, then peak queue desc, then
// point id asc for determinism.
func RecommendInvestment(res *sim.Result) []Recommendation {
	var recs []Recommendation
	for point, pm := range res.Metrics.PerPoint {
		if pm.Denied == 0 && pm.WaitSteps == 0 && pm.PeakQueue == 0 {
			continue
		}
		recs = append(recs, Recommendation{
			Point:     point,
			Denied:    pm.Denied,
			WaitSteps: pm.WaitSteps,
			PeakQueue: pm.PeakQueue,
			Rationale: fmt.Sprintf(
				"denied %d admissions over %d steps; patients spent %d steps waiting (peak queue %d); additional per-period capacity here relieves the largest share of waiting",
				pm.Denied, res.StepsRun, pm.WaitSteps, pm.PeakQueue),
		})
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Denied != recs[j].Denied {
			return recs[i].Denied > recs[j].Denied
		}
		if recs[i].WaitSteps != recs[j].WaitSteps {
			return recs[i].WaitSteps > recs[j].WaitSteps
		}
		if recs[i].PeakQueue != recs[j].PeakQueue {
			return recs[i].PeakQueue > recs[j].PeakQueue
		}
		return recs[i].Point < recs[j].Point
	})
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs
}

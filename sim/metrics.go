package sim

import (
	"fmt"
	"sort"
)

// PointMetrics aggregates per-service-point counters over a run. Denied and
// WaitSteps are the raw material for investment recommendations: a point
// that keeps turning patients away is the bottleneck to fund.
type PointMetrics struct {
	Admitted  int // reservations granted
	Denied    int // reservations refused for lack of capacity
	WaitSteps int // patient-steps spent waiting for this point
	PeakQueue int // largest single-step wait queue observed
}

// Metrics aggregates statistics about the simulation for final reporting.
type Metrics struct {
	StepsRun       int64
	Decisions      int
	Degraded       int
	Discharged     int
	Flagged        int
	TerminalCount  int
	ActiveAtEnd    int
	PerPoint       map[string]*PointMetrics
	TotalWaitSteps int
}

// NewMetrics creates an empty metrics accumulator.
func NewMetrics() *Metrics {
	return &Metrics{PerPoint: make(map[string]*PointMetrics)}
}

func (m *Metrics) point(id string) *PointMetrics {
	pm, ok := m.PerPoint[id]
	if !ok {
		pm = &PointMetrics{}
		m.PerPoint[id] = pm
	}
	return pm
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print() {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Steps Run            : %d\n", m.StepsRun)
	fmt.Printf("Decisions Emitted    : %d\n", m.Decisions)
	fmt.Printf("Degraded Decisions   : %d\n", m.Degraded)
	fmt.Printf("Discharged           : %d\n", m.Discharged)
	fmt.Printf("Flagged For Review   : %d\n", m.Flagged)
	fmt.Printf("Terminal Patients    : %d\n", m.TerminalCount)
	fmt.Printf("Still Active         : %d\n", m.ActiveAtEnd)
	fmt.Printf("Total Wait Steps     : %d\n", m.TotalWaitSteps)
	ids := make([]string, 0, len(m.PerPoint))
	for id := range m.PerPoint {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		pm := m.PerPoint[id]
		fmt.Printf("  %-20s admitted=%d denied=%d wait-steps=%d peak-queue=%d\n",
			id, pm.Admitted, pm.Denied, pm.WaitSteps, pm.PeakQueue)
	}
}

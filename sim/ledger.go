package sim

import (
	"fmt"
	"sort"
	"sync"
)

// CapacityOverride pins one point's capacity for one period. Produced by the
// external supply feed (workforce/capacity model).
type CapacityOverride struct {
	Point    string
	Period   int64
	Capacity int
}

// CapacityDelta adjusts a point's effective capacity from a period onward.
// This is how investment scenarios add (or remove) workforce without mutating
// the pathway graph mid-run.
type CapacityDelta struct {
	Point      string
	FromPeriod int64
	Delta      int
}

type ledgerKey struct {
	point  string
	period int64
}

// ResourceLedger tracks per (service point, period) capacity used versus
// available. Reservation is an atomic check-and-commit under a single lock,
// so concurrent attempts within one Admit phase can never over-admit.
type ResourceLedger struct {
	mu        sync.Mutex
	base      map[string]int            // per-period capacity from the graph
	overrides map[ledgerKey]int         // explicit per-period capacity from the supply feed
	deltas    map[string][]CapacityDelta // investment deltas, sorted by FromPeriod
	used      map[ledgerKey]int
}

// NewResourceLedger builds a ledger from the graph's per-point capacities.
func NewResourceLedger(graph *PathwayGraph) *ResourceLedger {
	l := &ResourceLedger{
		base:      make(map[string]int),
		overrides: make(map[ledgerKey]int),
		deltas:    make(map[string][]CapacityDelta),
		used:      make(map[ledgerKey]int),
	}
	for _, id := range graph.PointIDs() {
		sp, _ := graph.Point(id)
		l.base[id] = sp.Capacity
	}
	return l
}

// SetOverride pins a point's capacity for one period, taking precedence over
// base capacity and deltas. Used by the external supply feed.
func (l *ResourceLedger) SetOverride(point string, period int64, capacity int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.overrides[ledgerKey{point, period}] = capacity
}

// AddDelta registers an investment capacity delta.
func (l *ResourceLedger) AddDelta(d CapacityDelta) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ds := append(l.deltas[d.Point], d)
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].FromPeriod < ds[j].FromPeriod })
	l.deltas[d.Point] = ds
}

func (l *ResourceLedger) capacityAt(point string, period int64) int {
	if c, ok := l.overrides[ledgerKey{point, period}]; ok {
		return c
	}
	c := l.base[point]
	for _, d := range l.deltas[point] {
		if d.FromPeriod > period {
			break
		}
		c += d.Delta
	}
	if c < 0 {
		c = 0
	}
	return c
}

// CapacityAt returns the effective capacity of a point in a period.
func (l *ResourceLedger) CapacityAt(point string, period int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.capacityAt(point, period)
}

// Usage returns how many admissions have been granted for a point in a period.
func (l *ResourceLedger) Usage(point string, period int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used[ledgerKey{point, period}]
}

// TryReserve atomically claims count units of a point's capacity for a
// period. Returns false (and claims nothing) if the remaining capacity is
// insufficient. A non-positive count is an engine bug and returns a
// ResourceError.
func (l *ResourceLedger) TryReserve(point string, period int64, count int) (bool, error) {
	if count <= 0 {
		return false, &ResourceError{Point: point, Period: period, Op: "reserve",
			Detail: "non-positive count"}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey{point, period}
	if l.used[key]+count > l.capacityAt(point, period) {
		return false, nil
	}
	l.used[key] += count
	return true, nil
}

// Release returns previously granted units. Releasing more than was granted
// is an engine bug: it fails with a ResourceError and the ledger is left
// unchanged, never clamped.
func (l *ResourceLedger) Release(point string, period int64, count int) error {
	if count <= 0 {
		return &ResourceError{Point: point, Period: period, Op: "release",
			Detail: "non-positive count"}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey{point, period}
	if count > l.used[key] {
		return &ResourceError{Point: point, Period: period, Op: "release",
			Detail: fmt.Sprintf("over-release: %d > granted %d", count, l.used[key])}
	}
	l.used[key] -= count
	return nil
}

package sim

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Outcome classifies how a run ended.
type Outcome string

const (
	// OutcomeCompleted means every patient reached a terminal point and the
	// arrival feed was drained.
	OutcomeCompleted Outcome = "completed"
	// OutcomeHorizonExhausted means the configured maximum step count was
	// reached with patients still active. Reported, not treated as failure.
	OutcomeHorizonExhausted Outcome = "horizon-exhausted"
	// OutcomeStopped means the run was cancelled between steps. Results up
	// to the last committed step are retained.
	OutcomeStopped Outcome = "stopped"
)

// StepQueues records the wait queue per service point at one step.
type StepQueues struct {
	Time    int64          `json:"time"`
	Waiting map[string]int `json:"waiting"`
}

// Result is everything a run produced: the final outcome, event-level
// records for external aggregation, the post-admission decisions, per-step
// queue lengths, and aggregate metrics.
type Result struct {
	Scenario        string
	Outcome         Outcome
	StepsRun        int64
	ActiveRemaining int
	Events          []Event
	Decisions       []Decision
	QueueSeries     []StepQueues
	FinalViews      []*PatientView
	Metrics         *Metrics
}

// EngineConfig is the frozen configuration handed to NewEngine. It is
// assembled by the scenario package; the engine never reads ambient globals.
type EngineConfig struct {
	Scenario     string
	Graph        *PathwayGraph
	Ledger       *ResourceLedger
	Rules        []ConfiguredRule
	Combiner     Combiner
	DefaultScore float64
	Horizon      int64
	PeriodLength int64
	Workers      int
}

// Engine advances the patient population through the pathway graph one
// batch-synchronous step at a time: Collect, Evaluate, Admit, Commit,
// terminal check. Steps never overlap; Commit of step N fully completes
// before Evaluate of step N+1 begins.
type Engine struct {
	cfg         EngineConfig
	store       *PatientStateStore
	arrivals    []Arrival
	nextArrival int
	waiting     map[string]int // wait queue per point, carried into the next snapshot
	metrics     *Metrics
}

// NewEngine validates the configuration and arrival feed and builds an
// engine. Arrivals are processed in (time, patient id) order regardless of
// feed order.
func NewEngine(cfg EngineConfig, arrivals []Arrival) (*Engine, error) {
	if cfg.Graph == nil || cfg.Ledger == nil || cfg.Combiner == nil {
		return nil, fmt.Errorf("engine config incomplete: graph, ledger and combiner are required")
	}
	if len(cfg.Rules) == 0 {
		return nil, fmt.Errorf("engine config incomplete: at least one rule is required")
	}
	if cfg.Horizon <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", cfg.Horizon)
	}
	if cfg.PeriodLength <= 0 {
		cfg.PeriodLength = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	sorted := make([]Arrival, len(arrivals))
	copy(sorted, arrivals)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Time != sorted[j].Time {
			return sorted[i].Time < sorted[j].Time
		}
		return sorted[i].PatientID < sorted[j].PatientID
	})
	seen := make(map[string]bool, len(sorted))
	for i := range sorted {
		if sorted[i].PatientID == "" {
			return nil, fmt.Errorf("arrival %d has empty patient id", i)
		}
		if seen[sorted[i].PatientID] {
			return nil, fmt.Errorf("duplicate patient id %q in arrival feed", sorted[i].PatientID)
		}
		seen[sorted[i].PatientID] = true
	}
	return &Engine{
		cfg:      cfg,
		store:    NewPatientStateStore(),
		arrivals: sorted,
		waiting:  make(map[string]int),
		metrics:  NewMetrics(),
	}, nil
}

// Run executes the step loop until no active patients remain and the feed is
// drained, the horizon is reached, or ctx is cancelled. Cancellation is
// checked only between steps; a step in progress always commits. Partial
// results up to the last committed step are always returned.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	res := &Result{Scenario: e.cfg.Scenario, Metrics: e.metrics}
	logrus.Infof("starting run: scenario=%q horizon=%d patients=%d rules=%d combiner=%s",
		e.cfg.Scenario, e.cfg.Horizon, len(e.arrivals), len(e.cfg.Rules), e.cfg.Combiner.Name())

	outcome := OutcomeHorizonExhausted
	for t := int64(0); t < e.cfg.Horizon; t++ {
		if ctx.Err() != nil {
			outcome = OutcomeStopped
			break
		}
		e.injectArrivals(t)
		if e.store.ActiveCount() == 0 {
			if e.nextArrival >= len(e.arrivals) {
				outcome = OutcomeCompleted
				break
			}
			continue // idle until the next arrival is due
		}
		if err := e.step(t, res); err != nil {
			e.finish(res, outcome)
			return res, err
		}
		e.metrics.StepsRun++
	}
	e.finish(res, outcome)
	logrus.Infof("run finished: outcome=%s steps=%d active-remaining=%d",
		res.Outcome, res.StepsRun, res.ActiveRemaining)
	return res, nil
}

func (e *Engine) finish(res *Result, outcome Outcome) {
	res.Outcome = outcome
	res.StepsRun = e.metrics.StepsRun
	res.ActiveRemaining = e.store.ActiveCount()
	res.FinalViews = e.store.Snapshot()
	e.metrics.ActiveAtEnd = res.ActiveRemaining
}

// injectArrivals admits every patient whose arrival time is due.
func (e *Engine) injectArrivals(t int64) {
	for e.nextArrival < len(e.arrivals) && e.arrivals[e.nextArrival].Time <= t {
		a := e.arrivals[e.nextArrival]
		if err := e.store.Admit(a); err != nil {
			// Feed was validated in NewEngine; this is unreachable.
			logrus.Warnf("dropping arrival: %v", err)
		}
		e.nextArrival++
	}
}

// step runs one full Collect / Evaluate / Admit / Commit cycle.
func (e *Engine) step(t int64, res *Result) error {
	period := t / e.cfg.PeriodLength

	// Collect: immutable snapshot of active patients and queue pressure.
	var active []*PatientView
	for _, v := range e.store.Snapshot() {
		if !v.Terminal {
			active = append(active, v)
		}
	}
	snap := NewSystemSnapshot(t, period, active, e.waiting)

	// Evaluate: read-only and embarrassingly parallel. Results land in an
	// index-addressed slice so completion order cannot affect output.
	decisions := make([]Decision, len(active))
	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Workers)
	for i := range active {
		i := i
		g.Go(func() error {
			decisions[i] = e.evaluate(active[i], snap)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Admit: process in tie-break order — priority desc, arrival asc,
	// patient id asc. Never by unspecified ordering.
	order := make([]*Decision, len(decisions))
	for i := range decisions {
		order[i] = &decisions[i]
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Priority != order[j].Priority {
			return order[i].Priority > order[j].Priority
		}
		if order[i].arrivalTime != order[j].arrivalTime {
			return order[i].arrivalTime < order[j].arrivalTime
		}
		return order[i].PatientID < order[j].PatientID
	})
	for _, d := range order {
		if d.Action != ActionAdvance && d.Action != ActionDischarge {
			continue
		}
		granted, err := e.cfg.Ledger.TryReserve(d.Target, period, 1)
		if err != nil {
			return err // engine bug; fatal, never clamped
		}
		if granted {
			e.metrics.point(d.Target).Admitted++
			continue
		}
		e.metrics.point(d.Target).Denied++
		d.Action = ActionWait
		d.Rationale = append(d.Rationale, RuleContribution{
			Rule: "admission-control",
			Note: fmt.Sprintf("capacity exhausted at %q in period %d", d.Target, period),
		})
	}

	// Commit: apply queued transitions, emit events, roll the wait queues.
	waiting := make(map[string]int)
	for _, d := range order {
		point := d.Target
		switch d.Action {
		case ActionAdvance, ActionDischarge:
			if err := e.store.Advance(d.PatientID, d.Target, t, d.Action); err != nil {
				return err
			}
			if sp, ok := e.cfg.Graph.Point(d.Target); ok && sp.Terminal {
				if err := e.store.MarkTerminal(d.PatientID); err != nil {
					return err
				}
				e.metrics.TerminalCount++
				if d.Action == ActionDischarge {
					e.metrics.Discharged++
				}
			}
		case ActionWait:
			if point == "" {
				point = e.locationOr(d.PatientID)
			}
			waiting[point]++
			e.metrics.point(point).WaitSteps++
			e.metrics.TotalWaitSteps++
		case ActionFlagged:
			point = e.locationOr(d.PatientID)
			e.metrics.Flagged++
		}
		e.metrics.Decisions++
		if d.Degraded {
			e.metrics.Degraded++
		}
		res.Events = append(res.Events, Event{
			PatientID: d.PatientID,
			Time:      t,
			Point:     point,
			Action:    d.Action,
			Priority:  d.Priority,
			Rationale: d.Rationale,
			Degraded:  d.Degraded,
		})
		res.Decisions = append(res.Decisions, *d)
	}
	for id, n := range waiting {
		if pm := e.metrics.point(id); n > pm.PeakQueue {
			pm.PeakQueue = n
		}
	}
	e.waiting = waiting
	res.QueueSeries = append(res.QueueSeries, StepQueues{Time: t, Waiting: waiting})

	logrus.Debugf("step %d: active=%d waiting=%d", t, len(active), len(waiting))
	return nil
}

// locationOr returns the patient's current point, or the graph entry if the
// patient has not been placed yet (so waiting-list events name the point the
// patient is queued for).
func (e *Engine) locationOr(id string) string {
	p, ok := e.store.Get(id)
	if !ok || p.Location == "" {
		return e.cfg.Graph.Entry()
	}
	return p.Location
}

// evaluate scores one patient against the snapshot and assembles the
// decision: rule contributions, combined priority, recommended action and
// target. Rule failures degrade the decision but never abort the run.
func (e *Engine) evaluate(view *PatientView, snap *SystemSnapshot) Decision {
	contribs := make([]RuleContribution, 0, len(e.cfg.Rules))
	degraded := false
	discharge := false
	flagged := false
	for i := range e.cfg.Rules {
		cr := &e.cfg.Rules[i]
		rs, err := cr.Rule.Score(view, snap)
		if err != nil {
			contribs = append(contribs, RuleContribution{
				Rule:   cr.Name,
				Weight: cr.Weight,
				Value:  e.cfg.DefaultScore,
				Note:   fmt.Sprintf("fallback to default score: %v", err),
			})
			degraded = true
			continue
		}
		contribs = append(contribs, RuleContribution{
			Rule:   cr.Name,
			Weight: cr.Weight,
			Value:  rs.Value,
			Note:   rs.Explanation,
		})
		switch rs.Recommend {
		case ActionDischarge:
			discharge = true
		case ActionFlagged:
			flagged = true
		}
	}
	priority := e.cfg.Combiner.Combine(contribs)

	d := Decision{
		PatientID:   view.ID,
		Time:        snap.Time,
		Priority:    priority,
		Rationale:   contribs,
		Degraded:    degraded,
		arrivalTime: view.ArrivalTime,
	}
	switch {
	case flagged:
		d.Action = ActionFlagged
	case discharge && e.cfg.Graph.Exit() != "":
		d.Action = ActionDischarge
		d.Target = e.cfg.Graph.Exit()
	default:
		candidates := e.cfg.Graph.ResolveTransitions(view.Location, view)
		if len(candidates) == 0 {
			d.Action = ActionWait
			d.Target = view.Location
		} else {
			d.Action = ActionAdvance
			d.Target = candidates[0].ID
		}
	}
	return d
}

package report

import (
	"fmt"
	"io"
	"sort"

	sim "github.com/pathway-sim/pathway-sim/sim"
)

// StepComparison holds the total wait-queue length per scenario at one step.
type StepComparison struct {
	Time   int64          `json:"time"`
	Queues map[string]int `json:"queues"`
}

// Comparison is a side-by-side view of several scenario runs over the same
// arrival feed: per-step queue lengths plus end-of-run outcomes.
type Comparison struct {
	Scenarios []string                `json:"scenarios"`
	Steps     []StepComparison        `json:"steps"`
	Outcomes  map[string]sim.Outcome  `json:"outcomes"`
	Remaining map[string]int          `json:"active_remaining"`
}

// Compare aligns the queue series of several runs by step. Scenario names
// must be unique; runs of different lengths are aligned on the union of
// steps, with absent steps reported as zero queues.
func Compare(results []*sim.Result) (*Comparison, error) {
	c := &Comparison{
		Outcomes:  make(map[string]sim.Outcome),
		Remaining: make(map[string]int),
	}
	series := make(map[string]map[int64]int)
	stepSet := make(map[int64]bool)
	for _, res := range results {
		if res.Scenario == "" {
			return nil, fmt.Errorf("result with empty scenario name")
		}
		if _, dup := series[res.Scenario]; dup {
			return nil, fmt.Errorf("duplicate scenario %q in comparison", res.Scenario)
		}
		c.Scenarios = append(c.Scenarios, res.Scenario)
		c.Outcomes[res.Scenario] = res.Outcome
		c.Remaining[res.Scenario] = res.ActiveRemaining
		byStep := make(map[int64]int)
		for _, sq := range res.QueueSeries {
			total := 0
			for _, n := range sq.Waiting {
				total += n
			}
			byStep[sq.Time] = total
			stepSet[sq.Time] = true
		}
		series[res.Scenario] = byStep
	}
	steps := make([]int64, 0, len(stepSet))
	for t := range stepSet {
		steps = append(steps, t)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i] < steps[j] })
	for _, t := range steps {
		sc := StepComparison{Time: t, Queues: make(map[string]int, len(c.Scenarios))}
		for _, name := range c.Scenarios {
			sc.Queues[name] = series[name][t]
		}
		c.Steps = append(c.Steps, sc)
	}
	return c, nil
}

// WriteTable renders the comparison as an aligned text table, one row per
// step, one column per scenario.
func (c *Comparison) WriteTable(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%-8s", "step"); err != nil {
		return err
	}
	for _, name := range c.Scenarios {
		if _, err := fmt.Fprintf(w, " %12s", name); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, sc := range c.Steps {
		if _, err := fmt.Fprintf(w, "%-8d", sc.Time); err != nil {
			return err
		}
		for _, name := range c.Scenarios {
			if _, err := fmt.Fprintf(w, " %12d", sc.Queues[name]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	for _, name := range c.Scenarios {
		if _, err := fmt.Fprintf(w, "%s: outcome=%s active-remaining=%d\n",
			name, c.Outcomes[name], c.Remaining[name]); err != nil {
			return err
		}
	}
	return nil
}

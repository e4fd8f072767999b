package sim

import "fmt"

// Condition is a pure eligibility predicate over patient attributes and
// traits. Exactly one of Attribute or Trait is set. Compiled once at load;
// evaluation has no side effects.
type Condition struct {
	Attribute string  // numeric attribute compared with Op/Value
	Op        string  // one of < <= > >= == !=
	Value     float64 //
	Trait     string  // categorical trait compared for equality
	Equals    string  //
}

// ValidConditionOps is the set of recognized comparison operators for
// attribute conditions. Shared by Validate and Eval to avoid duplication.
var ValidConditionOps = map[string]bool{"<": true, "<=": true, ">": true, ">=": true, "==": true, "!=": true}

// Eval reports whether the patient satisfies the condition. A missing
// attribute or trait fails the condition (the transition is simply not
// eligible; this is not a rule evaluation error).
func (c *Condition) Eval(view *PatientView) bool {
	if c.Trait != "" {
		got, ok := view.Trait(c.Trait)
		return ok && got == c.Equals
	}
	got, ok := view.Attribute(c.Attribute)
	if !ok {
		return false
	}
	switch c.Op {
	case "<":
		return got < c.Value
	case "<=":
		return got <= c.Value
	case ">":
		return got > c.Value
	case ">=":
		return got >= c.Value
	case "==":
		return got == c.Value
	case "!=":
		return got != c.Value
	default:
		return false
	}
}

func (c *Condition) validate(ce *ConfigurationError, where string) {
	switch {
	case c.Trait != "" && c.Attribute != "":
		ce.Add("%s: condition sets both trait %q and attribute %q", where, c.Trait, c.Attribute)
	case c.Trait == "" && c.Attribute == "":
		ce.Add("%s: condition sets neither trait nor attribute", where)
	case c.Attribute != "" && !ValidConditionOps[c.Op]:
		ce.Add("%s: unknown condition operator %q", where, c.Op)
	}
}

// Transition is one outbound edge of a service point. All conditions must
// hold for the transition to be eligible (conjunction).
type Transition struct {
	To   string
	When []Condition
}

func (t *Transition) eligible(view *PatientView) bool {
	for i := range t.When {
		if !t.When[i].Eval(view) {
			return false
		}
	}
	return true
}

// ServicePoint is a clinical activity or location a patient can occupy.
// Immutable during a run; per-period capacity changes only via the ledger's
// scenario-scoped deltas, never mid-run mutation of the point itself.
type ServicePoint struct {
	ID          string
	Activity    string
	Capacity    int
	Terminal    bool
	Transitions []Transition
}

// PathwayGraph is the static network of service points. Built and validated
// once at scenario load, then read-only.
type PathwayGraph struct {
	points  map[string]*ServicePoint
	order   []string // declaration order, for deterministic iteration
	entry   string
	exit    string // discharge target; must be a terminal point
}

// NewPathwayGraph validates and builds a graph. It collects every violation
// (undefined transition target, missing entry, negative capacity, reachable
// cycle with no path to a terminal point) into one ConfigurationError.
func NewPathwayGraph(points []*ServicePoint, entry, exit string) (*PathwayGraph, error) {
	ce := &ConfigurationError{}
	g := &PathwayGraph{points: make(map[string]*ServicePoint, len(points)), entry: entry, exit: exit}
	for _, sp := range points {
		if sp.ID == "" {
			ce.Add("service point with empty id")
			continue
		}
		if _, dup := g.points[sp.ID]; dup {
			ce.Add("service point %q defined twice", sp.ID)
			continue
		}
		if sp.Capacity < 0 {
			ce.Add("service point %q: negative capacity %d", sp.ID, sp.Capacity)
		}
		g.points[sp.ID] = sp
		g.order = append(g.order, sp.ID)
	}
	for _, id := range g.order {
		sp := g.points[id]
		for ti := range sp.Transitions {
			tr := &sp.Transitions[ti]
			if _, ok := g.points[tr.To]; !ok {
				ce.Add("service point %q: transition to undefined point %q", id, tr.To)
			}
			for ci := range tr.When {
				tr.When[ci].validate(ce, fmt.Sprintf("service point %q transition %q", id, tr.To))
			}
		}
	}
	if entry == "" {
		ce.Add("entry point not set")
	} else if _, ok := g.points[entry]; !ok {
		ce.Add("entry point %q is not a defined service point", entry)
	}
	if exit != "" {
		if sp, ok := g.points[exit]; !ok {
			ce.Add("discharge point %q is not a defined service point", exit)
		} else if !sp.Terminal {
			ce.Add("discharge point %q must be terminal", exit)
		}
	}
	if len(ce.Violations) == 0 {
		g.checkTerminalReachability(ce)
	}
	if err := ce.OrNil(); err != nil {
		return nil, err
	}
	return g, nil
}

// checkTerminalReachability flags every point reachable from the entry that
// has no path to a terminal point. Such a point traps patients in a cycle
// forever, which a scenario author almost certainly did not intend.
func (g *PathwayGraph) checkTerminalReachability(ce *ConfigurationError) {
	// Reverse reachability: which points can reach a terminal point.
	preds := make(map[string][]string, len(g.points))
	for _, id := range g.order {
		for i := range g.points[id].Transitions {
			to := g.points[id].Transitions[i].To
			preds[to] = append(preds[to], id)
		}
	}
	escapes := make(map[string]bool, len(g.points))
	var queue []string
	for _, id := range g.order {
		if g.points[id].Terminal {
			escapes[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, p := range preds[id] {
			if !escapes[p] {
				escapes[p] = true
				queue = append(queue, p)
			}
		}
	}
	// Only points reachable from the entry matter; walk in declaration order
	// so violation messages come out deterministically.
	reachable := map[string]bool{g.entry: true}
	stack := []string{g.entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i := range g.points[id].Transitions {
			to := g.points[id].Transitions[i].To
			if !reachable[to] {
				reachable[to] = true
				stack = append(stack, to)
			}
		}
	}
	for _, id := range g.order {
		if reachable[id] && !escapes[id] {
			ce.Add("service point %q is reachable from entry %q but has no path to a terminal point", id, g.entry)
		}
	}
}

// Point looks up a service point by id.
func (g *PathwayGraph) Point(id string) (*ServicePoint, bool) {
	sp, ok := g.points[id]
	return sp, ok
}

// Entry returns the configured entry point id.
func (g *PathwayGraph) Entry() string { return g.entry }

// Exit returns the configured discharge point id ("" if the scenario has none).
func (g *PathwayGraph) Exit() string { return g.exit }

// PointIDs returns service point ids in declaration order.
func (g *PathwayGraph) PointIDs() []string {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	return ids
}

// ResolveTransitions returns the eligible next points for a patient at the
// given point, in transition declaration order. Deterministic given the same
// inputs. A patient not yet placed anywhere (empty point id) resolves to the
// entry point.
func (g *PathwayGraph) ResolveTransitions(pointID string, view *PatientView) []*ServicePoint {
	if pointID == "" {
		return []*ServicePoint{g.points[g.entry]}
	}
	sp, ok := g.points[pointID]
	if !ok {
		return nil
	}
	var out []*ServicePoint
	for i := range sp.Transitions {
		tr := &sp.Transitions[i]
		if tr.eligible(view) {
			out = append(out, g.points[tr.To])
		}
	}
	return out
}

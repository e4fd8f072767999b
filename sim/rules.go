package sim

import (
	"fmt"
	"sort"
)

// RuleScore is the result of scoring one patient with one rule.
// Recommend is optional: the empty action means the rule only contributes a
// score and has no routing opinion.
type RuleScore struct {
	Value       float64
	Explanation string
	Recommend   Action
}

// Rule scores a patient against the current system snapshot.
// Implementations MUST be pure: no mutation of the view or snapshot, and the
// same inputs always produce the same score (parallel Evaluate depends on it).
// A rule that cannot score a patient returns a *RuleEvaluationError; the
// engine substitutes the scenario's default score and flags the decision as
// degraded.
type Rule interface {
	Score(view *PatientView, snap *SystemSnapshot) (RuleScore, error)
}

// ConfiguredRule pairs a rule instance with its scenario-assigned name and
// combination weight. Declaration order is significant: it is the
// lexicographic combiner's precedence and the first tie-break key.
type ConfiguredRule struct {
	Name   string
	Weight float64
	Rule   Rule
}

// RuleParams carries the per-type parameters for rule construction, decoded
// from scenario YAML. Unused fields are ignored by each type.
type RuleParams struct {
	Attribute  string               `yaml:"attribute"`
	GroupTrait string               `yaml:"group_trait"`
	Trait      string               `yaml:"trait"`
	Levels     map[string]float64   `yaml:"levels"`
	BaseScore  float64              `yaml:"base_score"`
	AgeWeight  float64              `yaml:"age_weight"`
	Thresholds []AttributeThreshold `yaml:"thresholds"`
}

// AttributeThreshold is one criterion of the discharge-safety rule.
type AttributeThreshold struct {
	Attribute string  `yaml:"attribute"`
	Op        string  `yaml:"op"`
	Value     float64 `yaml:"value"`
}

func (t *AttributeThreshold) met(val float64) bool {
	switch t.Op {
	case "<":
		return val < t.Value
	case "<=":
		return val <= t.Value
	case ">":
		return val > t.Value
	case ">=":
		return val >= t.Value
	case "==":
		return val == t.Value
	case "!=":
		return val != t.Value
	default:
		return false
	}
}

// AttributeRule scores a numeric clinical attribute, min-max normalized
// within the active cohort (or within the patient's group when GroupTrait is
// set, e.g. per specialty). A constant cohort scores the midpoint 0.5.
// A patient missing the attribute fails with RuleEvaluationError.
type AttributeRule struct {
	Name       string
	Attribute  string
	GroupTrait string
}

func (r *AttributeRule) Score(view *PatientView, snap *SystemSnapshot) (RuleScore, error) {
	raw, ok := view.Attribute(r.Attribute)
	if !ok {
		return RuleScore{}, &RuleEvaluationError{Rule: r.Name, PatientID: view.ID,
			Detail: fmt.Sprintf("missing attribute %q", r.Attribute)}
	}
	norm := snap.Normalize(r.Attribute, r.GroupTrait, view, raw)
	return RuleScore{
		Value:       norm,
		Explanation: fmt.Sprintf("%s=%.2f normalized=%.3f", r.Attribute, raw, norm),
	}, nil
}

// TraitMapRule maps a categorical trait through an ordered level table
// (e.g. vitals trend: Deteriorating 1.0 > Stable 0.5 > Improving 0.0).
// A missing trait or an unknown level falls back to the median of the
// configured level values, noted in the explanation.
type TraitMapRule struct {
	Name   string
	Trait  string
	Levels map[string]float64
	median float64
}

func (r *TraitMapRule) Score(view *PatientView, _ *SystemSnapshot) (RuleScore, error) {
	level, ok := view.Trait(r.Trait)
	if !ok {
		return RuleScore{Value: r.median,
			Explanation: fmt.Sprintf("%s missing, median %.3f", r.Trait, r.median)}, nil
	}
	val, known := r.Levels[level]
	if !known {
		return RuleScore{Value: r.median,
			Explanation: fmt.Sprintf("%s=%q unknown level, median %.3f", r.Trait, level, r.median)}, nil
	}
	return RuleScore{Value: val, Explanation: fmt.Sprintf("%s=%q -> %.3f", r.Trait, level, val)}, nil
}

// WaitAgeRule computes waiting-time priority from patient age.
// Formula: BaseScore + AgeWeight * float64(now - arrival).
// Older patients receive higher scores so waits cannot starve indefinitely.
type WaitAgeRule struct {
	Name      string
	BaseScore float64
	AgeWeight float64
}

func (r *WaitAgeRule) Score(view *PatientView, snap *SystemSnapshot) (RuleScore, error) {
	age := float64(snap.Time - view.ArrivalTime)
	val := r.BaseScore + r.AgeWeight*age
	return RuleScore{Value: val, Explanation: fmt.Sprintf("age=%d steps -> %.3f", snap.Time-view.ArrivalTime, val)}, nil
}

// DischargeSafetyRule recommends discharge when every configured attribute
// threshold is met. It contributes no score of its own. A patient missing a
// required attribute is recommended for human review rather than discharged.
type DischargeSafetyRule struct {
	Name       string
	Thresholds []AttributeThreshold
}

func (r *DischargeSafetyRule) Score(view *PatientView, _ *SystemSnapshot) (RuleScore, error) {
	for i := range r.Thresholds {
		th := &r.Thresholds[i]
		val, ok := view.Attribute(th.Attribute)
		if !ok {
			return RuleScore{
				Explanation: fmt.Sprintf("cannot assess discharge: missing %q", th.Attribute),
				Recommend:   ActionFlagged,
			}, nil
		}
		if !th.met(val) {
			return RuleScore{
				Explanation: fmt.Sprintf("not discharge-safe: %s=%.2f fails %s %.2f", th.Attribute, val, th.Op, th.Value),
			}, nil
		}
	}
	return RuleScore{Explanation: "all discharge criteria met", Recommend: ActionDischarge}, nil
}

// ValidRuleTypes is the set of recognized rule type names.
// Shared by scenario validation and NewRule to avoid duplication.
var ValidRuleTypes = map[string]bool{
	"attribute":        true,
	"trait-map":        true,
	"wait-age":         true,
	"discharge-safety": true,
}

// NewRule creates a Rule by type name. Returns an error on an unknown type
// or missing required parameters; scenario validation reports the same
// violations ahead of time so operators see them all at once.
func NewRule(typ, name string, p RuleParams) (Rule, error) {
	switch typ {
	case "attribute":
		if p.Attribute == "" {
			return nil, fmt.Errorf("rule %q: attribute parameter required", name)
		}
		return &AttributeRule{Name: name, Attribute: p.Attribute, GroupTrait: p.GroupTrait}, nil
	case "trait-map":
		if p.Trait == "" {
			return nil, fmt.Errorf("rule %q: trait parameter required", name)
		}
		if len(p.Levels) == 0 {
			return nil, fmt.Errorf("rule %q: levels parameter required", name)
		}
		return &TraitMapRule{Name: name, Trait: p.Trait, Levels: p.Levels, median: levelMedian(p.Levels)}, nil
	case "wait-age":
		w := p.AgeWeight
		if w == 0 {
			w = 0.01 // +1.0 priority per 100 waited steps
		}
		return &WaitAgeRule{Name: name, BaseScore: p.BaseScore, AgeWeight: w}, nil
	case "discharge-safety":
		if len(p.Thresholds) == 0 {
			return nil, fmt.Errorf("rule %q: thresholds parameter required", name)
		}
		for i := range p.Thresholds {
			if !ValidConditionOps[p.Thresholds[i].Op] {
				return nil, fmt.Errorf("rule %q: unknown threshold operator %q", name, p.Thresholds[i].Op)
			}
		}
		return &DischargeSafetyRule{Name: name, Thresholds: p.Thresholds}, nil
	default:
		return nil, fmt.Errorf("unknown rule type %q", typ)
	}
}

// levelMedian returns the median of the configured level values, the
// fallback for missing or unknown trait levels.
func levelMedian(levels map[string]float64) float64 {
	vals := make([]float64, 0, len(levels))
	for _, v := range levels {
		vals = append(vals, v)
	}
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}

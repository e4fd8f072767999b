package sim

import (
	"fmt"
	"math"
)

// Combiner folds per-rule contributions into one priority score. It fills
// each contribution's Weighted field in place so the rationale shows exactly
// how the priority was assembled, and returns the combined score.
// The combination policy is scenario configuration, never engine logic.
type Combiner interface {
	Name() string
	Combine(contribs []RuleContribution) float64
}

// WeightedSumCombiner computes the weighted sum of rule values with weights
// renormalized to sum to 1, so scenario authors can write weights in any
// convenient scale. Zero total weight degenerates to equal weights.
type WeightedSumCombiner struct{}

func (WeightedSumCombiner) Name() string { return "weighted-sum" }

func (WeightedSumCombiner) Combine(contribs []RuleContribution) float64 {
	total := 0.0
	for i := range contribs {
		total += contribs[i].Weight
	}
	sum := 0.0
	for i := range contribs {
		w := contribs[i].Weight
		if total > 0 {
			w /= total
		} else {
			w = 1.0 / float64(len(contribs))
		}
		contribs[i].Weighted = w * contribs[i].Value
		sum += contribs[i].Weighted
	}
	return sum
}

// LexicographicCombiner ranks by rule declaration order: the first rule
// decides, later rules only break ties. Encoded as a scalar by giving each
// successive rule a place value 1000x smaller, with rule values clamped to
// [0,1] and compared at 1e-3 resolution. Weights are ignored (order is the
// policy); the Weighted field records each rule's place-value share.
type LexicographicCombiner struct{}

func (LexicographicCombiner) Name() string { return "lexicographic" }

func (LexicographicCombiner) Combine(contribs []RuleContribution) float64 {
	sum := 0.0
	place := 1.0
	for i := range contribs {
		v := contribs[i].Value
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		q := math.Round(v*999) / 999
		contribs[i].Weighted = q * place
		sum += contribs[i].Weighted
		place /= 1000
	}
	return sum
}

// ValidCombiners is the set of recognized combiner names.
// Shared by scenario validation and NewCombiner to avoid duplication.
var ValidCombiners = map[string]bool{"": true, "weighted-sum": true, "lexicographic": true}

// NewCombiner creates a Combiner by name. Empty string defaults to
// weighted-sum (the original MCDA policy).
func NewCombiner(name string) (Combiner, error) {
	switch name {
	case "", "weighted-sum":
		return WeightedSumCombiner{}, nil
	case "lexicographic":
		return LexicographicCombiner{}, nil
	default:
		return nil, fmt.Errorf("unknown combiner %q", name)
	}
}

package sim

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestAttributeRule_ScoresNormalizedValue(t *testing.T) {
	snap := NewSystemSnapshot(0, 0, views(
		map[string]float64{"complexity": 1},
		map[string]float64{"complexity": 5},
	), nil)
	r := &AttributeRule{Name: "complexity", Attribute: "complexity"}

	rs, err := r.Score(snap.Views[1], snap)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if rs.Value != 1.0 {
		t.Errorf("value: got %v, want 1.0", rs.Value)
	}
	if !strings.Contains(rs.Explanation, "complexity=5.00") {
		t.Errorf("explanation %q does not name the raw value", rs.Explanation)
	}
}

func TestAttributeRule_MissingAttributeIsRuleEvaluationError(t *testing.T) {
	snap := NewSystemSnapshot(0, 0, nil, nil)
	r := &AttributeRule{Name: "acuity", Attribute: "acuity"}

	_, err := r.Score(&PatientView{ID: "p1"}, snap)
	var ree *RuleEvaluationError
	if !errors.As(err, &ree) {
		t.Fatalf("got %v, want *RuleEvaluationError", err)
	}
	if ree.Rule != "acuity" || ree.PatientID != "p1" {
		t.Errorf("error fields: got %+v", ree)
	}
}

func TestTraitMapRule_KnownUnknownAndMissingLevels(t *testing.T) {
	r, err := NewRule("trait-map", "vitals", RuleParams{
		Trait: "vitals_trend",
		Levels: map[string]float64{
			"Deteriorating": 1.0,
			"Stable":        0.5,
			"Improving":     0.0,
		},
	})
	if err != nil {
		t.Fatalf("NewRule: %v", err)
	}
	snap := NewSystemSnapshot(0, 0, nil, nil)

	known, _ := r.Score(&PatientView{Traits: map[string]string{"vitals_trend": "Deteriorating"}}, snap)
	if known.Value != 1.0 {
		t.Errorf("known level: got %v, want 1.0", known.Value)
	}

	// Unknown level and missing trait both fall back to the level median.
	unknown, _ := r.Score(&PatientView{Traits: map[string]string{"vitals_trend": "Erratic"}}, snap)
	if unknown.Value != 0.5 {
		t.Errorf("unknown level: got %v, want median 0.5", unknown.Value)
	}
	if !strings.Contains(unknown.Explanation, "unknown level") {
		t.Errorf("explanation %q does not note the fallback", unknown.Explanation)
	}
	missing, _ := r.Score(&PatientView{}, snap)
	if missing.Value != 0.5 {
		t.Errorf("missing trait: got %v, want median 0.5", missing.Value)
	}
}

func TestLevelMedian_EvenCountAveragesMiddlePair(t *testing.T) {
	got := levelMedian(map[string]float64{"a": 0.0, "b": 0.2, "c": 0.8, "d": 1.0})
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("median: got %v, want 0.5", got)
	}
}

func TestWaitAgeRule_GrowsWithAge(t *testing.T) {
	r := &WaitAgeRule{Name: "wait", BaseScore: 0.1, AgeWeight: 0.01}
	snap := NewSystemSnapshot(50, 50, nil, nil)

	rs, err := r.Score(&PatientView{ArrivalTime: 10}, snap)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	want := 0.1 + 0.01*40
	if math.Abs(rs.Value-want) > 1e-9 {
		t.Errorf("value: got %v, want %v", rs.Value, want)
	}
}

func TestDischargeSafetyRule_Recommendations(t *testing.T) {
	r := &DischargeSafetyRule{Name: "discharge", Thresholds: []AttributeThreshold{
		{Attribute: "recovery", Op: ">=", Value: 0.8},
		{Attribute: "acuity", Op: "<=", Value: 2},
	}}
	snap := NewSystemSnapshot(0, 0, nil, nil)

	// All criteria met -> discharge.
	safe, _ := r.Score(&PatientView{Attributes: map[string]float64{"recovery": 0.9, "acuity": 1}}, snap)
	if safe.Recommend != ActionDischarge {
		t.Errorf("safe patient: recommend %q, want discharge", safe.Recommend)
	}

	// A failed criterion -> no recommendation, reason in explanation.
	unsafe, _ := r.Score(&PatientView{Attributes: map[string]float64{"recovery": 0.9, "acuity": 4}}, snap)
	if unsafe.Recommend != "" {
		t.Errorf("unsafe patient: recommend %q, want none", unsafe.Recommend)
	}
	if !strings.Contains(unsafe.Explanation, "acuity") {
		t.Errorf("explanation %q does not name the failing criterion", unsafe.Explanation)
	}

	// A missing attribute -> flagged for human review, never discharged.
	missing, _ := r.Score(&PatientView{Attributes: map[string]float64{"recovery": 0.9}}, snap)
	if missing.Recommend != ActionFlagged {
		t.Errorf("unassessable patient: recommend %q, want flagged-for-review", missing.Recommend)
	}
}

func TestNewRule_Validation(t *testing.T) {
	cases := []struct {
		name   string
		typ    string
		params RuleParams
		wantOK bool
	}{
		{"unknown type", "magic", RuleParams{}, false},
		{"attribute without attribute", "attribute", RuleParams{}, false},
		{"trait-map without levels", "trait-map", RuleParams{Trait: "x"}, false},
		{"discharge-safety without thresholds", "discharge-safety", RuleParams{}, false},
		{"discharge-safety bad op", "discharge-safety",
			RuleParams{Thresholds: []AttributeThreshold{{Attribute: "a", Op: "~", Value: 1}}}, false},
		{"wait-age defaults", "wait-age", RuleParams{}, true},
		{"attribute ok", "attribute", RuleParams{Attribute: "acuity"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRule(tc.typ, "r", tc.params)
			if (err == nil) != tc.wantOK {
				t.Errorf("NewRule(%s): err=%v, wantOK=%v", tc.typ, err, tc.wantOK)
			}
		})
	}
}

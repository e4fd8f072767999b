package sim

// AttrStat holds the observed range of one attribute across a cohort,
// used for min-max normalization by the attribute rule.
type AttrStat struct {
	Min   float64
	Max   float64
	Count int
}

type groupKey struct {
	trait      string
	traitValue string
	attr       string
}

// SystemSnapshot is the immutable view of the system taken in the Collect
// phase. Rules evaluate against it in parallel; nothing here is mutated
// after construction.
type SystemSnapshot struct {
	Time   int64
	Period int64
	// Views holds the active (non-terminal) patients, sorted by ID.
	Views []*PatientView
	// Waiting counts patients per service point that were denied admission
	// in the previous step (queue pressure signal for rules and reporting).
	Waiting map[string]int

	attrStats  map[string]AttrStat
	groupStats map[groupKey]AttrStat
}

// NewSystemSnapshot precomputes attribute statistics over the active cohort:
// global per-attribute ranges plus per (trait, trait value) ranges so rules
// can normalize within a group (e.g. per specialty) without rescanning.
func NewSystemSnapshot(t, period int64, views []*PatientView, waiting map[string]int) *SystemSnapshot {
	s := &SystemSnapshot{
		Time:       t,
		Period:     period,
		Views:      views,
		Waiting:    waiting,
		attrStats:  make(map[string]AttrStat),
		groupStats: make(map[groupKey]AttrStat),
	}
	for _, v := range views {
		for attr, val := range v.Attributes {
			s.attrStats[attr] = extend(s.attrStats[attr], val)
			for trait, tv := range v.Traits {
				k := groupKey{trait, tv, attr}
				s.groupStats[k] = extend(s.groupStats[k], val)
			}
		}
	}
	return s
}

func extend(st AttrStat, val float64) AttrStat {
	if st.Count == 0 || val < st.Min {
		st.Min = val
	}
	if st.Count == 0 || val > st.Max {
		st.Max = val
	}
	st.Count++
	return st
}

// Stat returns the cohort-wide range of an attribute.
func (s *SystemSnapshot) Stat(attr string) (AttrStat, bool) {
	st, ok := s.attrStats[attr]
	return st, ok
}

// Normalize min-max scales a value into [0,1] within the cohort. When the
// cohort is constant in this attribute, the midpoint 0.5 is returned so a
// single-valued cohort neither dominates nor vanishes from the score.
// If groupTrait is non-empty, the range of patients sharing the view's value
// of that trait is used instead of the cohort-wide range.
func (s *SystemSnapshot) Normalize(attr string, groupTrait string, view *PatientView, val float64) float64 {
	st, ok := s.attrStats[attr]
	if groupTrait != "" {
		if tv, has := view.Trait(groupTrait); has {
			if gst, gok := s.groupStats[groupKey{groupTrait, tv, attr}]; gok {
				st, ok = gst, true
			}
		}
	}
	if !ok || st.Max == st.Min {
		return 0.5
	}
	return (val - st.Min) / (st.Max - st.Min)
}

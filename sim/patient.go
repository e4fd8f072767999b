package sim

// Arrival is one record from the external population-need feed:
// a patient identity, when they present, and the clinical attributes
// and traits the decision rules read.
type Arrival struct {
	PatientID  string
	Time       int64
	Attributes map[string]float64
	Traits     map[string]string
}

// HistoryEntry records one movement of a patient. History is append-only;
// entries are never mutated or removed once written.
type HistoryEntry struct {
	Time   int64
	Point  string
	Action Action
}

// Patient is the mutable per-patient state. A patient occupies exactly one
// service point at any time index (empty Location means arrived but not yet
// admitted anywhere). Mutation happens only inside the engine's Commit phase,
// through the PatientStateStore.
type Patient struct {
	ID          string
	ArrivalTime int64
	Attributes  map[string]float64
	Traits      map[string]string
	Location    string
	EnteredAt   int64 // time the patient entered Location (or ArrivalTime if not yet placed)
	Terminal    bool
	History     []HistoryEntry
}

// PatientView is a read-only copy of a patient handed to rules during the
// Evaluate phase. Rules MUST NOT retain or modify views; maps are shared with
// the underlying patient and treated as immutable by convention (attributes
// are fixed at arrival).
type PatientView struct {
	ID          string
	ArrivalTime int64
	Attributes  map[string]float64
	Traits      map[string]string
	Location    string
	EnteredAt   int64
	Terminal    bool
	History     []HistoryEntry
}

// Attribute returns a numeric clinical attribute and whether it is present.
func (v *PatientView) Attribute(name string) (float64, bool) {
	val, ok := v.Attributes[name]
	return val, ok
}

// Trait returns a categorical trait and whether it is present.
func (v *PatientView) Trait(name string) (string, bool) {
	val, ok := v.Traits[name]
	return val, ok
}

// view builds the read-only projection of a patient. History is copied so a
// snapshot stays stable across later commits.
func (p *Patient) view() *PatientView {
	hist := make([]HistoryEntry, len(p.History))
	copy(hist, p.History)
	return &PatientView{
		ID:          p.ID,
		ArrivalTime: p.ArrivalTime,
		Attributes:  p.Attributes,
		Traits:      p.Traits,
		Location:    p.Location,
		EnteredAt:   p.EnteredAt,
		Terminal:    p.Terminal,
		History:     hist,
	}
}

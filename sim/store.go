package sim

import (
	"fmt"
	"sort"
	"sync"
)

// PatientStateStore holds all per-patient mutable state. Mutation is
// serialized under one lock; the engine only mutates during Commit, so
// contention is never on the hot path. Snapshots are read-only copies.
type PatientStateStore struct {
	mu       sync.Mutex
	patients map[string]*Patient
	order    []string // admission order, for deterministic iteration
}

// NewPatientStateStore creates an empty store.
func NewPatientStateStore() *PatientStateStore {
	return &PatientStateStore{patients: make(map[string]*Patient)}
}

// Admit registers a newly arrived patient. The patient starts unplaced
// (empty location) with an "arrived" history entry.
func (s *PatientStateStore) Admit(a Arrival) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.patients[a.PatientID]; dup {
		return fmt.Errorf("patient %q already admitted", a.PatientID)
	}
	p := &Patient{
		ID:          a.PatientID,
		ArrivalTime: a.Time,
		Attributes:  a.Attributes,
		Traits:      a.Traits,
		EnteredAt:   a.Time,
		History:     []HistoryEntry{{Time: a.Time, Point: "", Action: ActionArrived}},
	}
	s.patients[a.PatientID] = p
	s.order = append(s.order, a.PatientID)
	return nil
}

// Get returns the live patient record. Callers outside the engine's Commit
// phase should prefer Snapshot.
func (s *PatientStateStore) Get(id string) (*Patient, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	return p, ok
}

// Advance moves a patient to a new service point at the given time,
// appending to the history. History is append-only: nothing before the new
// entry is touched.
func (s *PatientStateStore) Advance(id, pointID string, t int64, action Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	if !ok {
		return fmt.Errorf("unknown patient %q", id)
	}
	if p.Terminal {
		return fmt.Errorf("patient %q is terminal; no further movement", id)
	}
	p.Location = pointID
	p.EnteredAt = t
	p.History = append(p.History, HistoryEntry{Time: t, Point: pointID, Action: action})
	return nil
}

// MarkTerminal excludes a patient from future evaluation.
func (s *PatientStateStore) MarkTerminal(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	if !ok {
		return fmt.Errorf("unknown patient %q", id)
	}
	p.Terminal = true
	return nil
}

// Snapshot returns read-only views of every patient, sorted by ID for
// deterministic iteration. Calling Snapshot twice without an intervening
// Advance returns identical data.
func (s *PatientStateStore) Snapshot() []*PatientView {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := make([]*PatientView, 0, len(s.patients))
	for _, id := range s.order {
		views = append(views, s.patients[id].view())
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })
	return views
}

// ActiveCount returns the number of non-terminal patients.
func (s *PatientStateStore) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.patients {
		if !p.Terminal {
			n++
		}
	}
	return n
}

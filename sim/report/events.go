// Package report turns run results into the external outputs the engine
// exists to feed: event logs for activity-table aggregation, decision
// exports for dashboards, prioritisation lists, early discharge flags,
// investment recommendations, and scenario comparisons.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	sim "github.com/pathway-sim/pathway-sim/sim"
)

// eventRow is the JSONL form of one event, stamped with the run id so
// multiple runs can share one sink.
type eventRow struct {
	RunID string `json:"run_id"`
	sim.Event
}

// WriteEventsJSONL writes one JSON object per line, stamped with runID.
func WriteEventsJSONL(w io.Writer, runID string, events []sim.Event) error {
	enc := json.NewEncoder(w)
	for i := range events {
		if err := enc.Encode(eventRow{RunID: runID, Event: events[i]}); err != nil {
			return fmt.Errorf("encoding event %d: %w", i, err)
		}
	}
	return nil
}

// WriteEventsCSV writes events as CSV with the rationale flattened into a
// single pipe-separated column (rule=value entries, fallback notes kept).
func WriteEventsCSV(w io.Writer, runID string, events []sim.Event) error {
	cw := csv.NewWriter(w)
	header := []string{"run_id", "patient_id", "time", "service_point", "action", "priority", "degraded", "rationale"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing event header: %w", err)
	}
	for i := range events {
		e := &events[i]
		rec := []string{
			runID,
			e.PatientID,
			strconv.FormatInt(e.Time, 10),
			e.Point,
			string(e.Action),
			strconv.FormatFloat(e.Priority, 'f', 6, 64),
			strconv.FormatBool(e.Degraded),
			FlattenRationale(e.Rationale),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing event %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FlattenRationale renders rule contributions as "rule=value" entries joined
// with "|", the compact form used in CSV exports and recommendation text.
func FlattenRationale(contribs []sim.RuleContribution) string {
	parts := make([]string, 0, len(contribs))
	for i := range contribs {
		c := &contribs[i]
		if c.Note != "" && c.Value == 0 && c.Weight == 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", c.Rule, c.Note))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%.3f", c.Rule, c.Value))
	}
	return strings.Join(parts, "|")
}

// WriteDecisionsJSON writes the structured decision export consumed by
// dashboards: the full post-admission decision list as a JSON array.
func WriteDecisionsJSON(w io.Writer, decisions []sim.Decision) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(decisions)
}

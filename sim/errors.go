package sim

import (
	"fmt"
	"strings"
)

// ConfigurationError reports every violation found while validating a
// scenario, not just the first, so a bad scenario can be fixed in one pass.
// It is always surfaced before the first simulation step runs.
type ConfigurationError struct {
	Violations []string
}

func (e *ConfigurationError) Error() string {
	if len(e.Violations) == 1 {
		return "invalid scenario: " + e.Violations[0]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid scenario: %d violations:", len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v)
	}
	return b.String()
}

// Add records a violation. Safe to call with a nil-length receiver slice.
func (e *ConfigurationError) Add(format string, args ...any) {
	e.Violations = append(e.Violations, fmt.Sprintf(format, args...))
}

// OrNil returns the error if any violation was recorded, nil otherwise.
func (e *ConfigurationError) OrNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

// ResourceError indicates an engine-internal accounting bug: an over-release
// or a non-positive reservation against the ledger. It is fatal and aborts
// the run; usage is never silently clamped, to preserve audit trust.
type ResourceError struct {
	Point  string
	Period int64
	Op     string
	Detail string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource %s at %q period %d: %s", e.Op, e.Point, e.Period, e.Detail)
}

// RuleEvaluationError reports that a single rule could not score a patient,
// typically because a clinical attribute is missing. The engine recovers
// locally with the scenario's default score and records the fallback in the
// decision rationale; the run continues.
type RuleEvaluationError struct {
	Rule      string
	PatientID string
	Detail    string
}

func (e *RuleEvaluationError) Error() string {
	return fmt.Sprintf("rule %q failed for patient %q: %s", e.Rule, e.PatientID, e.Detail)
}

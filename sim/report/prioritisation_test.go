package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrioritisationList_LastStepWaiters(t *testing.T) {
	entries := BuildPrioritisationList(fixtureResult(), "")
	// Only the final step's wait/flagged decisions appear: p2 and p3.
	require.Len(t, entries, 2)
	assert.Equal(t, "p2", entries[0].PatientID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "triage", entries[0].Point)
	assert.NotEmpty(t, entries[0].Rationale)
	assert.Equal(t, "p3", entries[1].PatientID)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestBuildPrioritisationList_GroupedBySpecialty(t *testing.T) {
	entries := BuildPrioritisationList(fixtureResult(), "specialty")
	require.Len(t, entries, 2)
	// Groups alphabetical (medical before surgical), ranks restart per group.
	assert.Equal(t, "medical", entries[0].Group)
	assert.Equal(t, "p3", entries[0].PatientID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "surgical", entries[1].Group)
	assert.Equal(t, "p2", entries[1].PatientID)
	assert.Equal(t, 1, entries[1].Rank)
}

func TestBuildPrioritisationList_EmptyRun(t *testing.T) {
	assert.Nil(t, BuildPrioritisationList(&fixtureEmpty, ""))
}

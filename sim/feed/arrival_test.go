package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArrivalsReader_SplitsAttributesAndTraits(t *testing.T) {
	csv := strings.Join([]string{
		"patient_id,arrival_time,complexity,acuity,vitals_trend,specialty",
		"p1,0,3.5,4,Deteriorating,medical",
		"p2,2,1,2,Stable,surgical",
	}, "\n")

	arrivals, err := ParseArrivalsReader(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, arrivals, 2)

	p1 := arrivals[0]
	assert.Equal(t, "p1", p1.PatientID)
	assert.Equal(t, int64(0), p1.Time)
	// Numeric cells become attributes, the rest traits.
	assert.Equal(t, map[string]float64{"complexity": 3.5, "acuity": 4}, p1.Attributes)
	assert.Equal(t, map[string]string{"vitals_trend": "Deteriorating", "specialty": "medical"}, p1.Traits)

	assert.Equal(t, int64(2), arrivals[1].Time)
}

func TestParseArrivalsReader_EmptyCellsAreMissingNotZero(t *testing.T) {
	csv := strings.Join([]string{
		"patient_id,arrival_time,complexity,vitals_trend",
		"p1,0,,Stable",
	}, "\n")

	arrivals, err := ParseArrivalsReader(strings.NewReader(csv))
	require.NoError(t, err)
	_, present := arrivals[0].Attributes["complexity"]
	assert.False(t, present, "empty cell must not become a zero attribute")
}

func TestParseArrivalsReader_Errors(t *testing.T) {
	cases := []struct {
		name string
		csv  string
	}{
		{"missing patient_id column", "arrival_time,acuity\n0,1"},
		{"missing arrival_time column", "patient_id,acuity\np1,1"},
		{"bad arrival_time", "patient_id,arrival_time\np1,soon"},
		{"negative arrival_time", "patient_id,arrival_time\np1,-4"},
		{"empty patient_id", "patient_id,arrival_time\n,0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseArrivalsReader(strings.NewReader(tc.csv))
			assert.Error(t, err)
		})
	}
}

package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/pathway-sim/pathway-sim/sim"
)

func writeFeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capacity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCapacityFeed(t *testing.T) {
	path := writeFeed(t, `
overrides:
  - point: triage
    period: 3
    capacity: 4
  - point: ward
    period: 0
    capacity: 0
`)
	got, err := LoadCapacityFeed(path)
	require.NoError(t, err)
	assert.Equal(t, []sim.CapacityOverride{
		{Point: "triage", Period: 3, Capacity: 4},
		{Point: "ward", Period: 0, Capacity: 0},
	}, got)
}

func TestLoadCapacityFeed_Violations(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing point", "overrides:\n  - period: 0\n    capacity: 1"},
		{"negative period", "overrides:\n  - point: a\n    period: -1\n    capacity: 1"},
		{"negative capacity", "overrides:\n  - point: a\n    period: 0\n    capacity: -1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadCapacityFeed(writeFeed(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

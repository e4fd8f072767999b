// Package feed parses the engine's external inputs: arrival records from the
// population-need model, per-period capacity from the workforce model, and a
// seeded synthetic cohort generator for demos and determinism tests.
package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	sim "github.com/pathway-sim/pathway-sim/sim"
)

// ParseArrivalsCSV reads an arrival feed from a CSV file. The header must
// contain patient_id and arrival_time; every other column becomes a numeric
// clinical attribute when the cell parses as a float, otherwise a
// categorical trait. Empty cells are omitted entirely (a missing attribute,
// not a zero).
func ParseArrivalsCSV(path string) ([]sim.Arrival, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening arrival feed: %w", err)
	}
	defer f.Close()
	return ParseArrivalsReader(f)
}

// ParseArrivalsReader parses an arrival feed from a CSV reader.
func ParseArrivalsReader(r io.Reader) ([]sim.Arrival, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading arrival feed header: %w", err)
	}
	idCol, timeCol := -1, -1
	for i, name := range header {
		switch name {
		case "patient_id":
			idCol = i
		case "arrival_time":
			timeCol = i
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("arrival feed missing patient_id column")
	}
	if timeCol < 0 {
		return nil, fmt.Errorf("arrival feed missing arrival_time column")
	}

	var arrivals []sim.Arrival
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading arrival feed line %d: %w", line+1, err)
		}
		line++
		a := sim.Arrival{
			PatientID:  rec[idCol],
			Attributes: make(map[string]float64),
			Traits:     make(map[string]string),
		}
		if a.PatientID == "" {
			return nil, fmt.Errorf("arrival feed line %d: empty patient_id", line)
		}
		t, err := strconv.ParseInt(rec[timeCol], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("arrival feed line %d: bad arrival_time %q", line, rec[timeCol])
		}
		if t < 0 {
			return nil, fmt.Errorf("arrival feed line %d: negative arrival_time %d", line, t)
		}
		a.Time = t
		for i, cell := range rec {
			if i == idCol || i == timeCol || cell == "" {
				continue
			}
			if v, err := strconv.ParseFloat(cell, 64); err == nil {
				a.Attributes[header[i]] = v
			} else {
				a.Traits[header[i]] = cell
			}
		}
		arrivals = append(arrivals, a)
	}
	return arrivals, nil
}

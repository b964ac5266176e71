package cycles

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
)

// Constant returns a steady-current cycle sampled every dtS for totalS.
func Constant(currentA, totalS, dtS float64) (Cycle, error) {
	if totalS <= 0 || dtS <= 0 {
		return Cycle{}, fmt.Errorf("cycle: duration %g s and step %g s must be positive", totalS, dtS)
	}
	n := int(totalS/dtS) + 1
	c := Cycle{TimeS: make([]float64, n), CurrentA: make([]float64, n)}
	for i := range c.TimeS {
		c.TimeS[i] = float64(i) * dtS
		c.CurrentA[i] = currentA
	}
	return c, nil
}

// Pulse returns a square pulse train: currentA for onS, rest for offS,
// repeating from t=0 until totalS.
func Pulse(currentA, onS, offS, totalS, dtS float64) (Cycle, error) {
	if onS <= 0 || offS < 0 {
		return Cycle{}, fmt.Errorf("cycle: pulse on %g s must be positive and off %g s non-negative", onS, offS)
	}
	if totalS <= 0 || dtS <= 0 {
		return Cycle{}, fmt.Errorf("cycle: duration %g s and step %g s must be positive", totalS, dtS)
	}

	period := onS + offS
	n := int(totalS/dtS) + 1
	c := Cycle{TimeS: make([]float64, n), CurrentA: make([]float64, n)}
	for i := range c.TimeS {
		t := float64(i) * dtS
		c.TimeS[i] = t
		if math.Mod(t, period) < onS {
			c.CurrentA[i] = currentA
		}
	}
	return c, nil
}

// LoadCSV reads a tabulated current cycle from a CSV file with a header
// row naming the time and current columns.
func LoadCSV(path, timeCol, currentCol string) (Cycle, error) {
	f, err := os.Open(path)
	if err != nil {
		return Cycle{}, fmt.Errorf("open cycle csv: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return Cycle{}, fmt.Errorf("read cycle csv: %w", err)
	}
	if len(rows) < 2 {
		return Cycle{}, fmt.Errorf("cycle csv %s: need a header and at least one sample", path)
	}

	timeIdx, curIdx := -1, -1
	for i, name := range rows[0] {
		switch name {
		case timeCol:
			timeIdx = i
		case currentCol:
			curIdx = i
		}
	}
	if timeIdx < 0 || curIdx < 0 {
		return Cycle{}, fmt.Errorf("cycle csv %s: missing column %q or %q", path, timeCol, currentCol)
	}

	times := make([]float64, len(rows)-1)
	currents := make([]float64, len(rows)-1)
	for i, row := range rows[1:] {
		if times[i], err = strconv.ParseFloat(row[timeIdx], 64); err != nil {
			return Cycle{}, fmt.Errorf("cycle csv %s row %d: bad time: %w", path, i+1, err)
		}
		if currents[i], err = strconv.ParseFloat(row[curIdx], 64); err != nil {
			return Cycle{}, fmt.Errorf("cycle csv %s row %d: bad current: %w", path, i+1, err)
		}
	}
	return FromSeries(times, currents)
}

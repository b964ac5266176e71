// Package cycles builds the current-vs-time profiles consumed by the
// simulator: synthetic stop-and-go traffic, standard automotive test
// cycles converted through vehicle dynamics, and custom tabulated series.
package cycles

import "fmt"

// Cycle is a current profile over time. Positive current discharges the
// pack. Cycles are immutable once constructed.
type Cycle struct {
	TimeS    []float64
	CurrentA []float64
}

// FromSeries validates the sample vectors and wraps them in a Cycle. The
// slices are copied, so the caller may reuse its buffers.
func FromSeries(timeS, currentA []float64) (Cycle, error) {
	c := Cycle{
		TimeS:    append([]float64(nil), timeS...),
		CurrentA: append([]float64(nil), currentA...),
	}
	if err := c.Validate(); err != nil {
		return Cycle{}, err
	}
	return c, nil
}

// Validate checks the sample vectors for shape and time ordering.
func (c Cycle) Validate() error {
	if len(c.TimeS) != len(c.CurrentA) {
		return fmt.Errorf("cycle: %d time samples vs %d current samples", len(c.TimeS), len(c.CurrentA))
	}
	if len(c.TimeS) == 0 {
		return fmt.Errorf("cycle: no samples")
	}
	for i := 1; i < len(c.TimeS); i++ {
		if c.TimeS[i] <= c.TimeS[i-1] {
			return fmt.Errorf("cycle: time not strictly increasing at sample %d", i)
		}
	}
	return nil
}

// Len returns the sample count.
func (c Cycle) Len() int { return len(c.TimeS) }

// DurationS returns the time span covered by the cycle.
func (c Cycle) DurationS() float64 {
	if len(c.TimeS) == 0 {
		return 0
	}
	return c.TimeS[len(c.TimeS)-1] - c.TimeS[0]
}

// Negate returns a copy of the cycle with the current sign flipped, turning
// a discharge profile into the charge profile the round-trip protocol uses.
func (c Cycle) Negate() Cycle {
	out := Cycle{
		TimeS:    append([]float64(nil), c.TimeS...),
		CurrentA: make([]float64, len(c.CurrentA)),
	}
	for i, a := range c.CurrentA {
		out.CurrentA[i] = -a
	}
	return out
}

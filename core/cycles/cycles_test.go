package cycles

import (
	"math"
	"testing"
)

func TestFromSeriesValidates(t *testing.T) {
	if _, err := FromSeries([]float64{0, 1}, []float64{5}); err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
	if _, err := FromSeries(nil, nil); err == nil {
		t.Fatal("expected error for empty series")
	}
	if _, err := FromSeries([]float64{0, 1, 1}, []float64{5, 5, 5}); err == nil {
		t.Fatal("expected error for non-increasing time")
	}
	if _, err := FromSeries([]float64{0, 1, 2}, []float64{5, -5, 0}); err != nil {
		t.Fatalf("valid series rejected: %v", err)
	}
}

func TestFromSeriesCopiesInput(t *testing.T) {
	times := []float64{0, 1, 2}
	currents := []float64{5, 5, 5}
	c, err := FromSeries(times, currents)
	if err != nil {
		t.Fatalf("from series: %v", err)
	}
	currents[0] = -100
	if c.CurrentA[0] != 5 {
		t.Fatal("cycle aliases the caller's slice")
	}
}

func TestNegate(t *testing.T) {
	c, err := FromSeries([]float64{0, 1, 2}, []float64{5, -3, 0})
	if err != nil {
		t.Fatalf("from series: %v", err)
	}
	n := c.Negate()
	want := []float64{-5, 3, 0}
	for i := range want {
		if n.CurrentA[i] != want[i] {
			t.Fatalf("negated current %v, want %v", n.CurrentA, want)
		}
		if n.TimeS[i] != c.TimeS[i] {
			t.Fatal("negate should keep the time base")
		}
	}
	if c.CurrentA[0] != 5 {
		t.Fatal("negate modified the original")
	}
}

func TestDurationS(t *testing.T) {
	c, _ := FromSeries([]float64{10, 11, 25}, []float64{0, 0, 0})
	if got := c.DurationS(); got != 15 {
		t.Fatalf("duration %g, want 15", got)
	}
	if got := (Cycle{}).DurationS(); got != 0 {
		t.Fatalf("empty cycle duration %g, want 0", got)
	}
}

func TestRollingMean(t *testing.T) {
	got := rollingMean([]float64{1, 2, 3, 4}, 3)
	want := []float64{1.5, 2, 3, 3.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("rolling mean %v, want %v", got, want)
		}
	}

	// An even window leans one sample left of center.
	got = rollingMean([]float64{0, 0, 6, 0, 0, 0}, 2)
	if got[2] != 3 || got[3] != 3 {
		t.Fatalf("even window placement wrong: %v", got)
	}
}

package cycles

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConstantCycle(t *testing.T) {
	c, err := Constant(30.0, 10.0, 1.0)
	if err != nil {
		t.Fatalf("Constant: %v", err)
	}
	if c.Len() != 11 {
		t.Fatalf("samples %d, want 11", c.Len())
	}
	if c.DurationS() != 10 {
		t.Fatalf("duration %v, want 10", c.DurationS())
	}
	for i, a := range c.CurrentA {
		if a != 30.0 {
			t.Fatalf("sample %d: current %v, want 30", i, a)
		}
	}

	if _, err := Constant(30.0, 0, 1.0); err == nil {
		t.Fatal("zero duration accepted")
	}
	if _, err := Constant(30.0, 10.0, 0); err == nil {
		t.Fatal("zero step accepted")
	}
}

func TestPulseCycleAlternates(t *testing.T) {
	// 2 s on, 3 s off over 10 s at 1 Hz.
	c, err := Pulse(50.0, 2.0, 3.0, 10.0, 1.0)
	if err != nil {
		t.Fatalf("Pulse: %v", err)
	}
	want := []float64{50, 50, 0, 0, 0, 50, 50, 0, 0, 0, 50}
	if c.Len() != len(want) {
		t.Fatalf("samples %d, want %d", c.Len(), len(want))
	}
	for i, a := range c.CurrentA {
		if a != want[i] {
			t.Fatalf("sample %d: current %v, want %v", i, a, want[i])
		}
	}

	// Zero off time degenerates to constant current.
	solid, err := Pulse(50.0, 2.0, 0, 4.0, 1.0)
	if err != nil {
		t.Fatalf("Pulse: %v", err)
	}
	for i, a := range solid.CurrentA {
		if a != 50.0 {
			t.Fatalf("sample %d: current %v, want 50", i, a)
		}
	}

	if _, err := Pulse(50.0, 0, 3.0, 10.0, 1.0); err == nil {
		t.Fatal("zero on time accepted")
	}
	if _, err := Pulse(50.0, 2.0, -1.0, 10.0, 1.0); err == nil {
		t.Fatal("negative off time accepted")
	}
}

func TestLoadCSVCycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycle.csv")
	data := "time_s,current_a\n0,10\n1,20\n2,-5\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	c, err := LoadCSV(path, "time_s", "current_a")
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("samples %d, want 3", c.Len())
	}
	if c.CurrentA[2] != -5 {
		t.Fatalf("regen sample %v, want -5", c.CurrentA[2])
	}
}

func TestLoadCSVCycleRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadCSV(filepath.Join(dir, "absent.csv"), "time_s", "current_a"); err == nil {
		t.Fatal("missing file accepted")
	}

	missing := filepath.Join(dir, "missing.csv")
	if err := os.WriteFile(missing, []byte("t,i\n0,10\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if _, err := LoadCSV(missing, "time_s", "current_a"); err == nil {
		t.Fatal("missing columns accepted")
	}

	unsorted := filepath.Join(dir, "unsorted.csv")
	if err := os.WriteFile(unsorted, []byte("time_s,current_a\n5,10\n1,20\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if _, err := LoadCSV(unsorted, "time_s", "current_a"); err == nil {
		t.Fatal("unsorted time accepted")
	}

	garbage := filepath.Join(dir, "garbage.csv")
	if err := os.WriteFile(garbage, []byte("time_s,current_a\nzero,10\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if _, err := LoadCSV(garbage, "time_s", "current_a"); err == nil {
		t.Fatal("non-numeric time accepted")
	}
}

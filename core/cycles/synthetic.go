package cycles

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultSyntheticSeed reproduces the reference stop-and-go profile.
const DefaultSyntheticSeed uint64 = 42

// Synthetic generates an urban stop-and-go current profile: a smoothed
// random walk of accelerations mapped to current, mixed with idling
// stretches and regenerative braking pulses. The profile is deterministic
// for a given seed.
func Synthetic(totalS, dtS, peakCurrentA float64, seed uint64) Cycle {
	src := rand.NewPCG(seed, seed)
	uniform := rand.New(src)
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	n := int(math.Round(totalS/dtS)) + 1
	t := make([]float64, n)
	acc := make([]float64, n)
	for i := 0; i < n; i++ {
		t[i] = float64(i) * dtS
		acc[i] = normal.Rand()
	}

	acc = rollingMean(acc, 25)
	current := make([]float64, n)
	for i, a := range acc {
		current[i] = peakCurrentA * clamp(a, -2.5, 3.0) / 3.0
	}

	// Idling damps the demand; braking overrides it with a regen pulse.
	for i := range current {
		if uniform.Float64() < 0.25 {
			current[i] *= 0.15
		}
	}
	for i := range current {
		if uniform.Float64() < 0.10 {
			current[i] = -0.5 * peakCurrentA * uniform.Float64()
		}
	}

	return Cycle{TimeS: t, CurrentA: rollingMean(current, 10)}
}

// rollingMean is a centered moving average with partial windows at the
// edges. Even windows lean one sample to the left of center.
func rollingMean(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		lo := i - window/2
		hi := i + (window-1)/2
		if lo < 0 {
			lo = 0
		}
		if hi > len(xs)-1 {
			hi = len(xs) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += xs[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

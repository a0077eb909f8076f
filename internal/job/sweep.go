package job

import (
	"math"

	"gsched/internal/profile"
)

const (
	// sweepKnee is the thread count where the synthetic workload becomes
	// bandwidth bound.
	sweepKnee = 8
	// maxSweep keeps thread counts within int range on every platform.
	maxSweep = 16
)

// Sweep returns n deterministic samples at thread counts 1, 2, 4, ...
// Throughput and FLOPS scale linearly up to the knee and logarithmically
// after it, while the cache miss rate keeps climbing.
func Sweep(n int) []profile.Sample {
	if n < 0 {
		n = 0
	}
	if n > maxSweep {
		n = maxSweep
	}

	out := make([]profile.Sample, n)
	for i := range out {
		threads := 1 << i
		eff := float64(threads)
		if threads > sweepKnee {
			eff = sweepKnee + math.Log2(float64(threads)/sweepKnee)
		}
		out[i] = profile.Sample{
			ThreadCount:   threads,
			Throughput:    eff * 100,
			FLOPS:         eff * 1.5,
			CacheMissRate: 0.02 * float64(i+1),
			MemBW:         math.Min(eff*2.5, 20),
		}
	}
	return out
}

package alloc

import (
	"math"
	"sort"
)

// BenchmarkResult is the full statistical reduction of a sample set, the Go
// equivalent of the original's BenchmarkResult.
type BenchmarkResult struct {
	Mean        float64
	Median      float64
	StdDev      float64
	Min         float64
	Max         float64
	P95         float64
	P99         float64
	SampleCount int
}

// Analyze sorts a copy of samples and computes the full BenchmarkResult.
// An empty input yields the zero value rather than dividing by zero.
func Analyze(samples []float64) BenchmarkResult {
	var r BenchmarkResult
	if len(samples) == 0 {
		return r
	}

	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)

	r.SampleCount = len(sorted)
	r.Min = sorted[0]
	r.Max = sorted[len(sorted)-1]

	var sum float64
	for _, s := range sorted {
		sum += s
	}
	r.Mean = sum / float64(len(sorted))

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		r.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		r.Median = sorted[mid]
	}

	var variance float64
	for _, s := range sorted {
		d := s - r.Mean
		variance += d * d
	}
	r.StdDev = math.Sqrt(variance / float64(len(sorted)))

	// floor(n*0.95)/floor(n*0.99) always land within [0, n-1] for n >= 1,
	// so no clamping is needed here unlike a naive ceil-based percentile.
	r.P95 = sorted[int(float64(len(sorted))*0.95)]
	r.P99 = sorted[int(float64(len(sorted))*0.99)]

	return r
}

// Throughput reports ops/sec given a total elapsed nanosecond count.
func Throughput(ops uint64, elapsedNs float64) float64 {
	if elapsedNs <= 0 {
		return 0
	}
	return float64(ops) * 1e9 / elapsedNs
}

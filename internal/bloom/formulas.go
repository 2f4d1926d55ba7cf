// Package bloom implements the probabilistic membership filter from
// spec.md §4.5, ported from original_source/illume/filter/bloom.py.
package bloom

import "math"

// optimalM computes the optimal bit-array size for n expected insertions
// at false-positive rate p. Ported from get_optimal_bloom_m.
func optimalM(n int, p float64) float64 {
	return -((float64(n) * math.Log(p)) / (math.Log(2) * math.Log(2)))
}

// optimalK computes the optimal hash-function count. Ported from
// get_optimal_bloom_k.
func optimalK(m float64, n int) float64 {
	return (m / float64(n)) * math.Log(2)
}

// errorRate returns the filter's estimated false-positive rate after n
// insertions, the upper bound (1 - e^(-k(n+0.5)/(m-1)))^k. Ported from
// get_bloom_error_rate.
func errorRate(m, k float64, n int) float64 {
	return math.Pow(1-math.Pow(math.E, -k*(float64(n)+0.5)/(m-1)), k)
}

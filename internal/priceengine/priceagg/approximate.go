// Package priceagg implements the price window aggregator: the sliding
// 30/60/90/120-day price averages and the coin-generation multiplier
// derived from them.
package priceagg

import "math"

// Approximate rounds x to 10 significant figures (at most 5 decimal
// places), the precision discipline every average, ratio and multiplier
// in the engine is passed through before being compared, stored or
// multiplied further. Uses a truncating cast rather than math.Round so
// behaviour is exact at the boundaries banker's rounding would otherwise
// disagree on.
func Approximate(x float64) float64 {
	if x > 1e10 {
		return float64(uint64(x + 0.5))
	}
	for i := 0; i < 10; i++ {
		if math.Pow(10, float64(i+1)) > x {
			if i < 4 {
				i = 4
			}
			scale := math.Pow(10, float64(9-i))
			return float64(uint64(x*scale+0.5)) / scale
		}
	}
	return x
}

package priceagg

// growthFactor turns the three period-over-period ratios into a per-epoch
// supply growth factor g >= 1.0, via tiered rate ladders selected by how
// many of the three ratios clear a threshold. Each tier's base rate and
// slope is a fixed constant; the three-way minimum used to enter the
// triple/double ladders is a genuine min(a,b,c), not a two-argument
// comparison that silently ignores the third ratio.
func growthFactor(r30, r60, r90, epochsPerYear float64) float64 {
	r30 = Approximate(r30)
	r60 = Approximate(r60)
	r90 = Approximate(r90)

	switch {
	case r30 >= 1.25 && r60 >= 1.25 && r90 >= 1.25:
		return tripleLadder(min3(r30, r60, r90), epochsPerYear)
	case r30 >= 1.25 && r60 >= 1.25:
		return doubleLadder(min2(r30, r60), epochsPerYear)
	case r30 >= 1.05:
		return singleLadder(r30, epochsPerYear)
	default:
		return 1.0
	}
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func min3(a, b, c float64) float64 {
	return min2(min2(a, b), c)
}

func tripleLadder(m, epochsPerYear float64) float64 {
	var rate float64
	switch {
	case m >= 1.55:
		rate = 0.735
	case m >= 1.45:
		rate = 0.67 + (m-1.45)*0.65
	case m >= 1.35:
		rate = 0.61 + (m-1.35)*0.6
	default: // m >= 1.25
		rate = 0.55 + (m-1.25)*0.6
	}
	return Approximate(1 + rate/epochsPerYear)
}

func doubleLadder(m, epochsPerYear float64) float64 {
	var rate float64
	switch {
	case m >= 1.55:
		rate = 0.49
	case m >= 1.45:
		rate = 0.43 + (m-1.45)*0.6
	case m >= 1.35:
		rate = 0.37 + (m-1.35)*0.6
	default: // m >= 1.25
		rate = 0.31 + (m-1.25)*0.6
	}
	return Approximate(1 + rate/epochsPerYear)
}

func singleLadder(m, epochsPerYear float64) float64 {
	var rate float64
	switch {
	case m >= 1.55:
		rate = 0.25
	case m >= 1.45:
		rate = 0.19 + (m-1.45)*0.6
	case m >= 1.35:
		rate = 0.13 + (m-1.35)*0.6
	case m >= 1.25:
		rate = 0.095 + (m-1.25)*0.35
	case m >= 1.15:
		rate = 0.06 + (m-1.15)*0.35
	default: // m >= 1.05
		rate = 0.025 + (m-1.05)*0.35
	}
	return Approximate(1 + rate/epochsPerYear)
}

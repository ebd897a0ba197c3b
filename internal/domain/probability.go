package domain

// ProbabilityInRange calcula la masa de probabilidad de una normal
// N(meanC, stdDevC²) dentro del intervalo [minC, maxC]. Un límite nil se trata
// como -∞/+∞ respectivamente. stdDevC debe ser estrictamente positiva; el
// caller rechaza (skip) los registros que no cumplen.
//
// Los cuatro casos son exhaustivos:
//   - sin límites          → 1 (certeza)
//   - solo máximo          → P(X ≤ max)
//   - solo mínimo          → P(X ≥ min)
//   - ambos                → P(min ≤ X ≤ max), con clamp a [0,1] para absorber
//     el overshoot de punto flotante de la resta
func ProbabilityInRange(meanC, stdDevC float64, minC, maxC *float64) float64 {
	switch {
	case minC == nil && maxC == nil:
		return 1.0

	case minC == nil:
		return NormalCDF((*maxC - meanC) / stdDevC)

	case maxC == nil:
		return 1.0 - NormalCDF((*minC-meanC)/stdDevC)

	default:
		p := NormalCDF((*maxC-meanC)/stdDevC) - NormalCDF((*minC-meanC)/stdDevC)
		return clamp01(p)
	}
}

// clamp01 recorta v al intervalo [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

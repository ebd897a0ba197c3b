package domain

import "math"

// Coeficientes de Abramowitz & Stegun 7.1.26: aproximación racional de la
// función de error complementaria, error absoluto máximo 1.5e-7.
const (
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
	erfP  = 0.3275911
)

// Más allá de ±8σ la aproximación deja de ser confiable y la masa restante es
// irrelevante: saturamos a 0/1 en vez de fiarnos de la fórmula cerrada.
const cdfSaturation = 8.0

// NormalCDF evalúa la distribución acumulada de la normal estándar.
//
// La sustitución es z = |x|/√2 y el exponente evaluado es exp(-z²). El modelo
// v1 usaba exp(-x²/2) con la sustitución equivocada y producía probabilidades
// sesgadas de forma sistemática; ese bug es el que motiva el backfill.
//
// Garantías: resultado en [0,1], NormalCDF(-x) = 1 - NormalCDF(x), monótona
// no decreciente.
func NormalCDF(x float64) float64 {
	if x <= -cdfSaturation {
		return 0
	}
	if x >= cdfSaturation {
		return 1
	}

	z := math.Abs(x) / math.Sqrt2

	// erfc(z) ≈ poly(t)·exp(-z²), t = 1/(1+p·z)
	t := 1.0 / (1.0 + erfP*z)
	poly := t * (erfA1 + t*(erfA2+t*(erfA3+t*(erfA4+t*erfA5))))
	erfc := poly * math.Exp(-z*z)

	// erfc(z)/2 es la masa de la cola superior de la normal estándar
	if x >= 0 {
		return 1.0 - 0.5*erfc
	}
	return 0.5 * erfc
}

// FahrenheitToCelsius convierte °F a °C.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32.0) * 5.0 / 9.0
}

// CelsiusToFahrenheit convierte °C a °F.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9.0/5.0 + 32.0
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalCDF_KnownValues(t *testing.T) {
	assert.InDelta(t, 0.5, NormalCDF(0), 1e-6)
	assert.InDelta(t, 0.8413, NormalCDF(1), 1e-4)
	assert.InDelta(t, 0.1587, NormalCDF(-1), 1e-4)
	assert.InDelta(t, 0.9772, NormalCDF(2), 1e-4)
}

func TestNormalCDF_Symmetry(t *testing.T) {
	// Φ(x) + Φ(-x) = 1 en todo el dominio útil
	for x := -7.5; x <= 7.5; x += 0.25 {
		assert.InDelta(t, 1.0, NormalCDF(x)+NormalCDF(-x), 1e-6, "x=%v", x)
	}
}

func TestNormalCDF_Saturation(t *testing.T) {
	assert.Equal(t, 0.0, NormalCDF(-8))
	assert.Equal(t, 1.0, NormalCDF(8))
	assert.Equal(t, 0.0, NormalCDF(-25))
	assert.Equal(t, 1.0, NormalCDF(25))
}

func TestNormalCDF_BoundedAndMonotonic(t *testing.T) {
	prev := -1.0
	for x := -10.0; x <= 10.0; x += 0.1 {
		v := NormalCDF(x)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
		assert.GreaterOrEqual(t, v, prev, "no monótona en x=%v", x)
		prev = v
	}
}

func TestUnitConversion_RoundTrip(t *testing.T) {
	for _, c := range []float64{-40, -17.78, 0, 21.11, 37.5, 100} {
		assert.InDelta(t, c, FahrenheitToCelsius(CelsiusToFahrenheit(c)), 1e-9)
	}
}

func TestUnitConversion_KnownPoints(t *testing.T) {
	assert.InDelta(t, 0.0, FahrenheitToCelsius(32), 1e-9)
	assert.InDelta(t, 100.0, FahrenheitToCelsius(212), 1e-9)
	// -40 es el punto fijo de la transformación
	assert.InDelta(t, -40.0, FahrenheitToCelsius(-40), 1e-9)
	assert.InDelta(t, 70.0, CelsiusToFahrenheit(21.111111), 1e-4)
}

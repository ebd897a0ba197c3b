package domain

import "time"

// Platform identifica la plataforma donde cotiza el contrato.
type Platform string

const (
	PlatformPolymarket Platform = "polymarket"
	PlatformKalshi     Platform = "kalshi"
)

// Side es el lado del contrato binario que evaluamos.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// RangeUnit es la unidad de temperatura del rango del contrato.
type RangeUnit string

const (
	UnitFahrenheit RangeUnit = "F"
	UnitCelsius    RangeUnit = "C"
)

// Opportunity es una fila de la tabla opportunities: un contrato de temperatura
// evaluado en un instante concreto. Los campos puntero son columnas NULLables;
// nil en RangeMin/RangeMax significa rango abierto por ese lado.
type Opportunity struct {
	ID       int64
	City     string
	Platform Platform
	Side     Side

	// --- Inputs del forecast ---
	ForecastTemp   *float64  // temperatura prevista, en RangeUnit
	EnsembleStdDev *float64  // desviación del ensemble, siempre en °C
	RangeMin       *float64  // límite inferior del contrato (nil = sin límite)
	RangeMax       *float64  // límite superior del contrato (nil = sin límite)
	RangeUnit      RangeUnit // unidad de ForecastTemp y de los límites
	RangeType      string    // bounded | unbounded (informativo, lo fija el ingestor)

	// --- Inputs del mercado ---
	Ask    *float64 // precio ask del lado YES, usable solo en (0,1)
	Bid    *float64 // precio bid del lado YES, usable solo en (0,1)
	Spread *float64

	// --- Contexto (lo escribe el ingestor, aquí solo se lee) ---
	HoursToResolution *float64
	RangeWidth        *float64
	WouldHaveWon      *bool // resultado real, si el contrato ya resolvió
	CreatedAt         time.Time

	// --- Derivados (propiedad exclusiva del motor de pricing) ---
	Pricing    Pricing
	ModelValid bool
}

// Pricing agrupa los campos derivados que el motor recalcula y persiste.
// Todos los valores llegan ya redondeados a la precisión configurada, de forma
// que re-ejecutar el backfill con los mismos inputs es bit-estable.
type Pricing struct {
	OurProbability       float64
	CorrectedProbability float64
	CorrectionRatio      float64
	EdgePct              float64
	ExpectedValue        float64
	KellyFraction        float64

	// Flags "pasaría el corte con edge mínimo X%"
	PassesEdge5  bool
	PassesEdge8  bool
	PassesEdge10 bool
	PassesEdge15 bool
}

// Bounded devuelve true si el contrato tiene ambos límites de temperatura.
func (o Opportunity) Bounded() bool {
	return o.RangeMin != nil && o.RangeMax != nil
}

// celsiusInputs convierte mean y límites del rango a °C según RangeUnit.
// La desviación del ensemble no se convierte: el modelo upstream la produce
// siempre en °C, independientemente de la unidad del contrato.
func (o Opportunity) celsiusInputs() (meanC float64, minC, maxC *float64) {
	meanC = *o.ForecastTemp
	minC, maxC = o.RangeMin, o.RangeMax

	if o.RangeUnit != UnitFahrenheit {
		return meanC, minC, maxC
	}

	meanC = FahrenheitToCelsius(meanC)
	if o.RangeMin != nil {
		v := FahrenheitToCelsius(*o.RangeMin)
		minC = &v
	}
	if o.RangeMax != nil {
		v := FahrenheitToCelsius(*o.RangeMax)
		maxC = &v
	}
	return meanC, minC, maxC
}

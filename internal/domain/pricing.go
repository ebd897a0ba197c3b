package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotPriceable marca un registro sin inputs suficientes para calcular el
// pricing. No es un fallo: el orquestador lo cuenta como skip y no toca la fila.
var ErrNotPriceable = errors.New("domain: record is missing required pricing inputs")

// Correction es el hook de calibración por fuente sobre la probabilidad YES.
// En esta versión del modelo está deshabilitado (identidad): los datos que
// alimentaban la calibración estaban contaminados. Se mantiene como estrategia
// enchufable en vez de borrarlo.
type Correction interface {
	// Apply devuelve la probabilidad corregida y el ratio corrected/raw aplicado.
	Apply(opp Opportunity, probability float64) (corrected, ratio float64)
}

type identityCorrection struct{}

func (identityCorrection) Apply(_ Opportunity, p float64) (float64, float64) {
	return p, 1.0
}

// IdentityCorrection devuelve la corrección nula usada por el modelo v2.
func IdentityCorrection() Correction {
	return identityCorrection{}
}

// PricerConfig agrupa los parámetros externos del cálculo. Sin defaults
// escondidos: todos llegan explícitos desde config.
type PricerConfig struct {
	KellyMultiplier    float64    // fracción de Kelly aplicada sobre el Kelly pleno
	KalshiTakerFeeRate float64    // taker fee de Kalshi
	EdgeThresholds     [4]float64 // cortes de edge en %, típicamente 5/8/10/15
	ProbabilityDP      int32      // decimales para probabilidades/EV/Kelly
	EdgeDP             int32      // decimales para edge %
}

// Pricer calcula probabilidad, edge, EV y fracción de Kelly para un registro.
// Es puro: no toca la DB ni muta la Opportunity recibida.
type Pricer struct {
	cfg        PricerConfig
	correction Correction
}

// NewPricer crea un Pricer. Con correction nil se usa la identidad.
func NewPricer(cfg PricerConfig, correction Correction) *Pricer {
	if correction == nil {
		correction = IdentityCorrection()
	}
	return &Pricer{cfg: cfg, correction: correction}
}

// Price evalúa un registro y devuelve sus campos derivados, ya redondeados.
// Devuelve un error que envuelve ErrNotPriceable si faltan inputs o el precio
// del lado evaluado está fuera de (0,1).
func (p *Pricer) Price(o Opportunity) (Pricing, error) {
	if o.ForecastTemp == nil {
		return Pricing{}, fmt.Errorf("%w: forecast_temp is NULL", ErrNotPriceable)
	}
	if o.EnsembleStdDev == nil || *o.EnsembleStdDev <= 0 {
		return Pricing{}, fmt.Errorf("%w: ensemble_std_dev must be > 0", ErrNotPriceable)
	}

	// El motor trabaja siempre en °C: mean y límites se convierten juntos.
	meanC, minC, maxC := o.celsiusInputs()
	yesProb := ProbabilityInRange(meanC, *o.EnsembleStdDev, minC, maxC)

	switch o.Side {
	case SideYes:
		return p.priceYes(o, yesProb)
	case SideNo:
		return p.priceNo(o, yesProb)
	default:
		return Pricing{}, fmt.Errorf("%w: unknown side %q", ErrNotPriceable, o.Side)
	}
}

// priceYes evalúa el lado YES: se compra al ask.
func (p *Pricer) priceYes(o Opportunity, yesProb float64) (Pricing, error) {
	if o.Ask == nil || *o.Ask <= 0 || *o.Ask >= 1 {
		return Pricing{}, fmt.Errorf("%w: ask outside (0,1)", ErrNotPriceable)
	}
	cost := *o.Ask

	corrected, ratio := p.correction.Apply(o, yesProb)
	corrected = clamp01(corrected)

	return p.finish(o, yesProb, corrected, ratio, cost), nil
}

// priceNo evalúa el lado NO: el ask implícito es 1-bid. La calibración solo
// está definida sobre la probabilidad YES, así que aquí corrected == our.
func (p *Pricer) priceNo(o Opportunity, yesProb float64) (Pricing, error) {
	if o.Bid == nil || *o.Bid <= 0 || *o.Bid >= 1 {
		return Pricing{}, fmt.Errorf("%w: bid outside (0,1)", ErrNotPriceable)
	}
	noAsk := 1.0 - *o.Bid
	if noAsk <= 0 || noAsk >= 1 {
		return Pricing{}, fmt.Errorf("%w: implied NO ask outside (0,1)", ErrNotPriceable)
	}

	ourProb := clamp01(1.0 - yesProb)
	return p.finish(o, ourProb, ourProb, 1.0, noAsk), nil
}

// finish completa el cálculo común a ambos lados: edge, EV, Kelly, flags y
// redondeo final.
func (p *Pricer) finish(o Opportunity, ourProb, corrected, ratio, cost float64) Pricing {
	effectiveCost := cost + EntryFee(o.Platform, cost, p.cfg.KalshiTakerFeeRate)

	edgePct := (corrected - cost) * 100.0
	expectedValue := corrected*1.0 - effectiveCost // payout de 1 unidad al ganar
	kelly := p.kelly(corrected, effectiveCost)

	pr := Pricing{
		OurProbability:       roundTo(ourProb, p.cfg.ProbabilityDP),
		CorrectedProbability: roundTo(corrected, p.cfg.ProbabilityDP),
		CorrectionRatio:      roundTo(ratio, p.cfg.ProbabilityDP),
		EdgePct:              roundTo(edgePct, p.cfg.EdgeDP),
		ExpectedValue:        roundTo(expectedValue, p.cfg.ProbabilityDP),
		KellyFraction:        roundTo(kelly, p.cfg.ProbabilityDP),
	}

	// Flags sobre el edge ya redondeado: así un segundo run con los mismos
	// inputs nunca cambia un flag por ruido del último decimal.
	pr.PassesEdge5 = pr.EdgePct >= p.cfg.EdgeThresholds[0]
	pr.PassesEdge8 = pr.EdgePct >= p.cfg.EdgeThresholds[1]
	pr.PassesEdge10 = pr.EdgePct >= p.cfg.EdgeThresholds[2]
	pr.PassesEdge15 = pr.EdgePct >= p.cfg.EdgeThresholds[3]

	return pr
}

// kelly devuelve la fracción de Kelly fraccionada, nunca negativa.
//
// Con netProfit = 1 - effectiveCost y b = netProfit/effectiveCost:
//
//	kellyFull = (b·p - (1-p)) / b
func (p *Pricer) kelly(probability, effectiveCost float64) float64 {
	netProfit := 1.0 - effectiveCost
	if probability <= 0 || netProfit <= 0 {
		return 0
	}

	b := netProfit / effectiveCost
	full := (b*probability - (1.0 - probability)) / b

	scaled := full * p.cfg.KellyMultiplier
	if scaled < 0 {
		return 0
	}
	return scaled
}

// roundTo redondea half-up a `places` decimales vía decimal, no con aritmética
// float, para que el valor persistido sea estable entre re-runs.
func roundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

package fees

import (
	"github.com/shopspring/decimal"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/config"
)

// Engine computes the dynamic trade fee in basis points:
//
//	total = base[regime]
//	      + alpha * vol^2 * 100
//	      + beta  * toxicity * 100
//	      + gamma * mult[regime] * (volComponent + toxicityComponent)
//	      + delta * |imbalance| * 100
//
// rounded half-up to one decimal and clamped to [0, cap[regime]]. All
// arithmetic is exact decimal so every implementation of the same tables
// quotes the same fee.
type Engine struct {
	alpha, beta, gamma, delta decimal.Decimal

	base map[models.Regime]decimal.Decimal
	mult map[models.Regime]decimal.Decimal
	cap  map[models.Regime]decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// NewEngine loads the fee tables once; the engine is immutable afterwards.
func NewEngine(cfg config.FeeConfig) *Engine {
	return &Engine{
		alpha: decimal.NewFromFloat(cfg.Alpha),
		beta:  decimal.NewFromFloat(cfg.Beta),
		gamma: decimal.NewFromFloat(cfg.Gamma),
		delta: decimal.NewFromFloat(cfg.Delta),
		base:  regimeTable(cfg.BaseFeeBps),
		mult:  regimeTable(cfg.RegimeMultiplier),
		cap:   regimeTable(cfg.CapBps),
	}
}

func regimeTable(m map[string]float64) map[models.Regime]decimal.Decimal {
	out := make(map[models.Regime]decimal.Decimal, len(m))
	for k, v := range m {
		out[models.Regime(k)] = decimal.NewFromFloat(v)
	}
	return out
}

// Quote prices the next trade on a pair. Inputs are assumed range-checked by
// the caller; the result is still clamped so an out-of-range signal can never
// produce a fee outside [0, cap].
func (e *Engine) Quote(pair string, regime models.Regime, s models.RiskSignals) models.FeeQuote {
	base := e.base[regime]
	capBps := e.cap[regime]

	volComp := e.alpha.Mul(s.Volatility).Mul(s.Volatility).Mul(hundred)
	toxComp := e.beta.Mul(s.ToxicityScore).Mul(hundred)
	regComp := e.gamma.Mul(e.mult[regime]).Mul(volComp.Add(toxComp))
	invComp := e.delta.Mul(s.InventoryImbalance.Abs()).Mul(hundred)

	total := base.Add(volComp).Add(toxComp).Add(regComp).Add(invComp)
	// Round half away from zero; fees are non-negative so this is half-up.
	total = total.Round(1)

	capped := false
	if total.GreaterThan(capBps) {
		total = capBps
		capped = true
	}
	if total.IsNegative() {
		total = decimal.Zero
		capped = true
	}

	return models.FeeQuote{
		Pair:          pair,
		Regime:        regime,
		BaseFeeBps:    base,
		VolatilityBps: volComp,
		ToxicityBps:   toxComp,
		RegimeBps:     regComp,
		InventoryBps:  invComp,
		TotalFeeBps:   total,
		CapBps:        capBps,
		Capped:        capped,
	}
}

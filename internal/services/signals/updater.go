package signals

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
)

// Updater advances the per-pair risk signals from trade and oracle
// observations. All functions are pure; the caller persists the result.
type Updater struct {
	lambda float64 // EWMA weight on the previous variance
	kappa  float64 // EWMA weight on the previous toxicity score
}

// NewUpdater uses the standard RiskMetrics-style decay for volatility and a
// slower decay for toxicity so a single informed burst lingers.
func NewUpdater() *Updater {
	return &Updater{lambda: 0.94, kappa: 0.9}
}

const volEpsilon = 1e-6

// ApplyTrade folds one execution into the snapshot. The previous pool price
// anchors the return; the first trade on a pair only seeds the price.
func (u *Updater) ApplyTrade(s models.RiskSignals, t models.TradeExecution) models.RiskSignals {
	prevPrice, _ := s.PoolPrice.Float64()
	price, _ := t.Price.Float64()

	if prevPrice > 0 && price > 0 {
		r := math.Log(price / prevPrice)
		s.Volatility = decimal.NewFromFloat(u.nextVolatility(s.Volatility, r))
		s.ToxicityScore = decimal.NewFromFloat(u.nextToxicity(s.ToxicityScore, s.Volatility, r))
	}
	s.InventoryImbalance = nextImbalance(s.InventoryImbalance, t, s.PoolTVL)
	s.PoolPrice = t.Price
	s.UpdatedAt = t.Timestamp
	return s
}

// ApplyOracle records a fresh reference price. Volatility and toxicity track
// pool flow only; the oracle side just moves the deviation inputs.
func (u *Updater) ApplyOracle(s models.RiskSignals, o models.OracleUpdate) models.RiskSignals {
	s.OraclePrice = o.Price
	s.LastOracleUpdate = o.Timestamp
	s.UpdatedAt = o.Timestamp
	return s
}

// nextVolatility is the EWMA variance update sigma'^2 = l*sigma^2 + (1-l)*r^2.
func (u *Updater) nextVolatility(prev decimal.Decimal, r float64) float64 {
	sigma, _ := prev.Float64()
	return math.Sqrt(u.lambda*sigma*sigma + (1-u.lambda)*r*r)
}

// nextToxicity blends the previous score with the return surprise |r|/sigma.
// A return many sigmas out of line reads as informed flow; the score is
// clamped to [0,1].
func (u *Updater) nextToxicity(prev, vol decimal.Decimal, r float64) float64 {
	sigma, _ := vol.Float64()
	surprise := math.Abs(r) / (sigma + volEpsilon)
	if surprise > 1 {
		surprise = 1
	}
	tox, _ := prev.Float64()
	next := u.kappa*tox + (1-u.kappa)*surprise
	return math.Min(math.Max(next, 0), 1)
}

var one = decimal.NewFromInt(1)

// nextImbalance shifts the tilt by the trade's notional share of the pool.
// Buys drain the asset side so they push the tilt positive.
func nextImbalance(prev decimal.Decimal, t models.TradeExecution, tvl decimal.Decimal) decimal.Decimal {
	if tvl.IsZero() {
		return prev
	}
	delta := t.Size.Mul(t.Price).Div(tvl)
	if !t.IsBuy {
		delta = delta.Neg()
	}
	next := prev.Add(delta)
	if next.GreaterThan(one) {
		return one
	}
	if next.LessThan(one.Neg()) {
		return one.Neg()
	}
	return next
}

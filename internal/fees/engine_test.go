package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/config"
)

func feeConfig() config.FeeConfig {
	return config.FeeConfig{
		Alpha: 1.0, Beta: 1.0, Gamma: 0.5, Delta: 0.5,
		BaseFeeBps: map[string]float64{
			"CORE_SESSION": 10, "SOFT_OPEN": 15, "PRE_MARKET": 20,
			"AFTER_HOURS": 25, "OVERNIGHT": 35, "WEEKEND": 50, "HOLIDAY": 50,
		},
		RegimeMultiplier: map[string]float64{
			"CORE_SESSION": 1.0, "SOFT_OPEN": 1.5, "PRE_MARKET": 2.0,
			"AFTER_HOURS": 2.5, "OVERNIGHT": 3.0, "WEEKEND": 4.0, "HOLIDAY": 4.0,
		},
		CapBps: map[string]float64{
			"CORE_SESSION": 100, "SOFT_OPEN": 150, "PRE_MARKET": 200,
			"AFTER_HOURS": 250, "OVERNIGHT": 300, "WEEKEND": 400, "HOLIDAY": 400,
		},
	}
}

func signals(vol, tox, imb string) models.RiskSignals {
	return models.RiskSignals{
		Pair:               "AAPL-USDC",
		Volatility:         decimal.RequireFromString(vol),
		ToxicityScore:      decimal.RequireFromString(tox),
		InventoryImbalance: decimal.RequireFromString(imb),
	}
}

func TestQuoteReferenceVector(t *testing.T) {
	e := NewEngine(feeConfig())

	// base 10 + vol 12.25 + toxicity 25 + regime 0.5*1.0*37.25 = 65.875 -> 65.9
	q := e.Quote("AAPL-USDC", models.RegimeCoreSession, signals("0.35", "0.25", "0"))

	assert.Equal(t, "10", q.BaseFeeBps.String())
	assert.Equal(t, "12.25", q.VolatilityBps.String())
	assert.Equal(t, "25", q.ToxicityBps.String())
	assert.Equal(t, "18.625", q.RegimeBps.String())
	assert.True(t, q.InventoryBps.IsZero())
	assert.Equal(t, "65.9", q.TotalFeeBps.String())
	assert.False(t, q.Capped)
}

func TestQuoteZeroSignalsIsBaseFee(t *testing.T) {
	e := NewEngine(feeConfig())

	for _, r := range models.AllRegimes {
		q := e.Quote("AAPL-USDC", r, signals("0", "0", "0"))
		assert.Equal(t, q.BaseFeeBps.String(), q.TotalFeeBps.String(), "regime %s", r)
		assert.False(t, q.Capped)
	}
}

func TestQuoteMonotoneAcrossRegimes(t *testing.T) {
	e := NewEngine(feeConfig())
	s := signals("0.2", "0.1", "0.05")

	prev := decimal.Zero
	for _, r := range models.AllRegimes {
		q := e.Quote("AAPL-USDC", r, s)
		assert.True(t, q.TotalFeeBps.GreaterThanOrEqual(prev),
			"fee must not decrease moving to riskier regime %s: %s < %s", r, q.TotalFeeBps, prev)
		prev = q.TotalFeeBps
	}
}

func TestQuoteInventorySignIgnored(t *testing.T) {
	e := NewEngine(feeConfig())

	long := e.Quote("AAPL-USDC", models.RegimeCoreSession, signals("0.1", "0.1", "0.3"))
	short := e.Quote("AAPL-USDC", models.RegimeCoreSession, signals("0.1", "0.1", "-0.3"))
	assert.Equal(t, long.TotalFeeBps.String(), short.TotalFeeBps.String())
	assert.Equal(t, "15", long.InventoryBps.String())
}

func TestQuoteCapped(t *testing.T) {
	e := NewEngine(feeConfig())

	// Extreme volatility blows past every cap.
	q := e.Quote("AAPL-USDC", models.RegimeCoreSession, signals("2.0", "1.0", "1.0"))
	assert.True(t, q.Capped)
	assert.Equal(t, "100", q.TotalFeeBps.String())

	q = e.Quote("AAPL-USDC", models.RegimeWeekend, signals("2.0", "1.0", "1.0"))
	assert.True(t, q.Capped)
	assert.Equal(t, "400", q.TotalFeeBps.String())
}

func TestQuoteRoundsHalfUp(t *testing.T) {
	e := NewEngine(feeConfig())

	// In CORE the toxicity path contributes 1.5x its raw bps, so
	// toxicity 0.069 -> total 10 + 6.9 + 3.45 = 20.35, which rounds up.
	q := e.Quote("AAPL-USDC", models.RegimeCoreSession, signals("0", "0.069", "0"))
	assert.Equal(t, "20.4", q.TotalFeeBps.String())

	// toxicity 0.0023 -> total 10.345 rounds down.
	q = e.Quote("AAPL-USDC", models.RegimeCoreSession, signals("0", "0.0023", "0"))
	assert.Equal(t, "10.3", q.TotalFeeBps.String())
}

func TestQuoteDeterministic(t *testing.T) {
	e := NewEngine(feeConfig())
	s := signals("0.123456", "0.654321", "-0.42")

	first := e.Quote("AAPL-USDC", models.RegimeAfterHours, s)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first.TotalFeeBps.String(),
			e.Quote("AAPL-USDC", models.RegimeAfterHours, s).TotalFeeBps.String())
	}
}

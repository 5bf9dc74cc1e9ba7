package signals

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func trade(price, size string, buy bool) models.TradeExecution {
	return models.TradeExecution{
		Pair:      "AAPL-USDC",
		Price:     d(price),
		Size:      d(size),
		IsBuy:     buy,
		Timestamp: time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC),
	}
}

func TestApplyTradeSeedsPrice(t *testing.T) {
	u := NewUpdater()

	s := u.ApplyTrade(models.RiskSignals{Pair: "AAPL-USDC", PoolTVL: d("1000000")}, trade("100", "10", true))
	assert.Equal(t, "100", s.PoolPrice.String())
	assert.True(t, s.Volatility.IsZero(), "first trade has no return to measure")
	assert.True(t, s.ToxicityScore.IsZero())
}

func TestApplyTradeVolatilityTracksMoves(t *testing.T) {
	u := NewUpdater()
	s := models.RiskSignals{Pair: "AAPL-USDC", PoolPrice: d("100"), PoolTVL: d("1000000")}

	jumped := u.ApplyTrade(s, trade("105", "10", true))
	assert.True(t, jumped.Volatility.IsPositive())

	// Flat prints decay the estimate back down.
	calm := jumped
	for i := 0; i < 50; i++ {
		calm = u.ApplyTrade(calm, trade("105", "10", true))
	}
	assert.True(t, calm.Volatility.LessThan(jumped.Volatility))
}

func TestApplyTradeToxicityBoundedAndDecaying(t *testing.T) {
	u := NewUpdater()
	s := models.RiskSignals{Pair: "AAPL-USDC", PoolPrice: d("100"), PoolTVL: d("1000000")}

	// A run of violent one-way prints drives the score up but never past 1.
	price := 100.0
	for i := 0; i < 40; i++ {
		price *= 1.05
		s = u.ApplyTrade(s, models.TradeExecution{
			Pair: "AAPL-USDC", Price: decimal.NewFromFloat(price), Size: d("10"), IsBuy: true,
		})
	}
	assert.True(t, s.ToxicityScore.IsPositive())
	assert.True(t, s.ToxicityScore.LessThanOrEqual(d("1")))

	// Calm two-way flow at a steady price bleeds the score back off.
	hot := s.ToxicityScore
	flat := decimal.NewFromFloat(price)
	for i := 0; i < 40; i++ {
		s = u.ApplyTrade(s, models.TradeExecution{
			Pair: "AAPL-USDC", Price: flat, Size: d("10"), IsBuy: i%2 == 0,
		})
	}
	assert.True(t, s.ToxicityScore.LessThan(hot))
}

func TestApplyTradeImbalance(t *testing.T) {
	u := NewUpdater()
	s := models.RiskSignals{Pair: "AAPL-USDC", PoolPrice: d("100"), PoolTVL: d("1000000")}

	// 1000 shares at $100 is 10% of a $1M pool.
	s = u.ApplyTrade(s, trade("100", "1000", true))
	assert.Equal(t, "0.1", s.InventoryImbalance.String())

	// A matching sell unwinds the tilt.
	s = u.ApplyTrade(s, trade("100", "1000", false))
	assert.True(t, s.InventoryImbalance.IsZero())

	// The tilt saturates at +/-1.
	for i := 0; i < 30; i++ {
		s = u.ApplyTrade(s, trade("100", "1000000", false))
	}
	assert.Equal(t, "-1", s.InventoryImbalance.String())
}

func TestApplyTradeZeroTVLKeepsImbalance(t *testing.T) {
	u := NewUpdater()
	s := models.RiskSignals{Pair: "AAPL-USDC", PoolPrice: d("100"), InventoryImbalance: d("0.2")}

	s = u.ApplyTrade(s, trade("100", "1000", true))
	assert.Equal(t, "0.2", s.InventoryImbalance.String())
}

func TestApplyOracleTouchesOnlyOracleSide(t *testing.T) {
	u := NewUpdater()
	at := time.Date(2026, 1, 5, 14, 30, 0, 0, time.UTC)

	s := models.RiskSignals{Pair: "AAPL-USDC", PoolPrice: d("100"), Volatility: d("0.2")}
	s = u.ApplyOracle(s, models.OracleUpdate{Pair: "AAPL-USDC", Price: d("101.5"), Timestamp: at})

	assert.Equal(t, "101.5", s.OraclePrice.String())
	assert.Equal(t, at, s.LastOracleUpdate)
	assert.Equal(t, "100", s.PoolPrice.String())
	assert.Equal(t, "0.2", s.Volatility.String())
}

package breaker

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/config"
)

func breakerConfig() config.BreakerConfig {
	return config.BreakerConfig{
		OracleStaleAfter:  60 * time.Second,
		MaxPriceDeviation: 0.02,
		MaxToxicity:       0.7,
		MaxImbalance:      0.4,
		SpreadWidenPct:    []float64{0, 0.10, 0.25, 0.50, 1.00},
		DepthFactor:       []float64{1.0, 1.0, 0.75, 0.50, 0},
	}
}

var evalTime = time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

// cleanSignals has a fresh oracle and every metric inside its threshold.
func cleanSignals() models.RiskSignals {
	return models.RiskSignals{
		Pair:             "AAPL-USDC",
		PoolPrice:        decimal.RequireFromString("100"),
		OraclePrice:      decimal.RequireFromString("100"),
		LastOracleUpdate: evalTime.Add(-5 * time.Second),
	}
}

func TestEvaluateLevelPerFlagCount(t *testing.T) {
	over := func(s models.RiskSignals, n int) models.RiskSignals {
		// Trip n thresholds in a fixed order, oracle staleness excluded.
		if n >= 1 {
			s.PoolPrice = decimal.RequireFromString("103") // 3% deviation
		}
		if n >= 2 {
			s.ToxicityScore = decimal.RequireFromString("0.8")
		}
		if n >= 3 {
			s.InventoryImbalance = decimal.RequireFromString("-0.5")
		}
		return s
	}

	for n := 0; n <= 3; n++ {
		m := New(breakerConfig())
		st := m.Evaluate(over(cleanSignals(), n), evalTime)
		assert.Equal(t, n, st.Level, "%d flags", n)
		assert.Len(t, st.ActiveFlags, n)
	}
}

func TestEvaluateStaleOracleForcesHalt(t *testing.T) {
	m := New(breakerConfig())

	s := cleanSignals()
	s.LastOracleUpdate = evalTime.Add(-61 * time.Second)
	st := m.Evaluate(s, evalTime)

	assert.Equal(t, models.LevelHalt, st.Level)
	assert.True(t, st.Halted())
	assert.True(t, st.HasFlag(models.FlagOracleStale))
	assert.Len(t, st.ActiveFlags, 1)
	assert.True(t, st.Effect.RejectTrades)
	assert.True(t, st.Effect.DepthFactor.IsZero())
}

func TestEvaluateNeverSeenOracleIsStale(t *testing.T) {
	m := New(breakerConfig())

	s := cleanSignals()
	s.LastOracleUpdate = time.Time{}
	st := m.Evaluate(s, evalTime)
	assert.True(t, st.HasFlag(models.FlagOracleStale))
	assert.Equal(t, models.LevelHalt, st.Level)
}

func TestEvaluateBoundariesAreExclusive(t *testing.T) {
	m := New(breakerConfig())

	// Exactly at threshold does not trip; strictly over does.
	s := cleanSignals()
	s.PoolPrice = decimal.RequireFromString("102") // deviation exactly 0.02
	s.ToxicityScore = decimal.RequireFromString("0.7")
	s.InventoryImbalance = decimal.RequireFromString("0.4")
	s.LastOracleUpdate = evalTime.Add(-60 * time.Second)

	st := m.Evaluate(s, evalTime)
	assert.Equal(t, models.LevelNormal, st.Level)
	assert.Empty(t, st.ActiveFlags)
}

func TestEvaluateClearsWithoutLatching(t *testing.T) {
	m := New(breakerConfig())

	s := cleanSignals()
	s.ToxicityScore = decimal.RequireFromString("0.9")
	assert.Equal(t, 1, m.Evaluate(s, evalTime).Level)

	// Next clean evaluation drops straight back to normal.
	st := m.Evaluate(cleanSignals(), evalTime.Add(time.Second))
	assert.Equal(t, models.LevelNormal, st.Level)
	assert.Equal(t, models.LevelNormal, m.LastLevel("AAPL-USDC"))
}

func TestEvaluateEnteredAtPreservedWhileLevelHolds(t *testing.T) {
	m := New(breakerConfig())

	s := cleanSignals()
	s.ToxicityScore = decimal.RequireFromString("0.9")

	first := m.Evaluate(s, evalTime)
	s.LastOracleUpdate = evalTime.Add(25 * time.Second)
	second := m.Evaluate(s, evalTime.Add(30*time.Second))

	assert.Equal(t, first.Level, second.Level)
	assert.Equal(t, first.EnteredAt, second.EnteredAt)

	// A level change restamps EnteredAt.
	third := m.Evaluate(cleanSignals(), evalTime.Add(60*time.Second))
	assert.Equal(t, evalTime.Add(60*time.Second), third.EnteredAt)
}

func TestEvaluateMinDwellHoldsElevatedLevel(t *testing.T) {
	cfg := breakerConfig()
	cfg.MinDwell = 5 * time.Minute
	m := New(cfg)

	s := cleanSignals()
	s.PoolPrice = decimal.RequireFromString("103")
	s.ToxicityScore = decimal.RequireFromString("0.8")
	s.InventoryImbalance = decimal.RequireFromString("0.5")
	assert.Equal(t, 3, m.Evaluate(s, evalTime).Level)

	// Clean signals inside the dwell window hold level 3.
	clean := cleanSignals()
	clean.LastOracleUpdate = evalTime.Add(55 * time.Second)
	held := m.Evaluate(clean, evalTime.Add(time.Minute))
	assert.Equal(t, 3, held.Level)
	assert.Equal(t, evalTime, held.EnteredAt)

	// Past the window the recomputed level applies.
	clean.LastOracleUpdate = evalTime.Add(6 * time.Minute)
	assert.Equal(t, models.LevelNormal, m.Evaluate(clean, evalTime.Add(6*time.Minute)).Level)
}

func TestEvaluatePairsIndependent(t *testing.T) {
	m := New(breakerConfig())

	hot := cleanSignals()
	hot.Pair = "TSLA-USDC"
	hot.ToxicityScore = decimal.RequireFromString("0.95")

	assert.Equal(t, 1, m.Evaluate(hot, evalTime).Level)
	assert.Equal(t, 0, m.Evaluate(cleanSignals(), evalTime).Level)
	assert.Equal(t, 1, m.LastLevel("TSLA-USDC"))
	assert.Equal(t, 0, m.LastLevel("AAPL-USDC"))
}

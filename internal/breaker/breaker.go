package breaker

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/config"
)

// StateMachine is the graduated circuit breaker. The level is recomputed from
// the live flag set on every evaluation rather than latched, so a transient
// spike clears itself on the next clean evaluation. A stale oracle forces the
// halt level outright because every other signal is priced off that feed.
type StateMachine struct {
	staleAfter   time.Duration
	maxDeviation decimal.Decimal
	maxToxicity  decimal.Decimal
	maxImbalance decimal.Decimal
	minDwell     time.Duration
	effects      [5]models.LevelEffect

	mu   sync.Mutex
	prev map[string]models.CircuitBreakerState
}

// New builds the state machine from immutable configuration.
func New(cfg config.BreakerConfig) *StateMachine {
	m := &StateMachine{
		staleAfter:   cfg.OracleStaleAfter,
		maxDeviation: decimal.NewFromFloat(cfg.MaxPriceDeviation),
		maxToxicity:  decimal.NewFromFloat(cfg.MaxToxicity),
		maxImbalance: decimal.NewFromFloat(cfg.MaxImbalance),
		minDwell:     cfg.MinDwell,
		prev:         make(map[string]models.CircuitBreakerState),
	}
	for i := 0; i < 5; i++ {
		m.effects[i] = models.LevelEffect{
			SpreadWidenPct: decimal.NewFromFloat(cfg.SpreadWidenPct[i]),
			DepthFactor:    decimal.NewFromFloat(cfg.DepthFactor[i]),
			RejectTrades:   i >= models.LevelHalt,
		}
	}
	return m
}

// Evaluate recomputes the breaker state for one pair from a fresh signal
// snapshot. The returned state carries the effect the venue adapter applies;
// the machine itself never blocks a trade.
func (m *StateMachine) Evaluate(s models.RiskSignals, now time.Time) models.CircuitBreakerState {
	flags := m.activeFlags(s, now)

	level := len(flags)
	if level > models.LevelHalt {
		level = models.LevelHalt
	}
	for _, f := range flags {
		if f == models.FlagOracleStale {
			level = models.LevelHalt
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, had := m.prev[s.Pair]
	enteredAt := now
	if had && prev.Level == level {
		enteredAt = prev.EnteredAt
	}

	// Optional dwell: hold an elevated level until the dwell window passes.
	if m.minDwell > 0 && had && prev.Level >= 3 && level < prev.Level &&
		now.Sub(prev.EnteredAt) < m.minDwell {
		level = prev.Level
		enteredAt = prev.EnteredAt
	}

	state := models.CircuitBreakerState{
		Pair:        s.Pair,
		Level:       level,
		ActiveFlags: flags,
		Effect:      m.effects[level],
		EnteredAt:   enteredAt,
	}
	m.prev[s.Pair] = state
	return state
}

// LastLevel returns the most recently evaluated level for a pair, or 0 when
// the pair has never been evaluated.
func (m *StateMachine) LastLevel(pair string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prev[pair].Level
}

func (m *StateMachine) activeFlags(s models.RiskSignals, now time.Time) []models.BreakerFlag {
	var flags []models.BreakerFlag
	if s.LastOracleUpdate.IsZero() || now.Sub(s.LastOracleUpdate) > m.staleAfter {
		flags = append(flags, models.FlagOracleStale)
	}
	if s.PriceDeviation().GreaterThan(m.maxDeviation) {
		flags = append(flags, models.FlagPriceDeviation)
	}
	if s.ToxicityScore.GreaterThan(m.maxToxicity) {
		flags = append(flags, models.FlagHighToxicity)
	}
	if s.InventoryImbalance.Abs().GreaterThan(m.maxImbalance) {
		flags = append(flags, models.FlagHighImbalance)
	}
	return flags
}

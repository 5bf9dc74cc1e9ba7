package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BreakerFlag is one independently evaluated risk condition.
type BreakerFlag string

const (
	FlagOracleStale    BreakerFlag = "ORACLE_STALE"
	FlagPriceDeviation BreakerFlag = "PRICE_DEVIATION"
	FlagHighToxicity   BreakerFlag = "HIGH_TOXICITY"
	FlagHighImbalance  BreakerFlag = "HIGH_IMBALANCE"
)

// Breaker levels. Level is recomputed from the active flag set on every
// evaluation; it is not latched.
const (
	LevelNormal = 0
	LevelHalt   = 4
)

// LevelEffect is what the venue adapter applies at a given level. The state
// machine only reports it; enforcement is the caller's job.
type LevelEffect struct {
	SpreadWidenPct decimal.Decimal `json:"spread_widen_pct"`
	DepthFactor    decimal.Decimal `json:"depth_factor"`
	RejectTrades   bool            `json:"reject_trades"`
}

// CircuitBreakerState is the graduated risk level for one pair.
type CircuitBreakerState struct {
	Pair        string        `json:"pair"`
	Level       int           `json:"level"`
	ActiveFlags []BreakerFlag `json:"active_flags"`
	Effect      LevelEffect   `json:"effect"`
	EnteredAt   time.Time     `json:"entered_at"`
}

// HasFlag reports whether f is in the active set.
func (s CircuitBreakerState) HasFlag(f BreakerFlag) bool {
	for _, a := range s.ActiveFlags {
		if a == f {
			return true
		}
	}
	return false
}

// Halted reports whether trading must be rejected outright.
func (s CircuitBreakerState) Halted() bool { return s.Level >= LevelHalt }

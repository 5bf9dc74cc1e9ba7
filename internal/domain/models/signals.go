package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskSignals is the per-pair snapshot the control plane reads on every
// evaluation. The venue adapter owns the authoritative copy; evaluations never
// mutate it and instead return recommended next values for the adapter to
// persist.
type RiskSignals struct {
	Pair string `json:"pair"`

	// Volatility is a non-negative realized-volatility estimate (EWMA of
	// squared returns; annualization is the venue's concern).
	Volatility decimal.Decimal `json:"volatility"`

	// ToxicityScore is a VPIN-style informed-flow estimate in [0,1].
	ToxicityScore decimal.Decimal `json:"toxicity_score"`

	// InventoryImbalance is in [-1,1]; sign is the direction the pool is tilted.
	InventoryImbalance decimal.Decimal `json:"inventory_imbalance"`

	LastOracleUpdate time.Time       `json:"last_oracle_update"`
	PoolPrice        decimal.Decimal `json:"pool_price"`
	OraclePrice      decimal.Decimal `json:"oracle_price"`
	PoolTVL          decimal.Decimal `json:"pool_tvl"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// PriceDeviation returns |pool − oracle| / oracle, or zero when the oracle
// price is unset.
func (s RiskSignals) PriceDeviation() decimal.Decimal {
	if s.OraclePrice.IsZero() {
		return decimal.Zero
	}
	return s.PoolPrice.Sub(s.OraclePrice).Abs().Div(s.OraclePrice)
}

// TradeExecution is the venue's post-trade notification used to advance the
// risk signals for the next evaluation.
type TradeExecution struct {
	Pair      string          `json:"pair"`
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	IsBuy     bool            `json:"is_buy"`
	Timestamp time.Time       `json:"timestamp"`
}

// OracleUpdate is a fresh reference-market price observation for a pair.
type OracleUpdate struct {
	Pair      string          `json:"pair"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

package models

import "github.com/shopspring/decimal"

// FeeQuote is the per-trade fee breakdown in basis points, rounded half-up to
// one decimal. Ephemeral: recomputed before every trade, never persisted as
// authoritative state (the archive keeps copies for analysis only).
type FeeQuote struct {
	Pair          string          `json:"pair"`
	Regime        Regime          `json:"regime"`
	BaseFeeBps    decimal.Decimal `json:"base_fee_bps"`
	VolatilityBps decimal.Decimal `json:"volatility_bps"`
	ToxicityBps   decimal.Decimal `json:"toxicity_bps"`
	RegimeBps     decimal.Decimal `json:"regime_bps"`
	InventoryBps  decimal.Decimal `json:"inventory_bps"`
	TotalFeeBps   decimal.Decimal `json:"total_fee_bps"`
	CapBps        decimal.Decimal `json:"cap_bps"`
	Capped        bool            `json:"capped"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types published to the risk-events topic for downstream consumers
// (LP dashboards, the venue's own alerting).
const (
	EventBreakerLevelChanged = "breaker_level_changed"
	EventAuctionOpened       = "auction_opened"
	EventAuctionSettled      = "auction_settled"
	EventAuctionExpired      = "auction_expired"
)

// RiskEvent is the envelope for every published event. Payload fields are
// sparse; only the ones relevant to Type are set.
type RiskEvent struct {
	Type      string    `json:"type"`
	Pair      string    `json:"pair"`
	Timestamp time.Time `json:"timestamp"`

	PrevLevel int `json:"prev_level,omitempty"`
	NewLevel  int `json:"new_level,omitempty"`

	AuctionID       string          `json:"auction_id,omitempty"`
	GapPercent      decimal.Decimal `json:"gap_percent,omitempty"`
	GapValue        decimal.Decimal `json:"gap_value,omitempty"`
	Winner          string          `json:"winner,omitempty"`
	CapturedValue   decimal.Decimal `json:"captured_value,omitempty"`
	LPShare         decimal.Decimal `json:"lp_share,omitempty"`
	WinnerShare     decimal.Decimal `json:"winner_share,omitempty"`
	UnmitigatedLoss decimal.Decimal `json:"unmitigated_loss,omitempty"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request bodies for the venue-facing API. Defined in domain for reuse between
// the HTTP handlers and the Kafka ingestion path.

type PreTradeRequest struct {
	Pair string `json:"pair" validate:"required"`
}

type TradeExecutionRequest struct {
	Pair      string          `json:"pair" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"required"`
	Size      decimal.Decimal `json:"size" validate:"required"`
	Side      string          `json:"side" default:"buy" validate:"oneof=buy sell"`
	Timestamp time.Time       `json:"timestamp"`
}

type OracleUpdateRequest struct {
	Pair      string          `json:"pair" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"required"`
	Timestamp time.Time       `json:"timestamp"`
}

type CommitRequest struct {
	BidderID   string `json:"bidder_id" validate:"required"`
	CommitHash string `json:"commit_hash" validate:"required,len=64,hexadecimal"`
}

type RevealRequest struct {
	BidderID string          `json:"bidder_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
	Salt     string          `json:"salt" validate:"required,min=1,max=128"`
}

type PoolTVLRequest struct {
	TVL decimal.Decimal `json:"tvl" validate:"required"`
}

type RegimeQuery struct {
	At string `query:"at" json:"at"` // RFC3339 or unix seconds; empty means now
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionStatus is the phase of a gap auction. Transitions are monotonic and
// purely time-triggered: COMMITTING → REVEALING → SETTLED | EXPIRED.
type AuctionStatus string

const (
	AuctionCommitting AuctionStatus = "COMMITTING"
	AuctionRevealing  AuctionStatus = "REVEALING"
	AuctionSettled    AuctionStatus = "SETTLED"
	AuctionExpired    AuctionStatus = "EXPIRED"
)

// GapDirection is the sign of the detected gap.
type GapDirection string

const (
	GapUp   GapDirection = "UP"
	GapDown GapDirection = "DOWN"
)

// Bid is one bidder's entry. A bid starts as a bare commitment; reveal fills
// in amount and salt once verified. Slice position in GapAuction.Bids is the
// commit insertion order and is the tie-break key.
type Bid struct {
	BidderID   string          `json:"bidder_id"`
	CommitHash string          `json:"commit_hash"`
	CommitAt   time.Time       `json:"commit_at"`
	Revealed   bool            `json:"revealed"`
	Amount     decimal.Decimal `json:"amount"`
	Salt       string          `json:"salt"`
	RevealAt   time.Time       `json:"reveal_at"`
}

// GapAuction is a commit-reveal auction over the repricing value of one
// detected gap. At most one open auction exists per pair.
type GapAuction struct {
	ID             string          `json:"id"`
	Pair           string          `json:"pair"`
	Direction      GapDirection    `json:"direction"`
	GapPercent     decimal.Decimal `json:"gap_percent"` // absolute magnitude
	GapValue       decimal.Decimal `json:"gap_value"`
	OraclePrice    decimal.Decimal `json:"oracle_price"`
	PoolPrice      decimal.Decimal `json:"pool_price"`
	StartTime      time.Time       `json:"start_time"`
	CommitDeadline time.Time       `json:"commit_deadline"`
	RevealDeadline time.Time       `json:"reveal_deadline"`
	Bids           []Bid           `json:"bids"`
	Status         AuctionStatus   `json:"status"`
	Winner         string          `json:"winner"`
	CapturedValue  decimal.Decimal `json:"captured_value"`
	LPShare        decimal.Decimal `json:"lp_share"`
	WinnerShare    decimal.Decimal `json:"winner_share"`
	SettledAt      time.Time       `json:"settled_at"`
}

// Open reports whether the auction is still accepting submissions.
func (a *GapAuction) Open() bool {
	return a.Status == AuctionCommitting || a.Status == AuctionRevealing
}

// BidByBidder returns the index of the bidder's entry, or -1.
func (a *GapAuction) BidByBidder(bidderID string) int {
	for i := range a.Bids {
		if a.Bids[i].BidderID == bidderID {
			return i
		}
	}
	return -1
}

package models

import "fmt"

// PreTradeDecision is the control plane's answer to the venue's pre-trade
// call: the fee to charge, the breaker state to apply, and whether the trade
// may proceed at all. A halt is an expected policy outcome, not an error.
type PreTradeDecision struct {
	Pair    string              `json:"pair"`
	Admit   bool                `json:"admit"`
	Reason  string              `json:"reason,omitempty"`
	Quote   FeeQuote            `json:"quote"`
	Breaker CircuitBreakerState `json:"breaker"`
	Regime  RegimeSnapshot      `json:"regime"`
}

// BidRejectReason classifies why a commit or reveal was dropped. The auction
// itself continues; only the offending submission is discarded.
type BidRejectReason string

const (
	RejectCommitClosed    BidRejectReason = "COMMIT_PHASE_CLOSED"
	RejectRevealClosed    BidRejectReason = "REVEAL_PHASE_CLOSED"
	RejectRevealEarly     BidRejectReason = "REVEAL_BEFORE_COMMIT_DEADLINE"
	RejectNoCommitment    BidRejectReason = "NO_MATCHING_COMMITMENT"
	RejectHashMismatch    BidRejectReason = "COMMITMENT_HASH_MISMATCH"
	RejectDuplicateReveal BidRejectReason = "DUPLICATE_REVEAL"
	RejectMalformed       BidRejectReason = "MALFORMED_SUBMISSION"
	RejectRateLimited     BidRejectReason = "RATE_LIMITED"
)

// BidRejectedError reports a dropped auction submission.
type BidRejectedError struct {
	AuctionID string
	BidderID  string
	Reason    BidRejectReason
}

func (e *BidRejectedError) Error() string {
	return fmt.Sprintf("bid rejected: auction=%s bidder=%s reason=%s", e.AuctionID, e.BidderID, e.Reason)
}

// ErrAuctionNotFound is returned for lookups of unknown or archived auctions.
type ErrAuctionNotFound struct{ AuctionID string }

func (e *ErrAuctionNotFound) Error() string {
	return fmt.Sprintf("auction not found: %s", e.AuctionID)
}

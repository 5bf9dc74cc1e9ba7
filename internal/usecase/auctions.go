package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/auction"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	domrepo "github.com/ayush18pop/stockshield.eth-sub001/internal/domain/repository"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/service/ratelimit"
)

// AuctionUseCase fronts the gap-auction protocol for the API: per-bidder
// commit rate limiting plus submission metrics. Reveals are not limited; a
// bidder has exactly one commitment to reveal.
type AuctionUseCase struct {
	protocol *auction.Protocol
	limiter  *ratelimit.Limiter
	burst    float64
	perSec   float64
	metrics  domrepo.Metrics
}

func NewAuctionUseCase(protocol *auction.Protocol, limiter *ratelimit.Limiter, burst, perSec float64, metrics domrepo.Metrics) *AuctionUseCase {
	return &AuctionUseCase{protocol: protocol, limiter: limiter, burst: burst, perSec: perSec, metrics: metrics}
}

// Commit submits a commitment on the bidder's behalf.
func (uc *AuctionUseCase) Commit(ctx context.Context, auctionID string, req models.CommitRequest) error {
	if !uc.limiter.Allow("commit:"+req.BidderID, uc.burst, uc.perSec) {
		uc.metrics.RecordBid("commit_rate_limited")
		return &models.BidRejectedError{AuctionID: auctionID, BidderID: req.BidderID, Reason: models.RejectRateLimited}
	}
	if err := uc.protocol.SubmitCommit(auctionID, req.BidderID, req.CommitHash); err != nil {
		uc.metrics.RecordBid("commit_rejected")
		return err
	}
	uc.metrics.RecordBid("commit_accepted")
	return nil
}

// Reveal submits an opening for a prior commitment.
func (uc *AuctionUseCase) Reveal(ctx context.Context, auctionID string, req models.RevealRequest) error {
	if err := uc.protocol.SubmitReveal(auctionID, req.BidderID, req.Amount, req.Salt); err != nil {
		uc.metrics.RecordBid("reveal_rejected")
		return err
	}
	uc.metrics.RecordBid("reveal_accepted")
	return nil
}

// Get returns the auction, settled lazily if its deadlines have lapsed.
func (uc *AuctionUseCase) Get(ctx context.Context, auctionID string) (models.GapAuction, error) {
	return uc.protocol.Get(auctionID)
}

// OpenForPair returns the pair's live auction, if any.
func (uc *AuctionUseCase) OpenForPair(ctx context.Context, pair string) (models.GapAuction, bool) {
	return uc.protocol.OpenAuction(pair)
}

// MinBidNow quotes the current reveal floor for a live auction, for bidders
// sizing an entry.
func (uc *AuctionUseCase) MinBidNow(ctx context.Context, auctionID string) (decimal.Decimal, error) {
	return uc.protocol.CurrentFloor(auctionID)
}

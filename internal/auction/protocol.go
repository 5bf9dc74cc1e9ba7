package auction

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/config"
)

// Clock supplies the authoritative time for every phase decision. All
// deadlines are judged against this single clock, never a submitter's.
type Clock func() time.Time

// Protocol runs commit-reveal auctions over detected price gaps. At most one
// open auction exists per pair. Phase is a pure function of elapsed time, so
// no scheduler has to fire for the protocol to be correct: lapsed auctions
// are settled lazily on the next access and collected by Sweep.
type Protocol struct {
	minGap       decimal.Decimal
	commitWindow time.Duration
	revealWindow time.Duration
	captureRate  decimal.Decimal
	decayPerMin  float64
	lpPoolShare  decimal.Decimal
	clock        Clock

	mu         sync.Mutex
	byID       map[string]*models.GapAuction
	openByPair map[string]string
	terminal   []*models.GapAuction // settled/expired, not yet swept
}

// NewProtocol builds the protocol from immutable configuration. A nil clock
// defaults to time.Now.
func NewProtocol(cfg config.AuctionConfig, clock Clock) *Protocol {
	if clock == nil {
		clock = time.Now
	}
	return &Protocol{
		minGap:       decimal.NewFromFloat(cfg.MinGapThreshold),
		commitWindow: cfg.CommitWindow,
		revealWindow: cfg.RevealWindow,
		captureRate:  decimal.NewFromFloat(cfg.LPCaptureRate),
		decayPerMin:  cfg.DecayRatePerMin,
		lpPoolShare:  decimal.NewFromFloat(cfg.LPPoolShare),
		clock:        clock,
		byID:         make(map[string]*models.GapAuction),
		openByPair:   make(map[string]string),
	}
}

// CommitHash is the canonical commitment: hex(sha256(amount|salt|bidderID))
// with the amount rendered by decimal.String. Reveals are verified against
// the same encoding.
func CommitHash(amount decimal.Decimal, salt, bidderID string) string {
	sum := sha256.Sum256([]byte(amount.String() + "|" + salt + "|" + bidderID))
	return hex.EncodeToString(sum[:])
}

var hexHash = regexp.MustCompile(`^[0-9a-f]{64}$`)

// OnOracleUpdate checks a fresh oracle price against the pool's resting price
// and opens an auction when the gap qualifies. Returns the auction and true
// only when a new auction was opened.
func (p *Protocol) OnOracleUpdate(pair string, poolPrice, oraclePrice, poolTVL decimal.Decimal) (models.GapAuction, bool) {
	now := p.clock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.openByPair[pair]; ok {
		a := p.byID[id]
		p.refreshLocked(a, now)
		if a.Open() {
			return models.GapAuction{}, false
		}
	}

	if poolPrice.IsZero() || oraclePrice.IsZero() || poolTVL.IsZero() {
		return models.GapAuction{}, false
	}
	gap := oraclePrice.Sub(poolPrice).Div(poolPrice)
	if gap.Abs().LessThan(p.minGap) {
		return models.GapAuction{}, false
	}

	dir := models.GapUp
	if gap.IsNegative() {
		dir = models.GapDown
	}
	a := &models.GapAuction{
		ID:             uuid.NewString(),
		Pair:           pair,
		Direction:      dir,
		GapPercent:     gap.Abs(),
		GapValue:       gap.Abs().Mul(poolTVL).Mul(p.lpPoolShare).Round(2),
		OraclePrice:    oraclePrice,
		PoolPrice:      poolPrice,
		StartTime:      now,
		CommitDeadline: now.Add(p.commitWindow),
		RevealDeadline: now.Add(p.commitWindow + p.revealWindow),
		Status:         models.AuctionCommitting,
	}
	p.byID[a.ID] = a
	p.openByPair[pair] = a.ID
	return snapshot(a), true
}

// PhaseAt reports the phase an auction is in at the given instant, ignoring
// whatever status was last materialized. Terminal statuses are sticky.
func PhaseAt(a *models.GapAuction, now time.Time) models.AuctionStatus {
	if a.Status == models.AuctionSettled || a.Status == models.AuctionExpired {
		return a.Status
	}
	switch {
	case now.Before(a.CommitDeadline):
		return models.AuctionCommitting
	case now.Before(a.RevealDeadline):
		return models.AuctionRevealing
	default:
		// Settlement decides SETTLED vs EXPIRED.
		return models.AuctionRevealing
	}
}

// MinBid is the time-decayed floor a winning bid must clear:
// gapValue * captureRate * exp(-decay * minutes since start).
func (p *Protocol) MinBid(a *models.GapAuction, at time.Time) decimal.Decimal {
	minutes := at.Sub(a.StartTime).Minutes()
	if minutes < 0 {
		minutes = 0
	}
	factor := decimal.NewFromFloat(math.Exp(-p.decayPerMin * minutes))
	return a.GapValue.Mul(p.captureRate).Mul(factor).Round(2)
}

// CurrentFloor quotes the decayed minimum bid as of the protocol clock.
func (p *Protocol) CurrentFloor(auctionID string) (decimal.Decimal, error) {
	now := p.clock()

	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.byID[auctionID]
	if !ok {
		return decimal.Zero, &models.ErrAuctionNotFound{AuctionID: auctionID}
	}
	return p.MinBid(a, now), nil
}

// SubmitCommit records or overwrites a bidder's commitment. Overwriting keeps
// the original slot so the tie-break order is fixed by first commitment.
func (p *Protocol) SubmitCommit(auctionID, bidderID, commitHash string) error {
	now := p.clock()

	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.byID[auctionID]
	if !ok {
		return &models.ErrAuctionNotFound{AuctionID: auctionID}
	}
	p.refreshLocked(a, now)

	if bidderID == "" || !hexHash.MatchString(commitHash) {
		return &models.BidRejectedError{AuctionID: auctionID, BidderID: bidderID, Reason: models.RejectMalformed}
	}
	if a.Status != models.AuctionCommitting {
		return &models.BidRejectedError{AuctionID: auctionID, BidderID: bidderID, Reason: models.RejectCommitClosed}
	}

	if i := a.BidByBidder(bidderID); i >= 0 {
		a.Bids[i].CommitHash = commitHash
		a.Bids[i].CommitAt = now
		return nil
	}
	a.Bids = append(a.Bids, models.Bid{BidderID: bidderID, CommitHash: commitHash, CommitAt: now})
	return nil
}

// SubmitReveal verifies a reveal against the prior commitment. A reveal
// before the commit deadline is rejected even when the hash matches; a reveal
// after the reveal deadline is rejected; a mismatched or duplicate reveal is
// dropped without touching the rest of the auction.
func (p *Protocol) SubmitReveal(auctionID, bidderID string, amount decimal.Decimal, salt string) error {
	now := p.clock()

	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.byID[auctionID]
	if !ok {
		return &models.ErrAuctionNotFound{AuctionID: auctionID}
	}

	if now.Before(a.CommitDeadline) {
		return &models.BidRejectedError{AuctionID: auctionID, BidderID: bidderID, Reason: models.RejectRevealEarly}
	}
	p.refreshLocked(a, now)
	if a.Status != models.AuctionRevealing {
		return &models.BidRejectedError{AuctionID: auctionID, BidderID: bidderID, Reason: models.RejectRevealClosed}
	}
	if !amount.IsPositive() || salt == "" {
		return &models.BidRejectedError{AuctionID: auctionID, BidderID: bidderID, Reason: models.RejectMalformed}
	}

	i := a.BidByBidder(bidderID)
	if i < 0 {
		return &models.BidRejectedError{AuctionID: auctionID, BidderID: bidderID, Reason: models.RejectNoCommitment}
	}
	if a.Bids[i].Revealed {
		return &models.BidRejectedError{AuctionID: auctionID, BidderID: bidderID, Reason: models.RejectDuplicateReveal}
	}
	if CommitHash(amount, salt, bidderID) != a.Bids[i].CommitHash {
		return &models.BidRejectedError{AuctionID: auctionID, BidderID: bidderID, Reason: models.RejectHashMismatch}
	}

	a.Bids[i].Revealed = true
	a.Bids[i].Amount = amount
	a.Bids[i].Salt = salt
	a.Bids[i].RevealAt = now
	return nil
}

// Get returns a copy of the auction, settling it first if its reveal deadline
// has passed.
func (p *Protocol) Get(auctionID string) (models.GapAuction, error) {
	now := p.clock()

	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.byID[auctionID]
	if !ok {
		return models.GapAuction{}, &models.ErrAuctionNotFound{AuctionID: auctionID}
	}
	p.refreshLocked(a, now)
	return snapshot(a), nil
}

// OpenAuction returns the pair's open auction, if any.
func (p *Protocol) OpenAuction(pair string) (models.GapAuction, bool) {
	now := p.clock()

	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.openByPair[pair]
	if !ok {
		return models.GapAuction{}, false
	}
	a := p.byID[id]
	p.refreshLocked(a, now)
	if !a.Open() {
		return models.GapAuction{}, false
	}
	return snapshot(a), true
}

// snapshot copies the auction including its bid slice, so callers can never
// reach back into protocol state.
func snapshot(a *models.GapAuction) models.GapAuction {
	out := *a
	out.Bids = append([]models.Bid(nil), a.Bids...)
	return out
}

// Sweep settles every lapsed auction and returns auctions that reached a
// terminal status since the previous sweep, in settlement order.
func (p *Protocol) Sweep() []models.GapAuction {
	now := p.clock()

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, id := range p.openByPair {
		p.refreshLocked(p.byID[id], now)
	}
	out := make([]models.GapAuction, 0, len(p.terminal))
	for _, a := range p.terminal {
		out = append(out, snapshot(a))
	}
	p.terminal = p.terminal[:0]
	return out
}

// Evict drops a terminal auction from the in-memory index once it has been
// archived. Open auctions are never evicted.
func (p *Protocol) Evict(auctionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.byID[auctionID]
	if !ok || a.Open() {
		return
	}
	delete(p.byID, auctionID)
}

// refreshLocked advances materialized status from elapsed time and settles
// once the reveal deadline passes. Callers hold p.mu.
func (p *Protocol) refreshLocked(a *models.GapAuction, now time.Time) {
	if a == nil || !a.Open() {
		return
	}
	if a.Status == models.AuctionCommitting && !now.Before(a.CommitDeadline) {
		a.Status = models.AuctionRevealing
	}
	if !now.Before(a.RevealDeadline) {
		p.settleLocked(a, now)
	}
}

// settleLocked picks the winner: the highest revealed amount that clears the
// floor at its reveal time, ties broken by commit insertion order. With no
// qualifying bid the auction expires and the whole gap value stays an
// unmitigated LP loss.
func (p *Protocol) settleLocked(a *models.GapAuction, now time.Time) {
	winner := -1
	for i := range a.Bids {
		b := &a.Bids[i]
		if !b.Revealed {
			continue
		}
		if b.Amount.LessThan(p.MinBid(a, b.RevealAt)) {
			continue
		}
		if winner < 0 || b.Amount.GreaterThan(a.Bids[winner].Amount) {
			winner = i
		}
	}

	a.SettledAt = now
	if winner < 0 {
		a.Status = models.AuctionExpired
	} else {
		// Captured value is the winning bid itself; LPs take the capture-rate
		// share, the winner keeps the remainder plus priority execution.
		b := a.Bids[winner]
		a.Status = models.AuctionSettled
		a.Winner = b.BidderID
		a.CapturedValue = b.Amount
		a.LPShare = b.Amount.Mul(p.captureRate).Round(2)
		a.WinnerShare = b.Amount.Sub(a.LPShare)
	}

	if p.openByPair[a.Pair] == a.ID {
		delete(p.openByPair, a.Pair)
	}
	p.terminal = append(p.terminal, a)
}

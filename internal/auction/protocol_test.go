package auction

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/config"
)

func auctionConfig() config.AuctionConfig {
	return config.AuctionConfig{
		MinGapThreshold: 0.005,
		CommitWindow:    30 * time.Second,
		RevealWindow:    30 * time.Second,
		LPCaptureRate:   0.70,
		DecayRatePerMin: 0.04,
		LPPoolShare:     0.10,
	}
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestProtocol() (*Protocol, *fakeClock) {
	clk := &fakeClock{now: time.Date(2026, 1, 5, 14, 0, 0, 0, time.UTC)}
	return NewProtocol(auctionConfig(), clk.Now), clk
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// openGap opens an auction on a 10% gap over a $1M pool: gapValue $10,000.
func openGap(t *testing.T, p *Protocol) models.GapAuction {
	t.Helper()
	a, opened := p.OnOracleUpdate("AAPL-USDC", d("100"), d("110"), d("1000000"))
	require.True(t, opened)
	return a
}

func rejectReason(t *testing.T, err error) models.BidRejectReason {
	t.Helper()
	var rej *models.BidRejectedError
	require.ErrorAs(t, err, &rej)
	return rej.Reason
}

func TestOnOracleUpdateOpensOnQualifyingGap(t *testing.T) {
	p, _ := newTestProtocol()

	a := openGap(t, p)
	assert.Equal(t, models.GapUp, a.Direction)
	assert.Equal(t, "0.1", a.GapPercent.String())
	assert.Equal(t, "10000", a.GapValue.String())
	assert.Equal(t, models.AuctionCommitting, a.Status)
	assert.Equal(t, a.StartTime.Add(30*time.Second), a.CommitDeadline)
	assert.Equal(t, a.StartTime.Add(60*time.Second), a.RevealDeadline)

	got, ok := p.OpenAuction("AAPL-USDC")
	require.True(t, ok)
	assert.Equal(t, a.ID, got.ID)
}

func TestOnOracleUpdateIgnoresSmallGap(t *testing.T) {
	p, _ := newTestProtocol()

	// 0.4% is under the 0.5% threshold; exactly 0.5% qualifies.
	_, opened := p.OnOracleUpdate("AAPL-USDC", d("100"), d("100.4"), d("1000000"))
	assert.False(t, opened)

	a, opened := p.OnOracleUpdate("AAPL-USDC", d("100"), d("100.5"), d("1000000"))
	require.True(t, opened)
	assert.Equal(t, "0.005", a.GapPercent.String())
}

func TestOnOracleUpdateDownwardGap(t *testing.T) {
	p, _ := newTestProtocol()

	a, opened := p.OnOracleUpdate("AAPL-USDC", d("100"), d("97"), d("1000000"))
	require.True(t, opened)
	assert.Equal(t, models.GapDown, a.Direction)
	assert.Equal(t, "0.03", a.GapPercent.String())
	assert.Equal(t, "3000", a.GapValue.String())
}

func TestOnOracleUpdateOnePerPair(t *testing.T) {
	p, clk := newTestProtocol()

	first := openGap(t, p)
	_, opened := p.OnOracleUpdate("AAPL-USDC", d("100"), d("120"), d("1000000"))
	assert.False(t, opened, "second gap on the same pair must not open while one is live")

	// A different pair opens independently.
	other, opened := p.OnOracleUpdate("TSLA-USDC", d("200"), d("210"), d("500000"))
	require.True(t, opened)
	assert.NotEqual(t, first.ID, other.ID)

	// Once the first auction lapses, the pair can host a new one.
	clk.advance(61 * time.Second)
	_, opened = p.OnOracleUpdate("AAPL-USDC", d("100"), d("120"), d("1000000"))
	assert.True(t, opened)
}

func TestMinBidDecay(t *testing.T) {
	p, _ := newTestProtocol()
	a := openGap(t, p)

	// Floor at open: 10000 * 0.70 = 7000. After 2 minutes: 7000 * e^-0.08.
	assert.Equal(t, "7000", p.MinBid(&a, a.StartTime).String())
	assert.Equal(t, "6461.81", p.MinBid(&a, a.StartTime.Add(2*time.Minute)).String())
}

func TestSubmitCommitWindow(t *testing.T) {
	p, clk := newTestProtocol()
	a := openGap(t, p)

	hash := CommitHash(d("7200"), "salt-1", "bidder-a")
	require.NoError(t, p.SubmitCommit(a.ID, "bidder-a", hash))

	// The commit deadline itself is closed.
	clk.advance(30 * time.Second)
	err := p.SubmitCommit(a.ID, "bidder-b", hash)
	assert.Equal(t, models.RejectCommitClosed, rejectReason(t, err))
}

func TestSubmitCommitValidation(t *testing.T) {
	p, _ := newTestProtocol()
	a := openGap(t, p)

	err := p.SubmitCommit(a.ID, "bidder-a", "not-a-hash")
	assert.Equal(t, models.RejectMalformed, rejectReason(t, err))

	err = p.SubmitCommit(a.ID, "", CommitHash(d("1"), "s", ""))
	assert.Equal(t, models.RejectMalformed, rejectReason(t, err))

	err = p.SubmitCommit("no-such-auction", "bidder-a", CommitHash(d("1"), "s", "bidder-a"))
	var notFound *models.ErrAuctionNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestSubmitCommitOverwriteKeepsSlot(t *testing.T) {
	p, clk := newTestProtocol()
	a := openGap(t, p)

	require.NoError(t, p.SubmitCommit(a.ID, "bidder-a", CommitHash(d("100"), "old", "bidder-a")))
	require.NoError(t, p.SubmitCommit(a.ID, "bidder-b", CommitHash(d("7200"), "s-b", "bidder-b")))

	// bidder-a replaces its commitment but keeps the first slot.
	require.NoError(t, p.SubmitCommit(a.ID, "bidder-a", CommitHash(d("7200"), "s-a", "bidder-a")))

	got, err := p.Get(a.ID)
	require.NoError(t, err)
	require.Len(t, got.Bids, 2)
	assert.Equal(t, "bidder-a", got.Bids[0].BidderID)

	// Equal reveals: the earlier commit slot wins the tie.
	clk.advance(31 * time.Second)
	require.NoError(t, p.SubmitReveal(a.ID, "bidder-b", d("7200"), "s-b"))
	require.NoError(t, p.SubmitReveal(a.ID, "bidder-a", d("7200"), "s-a"))

	clk.advance(30 * time.Second)
	got, err = p.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionSettled, got.Status)
	assert.Equal(t, "bidder-a", got.Winner)
}

func TestSubmitRevealOrdering(t *testing.T) {
	p, clk := newTestProtocol()
	a := openGap(t, p)

	require.NoError(t, p.SubmitCommit(a.ID, "bidder-a", CommitHash(d("7200"), "salt", "bidder-a")))

	// Revealing during the commit phase leaks the bid; rejected outright.
	err := p.SubmitReveal(a.ID, "bidder-a", d("7200"), "salt")
	assert.Equal(t, models.RejectRevealEarly, rejectReason(t, err))

	clk.advance(30 * time.Second)
	require.NoError(t, p.SubmitReveal(a.ID, "bidder-a", d("7200"), "salt"))

	err = p.SubmitReveal(a.ID, "bidder-a", d("7200"), "salt")
	assert.Equal(t, models.RejectDuplicateReveal, rejectReason(t, err))

	clk.advance(30 * time.Second)
	err = p.SubmitReveal(a.ID, "bidder-a", d("7200"), "salt")
	assert.Equal(t, models.RejectRevealClosed, rejectReason(t, err))
}

func TestSubmitRevealVerification(t *testing.T) {
	p, clk := newTestProtocol()
	a := openGap(t, p)

	require.NoError(t, p.SubmitCommit(a.ID, "bidder-a", CommitHash(d("7200"), "salt", "bidder-a")))
	clk.advance(31 * time.Second)

	err := p.SubmitReveal(a.ID, "ghost", d("7200"), "salt")
	assert.Equal(t, models.RejectNoCommitment, rejectReason(t, err))

	err = p.SubmitReveal(a.ID, "bidder-a", d("7200"), "wrong-salt")
	assert.Equal(t, models.RejectHashMismatch, rejectReason(t, err))

	err = p.SubmitReveal(a.ID, "bidder-a", d("7201"), "salt")
	assert.Equal(t, models.RejectHashMismatch, rejectReason(t, err))

	err = p.SubmitReveal(a.ID, "bidder-a", d("-5"), "salt")
	assert.Equal(t, models.RejectMalformed, rejectReason(t, err))

	// A failed reveal does not burn the commitment.
	require.NoError(t, p.SubmitReveal(a.ID, "bidder-a", d("7200"), "salt"))
}

func TestSettlementSplitsWinningBid(t *testing.T) {
	p, clk := newTestProtocol()
	a := openGap(t, p)

	require.NoError(t, p.SubmitCommit(a.ID, "bidder-a", CommitHash(d("7200"), "s-a", "bidder-a")))
	require.NoError(t, p.SubmitCommit(a.ID, "bidder-b", CommitHash(d("7100"), "s-b", "bidder-b")))

	clk.advance(35 * time.Second)
	require.NoError(t, p.SubmitReveal(a.ID, "bidder-a", d("7200"), "s-a"))
	require.NoError(t, p.SubmitReveal(a.ID, "bidder-b", d("7100"), "s-b"))

	clk.advance(25 * time.Second)
	got, err := p.Get(a.ID)
	require.NoError(t, err)

	assert.Equal(t, models.AuctionSettled, got.Status)
	assert.Equal(t, "bidder-a", got.Winner)
	assert.Equal(t, "7200", got.CapturedValue.String())
	assert.Equal(t, "5040", got.LPShare.String())
	assert.Equal(t, "2160", got.WinnerShare.String())
	assert.Equal(t, clk.now, got.SettledAt)

	_, open := p.OpenAuction("AAPL-USDC")
	assert.False(t, open)
}

func TestSettlementFloorUsesRevealTime(t *testing.T) {
	p, clk := newTestProtocol()
	a := openGap(t, p)

	// Floor at +35s is 7000 * e^(-0.04*35/60) ~= 6838.56; a 6900 bid clears
	// it, a 6500 bid does not.
	require.NoError(t, p.SubmitCommit(a.ID, "low", CommitHash(d("6500"), "s-l", "low")))
	require.NoError(t, p.SubmitCommit(a.ID, "mid", CommitHash(d("6900"), "s-m", "mid")))

	clk.advance(35 * time.Second)
	require.NoError(t, p.SubmitReveal(a.ID, "low", d("6500"), "s-l"))
	require.NoError(t, p.SubmitReveal(a.ID, "mid", d("6900"), "s-m"))

	clk.advance(25 * time.Second)
	got, err := p.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionSettled, got.Status)
	assert.Equal(t, "mid", got.Winner)
}

func TestSettlementExpiresWithoutQualifyingBid(t *testing.T) {
	p, clk := newTestProtocol()
	a := openGap(t, p)

	// A committed but never revealed bid cannot win.
	require.NoError(t, p.SubmitCommit(a.ID, "silent", CommitHash(d("9000"), "s", "silent")))
	// A revealed lowball sits under the floor.
	require.NoError(t, p.SubmitCommit(a.ID, "lowball", CommitHash(d("10"), "s", "lowball")))

	clk.advance(31 * time.Second)
	require.NoError(t, p.SubmitReveal(a.ID, "lowball", d("10"), "s"))

	clk.advance(30 * time.Second)
	got, err := p.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuctionExpired, got.Status)
	assert.Empty(t, got.Winner)
	assert.True(t, got.CapturedValue.IsZero())
}

func TestSweepReturnsTerminalOnce(t *testing.T) {
	p, clk := newTestProtocol()
	a := openGap(t, p)
	_, opened := p.OnOracleUpdate("TSLA-USDC", d("200"), d("210"), d("500000"))
	require.True(t, opened)

	assert.Empty(t, p.Sweep(), "nothing terminal yet")

	clk.advance(61 * time.Second)
	swept := p.Sweep()
	require.Len(t, swept, 2)
	for _, s := range swept {
		assert.Equal(t, models.AuctionExpired, s.Status)
	}
	assert.Empty(t, p.Sweep(), "a terminal auction is reported exactly once")

	// Terminal auctions stay queryable until evicted.
	_, err := p.Get(a.ID)
	require.NoError(t, err)
	p.Evict(a.ID)
	_, err = p.Get(a.ID)
	var notFound *models.ErrAuctionNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestPhaseAtPureTimeline(t *testing.T) {
	p, _ := newTestProtocol()
	a := openGap(t, p)

	assert.Equal(t, models.AuctionCommitting, PhaseAt(&a, a.StartTime))
	assert.Equal(t, models.AuctionCommitting, PhaseAt(&a, a.CommitDeadline.Add(-time.Nanosecond)))
	assert.Equal(t, models.AuctionRevealing, PhaseAt(&a, a.CommitDeadline))
	assert.Equal(t, models.AuctionRevealing, PhaseAt(&a, a.RevealDeadline.Add(-time.Nanosecond)))
}

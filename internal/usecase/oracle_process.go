package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/auction"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	domrepo "github.com/ayush18pop/stockshield.eth-sub001/internal/domain/repository"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/services/signals"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/logger"
)

// OracleUseCase applies reference-market prices: it refreshes the signal
// snapshot, runs gap detection, and drains auctions that reached a terminal
// state. It is also the component that notices settlements when no further
// oracle tick arrives, via the periodic Drain call.
type OracleUseCase struct {
	store    domrepo.SignalStore
	updater  *signals.Updater
	protocol *auction.Protocol
	events   domrepo.EventPublisher
	archive  domrepo.Archive
	metrics  domrepo.Metrics
	log      *logger.Logger
}

func NewOracleUseCase(
	store domrepo.SignalStore,
	updater *signals.Updater,
	protocol *auction.Protocol,
	events domrepo.EventPublisher,
	archive domrepo.Archive,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *OracleUseCase {
	return &OracleUseCase{
		store:    store,
		updater:  updater,
		protocol: protocol,
		events:   events,
		archive:  archive,
		metrics:  metrics,
		log:      log,
	}
}

// ApplyOracle folds one price observation in and opens a gap auction when the
// pool has drifted past the threshold.
func (uc *OracleUseCase) ApplyOracle(ctx context.Context, o models.OracleUpdate) error {
	if o.Pair == "" || !o.Price.IsPositive() {
		return fmt.Errorf("oracle update: pair and positive price required")
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now()
	}

	sig, err := uc.store.Get(ctx, o.Pair)
	if err != nil {
		uc.metrics.RecordError("signal_read")
		return fmt.Errorf("read signals: %w", err)
	}
	sig = uc.updater.ApplyOracle(sig, o)
	if err := uc.store.Put(ctx, sig); err != nil {
		uc.metrics.RecordError("signal_write")
		return fmt.Errorf("write signals: %w", err)
	}

	price, _ := o.Price.Float64()
	uc.metrics.RecordOraclePrice(o.Pair, price)

	if a, opened := uc.protocol.OnOracleUpdate(o.Pair, sig.PoolPrice, o.Price, sig.PoolTVL); opened {
		uc.metrics.RecordAuctionEvent(models.EventAuctionOpened)
		uc.log.Info("gap auction opened",
			logger.String("pair", a.Pair),
			logger.String("auction_id", a.ID),
			logger.String("gap_percent", a.GapPercent.String()),
			logger.String("gap_value", a.GapValue.String()))
		uc.publish(ctx, &models.RiskEvent{
			Type:       models.EventAuctionOpened,
			Pair:       a.Pair,
			Timestamp:  a.StartTime,
			AuctionID:  a.ID,
			GapPercent: a.GapPercent,
			GapValue:   a.GapValue,
		})
	}

	uc.Drain(ctx)
	return nil
}

// Drain publishes and archives every auction that went terminal since the
// last call. Safe to invoke from a ticker alongside the oracle path.
func (uc *OracleUseCase) Drain(ctx context.Context) {
	for _, a := range uc.protocol.Sweep() {
		uc.finalize(ctx, a)
	}
}

func (uc *OracleUseCase) finalize(ctx context.Context, a models.GapAuction) {
	ev := &models.RiskEvent{
		Pair:      a.Pair,
		Timestamp: a.SettledAt,
		AuctionID: a.ID,
		GapValue:  a.GapValue,
	}
	switch a.Status {
	case models.AuctionSettled:
		ev.Type = models.EventAuctionSettled
		ev.Winner = a.Winner
		ev.CapturedValue = a.CapturedValue
		ev.LPShare = a.LPShare
		ev.WinnerShare = a.WinnerShare
	case models.AuctionExpired:
		ev.Type = models.EventAuctionExpired
		ev.UnmitigatedLoss = a.GapValue
	default:
		return
	}
	uc.metrics.RecordAuctionEvent(ev.Type)
	uc.publish(ctx, ev)

	if err := uc.archive.StoreAuction(ctx, &a); err != nil {
		uc.metrics.RecordError("auction_archive")
		uc.log.Error("auction archive failed", logger.String("auction_id", a.ID), logger.Error(err))
		return
	}
	// Only evict once the archive holds the settled record.
	uc.protocol.Evict(a.ID)
}

func (uc *OracleUseCase) publish(ctx context.Context, e *models.RiskEvent) {
	if err := uc.events.Publish(ctx, e); err != nil {
		uc.metrics.RecordError("event_publish")
		uc.log.Warn("risk event publish failed", logger.String("type", e.Type), logger.Error(err))
	}
}

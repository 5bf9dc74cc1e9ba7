package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	domrepo "github.com/ayush18pop/stockshield.eth-sub001/internal/domain/repository"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/services/signals"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/logger"
)

// TradeIngestUseCase folds venue executions into the signal store. Trades are
// applied per pair in arrival order; the Kafka path keys messages by pair so
// one partition never interleaves a pair with itself.
type TradeIngestUseCase struct {
	store   domrepo.SignalStore
	updater *signals.Updater
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewTradeIngestUseCase(store domrepo.SignalStore, updater *signals.Updater, metrics domrepo.Metrics, log *logger.Logger) *TradeIngestUseCase {
	return &TradeIngestUseCase{store: store, updater: updater, metrics: metrics, log: log}
}

// ApplyTrade advances the pair's snapshot from one execution and returns the
// persisted values.
func (uc *TradeIngestUseCase) ApplyTrade(ctx context.Context, t models.TradeExecution) (models.RiskSignals, error) {
	if t.Pair == "" {
		return models.RiskSignals{}, fmt.Errorf("pair required")
	}
	if !t.Price.IsPositive() || !t.Size.IsPositive() {
		return models.RiskSignals{}, fmt.Errorf("trade %s: price and size must be positive", t.Pair)
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}

	sig, err := uc.store.Get(ctx, t.Pair)
	if err != nil {
		uc.metrics.RecordError("signal_read")
		return models.RiskSignals{}, fmt.Errorf("read signals: %w", err)
	}

	next := uc.updater.ApplyTrade(sig, t)
	if err := uc.store.Put(ctx, next); err != nil {
		uc.metrics.RecordError("signal_write")
		return models.RiskSignals{}, fmt.Errorf("write signals: %w", err)
	}
	return next, nil
}

// SetPoolTVL records the venue's reported pool depth, the denominator of the
// inventory update.
func (uc *TradeIngestUseCase) SetPoolTVL(ctx context.Context, pair string, tvl decimal.Decimal) error {
	if pair == "" || tvl.IsNegative() {
		return fmt.Errorf("pool tvl: pair required and tvl non-negative")
	}
	sig, err := uc.store.Get(ctx, pair)
	if err != nil {
		return fmt.Errorf("read signals: %w", err)
	}
	sig.PoolTVL = tvl
	sig.UpdatedAt = time.Now()
	return uc.store.Put(ctx, sig)
}

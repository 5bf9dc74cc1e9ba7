package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/breaker"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	domrepo "github.com/ayush18pop/stockshield.eth-sub001/internal/domain/repository"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/fees"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/regime"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/logger"
)

// PreTradeUseCase answers the venue's pre-trade call: classify the session,
// price the trade, and apply the circuit breaker, all off one signal snapshot.
type PreTradeUseCase struct {
	store      domrepo.SignalStore
	classifier *regime.Classifier
	engine     *fees.Engine
	machine    *breaker.StateMachine
	events     domrepo.EventPublisher
	archive    domrepo.Archive
	metrics    domrepo.Metrics
	log        *logger.Logger
}

func NewPreTradeUseCase(
	store domrepo.SignalStore,
	classifier *regime.Classifier,
	engine *fees.Engine,
	machine *breaker.StateMachine,
	events domrepo.EventPublisher,
	archive domrepo.Archive,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *PreTradeUseCase {
	return &PreTradeUseCase{
		store:      store,
		classifier: classifier,
		engine:     engine,
		machine:    machine,
		events:     events,
		archive:    archive,
		metrics:    metrics,
		log:        log,
	}
}

// Evaluate runs the full pre-trade pipeline for one pair. The decision is
// advisory: the venue adapter enforces it. Archive and event failures degrade
// to logs; the quote itself must not fail on sink trouble.
func (uc *PreTradeUseCase) Evaluate(ctx context.Context, pair string) (*models.PreTradeDecision, error) {
	if pair == "" {
		return nil, fmt.Errorf("pair required")
	}
	start := time.Now()

	sig, err := uc.store.Get(ctx, pair)
	if err != nil {
		uc.metrics.RecordError("signal_read")
		return nil, fmt.Errorf("read signals: %w", err)
	}

	snap := uc.classifier.Classify(start)
	prevLevel := uc.machine.LastLevel(pair)
	state := uc.machine.Evaluate(sig, start)
	quote := uc.engine.Quote(pair, snap.Regime, sig)

	decision := &models.PreTradeDecision{
		Pair:    pair,
		Admit:   !state.Halted(),
		Quote:   quote,
		Breaker: state,
		Regime:  snap,
	}
	if state.Halted() {
		decision.Reason = haltReason(state)
	}

	if state.Level != prevLevel {
		uc.publishLevelChange(ctx, pair, prevLevel, state.Level, start)
	}

	if err := uc.archive.StoreQuote(ctx, &quote, start); err != nil {
		uc.metrics.RecordError("quote_archive")
		uc.log.Warn("quote archive failed", logger.String("pair", pair), logger.Error(err))
	}

	total, _ := quote.TotalFeeBps.Float64()
	uc.metrics.RecordQuote(pair, string(snap.Regime), total, quote.Capped)
	uc.metrics.RecordAdmission(pair, decision.Admit)
	uc.metrics.RecordBreakerLevel(pair, state.Level)
	uc.metrics.RecordLatency("pretrade_evaluate", time.Since(start).Seconds())
	return decision, nil
}

// RegimeAt classifies an arbitrary instant; a zero time means now.
func (uc *PreTradeUseCase) RegimeAt(at time.Time) models.RegimeSnapshot {
	if at.IsZero() {
		at = time.Now()
	}
	return uc.classifier.Classify(at)
}

// Signals exposes the raw snapshot for the ops surface.
func (uc *PreTradeUseCase) Signals(ctx context.Context, pair string) (models.RiskSignals, error) {
	return uc.store.Get(ctx, pair)
}

func (uc *PreTradeUseCase) publishLevelChange(ctx context.Context, pair string, from, to int, at time.Time) {
	err := uc.events.Publish(ctx, &models.RiskEvent{
		Type:      models.EventBreakerLevelChanged,
		Pair:      pair,
		Timestamp: at,
		PrevLevel: from,
		NewLevel:  to,
	})
	if err != nil {
		uc.metrics.RecordError("event_publish")
		uc.log.Warn("breaker event publish failed", logger.String("pair", pair), logger.Error(err))
	}
}

func haltReason(s models.CircuitBreakerState) string {
	flags := make([]string, 0, len(s.ActiveFlags))
	for _, f := range s.ActiveFlags {
		flags = append(flags, string(f))
	}
	return "halted: " + strings.Join(flags, ",")
}

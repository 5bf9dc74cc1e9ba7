package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/breaker"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/fees"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/regime"
	internalrepo "github.com/ayush18pop/stockshield.eth-sub001/internal/repository"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/config"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/logger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeSignalStore struct {
	m map[string]models.RiskSignals
}

func (s *fakeSignalStore) Get(_ context.Context, pair string) (models.RiskSignals, error) {
	if sig, ok := s.m[pair]; ok {
		return sig, nil
	}
	return models.RiskSignals{Pair: pair}, nil
}

func (s *fakeSignalStore) Put(_ context.Context, sig models.RiskSignals) error {
	s.m[sig.Pair] = sig
	return nil
}

func (s *fakeSignalStore) Pairs(context.Context) ([]string, error) { return nil, nil }
func (s *fakeSignalStore) Health(context.Context) error            { return nil }
func (s *fakeSignalStore) Close() error                            { return nil }

type fakeEvents struct {
	published []*models.RiskEvent
	err       error
}

func (e *fakeEvents) Publish(_ context.Context, ev *models.RiskEvent) error {
	if e.err != nil {
		return e.err
	}
	e.published = append(e.published, ev)
	return nil
}

func (e *fakeEvents) Close() error { return nil }

type fakeMetrics struct{}

func (fakeMetrics) RecordQuote(string, string, float64, bool) {}
func (fakeMetrics) RecordAdmission(string, bool)              {}
func (fakeMetrics) RecordBreakerLevel(string, int)            {}
func (fakeMetrics) RecordOraclePrice(string, float64)         {}
func (fakeMetrics) RecordAuctionEvent(string)                 {}
func (fakeMetrics) RecordBid(string)                          {}
func (fakeMetrics) RecordError(string)                        {}
func (fakeMetrics) RecordLatency(string, float64)             {}

func pretradeFixture(t *testing.T, store *fakeSignalStore, events *fakeEvents) *PreTradeUseCase {
	t.Helper()

	var market config.MarketConfig
	market.Timezone = "America/New_York"
	market.Sessions.PreMarketStart = "04:00"
	market.Sessions.SoftOpenStart = "09:30"
	market.Sessions.CoreStart = "09:45"
	market.Sessions.AfterHoursStart = "16:00"
	market.Sessions.OvernightStart = "20:00"
	classifier, err := regime.NewClassifier(market)
	require.NoError(t, err)

	feeCfg := config.FeeConfig{
		Alpha: 1.0, Beta: 1.0, Gamma: 0.5, Delta: 0.5,
		BaseFeeBps: map[string]float64{
			"CORE_SESSION": 10, "SOFT_OPEN": 15, "PRE_MARKET": 20,
			"AFTER_HOURS": 25, "OVERNIGHT": 35, "WEEKEND": 50, "HOLIDAY": 50,
		},
		RegimeMultiplier: map[string]float64{
			"CORE_SESSION": 1.0, "SOFT_OPEN": 1.5, "PRE_MARKET": 2.0,
			"AFTER_HOURS": 2.5, "OVERNIGHT": 3.0, "WEEKEND": 4.0, "HOLIDAY": 4.0,
		},
		CapBps: map[string]float64{
			"CORE_SESSION": 100, "SOFT_OPEN": 150, "PRE_MARKET": 200,
			"AFTER_HOURS": 250, "OVERNIGHT": 300, "WEEKEND": 400, "HOLIDAY": 400,
		},
	}

	breakerCfg := config.BreakerConfig{
		OracleStaleAfter:  60 * time.Second,
		MaxPriceDeviation: 0.02,
		MaxToxicity:       0.7,
		MaxImbalance:      0.4,
		SpreadWidenPct:    []float64{0, 0.10, 0.25, 0.50, 1.00},
		DepthFactor:       []float64{1.0, 1.0, 0.75, 0.50, 0},
	}

	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	return NewPreTradeUseCase(
		store,
		classifier,
		fees.NewEngine(feeCfg),
		breaker.New(breakerCfg),
		events,
		internalrepo.NoopArchive{},
		fakeMetrics{},
		log,
	)
}

func cleanStore(pair string) *fakeSignalStore {
	now := time.Now()
	return &fakeSignalStore{m: map[string]models.RiskSignals{
		pair: {
			Pair:             pair,
			Volatility:       d("0.10"),
			ToxicityScore:    d("0.05"),
			PoolPrice:        d("100"),
			OraclePrice:      d("100"),
			PoolTVL:          d("1000000"),
			LastOracleUpdate: now,
			UpdatedAt:        now,
		},
	}}
}

func TestEvaluateAdmitsCleanPair(t *testing.T) {
	store := cleanStore("AAPL")
	events := &fakeEvents{}
	uc := pretradeFixture(t, store, events)

	decision, err := uc.Evaluate(context.Background(), "AAPL")
	require.NoError(t, err)
	require.True(t, decision.Admit)
	require.Empty(t, decision.Reason)
	require.Equal(t, 0, decision.Breaker.Level)
	require.True(t, decision.Quote.TotalFeeBps.IsPositive())
	require.True(t, decision.Regime.Regime.Valid())
	require.Empty(t, events.published)
}

func TestEvaluateHaltsOnStaleOracle(t *testing.T) {
	store := cleanStore("AAPL")
	sig := store.m["AAPL"]
	sig.LastOracleUpdate = time.Now().Add(-2 * time.Minute)
	store.m["AAPL"] = sig
	events := &fakeEvents{}
	uc := pretradeFixture(t, store, events)

	decision, err := uc.Evaluate(context.Background(), "AAPL")
	require.NoError(t, err)
	require.False(t, decision.Admit)
	require.Equal(t, models.LevelHalt, decision.Breaker.Level)
	require.True(t, decision.Breaker.HasFlag(models.FlagOracleStale))
	require.Contains(t, decision.Reason, "ORACLE_STALE")

	require.Len(t, events.published, 1)
	require.Equal(t, models.EventBreakerLevelChanged, events.published[0].Type)
	require.Equal(t, 0, events.published[0].PrevLevel)
	require.Equal(t, models.LevelHalt, events.published[0].NewLevel)
}

func TestEvaluateUnknownPairIsStale(t *testing.T) {
	store := &fakeSignalStore{m: map[string]models.RiskSignals{}}
	uc := pretradeFixture(t, store, &fakeEvents{})

	decision, err := uc.Evaluate(context.Background(), "GHOST")
	require.NoError(t, err)
	require.False(t, decision.Admit)
	require.True(t, decision.Breaker.HasFlag(models.FlagOracleStale))
}

func TestEvaluateSurvivesEventPublishFailure(t *testing.T) {
	store := cleanStore("AAPL")
	sig := store.m["AAPL"]
	sig.LastOracleUpdate = time.Now().Add(-2 * time.Minute)
	store.m["AAPL"] = sig
	uc := pretradeFixture(t, store, &fakeEvents{err: errors.New("broker down")})

	decision, err := uc.Evaluate(context.Background(), "AAPL")
	require.NoError(t, err)
	require.False(t, decision.Admit)
}

func TestEvaluateRequiresPair(t *testing.T) {
	uc := pretradeFixture(t, cleanStore("AAPL"), &fakeEvents{})
	_, err := uc.Evaluate(context.Background(), "")
	require.Error(t, err)
}

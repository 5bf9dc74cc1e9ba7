package repository

import (
	"context"
	"time"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
)

// SignalStore holds the authoritative per-pair risk signal snapshot. Reads on
// the pre-trade path must be cheap; an unknown pair returns a zero-valued
// snapshot with the pair set, never an error.
type SignalStore interface {
	Get(ctx context.Context, pair string) (models.RiskSignals, error)
	Put(ctx context.Context, s models.RiskSignals) error
	Pairs(ctx context.Context) ([]string, error)
	Health(ctx context.Context) error
	Close() error
}

// OracleStream is the reference-market price feed.
type OracleStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.OracleUpdate, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// EventPublisher emits risk events for downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, e *models.RiskEvent) error
	Close() error
}

// Archive is the write-side analytics sink for quotes and settled auctions.
type Archive interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreQuote(ctx context.Context, q *models.FeeQuote, at time.Time) error
	StoreAuction(ctx context.Context, a *models.GapAuction) error
	QueryAuctions(ctx context.Context, pair string, from, to time.Time, limit int) ([]*models.GapAuction, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// Metrics is the observability surface the domain code records into.
type Metrics interface {
	RecordQuote(pair, regime string, totalBps float64, capped bool)
	RecordAdmission(pair string, admitted bool)
	RecordBreakerLevel(pair string, level int)
	RecordOraclePrice(pair string, price float64)
	RecordAuctionEvent(kind string)
	RecordBid(outcome string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

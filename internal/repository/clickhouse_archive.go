package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	domrepo "github.com/ayush18pop/stockshield.eth-sub001/internal/domain/repository"
)

// ClickHouseArchive is the analytics sink: every quote and every terminal
// auction lands here. Decimals are stored as Float64; the archive is for
// analysis, the exact values live in the event stream.
type ClickHouseArchive struct {
	db *sql.DB
}

func NewClickHouseArchive(db *sql.DB) domrepo.Archive {
	return &ClickHouseArchive{db: db}
}

var archiveSchema = []string{
	`CREATE TABLE IF NOT EXISTS fee_quotes (
		ts DateTime64(3),
		pair LowCardinality(String),
		regime LowCardinality(String),
		base_fee_bps Float64,
		volatility_bps Float64,
		toxicity_bps Float64,
		regime_bps Float64,
		inventory_bps Float64,
		total_fee_bps Float64,
		capped UInt8
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMM(ts)
	ORDER BY (pair, ts)`,
	`CREATE TABLE IF NOT EXISTS gap_auctions (
		id String,
		pair LowCardinality(String),
		direction LowCardinality(String),
		gap_percent Float64,
		gap_value Float64,
		oracle_price Float64,
		pool_price Float64,
		started_at DateTime64(3),
		settled_at DateTime64(3),
		status LowCardinality(String),
		winner String,
		captured_value Float64,
		lp_share Float64,
		winner_share Float64,
		bid_count UInt32
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMM(started_at)
	ORDER BY (pair, started_at)`,
}

func (a *ClickHouseArchive) Init(ctx context.Context) error {
	for _, stmt := range archiveSchema {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (a *ClickHouseArchive) StoreQuote(ctx context.Context, q *models.FeeQuote, at time.Time) error {
	const stmt = `INSERT INTO fee_quotes
		(ts, pair, regime, base_fee_bps, volatility_bps, toxicity_bps, regime_bps, inventory_bps, total_fee_bps, capped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	capped := uint8(0)
	if q.Capped {
		capped = 1
	}
	_, err := a.db.ExecContext(ctx, stmt,
		at,
		q.Pair,
		string(q.Regime),
		q.BaseFeeBps.InexactFloat64(),
		q.VolatilityBps.InexactFloat64(),
		q.ToxicityBps.InexactFloat64(),
		q.RegimeBps.InexactFloat64(),
		q.InventoryBps.InexactFloat64(),
		q.TotalFeeBps.InexactFloat64(),
		capped,
	)
	return err
}

func (a *ClickHouseArchive) StoreAuction(ctx context.Context, auc *models.GapAuction) error {
	const stmt = `INSERT INTO gap_auctions
		(id, pair, direction, gap_percent, gap_value, oracle_price, pool_price,
		 started_at, settled_at, status, winner, captured_value, lp_share, winner_share, bid_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := a.db.ExecContext(ctx, stmt,
		auc.ID,
		auc.Pair,
		string(auc.Direction),
		auc.GapPercent.InexactFloat64(),
		auc.GapValue.InexactFloat64(),
		auc.OraclePrice.InexactFloat64(),
		auc.PoolPrice.InexactFloat64(),
		auc.StartTime,
		auc.SettledAt,
		string(auc.Status),
		auc.Winner,
		auc.CapturedValue.InexactFloat64(),
		auc.LPShare.InexactFloat64(),
		auc.WinnerShare.InexactFloat64(),
		uint32(len(auc.Bids)),
	)
	return err
}

func (a *ClickHouseArchive) QueryAuctions(ctx context.Context, pair string, from, to time.Time, limit int) ([]*models.GapAuction, error) {
	const q = `SELECT id, pair, direction, gap_percent, gap_value, oracle_price, pool_price,
			started_at, settled_at, status, winner, captured_value, lp_share, winner_share
		FROM gap_auctions
		WHERE pair = ? AND started_at >= ? AND started_at <= ?
		ORDER BY started_at DESC
		LIMIT ?`
	rows, err := a.db.QueryContext(ctx, q, pair, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.GapAuction
	for rows.Next() {
		var (
			auc                              models.GapAuction
			gapPct, gapVal, oraclePx, poolPx float64
			captured, lpShare, winnerShare   float64
			direction, status                string
		)
		if err := rows.Scan(&auc.ID, &auc.Pair, &direction, &gapPct, &gapVal, &oraclePx, &poolPx,
			&auc.StartTime, &auc.SettledAt, &status, &auc.Winner, &captured, &lpShare, &winnerShare); err != nil {
			return nil, err
		}
		auc.Direction = models.GapDirection(direction)
		auc.Status = models.AuctionStatus(status)
		auc.GapPercent = decimal.NewFromFloat(gapPct)
		auc.GapValue = decimal.NewFromFloat(gapVal)
		auc.OraclePrice = decimal.NewFromFloat(oraclePx)
		auc.PoolPrice = decimal.NewFromFloat(poolPx)
		auc.CapturedValue = decimal.NewFromFloat(captured)
		auc.LPShare = decimal.NewFromFloat(lpShare)
		auc.WinnerShare = decimal.NewFromFloat(winnerShare)
		out = append(out, &auc)
	}
	return out, rows.Err()
}

func (a *ClickHouseArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseArchive) Close() error {
	return nil // pool managed by pkg/clickhouse
}

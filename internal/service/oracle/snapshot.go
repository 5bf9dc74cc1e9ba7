package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	pkghttp "github.com/ayush18pop/stockshield.eth-sub001/pkg/http"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/logger"
)

// SnapshotPoller pulls REST quote snapshots as a fallback for the stream.
// When the stream stalls, the poller is what keeps LastOracleUpdate fresh and
// the breaker out of a spurious halt. The REST endpoint sits behind a circuit
// breaker: a flapping endpoint must not burn the poll budget on timeouts.
type SnapshotPoller struct {
	client  *pkghttp.Client
	url     string
	apiKey  string
	pairs   []string
	breaker *gobreaker.CircuitBreaker
	log     *logger.Logger
}

func NewSnapshotPoller(client *pkghttp.Client, url, apiKey string, pairs []string, log *logger.Logger) *SnapshotPoller {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "oracle-snapshot",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("snapshot breaker state change",
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})
	return &SnapshotPoller{client: client, url: url, apiKey: apiKey, pairs: pairs, breaker: cb, log: log}
}

// quote response schema: {c: current price, t: unix seconds}
type snapshotQuote struct {
	C float64 `json:"c"`
	T int64   `json:"t"`
}

// Poll fetches one snapshot per configured pair. Partial results are
// returned; a pair whose fetch failed is skipped for this round.
func (p *SnapshotPoller) Poll(ctx context.Context) []models.OracleUpdate {
	out := make([]models.OracleUpdate, 0, len(p.pairs))
	for _, pair := range p.pairs {
		u, err := p.fetch(ctx, pair)
		if err != nil {
			p.log.Warn("snapshot fetch failed", logger.String("pair", pair), logger.Error(err))
			continue
		}
		out = append(out, u)
	}
	return out
}

func (p *SnapshotPoller) fetch(ctx context.Context, pair string) (models.OracleUpdate, error) {
	res, err := p.breaker.Execute(func() (interface{}, error) {
		var q snapshotQuote
		err := p.client.SendAndParse(ctx, &pkghttp.RequestOptions{
			Method: pkghttp.MethodGet,
			URL:    p.url,
			QueryParams: map[string][]string{
				"symbol": {pair},
				"token":  {p.apiKey},
			},
		}, &q)
		if err != nil {
			return nil, err
		}
		if q.C <= 0 {
			return nil, fmt.Errorf("snapshot %s: empty quote", pair)
		}
		return q, nil
	})
	if err != nil {
		return models.OracleUpdate{}, err
	}

	q := res.(snapshotQuote)
	ts := time.Unix(q.T, 0)
	if q.T == 0 {
		ts = time.Now()
	}
	return models.OracleUpdate{Pair: pair, Price: decimal.NewFromFloat(q.C), Timestamp: ts}, nil
}

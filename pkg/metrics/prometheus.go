package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	quotes       *prometheus.CounterVec
	quoteBps     *prometheus.GaugeVec
	admissions   *prometheus.CounterVec
	breakerLevel *prometheus.GaugeVec
	oraclePrice  *prometheus.GaugeVec
	events       *prometheus.CounterVec
	bids         *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		quotes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockshield_quotes_total",
				Help: "Fee quotes issued, by pair, regime, and whether the cap bound",
			},
			[]string{"pair", "regime", "capped"},
		),
		quoteBps: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockshield_quote_fee_bps",
				Help: "Last quoted total fee in basis points",
			},
			[]string{"pair"},
		),
		admissions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockshield_pretrade_admissions_total",
				Help: "Pre-trade decisions, by pair and outcome",
			},
			[]string{"pair", "admitted"},
		),
		breakerLevel: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockshield_breaker_level",
				Help: "Current circuit breaker level per pair",
			},
			[]string{"pair"},
		),
		oraclePrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockshield_oracle_price",
				Help: "Last reference price per pair",
			},
			[]string{"pair"},
		),
		events: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockshield_risk_events_total",
				Help: "Risk events emitted, by type",
			},
			[]string{"type"},
		),
		bids: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockshield_auction_bids_total",
				Help: "Auction submissions, by outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockshield_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockshield_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordQuote records one issued fee quote.
func (r *Recorder) RecordQuote(pair, regime string, totalBps float64, capped bool) {
	r.quotes.WithLabelValues(pair, regime, strconv.FormatBool(capped)).Inc()
	r.quoteBps.WithLabelValues(pair).Set(totalBps)
}

// RecordAdmission records a pre-trade decision outcome.
func (r *Recorder) RecordAdmission(pair string, admitted bool) {
	r.admissions.WithLabelValues(pair, strconv.FormatBool(admitted)).Inc()
}

// RecordBreakerLevel records the evaluated breaker level.
func (r *Recorder) RecordBreakerLevel(pair string, level int) {
	r.breakerLevel.WithLabelValues(pair).Set(float64(level))
}

// RecordOraclePrice records the last reference price.
func (r *Recorder) RecordOraclePrice(pair string, price float64) {
	r.oraclePrice.WithLabelValues(pair).Set(price)
}

// RecordAuctionEvent records an emitted risk event.
func (r *Recorder) RecordAuctionEvent(kind string) {
	r.events.WithLabelValues(kind).Inc()
}

// RecordBid records an auction submission outcome.
func (r *Recorder) RecordBid(outcome string) {
	r.bids.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

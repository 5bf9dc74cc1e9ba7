package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	domrepo "github.com/ayush18pop/stockshield.eth-sub001/internal/domain/repository"
	pkgkafka "github.com/ayush18pop/stockshield.eth-sub001/pkg/kafka"
)

// KafkaTradesHandler consumes venue executions off the trades topic.
type KafkaTradesHandler struct {
	topic   string
	ingest  *TradeIngestUseCase
	metrics domrepo.Metrics
}

func NewKafkaTradesHandler(topic string, ingest *TradeIngestUseCase, metrics domrepo.Metrics) *KafkaTradesHandler {
	return &KafkaTradesHandler{topic: topic, ingest: ingest, metrics: metrics}
}

func (h *KafkaTradesHandler) Topic() string { return h.topic }

// incoming message schema: {pair, price, size, side, t}
func (h *KafkaTradesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Pair  string          `json:"pair"`
		Price decimal.Decimal `json:"price"`
		Size  decimal.Decimal `json:"size"`
		Side  string          `json:"side"`
		T     int64           `json:"t"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	start := time.Now()
	_, err := h.ingest.ApplyTrade(ctx, models.TradeExecution{
		Pair:      m.Pair,
		Price:     m.Price,
		Size:      m.Size,
		IsBuy:     m.Side != "sell",
		Timestamp: time.Unix(m.T, 0),
	})
	h.metrics.RecordLatency("signal_update_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_apply")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaTradesHandler)(nil)

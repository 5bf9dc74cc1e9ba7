package di

import (
	"context"
	"fmt"
	"time"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/auction"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/breaker"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/repository"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/fees"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/handler/api"
	mid "github.com/ayush18pop/stockshield.eth-sub001/internal/middleware"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/regime"
	internalrepo "github.com/ayush18pop/stockshield.eth-sub001/internal/repository"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/service/oracle"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/service/ratelimit"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/services/signals"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/usecase"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/cache"
	pkgch "github.com/ayush18pop/stockshield.eth-sub001/pkg/clickhouse"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/config"
	xhttp "github.com/ayush18pop/stockshield.eth-sub001/pkg/http"
	pkgkafka "github.com/ayush18pop/stockshield.eth-sub001/pkg/kafka"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/logger"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/metrics"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache selects Redis when enabled, in-memory otherwise. The signal
// store works identically over either, so single-node dev needs no Redis.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideSignalStore creates the per-pair risk signal store.
func ProvideSignalStore(c cache.Service) repository.SignalStore {
	return internalrepo.NewCacheSignalStore(c)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideArchive creates the quote/auction archive over ClickHouse, falling
// back to a no-op when ClickHouse is disabled.
func ProvideArchive(chClient *pkgch.Client) (repository.Archive, error) {
	if chClient == nil {
		return internalrepo.NoopArchive{}, nil
	}
	archive := internalrepo.NewClickHouseArchive(chClient.DB())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		_ = chClient.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return archive, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher creates the risk event publisher.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NoopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.EventsTopic)
}

// ProvideKafkaConsumer creates the venue trade consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideClassifier creates the trading-hours regime classifier.
func ProvideClassifier(cfg *config.Config) (*regime.Classifier, error) {
	return regime.NewClassifier(cfg.Market)
}

// ProvideFeeEngine creates the dynamic fee engine.
func ProvideFeeEngine(cfg *config.Config) *fees.Engine {
	return fees.NewEngine(cfg.Fees)
}

// ProvideBreaker creates the circuit breaker state machine.
func ProvideBreaker(cfg *config.Config) *breaker.StateMachine {
	return breaker.New(cfg.Breaker)
}

// ProvideProtocol creates the gap auction protocol on the wall clock.
func ProvideProtocol(cfg *config.Config) *auction.Protocol {
	return auction.NewProtocol(cfg.Auction, nil)
}

// ProvideUpdater creates the risk signal updater.
func ProvideUpdater() *signals.Updater {
	return signals.NewUpdater()
}

// ProvideLimiter creates the per-bidder commit rate limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvidePreTradeUseCase wires the pre-trade evaluation pipeline.
func ProvidePreTradeUseCase(
	store repository.SignalStore,
	classifier *regime.Classifier,
	engine *fees.Engine,
	machine *breaker.StateMachine,
	events repository.EventPublisher,
	archive repository.Archive,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.PreTradeUseCase {
	return usecase.NewPreTradeUseCase(store, classifier, engine, machine, events, archive, m, log)
}

// ProvideTradeIngestUseCase wires venue trade ingestion.
func ProvideTradeIngestUseCase(
	store repository.SignalStore,
	updater *signals.Updater,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.TradeIngestUseCase {
	return usecase.NewTradeIngestUseCase(store, updater, m, log)
}

// ProvideOracleUseCase wires oracle processing and auction lifecycle.
func ProvideOracleUseCase(
	store repository.SignalStore,
	updater *signals.Updater,
	protocol *auction.Protocol,
	events repository.EventPublisher,
	archive repository.Archive,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.OracleUseCase {
	return usecase.NewOracleUseCase(store, updater, protocol, events, archive, m, log)
}

// ProvideAuctionUseCase wires bid submission with per-bidder rate limiting.
func ProvideAuctionUseCase(
	protocol *auction.Protocol,
	limiter *ratelimit.Limiter,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.AuctionUseCase {
	return usecase.NewAuctionUseCase(protocol, limiter, cfg.Auction.CommitBurst, cfg.Auction.CommitPerSec, m)
}

// ProvideKafkaTradesHandler registers the handler for the venue trades topic.
func ProvideKafkaTradesHandler(ingest *usecase.TradeIngestUseCase, m repository.Metrics, cfg *config.Config) *usecase.KafkaTradesHandler {
	return usecase.NewKafkaTradesHandler(cfg.Kafka.TradesTopic, ingest, m)
}

// ProvideOracleStream creates the reference market WebSocket stream, or nil
// when the oracle feed is disabled.
func ProvideOracleStream(cfg *config.Config, log *logger.Logger) repository.OracleStream {
	if !cfg.Oracle.Enabled {
		return nil
	}
	return oracle.New(
		cfg.Oracle.APIKey,
		cfg.Oracle.WebSocketURL,
		cfg.Oracle.Pairs,
		cfg.Oracle.ReconnectDelay,
		cfg.Oracle.PingInterval,
		log,
	)
}

// ProvideOracleCollector wires the stream through the realtime pipeline into
// the oracle use case.
func ProvideOracleCollector(
	stream repository.OracleStream,
	oracleUC *usecase.OracleUseCase,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.OracleCollector {
	if stream == nil {
		return nil
	}
	adapter := usecase.NewOracleProcessorAdapter(oracleUC)
	pipe := mid.NewRealtimePipeline(adapter, m,
		mid.WithMaxRPS(cfg.Oracle.MaxRPS),
		mid.WithBufferSize(cfg.Oracle.BufferSize),
	)
	return usecase.NewOracleCollector(stream, adapter, m, log, pipe)
}

// ProvideSnapshotPoller creates the REST snapshot fallback, or nil when no
// snapshot URL is configured.
func ProvideSnapshotPoller(cfg *config.Config, log *logger.Logger) *oracle.SnapshotPoller {
	if !cfg.Oracle.Enabled || cfg.Oracle.SnapshotURL == "" {
		return nil
	}
	client := xhttp.NewClient(xhttp.WithTimeout(10 * time.Second))
	return oracle.NewSnapshotPoller(client, cfg.Oracle.SnapshotURL, cfg.Oracle.APIKey, cfg.Oracle.Pairs, log)
}

// ProvideRouter bundles the HTTP handlers.
func ProvideRouter(
	log *logger.Logger,
	pretrade *usecase.PreTradeUseCase,
	ingest *usecase.TradeIngestUseCase,
	oracleUC *usecase.OracleUseCase,
	auctions *usecase.AuctionUseCase,
	store repository.SignalStore,
	archive repository.Archive,
) *api.Router {
	risk := api.NewRiskEchoHandler(log, pretrade, ingest, oracleUC)
	auc := api.NewAuctionsEchoHandler(log, auctions, archive)
	return api.NewRouter(log, risk, auc, store, archive)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	router *api.Router,
	collector *usecase.OracleCollector,
	poller *oracle.SnapshotPoller,
	oracleUC *usecase.OracleUseCase,
	consumer *pkgkafka.Consumer,
	th *usecase.KafkaTradesHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	c cache.Service,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, log, router, collector, poller, oracleUC, consumer, th, producer, chClient, c)
}

package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	internalrepo "github.com/ayush18pop/stockshield.eth-sub001/internal/repository"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/service/oracle"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/usecase"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/cache"
	pkgch "github.com/ayush18pop/stockshield.eth-sub001/pkg/clickhouse"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/config"
	xhttp "github.com/ayush18pop/stockshield.eth-sub001/pkg/http"
	pkgkafka "github.com/ayush18pop/stockshield.eth-sub001/pkg/kafka"
	applogger "github.com/ayush18pop/stockshield.eth-sub001/pkg/logger"
)

// sweepInterval bounds how long a settled or expired auction can sit
// unfinalized when no oracle update arrives for its pair.
const sweepInterval = time.Second

// errorLogTopic receives aggregated error logs when Kafka is enabled.
const errorLogTopic = "stockshield.error_logs"

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	collector  *usecase.OracleCollector
	poller     *oracle.SnapshotPoller
	oracleUC   *usecase.OracleUseCase
	consumer   *pkgkafka.Consumer
	th         pkgkafka.MessageHandler
	producer   *pkgkafka.Producer
	chClient   *pkgch.Client
	cache      cache.Service
	httpServer *xhttp.Server
	handler    xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	collector *usecase.OracleCollector,
	poller *oracle.SnapshotPoller,
	oracleUC *usecase.OracleUseCase,
	consumer *pkgkafka.Consumer,
	th pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	c cache.Service,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		collector: collector,
		poller:    poller,
		oracleUC:  oracleUC,
		consumer:  consumer,
		th:        th,
		producer:  producer,
		chClient:  chClient,
		cache:     c,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.producer != nil {
		a.log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          errorLogTopic,
			Publisher:      internalrepo.NewLogPublisher(a.producer),
		})
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(a.log, time.Second),
	)

	// Oracle WebSocket collector
	if a.collector != nil {
		go func() {
			if err := a.collector.Run(ctx); err != nil {
				a.log.Error("oracle collector error", applogger.Error(err))
			}
		}()
		a.log.Info("oracle collector started", applogger.Strings("pairs", a.cfg.Oracle.Pairs))
	}

	// REST snapshot fallback keeps staleness detection honest when the
	// WebSocket is down.
	if a.poller != nil {
		go a.runSnapshotLoop(ctx)
		a.log.Info("snapshot poller started", applogger.Duration("every", a.cfg.Oracle.SnapshotEvery))
	}

	// Auction settlement sweep
	go a.runSweepLoop(ctx)

	// Venue trade consumer
	if a.consumer != nil && a.th != nil {
		a.consumer.RegisterHandler(a.th)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.th.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// runSnapshotLoop periodically polls the REST snapshot endpoint and folds the
// results through the same oracle path as streamed updates.
func (a *App) runSnapshotLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Oracle.SnapshotEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, u := range a.poller.Poll(ctx) {
				if err := a.oracleUC.ApplyOracle(ctx, u); err != nil {
					a.log.Warn("snapshot apply failed", applogger.String("pair", u.Pair), applogger.Error(err))
				}
			}
		}
	}
}

// runSweepLoop advances auction phases on wall time so settlement does not
// wait for the next oracle tick.
func (a *App) runSweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.oracleUC.Drain(ctx)
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	a.log.RemoveCollector()
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if closer, ok := a.cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}

//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/ayush18pop/stockshield.eth-sub001/pkg/config"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/server"
)

// InitializeApp builds the full application graph from config.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,
		ProvideSignalStore,
		ProvideClickHouseClient,
		ProvideArchive,
		ProvideKafkaProducer,
		ProvideEventPublisher,
		ProvideKafkaConsumer,
		ProvideClassifier,
		ProvideFeeEngine,
		ProvideBreaker,
		ProvideProtocol,
		ProvideUpdater,
		ProvideLimiter,
		ProvidePreTradeUseCase,
		ProvideTradeIngestUseCase,
		ProvideOracleUseCase,
		ProvideAuctionUseCase,
		ProvideKafkaTradesHandler,
		ProvideOracleStream,
		ProvideOracleCollector,
		ProvideSnapshotPoller,
		ProvideRouter,
		ProvideApp,
	)
	return &server.App{}, nil
}

package usecase

import (
	"context"
	"time"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	domrepo "github.com/ayush18pop/stockshield.eth-sub001/internal/domain/repository"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/middleware"
	"github.com/ayush18pop/stockshield.eth-sub001/pkg/logger"
)

// Processor receives validated oracle updates from the collector pipeline.
type Processor interface {
	Process(ctx context.Context, u *models.OracleUpdate) error
}

// OracleProcessorAdapter bridges the pipeline's Process contract onto the
// oracle use case.
type OracleProcessorAdapter struct {
	uc *OracleUseCase
}

func NewOracleProcessorAdapter(uc *OracleUseCase) *OracleProcessorAdapter {
	return &OracleProcessorAdapter{uc: uc}
}

func (a *OracleProcessorAdapter) Process(ctx context.Context, u *models.OracleUpdate) error {
	return a.uc.ApplyOracle(ctx, *u)
}

// OracleCollector owns the stream lifecycle: connect, subscribe, read, and
// reconnect until the context ends. Updates flow through the pipeline when one
// is attached, otherwise straight into the processor.
type OracleCollector struct {
	stream  domrepo.OracleStream
	proc    Processor
	pipe    *middleware.RealtimePipeline
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewOracleCollector(stream domrepo.OracleStream, proc Processor, metrics domrepo.Metrics, log *logger.Logger, pipe *middleware.RealtimePipeline) *OracleCollector {
	return &OracleCollector{stream: stream, proc: proc, pipe: pipe, metrics: metrics, log: log}
}

// Run blocks until ctx is done. Stream errors trigger a reconnect, never a
// process exit; the snapshot poller covers the gap meanwhile.
func (c *OracleCollector) Run(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Start(ctx)
		defer c.pipe.Stop()
		c.proc = c.pipe
	}
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}

	for {
		updates, errs := c.stream.Read(ctx)
	read:
		for {
			select {
			case <-ctx.Done():
				return c.stream.Close()
			case u, ok := <-updates:
				if !ok {
					break read
				}
				start := time.Now()
				if err := c.proc.Process(ctx, u); err != nil {
					c.metrics.RecordError("collector_process")
					c.log.Warn("oracle update dropped", logger.String("pair", u.Pair), logger.Error(err))
				}
				c.metrics.RecordLatency("collector_process", time.Since(start).Seconds())
			case err, ok := <-errs:
				if !ok {
					break read
				}
				if err != nil {
					c.metrics.RecordError("stream_read")
					c.log.Warn("oracle stream error", logger.Error(err))
				}
			}
		}

		select {
		case <-ctx.Done():
			return c.stream.Close()
		default:
		}
		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("stream_reconnect")
			c.log.Error("oracle reconnect failed", logger.Error(err))
			select {
			case <-ctx.Done():
				return c.stream.Close()
			case <-time.After(5 * time.Second):
			}
		}
	}
}

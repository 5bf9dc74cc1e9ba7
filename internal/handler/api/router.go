package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	domrepo "github.com/ayush18pop/stockshield.eth-sub001/internal/domain/repository"
	xlogger "github.com/ayush18pop/stockshield.eth-sub001/pkg/logger"
)

// Router bundles the API handlers behind one pkg/http Handler.
type Router struct {
	logger   *xlogger.Logger
	risk     *RiskEchoHandler
	auctions *AuctionsEchoHandler
	store    domrepo.SignalStore
	archive  domrepo.Archive
}

func NewRouter(logger *xlogger.Logger, risk *RiskEchoHandler, auctions *AuctionsEchoHandler, store domrepo.SignalStore, archive domrepo.Archive) *Router {
	return &Router{logger: logger, risk: risk, auctions: auctions, store: store, archive: archive}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	r.risk.RegisterRoutes(e)
	r.auctions.RegisterRoutes(e)
	e.GET("/api/ops/logs", r.OpsLogs)
	e.GET("/healthz", r.Healthz)
}

// OpsLogs exposes error logs aggregated since the last flush.
func (r *Router) OpsLogs(c echo.Context) error {
	return c.JSON(http.StatusOK, r.logger.PendingLogs())
}

// Healthz reports dependency health; a degraded archive is reported but does
// not fail the probe, the pre-trade path works without it.
func (r *Router) Healthz(c echo.Context) error {
	ctx := c.Request().Context()
	status := http.StatusOK
	body := map[string]string{"status": "ok", "signals": "ok", "archive": "ok"}

	if err := r.store.Health(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["signals"] = err.Error()
	}
	if err := r.archive.Health(ctx); err != nil {
		body["archive"] = err.Error()
	}
	return c.JSON(status, body)
}

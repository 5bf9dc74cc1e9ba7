package api

import (
	"time"

	"github.com/labstack/echo/v4"

	models "github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/usecase"
	xhttp "github.com/ayush18pop/stockshield.eth-sub001/pkg/http"
	xlogger "github.com/ayush18pop/stockshield.eth-sub001/pkg/logger"
)

// RiskEchoHandler exposes the venue-facing risk API: pre-trade decisions,
// trade and oracle ingestion, and regime queries.
type RiskEchoHandler struct {
	logger   *xlogger.Logger
	pretrade *usecase.PreTradeUseCase
	ingest   *usecase.TradeIngestUseCase
	oracle   *usecase.OracleUseCase
}

func NewRiskEchoHandler(logger *xlogger.Logger, pretrade *usecase.PreTradeUseCase, ingest *usecase.TradeIngestUseCase, oracle *usecase.OracleUseCase) *RiskEchoHandler {
	return &RiskEchoHandler{logger: logger, pretrade: pretrade, ingest: ingest, oracle: oracle}
}

func (h *RiskEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/pretrade", h.PreTrade)
	g.POST("/trades", h.Trade)
	g.PUT("/pool/:pair/tvl", h.PoolTVL)
	g.POST("/oracle", h.Oracle)
	g.GET("/regime", h.Regime)
	g.GET("/signals/:pair", h.Signals)
}

// PreTrade quotes the fee and breaker decision for the next trade on a pair.
func (h *RiskEchoHandler) PreTrade(c echo.Context) error {
	req := &models.PreTradeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	decision, err := h.pretrade.Evaluate(c.Request().Context(), req.Pair)
	if err != nil {
		h.logger.Error("pretrade usecase error", xlogger.String("pair", req.Pair), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, decision)
}

// Trade ingests one venue execution into the signal state.
func (h *RiskEchoHandler) Trade(c echo.Context) error {
	req := &models.TradeExecutionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sig, err := h.ingest.ApplyTrade(c.Request().Context(), models.TradeExecution{
		Pair:      req.Pair,
		Price:     req.Price,
		Size:      req.Size,
		IsBuy:     req.Side != "sell",
		Timestamp: req.Timestamp,
	})
	if err != nil {
		h.logger.Error("trade ingest error", xlogger.String("pair", req.Pair), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, sig)
}

// PoolTVL records the venue's reported pool depth for a pair.
func (h *RiskEchoHandler) PoolTVL(c echo.Context) error {
	pair := c.Param("pair")
	if pair == "" {
		return xhttp.BadRequestResponse(c, "pair required")
	}
	req := &models.PoolTVLRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.ingest.SetPoolTVL(c.Request().Context(), pair, req.TVL); err != nil {
		h.logger.Error("pool tvl update error", xlogger.String("pair", pair), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

// Oracle accepts a pushed reference price, the same path the stream feeds.
func (h *RiskEchoHandler) Oracle(c echo.Context) error {
	req := &models.OracleUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	err := h.oracle.ApplyOracle(c.Request().Context(), models.OracleUpdate{
		Pair:      req.Pair,
		Price:     req.Price,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		h.logger.Error("oracle ingest error", xlogger.String("pair", req.Pair), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

// Regime classifies an instant; empty "at" means now.
func (h *RiskEchoHandler) Regime(c echo.Context) error {
	req := &models.RegimeQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var at time.Time
	if req.At != "" {
		parsed, ok := xhttp.ParseTime(req.At)
		if !ok {
			return xhttp.BadRequestResponse(c, "at must be RFC3339 or unix seconds")
		}
		at = parsed
	}
	return xhttp.SuccessResponse(c, h.pretrade.RegimeAt(at))
}

// Signals returns the raw per-pair snapshot for operators.
func (h *RiskEchoHandler) Signals(c echo.Context) error {
	pair := c.Param("pair")
	if pair == "" {
		return xhttp.BadRequestResponse(c, "pair required")
	}
	sig, err := h.pretrade.Signals(c.Request().Context(), pair)
	if err != nil {
		h.logger.Error("signals read error", xlogger.String("pair", pair), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, sig)
}

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	models "github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	domrepo "github.com/ayush18pop/stockshield.eth-sub001/internal/domain/repository"
	"github.com/ayush18pop/stockshield.eth-sub001/internal/usecase"
	xhttp "github.com/ayush18pop/stockshield.eth-sub001/pkg/http"
	xlogger "github.com/ayush18pop/stockshield.eth-sub001/pkg/logger"
)

// AuctionsEchoHandler exposes the gap-auction surface: commit, reveal, and
// auction state. Rejections are policy outcomes and map to 4xx, never 5xx.
type AuctionsEchoHandler struct {
	logger   *xlogger.Logger
	auctions *usecase.AuctionUseCase
	archive  domrepo.Archive
}

func NewAuctionsEchoHandler(logger *xlogger.Logger, auctions *usecase.AuctionUseCase, archive domrepo.Archive) *AuctionsEchoHandler {
	return &AuctionsEchoHandler{logger: logger, auctions: auctions, archive: archive}
}

func (h *AuctionsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/auctions")
	g.GET("/open", h.Open)
	g.GET("/history", h.History)
	g.GET("/:id", h.Get)
	g.GET("/:id/floor", h.Floor)
	g.POST("/:id/commit", h.Commit)
	g.POST("/:id/reveal", h.Reveal)
}

// Open returns the pair's live auction.
func (h *AuctionsEchoHandler) Open(c echo.Context) error {
	pair := c.QueryParam("pair")
	if pair == "" {
		return xhttp.BadRequestResponse(c, "pair required")
	}
	a, ok := h.auctions.OpenForPair(c.Request().Context(), pair)
	if !ok {
		return xhttp.NotFoundResponse(c, "no open auction for pair")
	}
	return xhttp.SuccessResponse(c, publicView(a))
}

// History returns archived auctions for a pair over a time range.
func (h *AuctionsEchoHandler) History(c echo.Context) error {
	pair := c.QueryParam("pair")
	if pair == "" {
		return xhttp.BadRequestResponse(c, "pair required")
	}
	now := time.Now()
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), now.Add(-24*time.Hour))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 100)

	auctions, err := h.archive.QueryAuctions(c.Request().Context(), pair, from, to, limit)
	if err != nil {
		h.logger.Error("auction history query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, auctions)
}

// Get returns the auction by id, settling it first if it has lapsed.
func (h *AuctionsEchoHandler) Get(c echo.Context) error {
	a, err := h.auctions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.rejectResponse(c, err)
	}
	return xhttp.SuccessResponse(c, publicView(a))
}

// Floor quotes the current decayed minimum bid.
func (h *AuctionsEchoHandler) Floor(c echo.Context) error {
	floor, err := h.auctions.MinBidNow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.rejectResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"min_bid": floor})
}

// Commit records a sealed bid commitment.
func (h *AuctionsEchoHandler) Commit(c echo.Context) error {
	req := &models.CommitRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.auctions.Commit(c.Request().Context(), c.Param("id"), *req); err != nil {
		return h.rejectResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

// Reveal opens a prior commitment.
func (h *AuctionsEchoHandler) Reveal(c echo.Context) error {
	req := &models.RevealRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.auctions.Reveal(c.Request().Context(), c.Param("id"), *req); err != nil {
		return h.rejectResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *AuctionsEchoHandler) rejectResponse(c echo.Context, err error) error {
	var notFound *models.ErrAuctionNotFound
	if errors.As(err, &notFound) {
		return xhttp.NotFoundResponse(c, notFound.Error())
	}
	var rejected *models.BidRejectedError
	if errors.As(err, &rejected) {
		status := http.StatusConflict
		if rejected.Reason == models.RejectRateLimited {
			status = http.StatusTooManyRequests
		}
		return xhttp.DataResponse(c, status, map[string]interface{}{
			"reason":    rejected.Reason,
			"bidder_id": rejected.BidderID,
		})
	}
	h.logger.Error("auction handler error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}

// publicView strips unrevealed bid contents; commitments stay sealed until
// the bidder opens them.
func publicView(a models.GapAuction) models.GapAuction {
	for i := range a.Bids {
		if !a.Bids[i].Revealed {
			a.Bids[i].CommitHash = ""
			a.Bids[i].Salt = ""
		}
	}
	return a
}

package repository

import (
	"context"
	"time"

	"github.com/ayush18pop/stockshield.eth-sub001/internal/domain/models"
	domrepo "github.com/ayush18pop/stockshield.eth-sub001/internal/domain/repository"
)

// NoopArchive stands in when ClickHouse is disabled; quotes and auctions are
// then only observable through the event stream and metrics.
type NoopArchive struct{}

func (NoopArchive) Init(context.Context) error { return nil }
func (NoopArchive) StoreQuote(context.Context, *models.FeeQuote, time.Time) error {
	return nil
}
func (NoopArchive) StoreAuction(context.Context, *models.GapAuction) error { return nil }
func (NoopArchive) QueryAuctions(context.Context, string, time.Time, time.Time, int) ([]*models.GapAuction, error) {
	return nil, nil
}
func (NoopArchive) Health(context.Context) error { return nil }
func (NoopArchive) Close() error                 { return nil }

var _ domrepo.Archive = NoopArchive{}

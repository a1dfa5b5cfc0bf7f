package pricefeed

import (
	"context"
	"log/slog"

	"Futures/internal/domain/models"

	"github.com/shopspring/decimal"
)

// PriceSource quotes a single asset, e.g. the shared redis cache.
type PriceSource interface {
	Price(ctx context.Context, asset models.Asset) (decimal.Decimal, error)
}

// CachedPrices builds a seed for every registered asset. Prices come from src when it has them
// and from fallback otherwise. A nil src means fallback only.
func CachedPrices(ctx context.Context, log *slog.Logger, src PriceSource, fallback map[models.Asset]decimal.Decimal) map[models.Asset]decimal.Decimal {
	const op = "pricefeed.CachedPrices"

	res := make(map[models.Asset]decimal.Decimal, len(fallback))
	for _, asset := range models.Assets() {
		if src != nil {
			price, err := src.Price(ctx, asset)
			if err == nil && price.IsPositive() {
				res[asset] = price
				continue
			}
			log.Warn("no cached price, using fallback", "op", op, "asset", asset, "err", err)
		}
		if price, ok := fallback[asset]; ok {
			res[asset] = price
		}
	}
	return res
}

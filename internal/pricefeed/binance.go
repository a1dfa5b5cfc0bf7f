package pricefeed

import (
	"context"
	"fmt"
	"log/slog"

	"Futures/internal/domain/models"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

// BinanceSnapshot fetches current prices from the Binance REST API.
type BinanceSnapshot struct {
	log    *slog.Logger
	client *binance.Client
}

func NewBinanceSnapshot(log *slog.Logger, baseURL string) *BinanceSnapshot {
	client := binance.NewClient("", "")
	if baseURL != "" {
		client.BaseURL = baseURL
	}
	return &BinanceSnapshot{
		log:    log,
		client: client,
	}
}

func (s *BinanceSnapshot) GetPrices(ctx context.Context) ([]models.PriceResponse, error) {
	const op = "pricefeed.BinanceSnapshot.GetPrices"

	symbols := make([]string, 0, len(models.Assets()))
	for _, a := range models.Assets() {
		symbols = append(symbols, a.Ticker())
	}

	prices, err := s.client.NewListPricesService().Symbols(symbols).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := make([]models.PriceResponse, 0, len(prices))
	for _, p := range prices {
		res = append(res, models.PriceResponse{Symbol: p.Symbol, Price: p.Price})
	}
	return res, nil
}

// Initial returns the starting price of every asset. Assets Binance did not answer for,
// or every asset when the request fails, fall back to the mock base prices.
func (s *BinanceSnapshot) Initial(ctx context.Context) map[models.Asset]decimal.Decimal {
	const op = "pricefeed.BinanceSnapshot.Initial"

	prices := MockPrices()

	resp, err := s.GetPrices(ctx)
	if err != nil {
		s.log.Warn("failed to fetch initial prices, using mock prices", "op", op, "err", err)
		return prices
	}

	for _, pr := range resp {
		asset, ok := models.AssetByTicker(pr.Symbol)
		if !ok {
			continue
		}
		price, err := decimal.NewFromString(pr.Price)
		if err != nil || !price.IsPositive() {
			s.log.Warn("bad price from binance", "op", op, "symbol", pr.Symbol, "price", pr.Price)
			continue
		}
		prices[asset] = price
	}
	return prices
}

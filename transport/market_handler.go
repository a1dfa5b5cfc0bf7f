package handler

import (
	"context"
	"log/slog"
	"net/http"

	"Futures/internal/domain/models"
	"Futures/internal/domain/models/transport"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type MarketHandler struct {
	log       *slog.Logger
	prices    priceBook
	orderBook orderBookGenerator
}

type priceBook interface {
	Quotes() []models.Quote
	Price(ctx context.Context, asset models.Asset) (decimal.Decimal, error)
}

type orderBookGenerator interface {
	Generate(asset models.Asset, price decimal.Decimal) models.OrderBook
}

func NewMarketHandler(log *slog.Logger, prices priceBook, orderBook orderBookGenerator) *MarketHandler {
	return &MarketHandler{
		log:       log,
		prices:    prices,
		orderBook: orderBook,
	}
}

func (h *MarketHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/prices", h.GetPrices)
	router.Get("/orderbook/{asset}", h.GetOrderBook)
	return router
}

func (h *MarketHandler) GetPrices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, transport.PricesResponse{Quotes: h.prices.Quotes()})
}

func (h *MarketHandler) GetOrderBook(w http.ResponseWriter, r *http.Request) {
	asset, ok := models.ParseAsset(chi.URLParam(r, "asset"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown asset")
		return
	}

	price, err := h.prices.Price(r.Context(), asset)
	if err != nil {
		h.log.Warn("No price for order book", "error", err, "asset", asset)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.orderBook.Generate(asset, price))
}

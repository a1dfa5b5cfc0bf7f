package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"Futures/internal/domain/models"
	"Futures/internal/domain/models/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type TradeHandler struct {
	log          *slog.Logger
	tradeService tradeService
	validate     *validator.Validate
}

type tradeService interface {
	OpenTradeDeal(ctx context.Context,
		userId int64,
		asset models.Asset,
		direction models.Direction,
		size decimal.Decimal) (models.Account, models.Position, error)
	CloseTradeDeal(ctx context.Context, userId, positionId int64) (models.Account, decimal.Decimal, error)
	Portfolio(ctx context.Context, userId int64) (models.Portfolio, error)
}

func NewTradeHandler(log *slog.Logger, tradeService tradeService, validate *validator.Validate) *TradeHandler {
	return &TradeHandler{
		log:          log,
		tradeService: tradeService,
		validate:     validate,
	}
}

func (h *TradeHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/positions", h.GetPositions)
	router.Post("/open", h.PostOpenTrade)
	router.Post("/close", h.PostCloseTrade)
	return router
}

func (h *TradeHandler) PostOpenTrade(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserID(r.Context())

	var req transport.OpenTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("Failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.log.Error("Validation failed", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid trade parameters")
		return
	}

	asset, ok := models.ParseAsset(req.Asset)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown asset")
		return
	}
	if !req.Size.IsPositive() {
		writeError(w, http.StatusBadRequest, "Size must be positive")
		return
	}

	acc, pos, err := h.tradeService.OpenTradeDeal(r.Context(), userId, asset, models.Direction(req.Direction), req.Size)
	if err != nil {
		h.log.Error("Failed to open trade", "error", err, "userId", userId)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, transport.OpenTradeResponse{
		Position: pos,
		Account:  acc,
	})
}

func (h *TradeHandler) PostCloseTrade(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserID(r.Context())

	var req transport.CloseTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("Failed to decode request", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.log.Error("Validation failed", "error", err)
		writeError(w, http.StatusBadRequest, "Position ID is required")
		return
	}

	acc, realized, err := h.tradeService.CloseTradeDeal(r.Context(), userId, req.PositionId)
	if err != nil {
		h.log.Error("Failed to close trade", "error", err, "positionId", req.PositionId)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transport.CloseTradeResponse{
		RealizedPnl: realized,
		Account:     acc,
	})
}

func (h *TradeHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserID(r.Context())

	portfolio, err := h.tradeService.Portfolio(r.Context(), userId)
	if err != nil {
		h.log.Error("Failed to get positions", "error", err, "userId", userId)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, portfolio)
}

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"Futures/internal/domain/models"
	"Futures/internal/domain/models/transport"

	"github.com/go-chi/chi/v5"
)

type AccountHandler struct {
	log            *slog.Logger
	accountService accountService
}

type accountService interface {
	GetAccount(ctx context.Context, userId int64) (models.Account, error)
	ClaimFaucet(ctx context.Context, userId int64) (models.Account, error)
}

func NewAccountHandler(log *slog.Logger, accountService accountService) *AccountHandler {
	return &AccountHandler{
		log:            log,
		accountService: accountService,
	}
}

func (h *AccountHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", h.GetAccount)
	router.Post("/faucet", h.PostFaucet)
	return router
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserID(r.Context())

	acc, err := h.accountService.GetAccount(r.Context(), userId)
	if err != nil {
		h.log.Error("Failed to get account", "error", err, "userId", userId)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transport.AccountResponse{Account: acc})
}

func (h *AccountHandler) PostFaucet(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserID(r.Context())

	acc, err := h.accountService.ClaimFaucet(r.Context(), userId)
	if err != nil {
		h.log.Info("Faucet claim rejected", "error", err, "userId", userId)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, transport.AccountResponse{Account: acc})
}

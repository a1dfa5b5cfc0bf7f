package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"Futures/internal/domain/models/transport"
	"Futures/internal/pricefeed"
	"Futures/internal/services/ledger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, transport.ErrorResponse{Error: msg})
}

// statusFor maps a service error to an HTTP status and a message safe to show the client.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid input"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return http.StatusBadRequest, "Insufficient balance"
	case errors.Is(err, ledger.ErrInsufficientStars):
		return http.StatusBadRequest, "Not enough stars"
	case errors.Is(err, ledger.ErrPositionNotFound):
		return http.StatusNotFound, "Position not found"
	case errors.Is(err, ledger.ErrAlreadyJoined):
		return http.StatusConflict, "Tournament already joined"
	case errors.Is(err, ledger.ErrFaucetLimit):
		return http.StatusConflict, "Faucet limit reached"
	case errors.Is(err, pricefeed.ErrPriceUnavailable):
		return http.StatusServiceUnavailable, "Price unavailable"
	case errors.Is(err, ledger.ErrStorageUnavailable), errors.Is(err, ledger.ErrStopped):
		return http.StatusServiceUnavailable, "Service unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Request canceled"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, msg := statusFor(err)
	writeError(w, status, msg)
}

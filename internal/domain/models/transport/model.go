package transport

import (
	"Futures/internal/domain/models"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type AccountResponse struct {
	Account models.Account `json:"account"`
}

type OpenTradeRequest struct {
	Asset     string `json:"asset" validate:"required"`
	Direction string `json:"direction" validate:"required,oneof=Long Short"`
	// checked for positivity by the ledger
	Size decimal.Decimal `json:"size"`
}

type OpenTradeResponse struct {
	Position models.Position `json:"position"`
	Account  models.Account  `json:"account"`
}

type CloseTradeRequest struct {
	PositionId int64 `json:"position_id,string" validate:"required,gt=0"`
}

type CloseTradeResponse struct {
	RealizedPnl decimal.Decimal `json:"realized_pnl"`
	Account     models.Account  `json:"account"`
}

type TournamentView struct {
	models.Tournament
	Joined bool `json:"joined"`
}

type TournamentsResponse struct {
	Stars       int64            `json:"stars"`
	Tournaments []TournamentView `json:"tournaments"`
}

type LeaderboardResponse struct {
	Entries []models.LeaderboardEntry `json:"entries"`
}

type PricesResponse struct {
	Quotes []models.Quote `json:"quotes"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

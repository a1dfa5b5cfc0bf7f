package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventPositionOpened   EventType = "position_opened"
	EventPositionClosed   EventType = "position_closed"
	EventTournamentJoined EventType = "tournament_joined"
	EventFaucetClaimed    EventType = "faucet_claimed"
)

// LedgerEvent is emitted after a mutation has been committed to the store.
type LedgerEvent struct {
	Id           uuid.UUID       `json:"id"`
	Type         EventType       `json:"type"`
	UserId       int64           `json:"user_id"`
	PositionId   int64           `json:"position_id,omitempty,string"`
	TournamentId int64           `json:"tournament_id,omitempty"`
	Asset        Asset           `json:"asset,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Balance      decimal.Decimal `json:"balance"`
	Stars        int64           `json:"stars"`
	CreatedAt    time.Time       `json:"created_at"`
}

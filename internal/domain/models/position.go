package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	Long  Direction = "Long"
	Short Direction = "Short"
)

func (d Direction) Valid() bool {
	return d == Long || d == Short
}

// Position is an open bet on an asset's price. Size is the USD notional, which is also the
// margin taken from the balance at open.
type Position struct {
	// snowflake ids do not fit in a JS number, so they travel as strings
	Id         int64           `json:"id,string"`
	Asset      Asset           `json:"asset"`
	Direction  Direction       `json:"direction"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	Size       decimal.Decimal `json:"size"`
	OpenedAt   time.Time       `json:"opened_at"`
}

// OpenOrder is the caller's request to open a position.
type OpenOrder struct {
	Asset      Asset
	Direction  Direction
	EntryPrice decimal.Decimal
	Size       decimal.Decimal
}

// PositionView is a position valued at the current market price.
type PositionView struct {
	Position
	CurrentPrice  decimal.Decimal `json:"current_price"`
	UnrealizedPnl decimal.Decimal `json:"unrealized_pnl"`
}

// Portfolio is an account with every open position valued at market.
type Portfolio struct {
	Account       Account         `json:"account"`
	Positions     []PositionView  `json:"positions"`
	UnrealizedPnl decimal.Decimal `json:"unrealized_pnl"`
}

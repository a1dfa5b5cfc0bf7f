package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceResponse is the wire shape of a single price tick, both on Binance REST and on NATS.
type PriceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type Quote struct {
	Asset         Asset           `json:"asset"`
	Price         decimal.Decimal `json:"price"`
	InitialPrice  decimal.Decimal `json:"initial_price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type OrderBookLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

type OrderBook struct {
	Asset Asset            `json:"asset"`
	Bids  []OrderBookLevel `json:"bids"`
	Asks  []OrderBookLevel `json:"asks"`
}

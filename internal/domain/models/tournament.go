package models

import "github.com/shopspring/decimal"

type Tournament struct {
	Id       int64  `json:"id"`
	Name     string `json:"name"`
	Prize    string `json:"prize"`
	EntryFee int64  `json:"entry_fee"`
}

type LeaderboardEntry struct {
	Rank int             `json:"rank"`
	Name string          `json:"name"`
	Pnl  decimal.Decimal `json:"pnl"`
}

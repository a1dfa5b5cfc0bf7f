package models

import (
	"slices"

	"github.com/shopspring/decimal"
)

type Account struct {
	UserId      int64           `json:"user_id"`
	Balance     decimal.Decimal `json:"balance"`
	Stars       int64           `json:"stars"`
	Positions   []Position      `json:"positions"`
	Tournaments []int64         `json:"tournaments"`
}

// Clone returns a deep copy so callers never share slices with the ledger's working state.
func (a Account) Clone() Account {
	c := a
	c.Positions = slices.Clone(a.Positions)
	if c.Positions == nil {
		c.Positions = []Position{}
	}
	c.Tournaments = slices.Clone(a.Tournaments)
	if c.Tournaments == nil {
		c.Tournaments = []int64{}
	}
	return c
}

func (a Account) FindPosition(id int64) (int, bool) {
	for i, p := range a.Positions {
		if p.Id == id {
			return i, true
		}
	}
	return -1, false
}

func (a Account) HasJoined(tournamentId int64) bool {
	return slices.Contains(a.Tournaments, tournamentId)
}

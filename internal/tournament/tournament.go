package tournament

import (
	"errors"
	"fmt"
	"slices"

	"Futures/internal/domain/models"

	"github.com/shopspring/decimal"
)

var (
	ErrAlreadyJoined     = errors.New("tournament already joined")
	ErrInsufficientStars = errors.New("insufficient stars")
	ErrUnknownTournament = errors.New("unknown tournament")
	ErrInvalidCatalog    = errors.New("invalid tournament catalog")
)

var defaultTournaments = []models.Tournament{
	{Id: 1, Name: "Daily Scalp", Prize: "1 Month Telegram Premium", EntryFee: 5},
	{Id: 2, Name: "Weekly Whale", Prize: "3 Months Telegram Premium", EntryFee: 20},
	{Id: 3, Name: "BTC Maxi", Prize: "$10 Telegram Gift", EntryFee: 10},
}

var leaderboard = []models.LeaderboardEntry{
	{Rank: 1, Name: "CryptoKing", Pnl: decimal.RequireFromString("5430.12")},
	{Rank: 2, Name: "You", Pnl: decimal.RequireFromString("4890.76")},
	{Rank: 3, Name: "DiamondHands", Pnl: decimal.RequireFromString("3120.45")},
	{Rank: 4, Name: "MoonShot", Pnl: decimal.RequireFromString("1050.99")},
}

// Catalog is the fixed, read-only set of tournaments users can join.
type Catalog struct {
	items []models.Tournament
	byId  map[int64]models.Tournament
}

func NewCatalog(items []models.Tournament) (*Catalog, error) {
	const op = "tournament.NewCatalog"

	c := &Catalog{
		items: slices.Clone(items),
		byId:  make(map[int64]models.Tournament, len(items)),
	}
	for _, t := range items {
		if t.EntryFee < 0 {
			return nil, fmt.Errorf("%s: %w: negative entry fee for %d", op, ErrInvalidCatalog, t.Id)
		}
		if _, ok := c.byId[t.Id]; ok {
			return nil, fmt.Errorf("%s: %w: duplicate id %d", op, ErrInvalidCatalog, t.Id)
		}
		c.byId[t.Id] = t
	}
	return c, nil
}

func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultTournaments)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) List() []models.Tournament {
	return slices.Clone(c.items)
}

func (c *Catalog) Get(id int64) (models.Tournament, bool) {
	t, ok := c.byId[id]
	return t, ok
}

// Join debits the entry fee from acc and records the tournament. acc is left untouched on error.
func Join(acc *models.Account, t models.Tournament) error {
	if acc.HasJoined(t.Id) {
		return ErrAlreadyJoined
	}
	if acc.Stars < t.EntryFee {
		return ErrInsufficientStars
	}

	acc.Stars -= t.EntryFee
	acc.Tournaments = append(acc.Tournaments, t.Id)
	return nil
}

// Leaderboard returns the mock ranking shown next to the tournaments.
func Leaderboard() []models.LeaderboardEntry {
	return slices.Clone(leaderboard)
}

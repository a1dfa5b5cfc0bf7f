package pnl

import (
	"testing"

	"Futures/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestUnrealized(t *testing.T) {
	tests := []struct {
		name      string
		direction models.Direction
		entry     string
		size      string
		current   string
		want      string
	}{
		{name: "long gains when price rises", direction: models.Long, entry: "100", size: "1000", current: "110", want: "100"},
		{name: "short loses when price rises", direction: models.Short, entry: "100", size: "1000", current: "110", want: "-100"},
		{name: "long loses when price falls", direction: models.Long, entry: "100", size: "1000", current: "90", want: "-100"},
		{name: "short gains when price falls", direction: models.Short, entry: "100", size: "1000", current: "90", want: "100"},
		{name: "flat price", direction: models.Long, entry: "68000", size: "500", current: "68000", want: "0"},
		{name: "btc long", direction: models.Long, entry: "68000", size: "6800", current: "69000", want: "100"},
		{name: "total wipeout is not clamped", direction: models.Long, entry: "100", size: "1000", current: "0", want: "-1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := models.Position{
				Asset:      models.BTC,
				Direction:  tt.direction,
				EntryPrice: dec(tt.entry),
				Size:       dec(tt.size),
			}
			got := Unrealized(p, dec(tt.current))
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestUnrealized_ZeroEntryPrice(t *testing.T) {
	p := models.Position{Direction: models.Long, EntryPrice: decimal.Zero, Size: dec("10")}
	assert.True(t, Unrealized(p, dec("5")).IsZero())
}

func TestRealizedMatchesUnrealized(t *testing.T) {
	p := models.Position{Direction: models.Short, EntryPrice: dec("3500"), Size: dec("700")}
	assert.True(t, Realized(p, dec("3400")).Equal(Unrealized(p, dec("3400"))))
	assert.True(t, Realized(p, dec("3400")).Equal(dec("20")))
}

func TestChangePercent(t *testing.T) {
	assert.True(t, ChangePercent(dec("110"), dec("100")).Equal(dec("10")))
	assert.True(t, ChangePercent(dec("75"), dec("150")).Equal(dec("-50")))
	assert.True(t, ChangePercent(dec("123.45"), decimal.Zero).IsZero())
}

func TestTotal(t *testing.T) {
	positions := []models.Position{
		{Asset: models.BTC, Direction: models.Long, EntryPrice: dec("100"), Size: dec("1000")},
		{Asset: models.ETH, Direction: models.Short, EntryPrice: dec("50"), Size: dec("100")},
		{Asset: models.SOL, Direction: models.Long, EntryPrice: dec("10"), Size: dec("10")},
	}
	prices := map[models.Asset]decimal.Decimal{
		models.BTC: dec("110"),
		models.ETH: dec("40"),
	}

	// 100 from BTC, 20 from ETH, SOL has no price
	assert.True(t, Total(positions, prices).Equal(dec("120")))
}

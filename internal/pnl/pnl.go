// Package pnl holds the profit-and-loss math. Every function is pure: prices come in as arguments.
package pnl

import (
	"Futures/internal/domain/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Unrealized returns the PnL of p if it were closed at currentPrice:
// (current - entry) * size / entry, negated for shorts.
func Unrealized(p models.Position, currentPrice decimal.Decimal) decimal.Decimal {
	// positions with a non-positive entry price are rejected at open
	if !p.EntryPrice.IsPositive() {
		return decimal.Zero
	}

	raw := currentPrice.Sub(p.EntryPrice).Mul(p.Size).Div(p.EntryPrice)
	if p.Direction == models.Short {
		return raw.Neg()
	}
	return raw
}

// Realized is the PnL credited when p is closed at closePrice.
func Realized(p models.Position, closePrice decimal.Decimal) decimal.Decimal {
	return Unrealized(p, closePrice)
}

// ChangePercent is (current - initial) / initial * 100, or zero when initial is zero.
func ChangePercent(current, initial decimal.Decimal) decimal.Decimal {
	if initial.IsZero() {
		return decimal.Zero
	}
	return current.Sub(initial).Div(initial).Mul(hundred)
}

// Total sums the unrealized PnL of positions whose asset has a price in prices.
// Positions without a price are skipped.
func Total(positions []models.Position, prices map[models.Asset]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, p := range positions {
		price, ok := prices[p.Asset]
		if !ok {
			continue
		}
		total = total.Add(Unrealized(p, price))
	}
	return total
}

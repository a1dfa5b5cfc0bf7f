// Package orderbook produces a synthetic depth view around a reference price.
package orderbook

import (
	"math/rand"
	"sort"
	"sync"

	"Futures/internal/domain/models"

	"github.com/shopspring/decimal"
)

const (
	DefaultDepth  = 10
	DefaultSpread = 0.01
	maxLevelSize  = 10.0
)

type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	depth  int
	spread float64
}

func New(seed int64, depth int, spread float64) *Generator {
	if depth <= 0 {
		depth = DefaultDepth
	}
	if spread <= 0 {
		spread = DefaultSpread
	}
	return &Generator{
		rng:    rand.New(rand.NewSource(seed)),
		depth:  depth,
		spread: spread,
	}
}

// Generate returns depth bids below and depth asks above price. Bids are sorted by price
// descending, asks ascending.
func (g *Generator) Generate(asset models.Asset, price decimal.Decimal) models.OrderBook {
	base, _ := price.Float64()
	spread := base * g.spread

	g.mu.Lock()
	bids := g.levels(base-spread/2, spread)
	asks := g.levels(base+spread/2, spread)
	g.mu.Unlock()

	sort.Slice(bids, func(i, j int) bool { return bids[i].Price.GreaterThan(bids[j].Price) })
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price.LessThan(asks[j].Price) })

	return models.OrderBook{
		Asset: asset,
		Bids:  bids,
		Asks:  asks,
	}
}

func (g *Generator) levels(center, spread float64) []models.OrderBookLevel {
	res := make([]models.OrderBookLevel, 0, g.depth)
	for i := 0; i < g.depth; i++ {
		p := center + (g.rng.Float64()-0.5)*spread
		size := g.rng.Float64() * maxLevelSize
		res = append(res, models.OrderBookLevel{
			Price: decimal.NewFromFloat(p).Round(2),
			Size:  decimal.NewFromFloat(size).Round(4),
		})
	}
	return res
}

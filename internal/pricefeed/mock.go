package pricefeed

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"Futures/internal/domain/models"

	"github.com/shopspring/decimal"
)

// MockFeed moves every price by a bounded random step on each tick. The same seed always
// produces the same walk.
type MockFeed struct {
	log        *slog.Logger
	book       *Book
	rng        *rand.Rand
	interval   time.Duration
	volatility float64
}

func NewMockFeed(log *slog.Logger, book *Book, seed int64, interval time.Duration, volatility float64) *MockFeed {
	if interval <= 0 {
		interval = time.Second
	}
	if volatility <= 0 {
		volatility = 0.002
	}
	return &MockFeed{
		log:        log,
		book:       book,
		rng:        rand.New(rand.NewSource(seed)),
		interval:   interval,
		volatility: volatility,
	}
}

// Step applies one tick to every asset, starting from the mock base price when the book
// has none yet.
func (f *MockFeed) Step(ctx context.Context) {
	const op = "pricefeed.MockFeed.Step"

	for _, asset := range models.Assets() {
		price, err := f.book.Price(ctx, asset)
		if err != nil {
			info, _ := models.LookupAsset(asset)
			price = info.MockPrice
		}

		move := (f.rng.Float64()*2 - 1) * f.volatility
		next := price.Mul(decimal.NewFromFloat(1 + move)).Round(8)
		if err := f.book.Update(ctx, asset, next); err != nil {
			f.log.Warn("mock price rejected", "op", op, "asset", asset, "err", err)
		}
	}
}

func (f *MockFeed) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	f.Step(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			f.Step(ctx)
		}
	}
}

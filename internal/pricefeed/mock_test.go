package pricefeed

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"Futures/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMockFeed_StepStaysNearBase(t *testing.T) {
	ctx := context.Background()
	b := NewBook()
	f := NewMockFeed(discardLogger(), b, 1, time.Second, 0.01)

	f.Step(ctx)
	for _, asset := range models.Assets() {
		info, _ := models.LookupAsset(asset)
		p, err := b.Price(ctx, asset)
		require.NoError(t, err)

		low := info.MockPrice.Mul(decimal.NewFromFloat(0.99))
		high := info.MockPrice.Mul(decimal.NewFromFloat(1.01))
		assert.True(t, p.GreaterThanOrEqual(low) && p.LessThanOrEqual(high), "%s price %s out of range", asset, p)
	}
}

func TestMockFeed_Deterministic(t *testing.T) {
	ctx := context.Background()

	walk := func() map[models.Asset]decimal.Decimal {
		b := NewBook()
		f := NewMockFeed(discardLogger(), b, 42, time.Second, 0)
		for i := 0; i < 20; i++ {
			f.Step(ctx)
		}
		return b.Prices()
	}

	first, second := walk(), walk()
	for asset, p := range first {
		assert.True(t, p.Equal(second[asset]), asset)
		assert.True(t, p.IsPositive())
	}
}

func TestMockFeed_RunStopsOnCancel(t *testing.T) {
	b := NewBook()
	f := NewMockFeed(discardLogger(), b, 7, 5*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	require.Eventually(t, func() bool { return len(b.Quotes()) == 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("mock feed did not stop")
	}
}
